package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/memochat/memochat/internal/config"
	"github.com/memochat/memochat/internal/funding"
	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/ledger"
	"github.com/memochat/memochat/internal/logging"
	"github.com/memochat/memochat/internal/message"
)

type testEnv struct {
	app    *fiber.App
	ledger ledger.Client
	sender *identity.Sender
}

func newTestEnv(t *testing.T, cache *redis.Client) testEnv {
	t.Helper()
	sender, err := identity.GenerateSender()
	if err != nil {
		t.Fatalf("generate sender: %v", err)
	}
	other, err := identity.GenerateSender()
	if err != nil {
		t.Fatalf("generate recipient: %v", err)
	}
	led := ledger.NewInMemory()

	app := fiber.New()
	_, err = Setup(app, Deps{
		Cfg: config.Config{
			AppEnv:           "test",
			FundingPolicy:    "startup",
			FundingThreshold: funding.DefaultThreshold,
			FundingTopUp:     funding.DefaultTopUp,
			SolanaCluster:    "devnet",
			ExplorerBaseURL:  "https://explorer.solana.com",
			IdempotencyTTL:   time.Minute,
			SendRateLimit:    100,
		},
		Cache:      cache,
		Logger:     logging.Discard(),
		Ledger:     led,
		Identities: identity.NewStaticProvider(sender, identity.Recipient{Address: other.PublicKey()}),
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return testEnv{app: app, ledger: led, sender: sender}
}

func (e testEnv) do(t *testing.T, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	payload, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(payload, &decoded)
	return resp.StatusCode, decoded
}

func TestMountAndSend(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodPost, "/api/v1/session/mount", "")
	if status != fiber.StatusOK {
		t.Fatalf("mount: expected 200 got %d (%v)", status, body)
	}
	if body["topped_up"] != true {
		t.Fatalf("expected a top up on first mount, got %v", body)
	}

	status, body = env.do(t, fiber.MethodPost, "/api/v1/messages", `{"text":"hello"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("send: expected 201 got %d (%v)", status, body)
	}
	addr := env.sender.Address()
	if body["display_text"] != addr[:4]+"..."+addr[len(addr)-4:]+": hello" {
		t.Fatalf("unexpected display text %v", body["display_text"])
	}
	if ref, _ := body["proof_reference"].(string); !strings.HasSuffix(ref, "?cluster=devnet") {
		t.Fatalf("unexpected proof reference %v", body["proof_reference"])
	}

	status, body = env.do(t, fiber.MethodGet, "/api/v1/messages", "")
	if status != fiber.StatusOK {
		t.Fatalf("list: expected 200 got %d", status)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %v", body["messages"])
	}
}

func TestSendFailureStatuses(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodPost, "/api/v1/messages", `{"text":"no funds"}`)
	if status != fiber.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d (%v)", status, body)
	}
	if body["title"] != "Insufficient Funds" || body["draft"] != "no funds" {
		t.Fatalf("unexpected insufficient funds body %v", body)
	}

	status, _ = env.do(t, fiber.MethodPost, "/api/v1/messages", `{"text":""}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("empty text: expected 400 got %d", status)
	}
	status, _ = env.do(t, fiber.MethodPost, "/api/v1/messages", `{"text":"   "}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("blank text: expected 400 got %d", status)
	}

	long := strings.Repeat("a", message.MaxAnnotationBytes+1)
	status, _ = env.do(t, fiber.MethodPost, "/api/v1/messages", `{"text":"`+long+`"}`)
	if status != fiber.StatusRequestEntityTooLarge {
		t.Fatalf("oversize: expected 413 got %d", status)
	}

	ledger.SeedBalance(env.ledger, env.sender.PublicKey(), funding.DefaultTopUp)
	ledger.FailNextSubmit(env.ledger, errors.New("blockhash not found"))
	status, body = env.do(t, fiber.MethodPost, "/api/v1/messages", `{"text":"try again"}`)
	if status != fiber.StatusBadGateway {
		t.Fatalf("generic failure: expected 502 got %d", status)
	}
	if body["message"] != "Failed to send message. Please try again." || body["draft"] != "try again" {
		t.Fatalf("unexpected failure body %v", body)
	}

	_, body = env.do(t, fiber.MethodGet, "/api/v1/messages", "")
	if msgs, _ := body["messages"].([]any); len(msgs) != 0 {
		t.Fatalf("failures must not add messages, got %v", msgs)
	}
}

func TestSendIsIdempotent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	env := newTestEnv(t, cache)
	ledger.SeedBalance(env.ledger, env.sender.PublicKey(), funding.DefaultTopUp)

	_, first := env.do(t, fiber.MethodPost, "/api/v1/messages", `{"text":"once"}`, "Idempotency-Key", "k-1")
	status, second := env.do(t, fiber.MethodPost, "/api/v1/messages", `{"text":"once"}`, "Idempotency-Key", "k-1")
	if status != fiber.StatusCreated || first["signature"] != second["signature"] {
		t.Fatalf("expected replayed response, got %d %v", status, second)
	}
	if len(ledger.Postings(env.ledger)) != 1 {
		t.Fatalf("expected a single ledger posting, got %d", len(ledger.Postings(env.ledger)))
	}
}

func TestWalletAndFunding(t *testing.T) {
	env := newTestEnv(t, nil)
	ledger.SeedBalance(env.ledger, env.sender.PublicKey(), 42_000)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/wallet", "")
	if status != fiber.StatusOK {
		t.Fatalf("wallet: expected 200 got %d", status)
	}
	if body["sender"] != env.sender.Address() || body["balance_lamports"] != float64(42_000) {
		t.Fatalf("unexpected wallet body %v", body)
	}

	status, body = env.do(t, fiber.MethodGet, "/api/v1/funding", "")
	if status != fiber.StatusOK {
		t.Fatalf("funding: expected 200 got %d", status)
	}
	if body["below_minimum"] != true || body["topped_up"] != false {
		t.Fatalf("funding status must not top up, got %v", body)
	}
	if ledger.FundsRequests(env.ledger) != 0 {
		t.Fatal("funding status must be side-effect free")
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	status, body := env.do(t, fiber.MethodGet, "/healthz", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d (%v)", status, body)
	}
	checks, _ := body["status"].(map[string]any)
	if checks["postgres"] != statusDisabled || checks["rpc"] != statusDisabled {
		t.Fatalf("unexpected checks %v", checks)
	}
}

func TestSetupRequiresInfraInProduction(t *testing.T) {
	_, err := Setup(fiber.New(), Deps{
		Cfg:        config.Config{AppEnv: "production", FundingPolicy: "startup", FundingTopUp: 1},
		Logger:     logging.Discard(),
		Ledger:     ledger.NewInMemory(),
		Identities: identity.NewStaticProvider(nil, identity.Recipient{}),
	})
	if err == nil {
		t.Fatal("expected error without database in production")
	}
}
