package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// RPCConfig holds configuration for the JSON-RPC ledger client.
type RPCConfig struct {
	// Endpoint is the cluster RPC URL. Default: rpc.DevNet_RPC.
	Endpoint string
	// Cluster is the cluster name (devnet, testnet, mainnet-beta). Default: devnet.
	Cluster string
	// RateLimit is the number of RPC calls per second. Default: 5.
	RateLimit int
	// PollInterval is the delay between signature status polls. Default: 500ms.
	PollInterval time.Duration
	// Commitment is the level a signature must reach to count as confirmed.
	// Default: confirmed.
	Commitment rpc.CommitmentType
}

func (c RPCConfig) withDefaults() RPCConfig {
	if c.Endpoint == "" {
		c.Endpoint = rpc.DevNet_RPC
	}
	if c.Cluster == "" {
		c.Cluster = ClusterDevnet
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.Commitment == "" {
		c.Commitment = rpc.CommitmentConfirmed
	}
	return c
}

// RPCClient talks to a single Solana cluster over JSON-RPC.
type RPCClient struct {
	cfg     RPCConfig
	rpc     *rpc.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRPCClient builds a rate-limited client for the configured endpoint.
func NewRPCClient(cfg RPCConfig, logger *slog.Logger) *RPCClient {
	cfg = cfg.withDefaults()
	return &RPCClient{
		cfg:     cfg,
		rpc:     rpc.New(cfg.Endpoint),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
		logger:  logger,
	}
}

// Cluster returns the configured cluster name.
func (c *RPCClient) Cluster() string {
	return c.cfg.Cluster
}

// Health reports whether the RPC node considers itself healthy.
func (c *RPCClient) Health(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	status, err := c.rpc.GetHealth(ctx)
	if err != nil {
		return err
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("rpc node unhealthy: %s", status)
	}
	return nil
}

// Balance returns the lamport balance of the address.
func (c *RPCClient) Balance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	res, err := c.rpc.GetBalance(ctx, address, c.cfg.Commitment)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return res.Value, nil
}

// RequestFunds asks the cluster faucet to airdrop lamports to the address.
func (c *RPCClient) RequestFunds(ctx context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error) {
	if !HasFaucet(c.cfg.Cluster) {
		return solana.Signature{}, ErrFaucetUnavailable
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	sig, err := c.rpc.RequestAirdrop(ctx, address, lamports, c.cfg.Commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("request airdrop: %w", err)
	}
	return sig, nil
}

// AwaitConfirmation polls the signature status until it reaches the configured
// commitment, lands with an error, or ctx is done.
func (c *RPCClient) AwaitConfirmation(ctx context.Context, signature solana.Signature) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		res, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			return fmt.Errorf("get signature status: %w", err)
		}
		if len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
			}
			if c.reached(status.ConfirmationStatus) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *RPCClient) reached(status rpc.ConfirmationStatusType) bool {
	switch c.cfg.Commitment {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return status != ""
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}

// Submit compiles the instructions into one transaction against the latest
// blockhash, signs it and sends it. The first signer pays the fee.
func (c *RPCClient) Submit(ctx context.Context, instructions []solana.Instruction, signers ...Signer) (solana.Signature, error) {
	if len(signers) == 0 {
		return solana.Signature{}, ErrNoSigners
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	latest, err := c.rpc.GetLatestBlockhash(ctx, c.cfg.Commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := compile(instructions, latest.Value.Blockhash, signers)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	// Preflight must simulate against a bank that knows the blockhash.
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.cfg.Commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("transaction submitted", "signature", sig.String(), "payer", signers[0].PublicKey().String())
	}
	return sig, nil
}
