package infra

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/memochat/memochat/internal/config"
	"github.com/memochat/memochat/internal/ledger"
)

// NewLedgerClient builds the ledger backend selected by LEDGER_BACKEND. An
// unhealthy RPC node is logged but not fatal: the cluster may recover before
// the first send.
func NewLedgerClient(ctx context.Context, cfg config.Config, logger *slog.Logger) (ledger.Client, error) {
	switch cfg.LedgerBackend {
	case config.LedgerMemory:
		logger.Warn("using in-memory ledger; nothing is written to a cluster")
		return ledger.NewInMemory(), nil
	case config.LedgerRPC, "":
		client := ledger.NewRPCClient(ledger.RPCConfig{
			Endpoint:   cfg.SolanaRPCURL,
			Cluster:    cfg.SolanaCluster,
			RateLimit:  cfg.RPCRateLimit,
			Commitment: rpc.CommitmentConfirmed,
		}, logger)
		if err := client.Health(ctx); err != nil {
			logger.Warn("solana rpc health check failed", "endpoint", cfg.SolanaRPCURL, "error", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}
