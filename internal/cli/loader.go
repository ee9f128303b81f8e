package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hughlang/groupledger/internal/config"
	"github.com/hughlang/groupledger/internal/host"
	"github.com/hughlang/groupledger/internal/ledger"
)

// resolveLimits loads deployment limits from the config file at path, or
// returns the schema defaults when path is empty.
func resolveLimits(path string) (ledger.Limits, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openNode opens the ledger at dbPath with limits from configPath. The
// open replays and verifies the whole log, so a divergent database fails
// here rather than midway through a command.
func openNode(ctx context.Context, dbPath, configPath string) (*host.Node, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", dbPath), err)
	}

	limits, err := resolveLimits(configPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	node, err := host.Open(ctx, dbPath, limits, nil)
	if err != nil {
		var div *host.DivergenceError
		if errors.As(err, &div) {
			return nil, WrapExitError(ExitFailure, "log verification failed", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return node, nil
}
