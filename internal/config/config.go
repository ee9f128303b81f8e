// Package config loads the deployment-time chain configuration. Limits
// are set once at deployment and are not runtime-mutable; the core treats
// the loaded values as immutable for the lifetime of the ledger.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/hughlang/groupledger/internal/ledger"
)

// schema constrains the config file. Unknown fields are rejected, all
// limits must be positive, and omitted fields take the defaults. The
// upper bounds exist so a typo cannot configure effectively unbounded
// replicated storage.
const schema = `close({
	maxGroupSize:      int & >0 & <=1048576 | *1024
	maxNameSize:       int & >0 & <=4096 | *64
	maxGroupsPerOwner: int & >0 & <=1024 | *16
})`

// Load reads and validates a CUE config file, returning the configured
// limits. A missing path is an error; use Default for a config-less
// deployment.
func Load(path string) (ledger.Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ledger.Limits{}, fmt.Errorf("read config: %w", err)
	}
	limits, err := Parse(data)
	if err != nil {
		return ledger.Limits{}, fmt.Errorf("config %s: %w", path, err)
	}
	return limits, nil
}

// Parse validates raw CUE config bytes against the schema.
func Parse(data []byte) (ledger.Limits, error) {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema)
	if err := schemaVal.Err(); err != nil {
		return ledger.Limits{}, fmt.Errorf("compile schema: %w", err)
	}

	fileVal := ctx.CompileBytes(data)
	if err := fileVal.Err(); err != nil {
		return ledger.Limits{}, fmt.Errorf("parse: %w", err)
	}

	merged := schemaVal.Unify(fileVal)
	if err := merged.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return ledger.Limits{}, fmt.Errorf("validate: %w", err)
	}

	var out struct {
		MaxGroupSize      uint32 `json:"maxGroupSize"`
		MaxNameSize       uint32 `json:"maxNameSize"`
		MaxGroupsPerOwner uint32 `json:"maxGroupsPerOwner"`
	}
	if err := merged.Decode(&out); err != nil {
		return ledger.Limits{}, fmt.Errorf("decode: %w", err)
	}

	return ledger.Limits{
		MaxGroupSize:      out.MaxGroupSize,
		MaxNameSize:       out.MaxNameSize,
		MaxGroupsPerOwner: out.MaxGroupsPerOwner,
	}, nil
}

// Default returns the limits used when no config file is supplied.
func Default() ledger.Limits {
	return ledger.DefaultLimits
}
