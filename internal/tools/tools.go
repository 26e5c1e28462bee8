// Package tools implements the reconnaissance and control operations
// exposed by deckctl. Every subprocess invocation goes through the
// whitelist gate; no tool in this package builds a shell string or calls
// exec directly.
package tools

import (
	"context"
	"time"

	"github.com/dedsec-deck/deckd/internal/gate"
)

// Runner is the execution seam between tools and the whitelist gate.
// *gate.Gate satisfies it; tests substitute a stub.
type Runner interface {
	Execute(ctx context.Context, name string, args []string, timeout time.Duration) (gate.Result, error)
}
