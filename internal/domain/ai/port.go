package ai

import (
	"context"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

// Client asks a language model for fix advice on a parsed report.
type Client interface {
	Advise(ctx context.Context, pkg string, diags []checks.Diagnostic) (string, error)
	ModelName() string
}
