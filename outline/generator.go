package outline

import (
	"context"
	"fmt"
	"time"

	"presentify/config"
)

// SourceFallback is the outline source reported when the deterministic
// builder produced the result; otherwise the source is the provider name.
const SourceFallback = "fallback"

// Request is one outline generation request.
type Request struct {
	Text      string
	Guidance  string
	Settings  Settings
	WithNotes bool
}

// Generator produces outlines, preferring the requested provider and falling
// back to the deterministic builder. It is stateless across requests and safe
// for concurrent use.
type Generator struct {
	Limits  config.Limits
	Timeout time.Duration

	// NewClient builds the provider client; tests substitute it.
	NewClient func(Settings) (LLMClient, error)
}

// NewGenerator wires a generator from loaded configuration.
func NewGenerator(cfg config.Config) *Generator {
	return &Generator{
		Limits:    cfg.Limits,
		Timeout:   cfg.LLM.Timeout(),
		NewClient: NewClient,
	}
}

// Generate never fails: every provider problem collapses into the fallback
// builder. The returned source names where the outline came from, and the
// returned error is the absorbed provider failure, reported for logging only.
// Exactly one provider attempt is made per request; there are no retries.
func (g *Generator) Generate(ctx context.Context, req Request) (Outline, string, error) {
	client, err := g.newClient(req.Settings)
	if err != nil {
		return Build(req.Text, g.Limits), SourceFallback, err
	}
	if client == nil {
		return Build(req.Text, g.Limits), SourceFallback, nil
	}

	prompt := BuildPrompt(req.Text, req.Guidance, g.Limits, req.WithNotes)

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = config.Default().LLM.Timeout()
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := client.Complete(cctx, prompt)
	if err != nil {
		return Build(req.Text, g.Limits), SourceFallback, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	out, err := ParseResponse(raw, g.Limits, req.WithNotes)
	if err != nil {
		return Build(req.Text, g.Limits), SourceFallback, err
	}
	return out, req.Settings.Provider, nil
}

func (g *Generator) newClient(s Settings) (LLMClient, error) {
	if g.NewClient != nil {
		return g.NewClient(s)
	}
	return NewClient(s)
}
