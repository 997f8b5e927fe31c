package outline

import (
	"context"
	"sync/atomic"
	"time"
)

// MockLLM is a stand-in client for local runs and tests. It never touches the
// network; behavior is controlled through its fields.
type MockLLM struct {
	Response string        // canned reply; a small outline document when empty
	Err      error         // returned verbatim when set
	Delay    time.Duration // simulated latency, interruptible by ctx

	calls atomic.Int64
}

// Calls reports how many times Complete ran.
func (m *MockLLM) Calls() int64 { return m.calls.Load() }

func (m *MockLLM) Complete(ctx context.Context, _ Prompt) (string, error) {
	m.calls.Add(1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return `{"slides":[` +
		`{"title":"Overview","bullets":["First point","Second point"]},` +
		`{"title":"Details","bullets":["Supporting evidence","Numbers that matter"],"notes":"Slow down here."},` +
		`{"title":"Wrap-up","bullets":["Action items"]}]}`, nil
}
