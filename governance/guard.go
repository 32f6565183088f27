package governance

import (
	"context"
	"strings"

	"github.com/Shards-inc/AiPowerHouse/core"
)

// Guard screens plain strings through a Screen for callers that do not
// build core.Request values.
type Guard struct {
	screen *Screen
}

// Guard returns a string guard backed by s.
func (s *Screen) Guard() *Guard { return &Guard{screen: s} }

// ProcessInput screens text as an outgoing prompt. A blocked input yields a
// ValidationError carrying the issues.
func (g *Guard) ProcessInput(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res := g.screen.ScreenOutgoing(core.NewRequest(input))
	if !res.Permitted {
		return "", core.NewValidationError("Request validation failed: "+strings.Join(res.Issues, "; "),
			map[string]any{"issues": res.Issues})
	}
	return res.Sanitized.Prompt, nil
}

// ProcessOutput screens text as an incoming response and returns the
// redacted content.
func (g *Guard) ProcessOutput(ctx context.Context, output string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res := g.screen.ScreenIncoming(core.Response{Content: output})
	return res.Sanitized.Content, nil
}
