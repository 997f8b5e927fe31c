package outline

import (
	"encoding/json"
	"fmt"
	"strings"

	"presentify/config"
)

// wire format the providers are asked to produce.
type outlineEnvelope struct {
	Slides []wireSlide `json:"slides"`
}

type wireSlide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	Notes   string   `json:"notes"`
}

// extractJSON strips the Markdown code fences models like to wrap JSON in.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if idx := strings.Index(trimmed, "```json"); idx != -1 {
		rest := trimmed[idx+7:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(trimmed, "```"); idx != -1 {
		rest := trimmed[idx+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return trimmed
}

// ParseResponse turns a provider reply into a normalized Outline. Any reply
// that cannot be normalized into 1..MaxSlides usable slides reports
// ErrProviderResponseInvalid.
func ParseResponse(raw string, limits config.Limits, withNotes bool) (Outline, error) {
	limits = normalizeLimits(limits)

	var env outlineEnvelope
	if err := json.Unmarshal([]byte(extractJSON(raw)), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderResponseInvalid, err)
	}

	out := make(Outline, 0, len(env.Slides))
	for _, s := range env.Slides {
		spec := SlideSpec{Title: strings.TrimSpace(s.Title)}
		for _, b := range s.Bullets {
			b = strings.TrimSpace(b)
			if b == "" {
				continue
			}
			if len(spec.Bullets) == limits.MaxBullets {
				break
			}
			spec.Bullets = append(spec.Bullets, clipRunes(b, limits.MaxBulletRunes, "..."))
		}
		if withNotes {
			spec.Notes = strings.TrimSpace(s.Notes)
		}
		if spec.Title == "" && len(spec.Bullets) == 0 {
			continue
		}
		if spec.Title == "" {
			spec.Title = "Slide"
		}
		out = append(out, spec)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable slides", ErrProviderResponseInvalid)
	}
	if len(out) > limits.MaxSlides {
		return nil, fmt.Errorf("%w: %d slides exceeds the ceiling of %d", ErrProviderResponseInvalid, len(out), limits.MaxSlides)
	}
	return out, nil
}
