package outline

import (
	"fmt"
	"strings"

	"presentify/config"
)

// Prompt is the message pair sent to a provider.
type Prompt struct {
	System string
	User   string
}

const outlineSystemPrompt = "You turn raw content into a concise slide outline and reply with JSON only, no prose and no code fences."

// BuildPrompt assembles the outline request. The slide-count range is a hint
// for the model; the hard ceiling is enforced when the reply is parsed.
func BuildPrompt(text, guidance string, limits config.Limits, withNotes bool) Prompt {
	var sb strings.Builder
	sb.WriteString("Create a slide outline for the content below.\n")
	sb.WriteString("Rules:\n")
	sb.WriteString(fmt.Sprintf("- Aim for %d to %d slides.\n", limits.PromptMinSlides, limits.PromptMaxSlides))
	sb.WriteString(fmt.Sprintf("- At most %d short bullets per slide.\n", limits.MaxBullets))
	sb.WriteString("- Slide titles stay short, eight words or fewer.\n")
	if withNotes {
		sb.WriteString("- Write brief speaker notes, one to three sentences, in each slide's notes field.\n")
	} else {
		sb.WriteString("- Leave every notes field empty.\n")
	}
	if guidance != "" {
		sb.WriteString(fmt.Sprintf("- Follow this guidance: %s\n", guidance))
	}
	sb.WriteString("Return ONLY valid JSON with this structure:\n")
	sb.WriteString(`{"slides":[{"title":"string","bullets":["string"],"notes":"string"}]}`)
	sb.WriteString("\n\nContent:\n")
	sb.WriteString(text)

	return Prompt{
		System: outlineSystemPrompt,
		User:   sb.String(),
	}
}
