package outline

import (
	"math"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"presentify/config"
)

// section is an intermediate chunk of the input text.
type section struct {
	title   string
	bullets []string
	// headed marks sections opened by a Markdown heading; such sections
	// absorb the paragraphs that follow them until the next heading.
	headed bool
}

// Build turns free-form text into an outline without any model call. It is a
// pure function of its inputs, never fails, and always returns between
// MinSlides and MaxSlides slides; empty input yields a single placeholder.
func Build(input string, limits config.Limits) Outline {
	limits = normalizeLimits(limits)

	sections := splitSections(input)
	sections = splitOversized(sections, limits)
	sections = mergeToCeiling(sections, limits.MaxSlides)
	sections = growToFloor(sections, limits.MinSlides)

	out := sectionsToOutline(sections, limits)
	if len(out) > limits.MaxSlides {
		out = out[:limits.MaxSlides]
	}
	if len(out) == 0 {
		out = Outline{{Title: "Presentation"}}
	}
	return out
}

// normalizeLimits guards direct library callers that pass zero values.
func normalizeLimits(l config.Limits) config.Limits {
	def := config.Default().Limits
	if l.MaxSlides < 1 {
		l.MaxSlides = def.MaxSlides
	}
	if l.MinSlides < 1 {
		l.MinSlides = def.MinSlides
	}
	if l.MinSlides > l.MaxSlides {
		l.MinSlides = l.MaxSlides
	}
	if l.MaxBullets < 1 {
		l.MaxBullets = def.MaxBullets
	}
	if l.MaxBulletRunes < 8 {
		l.MaxBulletRunes = def.MaxBulletRunes
	}
	return l
}

// splitSections chunks the input at heading and blank-line boundaries. A
// heading owns every block until the next heading or thematic break; outside
// headings each paragraph opens its own section titled by its first line.
// List items and code lines feed the current section as bullets.
func splitSections(input string) []section {
	src := []byte(input)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(src))

	var sections []section
	cur := -1

	open := func(title string, headed bool) {
		sections = append(sections, section{title: title, headed: headed})
		cur = len(sections) - 1
	}
	addBullets := func(lines []string) {
		if cur < 0 {
			open("", false)
		}
		sections[cur].bullets = append(sections[cur].bullets, lines...)
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			text := strings.Join(blockLines(node, src), " ")
			if node.Level <= 3 {
				open(deriveTitle(text), true)
			} else if text != "" {
				addBullets([]string{cleanInline(text)})
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.TextBlock:
			lines := blockLines(n, src)
			if len(lines) == 0 {
				return ast.WalkSkipChildren, nil
			}
			if insideListItem(n) {
				addBullets(lines)
				return ast.WalkSkipChildren, nil
			}
			if cur >= 0 && sections[cur].headed {
				sections[cur].bullets = append(sections[cur].bullets, lines...)
			} else {
				open(deriveTitle(lines[0]), false)
				sections[cur].bullets = append(sections[cur].bullets, lines[1:]...)
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			addBullets(blockLines(n, src))
			return ast.WalkSkipChildren, nil

		case *ast.ThematicBreak:
			cur = -1
			return ast.WalkContinue, nil
		}
		return ast.WalkContinue, nil
	})

	return sections
}

// blockLines returns the trimmed non-empty source lines of a block node,
// cleaned of the inline markers we do not render.
func blockLines(n ast.Node, src []byte) []string {
	var lines []string
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		line := cleanInline(strings.TrimSpace(string(segs.At(i).Value(src))))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func insideListItem(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindListItem {
			return true
		}
	}
	return false
}

// cleanInline drops emphasis and code markers that would read as noise on a slide.
func cleanInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "`", "")
	return strings.TrimSpace(s)
}

// deriveTitle shapes a text line into a slide title, hard-capped at 60 runes.
func deriveTitle(s string) string {
	return clipRunes(cleanInline(s), 60, "")
}

const contTitleSuffix = " (cont.)"

// splitOversized carves sections with too many bullets into continuation
// sections while the slide ceiling leaves room. Bullets that do not fit are
// dropped later by the per-slide cap.
func splitOversized(sections []section, limits config.Limits) []section {
	budget := limits.MaxSlides - len(sections)
	if budget <= 0 {
		return sections
	}
	out := make([]section, 0, len(sections))
	for _, sec := range sections {
		if len(sec.bullets) <= limits.MaxBullets {
			out = append(out, sec)
			continue
		}
		chunks := chunkStrings(sec.bullets, limits.MaxBullets)
		keep := len(chunks)
		if keep > 1+budget {
			keep = 1 + budget
		}
		for j := 0; j < keep; j++ {
			title := sec.title
			if j > 0 {
				title = sec.title + contTitleSuffix
			}
			out = append(out, section{title: title, bullets: chunks[j], headed: sec.headed})
		}
		budget -= keep - 1
	}
	return out
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for len(items) > size {
		chunks = append(chunks, items[:size])
		items = items[size:]
	}
	return append(chunks, items)
}

// mergeToCeiling folds the lightest adjacent pair until the count fits.
func mergeToCeiling(sections []section, maxSlides int) []section {
	for len(sections) > maxSlides {
		best, bestWeight := 0, math.MaxInt
		for i := 0; i+1 < len(sections); i++ {
			w := len(sections[i].bullets) + len(sections[i+1].bullets)
			if w < bestWeight {
				best, bestWeight = i, w
			}
		}
		a, b := sections[best], sections[best+1]
		merged := section{title: a.title, headed: a.headed || b.headed}
		merged.bullets = append(merged.bullets, a.bullets...)
		if t := strings.TrimSpace(b.title); t != "" && !strings.HasSuffix(b.title, contTitleSuffix) {
			merged.bullets = append(merged.bullets, t)
		}
		merged.bullets = append(merged.bullets, b.bullets...)

		rest := append([]section{merged}, sections[best+2:]...)
		sections = append(sections[:best], rest...)
	}
	return sections
}

// growToFloor splits the heaviest sections until the minimum count is met,
// resorting to sentence boundaries when no section has bullets to spare.
func growToFloor(sections []section, minSlides int) []section {
	for len(sections) > 0 && len(sections) < minSlides {
		idx, weight := -1, 1
		for i := range sections {
			if w := len(sections[i].bullets); w > weight {
				idx, weight = i, w
			}
		}
		if idx == -1 {
			if !explodeSentences(sections) {
				break
			}
			continue
		}
		head := sections[idx]
		half := (len(head.bullets) + 1) / 2
		tail := section{title: head.title + contTitleSuffix, bullets: head.bullets[half:], headed: head.headed}
		sections[idx].bullets = head.bullets[:half]

		rest := append([]section{tail}, sections[idx+1:]...)
		sections = append(sections[:idx+1], rest...)
	}
	return sections
}

// explodeSentences rewrites the first thin section whose text holds several
// sentences, so growToFloor has something to split.
func explodeSentences(sections []section) bool {
	for i := range sections {
		switch len(sections[i].bullets) {
		case 0:
			parts := splitSentences(sections[i].title)
			if len(parts) > 1 {
				sections[i].title = deriveTitle(parts[0])
				sections[i].bullets = parts[1:]
				return true
			}
		case 1:
			parts := splitSentences(sections[i].bullets[0])
			if len(parts) > 1 {
				sections[i].bullets = parts
				return true
			}
		}
	}
	return false
}

// splitSentences cuts at sentence-ending punctuation followed by whitespace
// or end of text. CJK full stops count as terminators too.
func splitSentences(s string) []string {
	runes := []rune(s)
	var parts []string
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?', '。', '！', '？':
			end := i + 1
			for end < len(runes) && (runes[end] == '"' || runes[end] == '\'' || runes[end] == ')') {
				end++
			}
			if end >= len(runes) || unicode.IsSpace(runes[end]) {
				if part := strings.TrimSpace(string(runes[start:end])); part != "" {
					parts = append(parts, part)
				}
				start = end
				i = end - 1
			}
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

// sectionsToOutline applies the per-slide caps and drops empty husks.
func sectionsToOutline(sections []section, limits config.Limits) Outline {
	out := make(Outline, 0, len(sections))
	for _, sec := range sections {
		title := strings.TrimSpace(sec.title)
		bullets := sec.bullets
		if title == "" && len(bullets) > 0 {
			title = deriveTitle(bullets[0])
			bullets = bullets[1:]
		}
		if title == "" && len(bullets) == 0 {
			continue
		}
		if title == "" {
			title = "Slide"
		}
		spec := SlideSpec{Title: title}
		for _, b := range bullets {
			if len(spec.Bullets) == limits.MaxBullets {
				break
			}
			b = strings.TrimSpace(b)
			if b == "" {
				continue
			}
			spec.Bullets = append(spec.Bullets, clipRunes(b, limits.MaxBulletRunes, "..."))
		}
		out = append(out, spec)
	}
	return out
}
