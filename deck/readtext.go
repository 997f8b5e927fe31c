package deck

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ReadText extracts the visible text of every slide plus its speaker notes,
// in presentation order. It reads anything this package writes, whichever
// assembly path produced it.
func ReadText(data []byte) ([]SlideText, error) {
	arc, err := openArchive(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnreadable, err)
	}
	slides := arc.slidePartsInOrder()
	out := make([]SlideText, 0, len(slides))
	for _, name := range slides {
		partData, _ := arc.get(name)
		shapes, err := collectShapes(partData)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateUnreadable, name, err)
		}
		st := classifyShapes(shapes)
		notes, err := readSlideNotes(arc, name)
		if err != nil {
			return nil, err
		}
		st.Notes = notes
		out = append(out, st)
	}
	return out, nil
}

type shapeText struct {
	hasPh  bool
	phType string
	paras  []string
}

// collectShapes walks one slide or notes part and gathers, per shape, its
// placeholder attributes and paragraph texts in document order.
func collectShapes(data []byte) ([]shapeText, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		shapes []shapeText
		cur    *shapeText
		para   strings.Builder
		inPara bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				shapes = append(shapes, shapeText{})
				cur = &shapes[len(shapes)-1]
			case "ph":
				if cur != nil {
					cur.hasPh = true
					for _, attr := range t.Attr {
						if attr.Name.Local == "type" {
							cur.phType = attr.Value
						}
					}
				}
			case "p":
				if cur != nil && t.Name.Space == nsDrawing {
					inPara = true
					para.Reset()
				}
			case "t":
				if inPara && t.Name.Space == nsDrawing {
					inText = true
				}
			case "br":
				if inPara && t.Name.Space == nsDrawing {
					para.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "sp":
				cur = nil
			case "p":
				if inPara && cur != nil && t.Name.Space == nsDrawing {
					cur.paras = append(cur.paras, para.String())
					inPara = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return shapes, nil
}

// classifyShapes maps shapes back to slide text. The title is the title
// placeholder when one exists, else the first shape with any text. Every
// other shape contributes its paragraphs as bullets, with the plain-textbox
// bullet prefix stripped.
func classifyShapes(shapes []shapeText) SlideText {
	titleIdx := -1
	for i, s := range shapes {
		if s.hasPh && (s.phType == "title" || s.phType == "ctrTitle") {
			titleIdx = i
			break
		}
	}
	if titleIdx == -1 {
		for i, s := range shapes {
			if hasText(s.paras) {
				titleIdx = i
				break
			}
		}
	}

	var st SlideText
	for i, s := range shapes {
		if i == titleIdx {
			if len(s.paras) > 0 {
				st.Title = strings.TrimSpace(s.paras[0])
			}
			continue
		}
		for _, p := range s.paras {
			p = strings.TrimSpace(strings.TrimPrefix(p, "• "))
			if p != "" {
				st.Bullets = append(st.Bullets, p)
			}
		}
	}
	return st
}

func hasText(paras []string) bool {
	for _, p := range paras {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

// readSlideNotes follows the slide's notes relationship and joins the notes
// body paragraphs back into one string.
func readSlideNotes(arc *archive, slideName string) (string, error) {
	relsData, ok := arc.get(relsPartFor(slideName))
	if !ok {
		return "", nil
	}
	rels, err := parseRelationships(relsData)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateUnreadable, slideName, err)
	}
	rel := rels.findByType(relTypeNotesSlide)
	if rel == nil {
		return "", nil
	}
	data, ok := arc.get(resolveTarget(slideName, rel.Target))
	if !ok {
		return "", nil
	}
	shapes, err := collectShapes(data)
	if err != nil {
		return "", fmt.Errorf("%w: notes for %s: %v", ErrTemplateUnreadable, slideName, err)
	}
	for _, s := range shapes {
		if s.hasPh && s.phType == "body" {
			return strings.TrimSpace(strings.Join(s.paras, "\n")), nil
		}
	}
	return "", nil
}
