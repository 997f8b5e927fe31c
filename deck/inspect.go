package deck

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

var layoutPartRe = regexp.MustCompile(`^ppt/slideLayouts/slideLayout(\d+)\.xml$`)

// Fallback media types for template packages whose [Content_Types].xml does
// not declare a default for an image extension.
var imageTypeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".emf":  "image/x-emf",
	".wmf":  "image/x-wmf",
}

// Inspect builds the asset inventory of an uploaded template. A nil or empty
// upload yields an empty inventory and no error; the assembler then takes
// the blank-deck path. Uploads above maxBytes (when positive) or that do not
// open as a presentation container report ErrTemplateUnreadable. The input
// bytes are never mutated.
func Inspect(data []byte, maxBytes int64) (Inventory, error) {
	if len(data) == 0 {
		return Inventory{}, nil
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Inventory{}, fmt.Errorf("%w: template is %d bytes, cap is %d", ErrTemplateUnreadable, len(data), maxBytes)
	}

	arc, err := openArchive(data)
	if err != nil {
		return Inventory{}, fmt.Errorf("%w: %v", ErrTemplateUnreadable, err)
	}
	if _, ok := arc.get(presentationPart); !ok {
		return Inventory{}, fmt.Errorf("%w: %s missing, not a presentation", ErrTemplateUnreadable, presentationPart)
	}
	types, err := parseContentTypes(arc)
	if err != nil {
		return Inventory{}, fmt.Errorf("%w: %v", ErrTemplateUnreadable, err)
	}

	return Inventory{
		Layouts: inspectLayouts(arc),
		Images:  inspectImages(arc, types),
	}, nil
}

// inspectLayouts scans every slideLayout part in numeric order.
func inspectLayouts(arc *archive) []Layout {
	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, p := range arc.parts {
		m := layoutPartRe.FindStringSubmatch(p.name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, name: p.name})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	var layouts []Layout
	for _, f := range found {
		data, _ := arc.get(f.name)
		layouts = append(layouts, scanLayout(f.name, data))
	}
	return layouts
}

// scanLayout walks one layout's XML tokens and records the first placeholder
// of each capability. The charset reader keeps non-UTF-8 template parts from
// aborting the scan.
func scanLayout(partName string, data []byte) Layout {
	layout := Layout{Path: partName}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "cSld":
			for _, a := range se.Attr {
				if a.Name.Local == "name" {
					layout.Name = a.Value
				}
			}
		case "ph":
			var typ, idx string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "type":
					typ = a.Value
				case "idx":
					idx = a.Value
				}
			}
			ph := &Placeholder{Type: typ, Idx: idx}
			switch typ {
			case "title", "ctrTitle":
				if layout.Title == nil {
					layout.Title = ph
				}
			case "body", "obj", "":
				if layout.Body == nil {
					layout.Body = ph
				}
			case "pic":
				if layout.Picture == nil {
					layout.Picture = ph
				}
			}
		}
	}

	if layout.Name == "" {
		layout.Name = strings.TrimSuffix(path.Base(partName), ".xml")
	}
	return layout
}

// inspectImages collects every media part with an image content type, in
// archive encounter order.
func inspectImages(arc *archive, types *contentTypes) []Image {
	var images []Image
	for _, p := range arc.parts {
		if !strings.HasPrefix(p.name, "ppt/media/") {
			continue
		}
		ct := types.partType(p.name)
		if ct == "" {
			ct = imageTypeByExt[strings.ToLower(path.Ext(p.name))]
		}
		if !strings.HasPrefix(ct, "image/") {
			continue
		}
		images = append(images, Image{Path: p.name, ContentType: ct, Data: p.data})
	}
	return images
}
