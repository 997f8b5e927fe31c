package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Well-known part names and namespaces of the pptx container.
const (
	contentTypesPart     = "[Content_Types].xml"
	presentationPart     = "ppt/presentation.xml"
	presentationRelsPart = "ppt/_rels/presentation.xml.rels"
	notesMasterPart      = "ppt/notesMasters/notesMaster1.xml"
	notesThemePart       = "ppt/theme/themeNotes.xml"

	nsDrawing      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsDocRels      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPresentation = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsPackageRels  = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Relationship types used by the parts this package reads and writes.
const (
	relTypeSlide       = nsDocRels + "/slide"
	relTypeSlideLayout = nsDocRels + "/slideLayout"
	relTypeNotesSlide  = nsDocRels + "/notesSlide"
	relTypeNotesMaster = nsDocRels + "/notesMaster"
	relTypeImage       = nsDocRels + "/image"
	relTypeTheme       = nsDocRels + "/theme"
)

// Content types for the parts this package adds or rewrites.
const (
	ctPresentationMain = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctTemplateMain     = "application/vnd.openxmlformats-officedocument.presentationml.template.main+xml"
	ctSlideshowMain    = "application/vnd.openxmlformats-officedocument.presentationml.slideshow.main+xml"
	ctSlide            = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctNotesSlide       = "application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"
	ctNotesMaster      = "application/vnd.openxmlformats-officedocument.presentationml.notesMaster+xml"
	ctTheme            = "application/vnd.openxmlformats-officedocument.theme+xml"
)

const xmlProlog = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// archive is an in-memory pptx container. Part order is preserved across a
// read-modify-write cycle so output stays deterministic.
type archive struct {
	parts []*part
	index map[string]*part
}

type part struct {
	name string
	data []byte
}

func openArchive(data []byte) (*archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	arc := &archive{index: make(map[string]*part)}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		arc.put(f.Name, body)
	}
	return arc, nil
}

func (a *archive) get(name string) ([]byte, bool) {
	p, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return p.data, true
}

// put replaces an existing part in place or appends a new one.
func (a *archive) put(name string, data []byte) {
	if p, ok := a.index[name]; ok {
		p.data = data
		return
	}
	p := &part{name: name, data: data}
	a.parts = append(a.parts, p)
	a.index[name] = p
}

// deletePrefix drops every part whose name starts with one of the prefixes.
func (a *archive) deletePrefix(prefixes ...string) {
	kept := a.parts[:0]
	for _, p := range a.parts {
		drop := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(p.name, prefix) {
				drop = true
				break
			}
		}
		if drop {
			delete(a.index, p.name)
		} else {
			kept = append(kept, p)
		}
	}
	a.parts = kept
}

// bytes serializes the archive back into a zip container.
func (a *archive) bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range a.parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// slidePartsInOrder lists the slide parts sorted by their number, which is
// the presentation order for every deck this package produces.
func (a *archive) slidePartsInOrder() []string {
	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, p := range a.parts {
		m := slidePartRe.FindStringSubmatch(p.name)
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
	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names
}

// relsPartFor returns the relationship part name for a given part, e.g.
// ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func relsPartFor(name string) string {
	return path.Join(path.Dir(name), "_rels", path.Base(name)+".rels")
}

// resolveTarget turns a relationship target into a part name, relative to
// the part the relationship file belongs to.
func resolveTarget(from, target string) string {
	return path.Join(path.Dir(from), target)
}

// relationships models a .rels part. Parsed values are normalized so they
// re-marshal with a single default namespace declaration.
type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Xmlns   string         `xml:"xmlns,attr"`
	Rels    []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

func newRelationships() *relationships {
	return &relationships{XMLName: xml.Name{Local: "Relationships"}, Xmlns: nsPackageRels}
}

func parseRelationships(data []byte) (*relationships, error) {
	rels := newRelationships()
	if err := xml.Unmarshal(data, rels); err != nil {
		return nil, err
	}
	rels.XMLName = xml.Name{Local: "Relationships"}
	rels.Xmlns = nsPackageRels
	return rels, nil
}

func (r *relationships) marshal() []byte {
	out, err := xml.Marshal(r)
	if err != nil {
		// Flat struct of strings; Marshal cannot fail on it.
		panic(err)
	}
	return append([]byte(xmlProlog), out...)
}

// add appends a relationship under a fresh rId and returns the id.
func (r *relationships) add(relType, target string) string {
	max := 0
	for _, rel := range r.Rels {
		if n, ok := strings.CutPrefix(rel.ID, "rId"); ok {
			if v, err := strconv.Atoi(n); err == nil && v > max {
				max = v
			}
		}
	}
	id := fmt.Sprintf("rId%d", max+1)
	r.Rels = append(r.Rels, relationship{ID: id, Type: relType, Target: target})
	return id
}

func (r *relationships) findByType(relType string) *relationship {
	for i := range r.Rels {
		if r.Rels[i].Type == relType {
			return &r.Rels[i]
		}
	}
	return nil
}

func (r *relationships) removeByType(relType string) {
	kept := r.Rels[:0]
	for _, rel := range r.Rels {
		if rel.Type != relType {
			kept = append(kept, rel)
		}
	}
	r.Rels = kept
}

// contentTypes models [Content_Types].xml.
type contentTypes struct {
	XMLName   xml.Name     `xml:"Types"`
	Xmlns     string       `xml:"xmlns,attr"`
	Defaults  []ctDefault  `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

type ctDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

func parseContentTypes(arc *archive) (*contentTypes, error) {
	data, ok := arc.get(contentTypesPart)
	if !ok {
		return nil, fmt.Errorf("missing %s", contentTypesPart)
	}
	var types contentTypes
	if err := xml.Unmarshal(data, &types); err != nil {
		return nil, err
	}
	types.XMLName = xml.Name{Local: "Types"}
	types.Xmlns = nsContentTypes
	return &types, nil
}

func (t *contentTypes) marshal() []byte {
	out, err := xml.Marshal(t)
	if err != nil {
		panic(err)
	}
	return append([]byte(xmlProlog), out...)
}

// partType resolves a part's content type: override first, then the
// extension default.
func (t *contentTypes) partType(name string) string {
	partName := "/" + name
	for _, o := range t.Overrides {
		if o.PartName == partName {
			return o.ContentType
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	for _, d := range t.Defaults {
		if strings.ToLower(d.Extension) == ext {
			return d.ContentType
		}
	}
	return ""
}

func (t *contentTypes) addOverride(partName, contentType string) {
	for i := range t.Overrides {
		if t.Overrides[i].PartName == partName {
			t.Overrides[i].ContentType = contentType
			return
		}
	}
	t.Overrides = append(t.Overrides, ctOverride{PartName: partName, ContentType: contentType})
}

// dropOverridesWithPrefix removes overrides for parts being rewritten.
func (t *contentTypes) dropOverridesWithPrefix(prefixes ...string) {
	kept := t.Overrides[:0]
	for _, o := range t.Overrides {
		drop := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(o.PartName, prefix) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, o)
		}
	}
	t.Overrides = kept
}

// retypeAsPresentation turns a .potx (or slideshow) main part back into a
// regular presentation so the output downloads as a .pptx.
func (t *contentTypes) retypeAsPresentation() {
	for i := range t.Overrides {
		if t.Overrides[i].PartName != "/"+presentationPart {
			continue
		}
		switch t.Overrides[i].ContentType {
		case ctTemplateMain, ctSlideshowMain:
			t.Overrides[i].ContentType = ctPresentationMain
		}
	}
}

// escapeXML escapes text for use in element content or attribute values.
func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// truncateRunes hard-caps s at max runes without splitting a character.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
