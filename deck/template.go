package deck

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"presentify/outline"
)

const (
	maxTitleRunes = 120

	emuPerInch = 914400
)

// assembleFromTemplate rewrites the uploaded container: every part survives
// except the template's own slides and notes slides, which are replaced by
// one new slide per outline entry bound to the selected layout.
func assembleFromTemplate(slides outline.Outline, inv Inventory, layout Layout, template []byte) ([]byte, error) {
	arc, err := openArchive(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	arc.deletePrefix("ppt/slides/", "ppt/notesSlides/")

	types, err := parseContentTypes(arc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	types.dropOverridesWithPrefix("/ppt/slides/", "/ppt/notesSlides/")
	types.retypeAsPresentation()

	presRelsData, ok := arc.get(presentationRelsPart)
	if !ok {
		return nil, fmt.Errorf("%w: %s missing", ErrAssemblyFailed, presentationRelsPart)
	}
	presRels, err := parseRelationships(presRelsData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	presRels.removeByType(relTypeSlide)

	var idEntries strings.Builder
	picCount := 0
	for i, spec := range slides {
		n := i + 1
		slideName := fmt.Sprintf("ppt/slides/slide%d.xml", n)

		slideRels := newRelationships()
		slideRels.add(relTypeSlideLayout, "../"+strings.TrimPrefix(layout.Path, "ppt/"))
		imgRelID := ""
		if layout.HasPicture() && len(inv.Images) > 0 {
			img := inv.Images[picCount%len(inv.Images)]
			picCount++
			imgRelID = slideRels.add(relTypeImage, "../"+strings.TrimPrefix(img.Path, "ppt/"))
		}

		arc.put(slideName, buildSlideXML(spec, layout, imgRelID))
		arc.put(relsPartFor(slideName), slideRels.marshal())
		types.addOverride("/"+slideName, ctSlide)

		rid := presRels.add(relTypeSlide, fmt.Sprintf("slides/slide%d.xml", n))
		fmt.Fprintf(&idEntries, `<p:sldId id="%d" r:id="%s"/>`, 255+n, rid)
	}

	presXML, ok := arc.get(presentationPart)
	if !ok {
		return nil, fmt.Errorf("%w: %s missing", ErrAssemblyFailed, presentationPart)
	}
	arc.put(presentationPart, setSlideIDList(presXML, idEntries.String()))
	arc.put(presentationRelsPart, presRels.marshal())
	arc.put(contentTypesPart, types.marshal())

	out, err := arc.bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	return out, nil
}

var (
	sldIDRe    = regexp.MustCompile(`(?s)<p:sldId\b[^>]*/>|<p:sldId\b[^>]*>.*?</p:sldId>`)
	sldIDLstRe = regexp.MustCompile(`(?s)<p:sldIdLst\b[^>]*/>|<p:sldIdLst\b[^>]*>.*?</p:sldIdLst>`)
)

// setSlideIDList replaces the presentation's slide list with the given
// entries, creating the list element when the template carried none (a .potx
// with no slides, for instance). Works on the canonical p: prefix every
// mainstream producer emits; everything else in the part stays untouched.
func setSlideIDList(presXML []byte, entries string) []byte {
	doc := sldIDRe.ReplaceAll(presXML, nil)
	list := []byte("<p:sldIdLst>" + entries + "</p:sldIdLst>")
	if sldIDLstRe.Match(doc) {
		return sldIDLstRe.ReplaceAll(doc, list)
	}
	return insertAfterMasterList(doc, list)
}

// insertAfterMasterList places an element in the schema position right after
// the slide master list, falling back to just inside the root element.
func insertAfterMasterList(doc, element []byte) []byte {
	if idx := bytes.Index(doc, []byte("</p:sldMasterIdLst>")); idx >= 0 {
		at := idx + len("</p:sldMasterIdLst>")
		return append(doc[:at:at], append(element, doc[at:]...)...)
	}
	if idx := bytes.Index(doc, []byte("<p:presentation")); idx >= 0 {
		if end := bytes.IndexByte(doc[idx:], '>'); end >= 0 {
			at := idx + end + 1
			return append(doc[:at:at], append(element, doc[at:]...)...)
		}
	}
	return append(doc, element...)
}

// buildSlideXML renders one slide part. Placeholder shapes echo the layout's
// type and idx attributes so the template's geometry and styling apply; when
// the layout has no body placeholder the bullets land in a plain textbox so
// content is never dropped.
func buildSlideXML(spec outline.SlideSpec, layout Layout, imgRelID string) []byte {
	var b strings.Builder
	b.WriteString(xmlProlog)
	b.WriteString(`<p:sld xmlns:a="` + nsDrawing + `" xmlns:r="` + nsDocRels + `" xmlns:p="` + nsPresentation + `">`)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)

	id := 2
	if layout.HasTitle() {
		writePlaceholderShape(&b, id, "Title", *layout.Title, []string{truncateRunes(spec.Title, maxTitleRunes)})
		id++
	}
	if layout.HasBody() {
		writePlaceholderShape(&b, id, "Content Placeholder", *layout.Body, spec.Bullets)
		id++
	} else if len(spec.Bullets) > 0 {
		writeTextboxShape(&b, id, spec.Bullets)
		id++
	}
	if imgRelID != "" && layout.HasPicture() {
		writePicture(&b, id, *layout.Picture, imgRelID)
	}

	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return []byte(b.String())
}

func phXML(ph Placeholder) string {
	var b strings.Builder
	b.WriteString(`<p:ph`)
	if ph.Type != "" {
		b.WriteString(` type="` + escapeXML(ph.Type) + `"`)
	}
	if ph.Idx != "" {
		b.WriteString(` idx="` + escapeXML(ph.Idx) + `"`)
	}
	b.WriteString(`/>`)
	return b.String()
}

func writePlaceholderShape(b *strings.Builder, id int, name string, ph Placeholder, paragraphs []string) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s %d"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr>%s</p:nvPr></p:nvSpPr><p:spPr/>`,
		id, name, id-1, phXML(ph))
	writeTxBody(b, paragraphs)
	b.WriteString(`</p:sp>`)
}

// writeTextboxShape is the fallback body for layouts without a body
// placeholder: a fixed-position box with bullet-prefixed lines.
func writeTextboxShape(b *strings.Builder, id int, bullets []string) {
	lines := make([]string, len(bullets))
	for i, text := range bullets {
		lines[i] = "• " + text
	}
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id-1)
	fmt.Fprintf(b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`,
		1*emuPerInch, 2*emuPerInch, 8*emuPerInch, 4*emuPerInch)
	writeTxBody(b, lines)
	b.WriteString(`</p:sp>`)
}

func writeTxBody(b *strings.Builder, paragraphs []string) {
	b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	if len(paragraphs) == 0 {
		b.WriteString(`<a:p/>`)
	}
	for _, text := range paragraphs {
		b.WriteString(`<a:p><a:r><a:t>`)
		b.WriteString(escapeXML(text))
		b.WriteString(`</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody>`)
}

func writePicture(b *strings.Builder, id int, ph Placeholder, relID string) {
	fmt.Fprintf(b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr><a:picLocks noGrp="1" noChangeAspect="1"/></p:cNvPicPr><p:nvPr>%s</p:nvPr></p:nvPicPr>`,
		id, id-1, phXML(ph))
	fmt.Fprintf(b, `<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr/></p:pic>`, relID)
}
