package deck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixture describes a synthetic template container.
type fixture struct {
	mainType    string         // presentation.xml content type, pptx main when empty
	layouts     map[int]string // layout number -> part body
	media       map[string]string
	withSlide   bool // include a pre-existing slide with a notes slide
	noSlideList bool // omit <p:sldIdLst> entirely, as slide-less .potx files do
}

func buildFixture(t *testing.T, fx fixture) []byte {
	t.Helper()
	if fx.mainType == "" {
		fx.mainType = ctPresentationMain
	}
	parts := map[string]string{}

	var overrides strings.Builder
	fmt.Fprintf(&overrides, `<Override PartName="/ppt/presentation.xml" ContentType="%s"/>`, fx.mainType)
	overrides.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)

	var presRels strings.Builder
	presRels.WriteString(`<Relationship Id="rId1" Type="` + nsDocRels + `/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)

	nums := make([]int, 0, len(fx.layouts))
	for n := range fx.layouts {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		name := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", n)
		parts[name] = fx.layouts[n]
		fmt.Fprintf(&overrides, `<Override PartName="/%s" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`, name)
	}

	for name, content := range fx.media {
		parts["ppt/media/"+name] = content
	}

	slideList := `<p:sldIdLst/>`
	if fx.withSlide {
		parts["ppt/slides/slide1.xml"] = slideFixture("Old title")
		parts["ppt/slides/_rels/slide1.xml.rels"] = relsFixture(
			`<Relationship Id="rId1" Type="`+relTypeSlideLayout+`" Target="../slideLayouts/slideLayout1.xml"/>`,
			`<Relationship Id="rId2" Type="`+relTypeNotesSlide+`" Target="../notesSlides/notesSlide1.xml"/>`)
		parts["ppt/notesSlides/notesSlide1.xml"] = string(buildNotesXML("old note"))
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/slide1.xml" ContentType="%s"/>`, ctSlide)
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/notesSlides/notesSlide1.xml" ContentType="%s"/>`, ctNotesSlide)
		presRels.WriteString(`<Relationship Id="rId2" Type="` + relTypeSlide + `" Target="slides/slide1.xml"/>`)
		slideList = `<p:sldIdLst><p:sldId id="256" r:id="rId2"/></p:sldIdLst>`
	}
	if fx.noSlideList {
		slideList = ""
	}

	parts[contentTypesPart] = xmlProlog + `<Types xmlns="` + nsContentTypes + `">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="png" ContentType="image/png"/>` +
		overrides.String() + `</Types>`
	parts["_rels/.rels"] = relsFixture(`<Relationship Id="rId1" Type="` + nsDocRels + `/officeDocument" Target="ppt/presentation.xml"/>`)
	parts[presentationPart] = xmlProlog +
		`<p:presentation xmlns:a="` + nsDrawing + `" xmlns:r="` + nsDocRels + `" xmlns:p="` + nsPresentation + `">` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		slideList +
		`<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/>` +
		`</p:presentation>`
	parts[presentationRelsPart] = relsFixture(presRels.String())
	parts["ppt/slideMasters/slideMaster1.xml"] = xmlProlog +
		`<p:sldMaster xmlns:a="` + nsDrawing + `" xmlns:p="` + nsPresentation + `"><p:cSld><p:spTree/></p:cSld></p:sldMaster>`

	return zipParts(t, parts)
}

func zipParts(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func relsFixture(rels ...string) string {
	return xmlProlog + `<Relationships xmlns="` + nsPackageRels + `">` + strings.Join(rels, "") + `</Relationships>`
}

func layoutFixture(name string, shapes ...string) string {
	attr := ""
	if name != "" {
		attr = ` name="` + name + `"`
	}
	return xmlProlog + `<p:sldLayout xmlns:a="` + nsDrawing + `" xmlns:p="` + nsPresentation + `">` +
		`<p:cSld` + attr + `><p:spTree>` + strings.Join(shapes, "") + `</p:spTree></p:cSld></p:sldLayout>`
}

func phShapeFixture(phType, idx string) string {
	var ph strings.Builder
	ph.WriteString(`<p:ph`)
	if phType != "" {
		ph.WriteString(` type="` + phType + `"`)
	}
	if idx != "" {
		ph.WriteString(` idx="` + idx + `"`)
	}
	ph.WriteString(`/>`)
	return `<p:sp><p:nvSpPr><p:cNvPr id="2" name="ph"/><p:cNvSpPr/><p:nvPr>` + ph.String() + `</p:nvPr></p:nvSpPr>` +
		`<p:spPr/><p:txBody><a:bodyPr/><a:p/></p:txBody></p:sp>`
}

func slideFixture(title string) string {
	return xmlProlog + `<p:sld xmlns:a="` + nsDrawing + `" xmlns:r="` + nsDocRels + `" xmlns:p="` + nsPresentation + `">` +
		`<p:cSld><p:spTree>` +
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>` +
		`<p:spPr/><p:txBody><a:bodyPr/><a:p><a:r><a:t>` + title + `</a:t></a:r></a:p></p:txBody></p:sp>` +
		`</p:spTree></p:cSld></p:sld>`
}
