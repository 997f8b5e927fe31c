package deck

import (
	"fmt"
	"regexp"
	"strings"
)

const maxNotesRunes = 1000

var notesMasterPartRe = regexp.MustCompile(`^ppt/notesMasters/notesMaster\d+\.xml$`)

// injectNotes adds a notes slide part per non-empty note, wiring it to its
// slide and to the deck's notes master. Containers without a notes master
// (GoPPT output, most .potx files) get a minimal one plus its theme.
func injectNotes(deckData []byte, notes []string) ([]byte, error) {
	if !hasNotes(notes) {
		return deckData, nil
	}
	arc, err := openArchive(deckData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	types, err := parseContentTypes(arc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}

	masterPart := findNotesMaster(arc)
	if masterPart == "" {
		masterPart = notesMasterPart
		if err := addNotesMaster(arc, types); err != nil {
			return nil, err
		}
	}

	slideParts := arc.slidePartsInOrder()
	for i, slideName := range slideParts {
		if i >= len(notes) || strings.TrimSpace(notes[i]) == "" {
			continue
		}
		n := i + 1
		notesName := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n)

		noteRels := newRelationships()
		noteRels.add(relTypeNotesMaster, "../"+strings.TrimPrefix(masterPart, "ppt/"))
		noteRels.add(relTypeSlide, fmt.Sprintf("../slides/slide%d.xml", n))
		arc.put(notesName, buildNotesXML(notes[i]))
		arc.put(relsPartFor(notesName), noteRels.marshal())
		types.addOverride("/"+notesName, ctNotesSlide)

		slideRels := newRelationships()
		if data, ok := arc.get(relsPartFor(slideName)); ok {
			if slideRels, err = parseRelationships(data); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
			}
		}
		slideRels.add(relTypeNotesSlide, fmt.Sprintf("../notesSlides/notesSlide%d.xml", n))
		arc.put(relsPartFor(slideName), slideRels.marshal())
	}

	arc.put(contentTypesPart, types.marshal())
	out, err := arc.bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	return out, nil
}

func hasNotes(notes []string) bool {
	for _, n := range notes {
		if strings.TrimSpace(n) != "" {
			return true
		}
	}
	return false
}

func findNotesMaster(arc *archive) string {
	for _, p := range arc.parts {
		if notesMasterPartRe.MatchString(p.name) {
			return p.name
		}
	}
	return ""
}

// addNotesMaster installs a bare notes master, its theme, and the
// presentation-level wiring PowerPoint requires before any notes slide
// can reference it.
func addNotesMaster(arc *archive, types *contentTypes) error {
	arc.put(notesMasterPart, []byte(notesMasterXML))
	arc.put(notesThemePart, []byte(notesThemeXML))

	masterRels := newRelationships()
	masterRels.add(relTypeTheme, "../"+strings.TrimPrefix(notesThemePart, "ppt/"))
	arc.put(relsPartFor(notesMasterPart), masterRels.marshal())

	types.addOverride("/"+notesMasterPart, ctNotesMaster)
	types.addOverride("/"+notesThemePart, ctTheme)

	presRelsData, ok := arc.get(presentationRelsPart)
	if !ok {
		return fmt.Errorf("%w: %s missing", ErrAssemblyFailed, presentationRelsPart)
	}
	presRels, err := parseRelationships(presRelsData)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	rid := presRels.add(relTypeNotesMaster, "notesMasters/notesMaster1.xml")
	arc.put(presentationRelsPart, presRels.marshal())

	presXML, ok := arc.get(presentationPart)
	if !ok {
		return fmt.Errorf("%w: %s missing", ErrAssemblyFailed, presentationPart)
	}
	list := []byte(fmt.Sprintf(`<p:notesMasterIdLst><p:notesMasterId r:id="%s"/></p:notesMasterIdLst>`, rid))
	arc.put(presentationPart, insertAfterMasterList(presXML, list))
	return nil
}

// buildNotesXML renders a notes slide with the note text in the body
// placeholder, one paragraph per line, capped at maxNotesRunes.
func buildNotesXML(note string) []byte {
	note = truncateRunes(strings.TrimSpace(note), maxNotesRunes)
	var b strings.Builder
	b.WriteString(xmlProlog)
	b.WriteString(`<p:notes xmlns:a="` + nsDrawing + `" xmlns:r="` + nsDocRels + `" xmlns:p="` + nsPresentation + `">`)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>`)
	writeTxBody(&b, strings.Split(note, "\n"))
	b.WriteString(`</p:sp>`)
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:notes>`)
	return []byte(b.String())
}

const notesMasterXML = xmlProlog +
	`<p:notesMaster xmlns:a="` + nsDrawing + `" xmlns:r="` + nsDocRels + `" xmlns:p="` + nsPresentation + `">` +
	`<p:cSld><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>` +
	`<p:txBody><a:bodyPr/><a:lstStyle/><a:p/></p:txBody></p:sp>` +
	`</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:notesStyle/>` +
	`</p:notesMaster>`

const notesThemeXML = xmlProlog +
	`<a:theme xmlns:a="` + nsDrawing + `" name="Notes Theme">` +
	`<a:themeElements>` +
	`<a:clrScheme name="Office">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>` +
	`<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="44546A"/></a:dk2>` +
	`<a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4472C4"/></a:accent1>` +
	`<a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>` +
	`<a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5>` +
	`<a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink>` +
	`<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Office">` +
	`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Office">` +
	`<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>` +
	`<a:lnStyleLst><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>` +
	`</a:fmtScheme>` +
	`</a:themeElements>` +
	`</a:theme>`
