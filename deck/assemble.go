package deck

import (
	"fmt"

	"presentify/outline"
)

// Assemble builds the downloadable deck for an outline. A template with at
// least one layout routes through the container rewrite; otherwise slides
// are generated from scratch. Speaker notes are injected afterwards on both
// paths.
func Assemble(slides outline.Outline, inv Inventory, template []byte) ([]byte, error) {
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: outline has no slides", ErrAssemblyFailed)
	}

	var (
		data []byte
		err  error
	)
	if layout, ok := pickLayout(inv.Layouts); ok && len(template) > 0 {
		data, err = assembleFromTemplate(slides, inv, layout, template)
	} else {
		data, err = assembleBlank(slides, inv.Images)
	}
	if err != nil {
		return nil, err
	}

	notes := make([]string, len(slides))
	for i, s := range slides {
		notes[i] = s.Notes
	}
	return injectNotes(data, notes)
}

// pickLayout is done once per assembly: the first layout carrying both a
// title and a body placeholder wins, else the first layout at all.
func pickLayout(layouts []Layout) (Layout, bool) {
	for _, l := range layouts {
		if l.HasTitle() && l.HasBody() {
			return l, true
		}
	}
	if len(layouts) > 0 {
		return layouts[0], true
	}
	return Layout{}, false
}
