// Package deck inspects uploaded PowerPoint templates and assembles slide
// outlines into presentation files. Templates are treated as read-only
// containers: inspection never mutates the upload, and assembly writes a new
// file that reuses the template's layouts and embedded images.
package deck

// Placeholder records how a layout tags one of its placeholder shapes. The
// type and idx attributes are echoed verbatim on generated slides so the
// shapes bind back to the layout.
type Placeholder struct {
	Type string
	Idx  string
}

// Layout is one slide layout found in a template, with the capability set
// the assembler selects on.
type Layout struct {
	Path    string
	Name    string
	Title   *Placeholder
	Body    *Placeholder
	Picture *Placeholder
}

func (l Layout) HasTitle() bool   { return l.Title != nil }
func (l Layout) HasBody() bool    { return l.Body != nil }
func (l Layout) HasPicture() bool { return l.Picture != nil }

// Image is one embedded media part, in template encounter order.
type Image struct {
	Path        string
	ContentType string
	Data        []byte
}

// Inventory is everything reusable found in an uploaded template. A zero
// Inventory is valid and sends the assembler down the blank-deck path.
type Inventory struct {
	Layouts []Layout
	Images  []Image
}

// SlideText is the text content read back out of one slide.
type SlideText struct {
	Title   string
	Bullets []string
	Notes   string
}
