package deck

import (
	"bytes"
	"fmt"

	ppt "github.com/VantageDataChat/GoPPT"

	"presentify/outline"
)

const (
	blankMarginLeft   = int64(0.4 * emuPerInch)
	blankContentWidth = int64(9.2 * emuPerInch)

	blankFontTitle = 28
	blankFontBody  = 18
)

// blankEmbeddable lists the raster formats the writer can embed directly.
// Vector media from a template (EMF, SVG) is skipped on the blank path.
var blankEmbeddable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// assembleBlank renders the outline onto generated slides. Used when no
// template was uploaded or the upload exposed no usable layouts.
func assembleBlank(slides outline.Outline, images []Image) ([]byte, error) {
	p := ppt.New()
	p.GetDocumentProperties().Creator = "Presentify"
	if len(slides) > 0 {
		p.GetDocumentProperties().Title = slides[0].Title
	}

	embeddable := rasterImages(images)

	for i, spec := range slides {
		slide := p.GetActiveSlide()
		if i > 0 {
			slide = p.CreateSlide()
		}

		var img *Image
		if len(embeddable) > 0 {
			img = &embeddable[i%len(embeddable)]
		}

		titleShape := slide.CreateRichTextShape()
		titleShape.SetOffsetX(blankMarginLeft).SetOffsetY(int64(0.3 * emuPerInch))
		titleShape.SetWidth(blankContentWidth).SetHeight(int64(0.8 * emuPerInch))
		tr := titleShape.CreateTextRun(truncateRunes(spec.Title, maxTitleRunes))
		tr.GetFont().SetSize(blankFontTitle).SetBold(true).SetColor(ppt.NewColor("FF1E40AF"))

		if len(spec.Bullets) > 0 {
			width := blankContentWidth
			if img != nil {
				width = int64(6.8 * emuPerInch)
			}
			body := slide.CreateRichTextShape()
			body.SetOffsetX(blankMarginLeft).SetOffsetY(int64(1.3 * emuPerInch))
			body.SetWidth(width).SetHeight(int64(3.9 * emuPerInch))
			for j, bullet := range spec.Bullets {
				if j > 0 {
					body.CreateParagraph()
				}
				run := body.CreateTextRun("• " + bullet)
				run.GetFont().SetSize(blankFontBody).SetColor(ppt.NewColor("FF334155"))
			}
		}

		if img != nil {
			pic := slide.CreateDrawingShape()
			pic.SetImageData(img.Data, img.ContentType)
			pic.SetOffsetX(int64(7.3 * emuPerInch)).SetOffsetY(int64(1.3 * emuPerInch))
			pic.SetWidth(int64(2.3 * emuPerInch)).SetHeight(int64(2.3 * emuPerInch))
		}
	}

	w, err := ppt.NewWriter(p, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	return buf.Bytes(), nil
}

func rasterImages(images []Image) []Image {
	var out []Image
	for _, img := range images {
		if blankEmbeddable[img.ContentType] {
			out = append(out, img)
		}
	}
	return out
}
