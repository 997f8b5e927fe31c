package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectNoTemplate(t *testing.T) {
	inv, err := Inspect(nil, 25<<20)
	require.NoError(t, err)
	assert.Empty(t, inv.Layouts)
	assert.Empty(t, inv.Images)
}

func TestInspectRejects(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		maxBytes int64
	}{
		{name: "over size cap", data: make([]byte, 64), maxBytes: 16},
		{name: "not a zip archive", data: []byte("this is not a container"), maxBytes: 1 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inspect(tt.data, tt.maxBytes)
			require.ErrorIs(t, err, ErrTemplateUnreadable)
		})
	}
}

func TestInspectMissingPresentationPart(t *testing.T) {
	data := zipParts(t, map[string]string{
		contentTypesPart: xmlProlog + `<Types xmlns="` + nsContentTypes + `"/>`,
	})
	_, err := Inspect(data, 25<<20)
	require.ErrorIs(t, err, ErrTemplateUnreadable)
}

func TestInspectLayoutsAndImages(t *testing.T) {
	fx := fixture{
		layouts: map[int]string{
			1:  layoutFixture("Title Slide", phShapeFixture("ctrTitle", ""), phShapeFixture("subTitle", "1")),
			2:  layoutFixture("Title and Content", phShapeFixture("title", ""), phShapeFixture("body", "1"), phShapeFixture("pic", "2")),
			10: layoutFixture("", phShapeFixture("", "1")),
		},
		media: map[string]string{
			"image1.png": "png-one",
			"image2.png": "png-two",
			"photo.bmp":  "bmp-bytes",
			"clip.wav":   "not an image",
		},
	}
	inv, err := Inspect(buildFixture(t, fx), 25<<20)
	require.NoError(t, err)

	require.Len(t, inv.Layouts, 3)
	assert.Equal(t, "ppt/slideLayouts/slideLayout1.xml", inv.Layouts[0].Path)
	assert.Equal(t, "ppt/slideLayouts/slideLayout2.xml", inv.Layouts[1].Path)
	assert.Equal(t, "ppt/slideLayouts/slideLayout10.xml", inv.Layouts[2].Path)

	first := inv.Layouts[0]
	assert.Equal(t, "Title Slide", first.Name)
	assert.True(t, first.HasTitle())
	assert.Equal(t, "ctrTitle", first.Title.Type)
	assert.False(t, first.HasBody())
	assert.False(t, first.HasPicture())

	second := inv.Layouts[1]
	assert.True(t, second.HasTitle())
	assert.True(t, second.HasBody())
	assert.True(t, second.HasPicture())
	assert.Equal(t, "1", second.Body.Idx)
	assert.Equal(t, "2", second.Picture.Idx)

	third := inv.Layouts[2]
	assert.Equal(t, "slideLayout10", third.Name)
	assert.False(t, third.HasTitle())
	require.True(t, third.HasBody())
	assert.Equal(t, "", third.Body.Type)
	assert.Equal(t, "1", third.Body.Idx)

	require.Len(t, inv.Images, 3)
	assert.Equal(t, "ppt/media/image1.png", inv.Images[0].Path)
	assert.Equal(t, "image/png", inv.Images[0].ContentType)
	assert.Equal(t, []byte("png-one"), inv.Images[0].Data)
	assert.Equal(t, "ppt/media/image2.png", inv.Images[1].Path)
	assert.Equal(t, "ppt/media/photo.bmp", inv.Images[2].Path)
	assert.Equal(t, "image/bmp", inv.Images[2].ContentType)
}
