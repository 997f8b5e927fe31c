package outline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	raw := `{"slides":[{"title":"Overview","bullets":["one","two"],"notes":"take it slow"}]}`

	out, err := ParseResponse(raw, defaultLimits(), true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Overview", out[0].Title)
	assert.Equal(t, []string{"one", "two"}, out[0].Bullets)
	assert.Equal(t, "take it slow", out[0].Notes)
}

func TestParseResponseDropsNotesWhenDisabled(t *testing.T) {
	raw := `{"slides":[{"title":"Overview","notes":"should vanish"}]}`

	out, err := ParseResponse(raw, defaultLimits(), false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Notes)
}

func TestParseResponseStripsCodeFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "json fence", raw: "```json\n{\"slides\":[{\"title\":\"A\"}]}\n```"},
		{name: "bare fence", raw: "```\n{\"slides\":[{\"title\":\"A\"}]}\n```"},
		{name: "fence with trailing prose", raw: "Here you go:\n```json\n{\"slides\":[{\"title\":\"A\"}]}\n```\nEnjoy!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ParseResponse(tt.raw, defaultLimits(), false)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, "A", out[0].Title)
		})
	}
}

func TestParseResponseNormalizes(t *testing.T) {
	raw := `{"slides":[
		{"title":"  padded  ","bullets":["  x  ","","y"]},
		{"title":"","bullets":["only bullets"]},
		{"title":"","bullets":[]}
	]}`

	out, err := ParseResponse(raw, defaultLimits(), false)
	require.NoError(t, err)
	require.Len(t, out, 2, "the empty husk is dropped")
	assert.Equal(t, "padded", out[0].Title)
	assert.Equal(t, []string{"x", "y"}, out[0].Bullets)
	assert.Equal(t, "Slide", out[1].Title, "bullet-only slides get a stand-in title")
}

func TestParseResponseCapsBullets(t *testing.T) {
	bullets := make([]string, 10)
	for i := range bullets {
		bullets[i] = fmt.Sprintf(`"bullet %d"`, i+1)
	}
	raw := fmt.Sprintf(`{"slides":[{"title":"T","bullets":[%s]}]}`, strings.Join(bullets, ","))

	out, err := ParseResponse(raw, defaultLimits(), false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Bullets, defaultLimits().MaxBullets)
}

func TestParseResponseInvalid(t *testing.T) {
	overCeiling := func() string {
		var slides []string
		for i := 0; i <= defaultLimits().MaxSlides; i++ {
			slides = append(slides, fmt.Sprintf(`{"title":"Slide %d"}`, i+1))
		}
		return fmt.Sprintf(`{"slides":[%s]}`, strings.Join(slides, ","))
	}

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "I would love to help with slides!"},
		{name: "empty slides", raw: `{"slides":[]}`},
		{name: "only husks", raw: `{"slides":[{"title":"","bullets":[]}]}`},
		{name: "over the ceiling", raw: overCeiling()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.raw, defaultLimits(), false)
			require.ErrorIs(t, err, ErrProviderResponseInvalid)
		})
	}
}
