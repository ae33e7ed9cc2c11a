package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextStripsTags(t *testing.T) {
	require.Equal(t, "Winter Hackathon", Text("<b>Winter</b> Hackathon"))
	require.Equal(t, "alert(1)", Text("<script>alert(1)</script>"))
	require.Equal(t, "trimmed", Text("  trimmed \n"))
}

func TestRichTextKeepsFormatting(t *testing.T) {
	require.Equal(t, "<b>bold</b> text", RichText("<b>bold</b> text"))
	require.NotContains(t, RichText(`<a href="#" onclick="steal()">link</a>`), "onclick")
	require.NotContains(t, RichText("<script>alert(1)</script>ok"), "<script>")
}

func TestTextSliceDropsEmpty(t *testing.T) {
	require.Nil(t, TextSlice(nil))
	require.Equal(t, []string{"go", "algorithms"}, TextSlice([]string{" go ", "<i></i>", "algorithms"}))
}
