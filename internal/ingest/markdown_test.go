package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMarkdown(t *testing.T) {
	t.Run("sibling and shallower headings close sections", func(t *testing.T) {
		md := strings.Join([]string{
			"# A",
			"alpha",
			"## B",
			"bravo",
			"## C",
			"charlie",
			"# D",
			"delta",
		}, "\n")

		_, leaves := SplitMarkdown(md)
		require.Len(t, leaves, 4)

		sections := make([]string, len(leaves))
		for i, l := range leaves {
			sections[i] = l.Section
		}
		assert.Equal(t, []string{"A", "A > B", "A > C", "D"}, sections)
	})

	t.Run("document title is the first level-1 heading", func(t *testing.T) {
		title, _ := SplitMarkdown("## Sub first\n\n# The Title\n\nbody")
		assert.Equal(t, "The Title", title)
	})

	t.Run("markdown scenario produces two sectioned chunks", func(t *testing.T) {
		md := "# Title\n\nHello world.\n\n## Sub\n\nMore text."
		title, leaves := SplitMarkdown(md)
		require.Len(t, leaves, 2)

		assert.Equal(t, "Title", title)
		assert.Equal(t, "Title", leaves[0].Section)
		assert.Contains(t, leaves[0].Text, "Hello world.")
		assert.Equal(t, "Title > Sub", leaves[1].Section)
		assert.Contains(t, leaves[1].Text, "More text.")
	})

	t.Run("zero headings yields one leaf with empty section", func(t *testing.T) {
		title, leaves := SplitMarkdown("just a paragraph\nand another line")
		require.Len(t, leaves, 1)
		assert.Empty(t, title)
		assert.Empty(t, leaves[0].Section)
		assert.Equal(t, "just a paragraph\nand another line", leaves[0].Text)
	})

	t.Run("empty input yields no leaves", func(t *testing.T) {
		_, leaves := SplitMarkdown("  \n\n ")
		assert.Empty(t, leaves)
	})

	t.Run("headings inside code fences are ignored", func(t *testing.T) {
		md := strings.Join([]string{
			"# Real",
			"```",
			"# not a heading",
			"```",
			"tail",
		}, "\n")
		_, leaves := SplitMarkdown(md)
		require.Len(t, leaves, 1)
		assert.Equal(t, "Real", leaves[0].Section)
		assert.Contains(t, leaves[0].Text, "# not a heading")
	})

	t.Run("hash without a following space is not a heading", func(t *testing.T) {
		_, leaves := SplitMarkdown("#hashtag\nbody")
		require.Len(t, leaves, 1)
		assert.Empty(t, leaves[0].Section)
	})

	t.Run("deeper nesting keeps full breadcrumb", func(t *testing.T) {
		md := "# A\n## B\n### C\ncontent\n## D\nmore"
		_, leaves := SplitMarkdown(md)
		require.Len(t, leaves, 4)
		assert.Equal(t, "A > B > C", leaves[2].Section)
		assert.Equal(t, "A > D", leaves[3].Section)
	})

	t.Run("records line offsets for provenance", func(t *testing.T) {
		md := "# A\nline one\n# B\nline three"
		_, leaves := SplitMarkdown(md)
		require.Len(t, leaves, 2)
		assert.Equal(t, 0, *leaves[0].StartPage)
		assert.Equal(t, 1, *leaves[0].EndPage)
		assert.Equal(t, 2, *leaves[1].StartPage)
		assert.Equal(t, 3, *leaves[1].EndPage)
	})
}
