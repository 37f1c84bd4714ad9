package ingest

import "strings"

// SectionSeparator joins breadcrumb levels into a section path.
const SectionSeparator = " > "

// FlattenTree flattens a segmentation tree into leaf records in
// depth-first pre-order. Interior nodes contribute their title to the
// breadcrumb path but emit no leaf themselves. Leaves whose resolved
// text is empty after trimming are dropped; malformed page ranges are
// treated the same way, since upstream segmentation is untrusted.
func FlattenTree(nodes []TreeNode, pages []string) []Leaf {
	return flatten(nodes, pages, nil)
}

func flatten(nodes []TreeNode, pages []string, path []string) []Leaf {
	var out []Leaf
	for _, node := range nodes {
		current := path
		if node.Title != "" {
			current = append(append([]string{}, path...), node.Title)
		}

		if len(node.Nodes) > 0 {
			out = append(out, flatten(node.Nodes, pages, current)...)
			continue
		}

		text := strings.TrimSpace(resolveLeafText(node, pages))
		if text == "" {
			continue
		}

		start, end := node.StartIndex, node.EndIndex
		out = append(out, Leaf{
			Text:      text,
			Section:   strings.Join(current, SectionSeparator),
			Title:     node.Title,
			StartPage: &start,
			EndPage:   &end,
			Raw: map[string]any{
				"title":       node.Title,
				"start_index": node.StartIndex,
				"end_index":   node.EndIndex,
			},
		})
	}
	return out
}

// resolveLeafText prefers inline text, falling back to the node's page
// range joined by newlines. EndIndex is inclusive. Out-of-bounds
// ranges yield the in-bounds portion, or nothing.
func resolveLeafText(node TreeNode, pages []string) string {
	if node.Text != "" {
		return node.Text
	}
	start, end := node.StartIndex, node.EndIndex
	if start < 0 {
		start = 0
	}
	if end >= len(pages) {
		end = len(pages) - 1
	}
	if start > end || start >= len(pages) {
		return ""
	}
	return strings.Join(pages[start:end+1], "\n")
}
