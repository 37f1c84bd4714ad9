package ingest

import "strings"

// heading is one markdown heading occurrence in document order.
type heading struct {
	level int
	title string
	line  int
}

// SplitMarkdown splits heading-delimited markdown into leaf spans with
// breadcrumb section paths, without an external segmentation engine.
// A heading's span runs from its own line to the line before the next
// heading. The document title is the first level-1 heading, if any.
// Input with zero headings becomes a single leaf with empty section.
func SplitMarkdown(text string) (string, []Leaf) {
	lines := strings.Split(text, "\n")
	headings := scanHeadings(lines)

	if len(headings) == 0 {
		body := strings.TrimSpace(text)
		if body == "" {
			return "", nil
		}
		start, end := 0, len(lines)-1
		return "", []Leaf{{
			Text:      body,
			StartPage: &start,
			EndPage:   &end,
			Raw:       map[string]any{"start_index": start, "end_index": end},
		}}
	}

	title := ""
	for _, h := range headings {
		if h.level == 1 {
			title = h.title
			break
		}
	}

	var leaves []Leaf
	// Breadcrumb stack ordered by level: a new heading closes every
	// open section at its own level or deeper before it is pushed.
	var stack []heading

	for i, h := range headings {
		for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, h)

		endLine := len(lines) - 1
		if i+1 < len(headings) {
			endLine = headings[i+1].line - 1
		}

		span := strings.TrimSpace(strings.Join(lines[h.line:endLine+1], "\n"))
		if span == "" {
			continue
		}

		crumbs := make([]string, len(stack))
		for j, s := range stack {
			crumbs[j] = s.title
		}

		start, end := h.line, endLine
		leaves = append(leaves, Leaf{
			Text:      span,
			Section:   strings.Join(crumbs, SectionSeparator),
			Title:     h.title,
			StartPage: &start,
			EndPage:   &end,
			Raw: map[string]any{
				"title":       h.title,
				"level":       h.level,
				"start_index": start,
				"end_index":   end,
			},
		})
	}
	return title, leaves
}

// scanHeadings finds ATX headings of depth 1-6, skipping fenced code
// blocks so a "# comment" inside a fence never opens a section.
func scanHeadings(lines []string) []heading {
	var out []heading
	inCodeBlock := false
	for i, line := range lines {
		if isCodeFence(line) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		level, title, ok := parseHeading(line)
		if ok {
			out = append(out, heading{level: level, title: title, line: i})
		}
	}
	return out
}

func isCodeFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func parseHeading(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for _, ch := range trimmed {
		if ch != '#' {
			break
		}
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	// ATX headings require a space (or nothing) after the marker.
	if rest != "" && !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") {
		return 0, "", false
	}
	return level, strings.TrimSpace(rest), true
}
