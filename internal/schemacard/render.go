package schemacard

import (
	"fmt"
	"strings"
)

// Render produces the compact textual form of the card shown to the
// proposer. Terms appear in card order so the rendering is stable
// across runs.
func Render(card SchemaCard) string {
	if len(card.Classes) == 0 && len(card.DatatypeProperties) == 0 &&
		len(card.ObjectProperties) == 0 && len(card.Events) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SCHEMA CARD v%d\n", card.Version)

	if len(card.Classes) > 0 {
		b.WriteString("\nClasses:\n")
		for _, c := range card.Classes {
			if c.Description != "" {
				fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
			} else {
				fmt.Fprintf(&b, "- %s\n", c.Name)
			}
		}
	}

	writeProperties := func(header string, props []CardProperty) {
		if len(props) == 0 {
			return
		}
		b.WriteString("\n" + header + ":\n")
		for _, p := range props {
			fmt.Fprintf(&b, "- %s (%s -> %s)", p.Name, p.Domain, p.Range)
			if p.Description != "" {
				fmt.Fprintf(&b, ": %s", p.Description)
			}
			b.WriteString("\n")
		}
	}
	writeProperties("Datatype properties", card.DatatypeProperties)
	writeProperties("Object properties", card.ObjectProperties)

	if len(card.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, e := range card.Events {
			fmt.Fprintf(&b, "- %s", e.Name)
			if len(e.Actors) > 0 {
				fmt.Fprintf(&b, " actors=[%s]", strings.Join(e.Actors, ", "))
			}
			if len(e.Effects) > 0 {
				fmt.Fprintf(&b, " effects=[%s]", strings.Join(e.Effects, ", "))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
