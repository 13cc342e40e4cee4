package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/graphpane/pkg/debug"
)

const helpMarkdown = `# graphpane

## Query

| Key | Action |
|-----|--------|
| tab, i, / | focus the query input |
| enter | run the query |
| esc | leave the query input |

## Graph

| Key | Action |
|-----|--------|
| arrows, hjkl | pan |
| +, - | zoom |
| r | reset the camera |
| mouse drag | pan, or drag a vertex when grabbed |
| wheel | zoom at the pointer |

## Results

| Key | Action |
|-----|--------|
| v | toggle graph / JSON view |
| c, y | copy raw results to the clipboard |

Press esc or q to close this help.
`

// renderHelp lazily renders the help overlay. Glamour failures fall back to
// the raw markdown, which is still readable.
func (m Model) renderHelp(height int) string {
	content := m.helpView
	if content == "" {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(m.width-4, 76)),
		)
		if err == nil {
			content, err = r.Render(helpMarkdown)
		}
		if err != nil {
			debug.Log("ui: help render: %v", err)
			content = helpMarkdown
		}
	}
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Top, content)
}
