package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

// confirmModal asks a yes/no question before a destructive action. onYes
// runs from Update when the user confirms.
type confirmModal struct {
	title string
	body  string
	label string
	focus confirmModalFocus
	onYes func(m *appModel) tea.Cmd
}

// handle processes a key while the modal is open. done reports that the modal
// should close.
func (c *confirmModal) handle(m *appModel, msg tea.KeyMsg) (cmd tea.Cmd, done bool) {
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if c.focus == confirmFocusConfirm {
			c.focus = confirmFocusCancel
		} else {
			c.focus = confirmFocusConfirm
		}
		return nil, false
	case "y", "Y":
		return c.onYes(m), true
	case "n", "N", "esc", "ctrl+g":
		return nil, true
	case "enter":
		if c.focus == confirmFocusConfirm {
			return c.onYes(m), true
		}
		return nil, true
	}
	return nil, false
}

func modalBodyWidth(width int) int {
	w := width - 12
	return min(max(w, 24), 64)
}

func renderModalBox(width int, title, content string) string {
	bodyW := modalBodyWidth(width)
	header := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorModalBorder).
		Padding(1, 2).
		Width(bodyW + 4).
		Render(header + "\n\n" + content)
}

func renderConfirmModal(width int, c *confirmModal) string {
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	label := c.label
	if label == "" {
		label = "Delete"
	}
	confirm := btnBase.Render(label)
	cancel := btnBase.Render("Cancel")
	if c.focus == confirmFocusConfirm {
		confirm = btnActive.Render(label)
	} else {
		cancel = btnActive.Render("Cancel")
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	bodyW := modalBodyWidth(width)
	help := styleMuted().Width(bodyW).Render("tab: focus   enter: select   y/n   esc: cancel")
	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(c.body),
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, c.title, content)
}
