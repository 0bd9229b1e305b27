package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmDialog is a confirmation dialog overlay with Yes/No options
type ConfirmDialog struct {
	title    string
	message  string
	action   string
	payload  any
	styles   *Styles
	selected bool // true = Yes
}

// ConfirmResult is the value of the SelectionMsg a ConfirmDialog emits
type ConfirmResult struct {
	Confirmed bool
	Action    string
	Payload   any
}

// NewConfirmDialog asks message. action and payload are handed back in the
// result so the caller knows what was confirmed.
func NewConfirmDialog(title, message, action string, payload any) *ConfirmDialog {
	return &ConfirmDialog{
		title:   title,
		message: message,
		action:  action,
		payload: payload,
		styles:  New(),
	}
}

func (c *ConfirmDialog) Init() tea.Cmd {
	return nil
}

func (c *ConfirmDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	switch key.String() {
	case "y", "Y":
		return c, c.result(true)
	case "n", "N", "esc":
		return c, c.result(false)
	case "enter":
		return c, c.result(c.selected)
	case "left", "h":
		c.selected = false
	case "right", "l", "tab":
		c.selected = true
	}
	return c, nil
}

func (c *ConfirmDialog) result(confirmed bool) tea.Cmd {
	key := "no"
	if confirmed {
		key = "yes"
	}
	return selectCmd(key, ConfirmResult{Confirmed: confirmed, Action: c.action, Payload: c.payload})
}

func (c *ConfirmDialog) View() string {
	var b strings.Builder

	if c.message != "" {
		b.WriteString(c.styles.MenuItem.Render(c.message))
		b.WriteString("\n\n")
	}

	yesStyle, noStyle := c.styles.MenuItem, c.styles.MenuItemActive
	if c.selected {
		yesStyle, noStyle = c.styles.MenuItemActive, c.styles.MenuItem
	}
	b.WriteString(yesStyle.Render("[Y] Yes") + "    " + noStyle.Render("[N] No"))
	b.WriteString("\n")
	b.WriteString(c.styles.Footer.Render("← → / Tab: switch • Enter: confirm • Esc: cancel"))

	return b.String()
}

func (c *ConfirmDialog) Title() string {
	return c.title
}

func (c *ConfirmDialog) Size() (width, height int) {
	return 60, len(strings.Split(c.message, "\n")) + 6
}
