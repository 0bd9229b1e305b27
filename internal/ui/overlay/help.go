package overlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyCategory is a titled group of key bindings
type KeyCategory struct {
	Name     string
	Bindings []key.Binding
}

// HelpOverlay displays keybinding reference
type HelpOverlay struct {
	categories []KeyCategory
	styles     *Styles
	scroll     int
	viewHeight int
}

// NewHelpOverlay creates a help overlay listing categories
func NewHelpOverlay(categories []KeyCategory) *HelpOverlay {
	return &HelpOverlay{
		categories: categories,
		styles:     New(),
		viewHeight: 20,
	}
}

func (h *HelpOverlay) Init() tea.Cmd {
	return nil
}

func (h *HelpOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}

	switch keyMsg.String() {
	case "esc", "q", "?":
		return h, closeCmd
	case "j", "down":
		h.scroll = min(h.scroll+1, h.maxScroll())
	case "k", "up":
		h.scroll = max(h.scroll-1, 0)
	case "g":
		h.scroll = 0
	case "G":
		h.scroll = h.maxScroll()
	}
	return h, nil
}

func (h *HelpOverlay) lines() []string {
	var lines []string
	for i, cat := range h.categories {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, h.styles.MenuHeader.Render(cat.Name+":"))
		for _, b := range cat.Bindings {
			if !b.Enabled() {
				continue
			}
			help := b.Help()
			lines = append(lines, "  "+h.styles.MenuKey.Render(padKey(help.Key))+"  "+h.styles.MenuItem.Render(help.Desc))
		}
	}
	return lines
}

func padKey(k string) string {
	const width = 8
	if len(k) >= width {
		return k
	}
	return k + strings.Repeat(" ", width-len(k))
}

func (h *HelpOverlay) maxScroll() int {
	return max(0, len(h.lines())-h.viewHeight)
}

func (h *HelpOverlay) View() string {
	lines := h.lines()
	start := min(h.scroll, len(lines))
	end := min(start+h.viewHeight, len(lines))

	result := strings.Join(lines[start:end], "\n")
	if h.maxScroll() > 0 {
		result += "\n" + h.styles.Footer.Render("[j/k to scroll, g/G to jump]")
	}
	return result
}

func (h *HelpOverlay) Title() string {
	return "Help"
}

func (h *HelpOverlay) Size() (width, height int) {
	return 56, h.viewHeight + 4
}
