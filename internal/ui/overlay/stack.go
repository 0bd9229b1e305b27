package overlay

import tea "github.com/charmbracelet/bubbletea"

// Stack holds the open overlays; only the top one receives input
type Stack struct {
	overlays []Overlay
}

// NewStack creates an empty overlay stack
func NewStack() *Stack {
	return &Stack{}
}

// Push opens an overlay above the others
func (s *Stack) Push(o Overlay) tea.Cmd {
	s.overlays = append(s.overlays, o)
	return o.Init()
}

// Pop closes the top overlay and returns it, or nil when none is open
func (s *Stack) Pop() Overlay {
	if len(s.overlays) == 0 {
		return nil
	}
	top := s.overlays[len(s.overlays)-1]
	s.overlays = s.overlays[:len(s.overlays)-1]
	return top
}

// Current returns the top overlay, or nil when none is open
func (s *Stack) Current() Overlay {
	if len(s.overlays) == 0 {
		return nil
	}
	return s.overlays[len(s.overlays)-1]
}

func (s *Stack) IsEmpty() bool {
	return len(s.overlays) == 0
}

// Update forwards input to the top overlay
func (s *Stack) Update(msg tea.Msg) tea.Cmd {
	if len(s.overlays) == 0 {
		return nil
	}
	return s.updateAt(len(s.overlays)-1, msg)
}

// Send delivers msg to the topmost overlay accepted by match, even when
// another overlay such as help is open above it. It reports false when no
// open overlay matches.
func (s *Stack) Send(msg tea.Msg, match func(Overlay) bool) (tea.Cmd, bool) {
	for i := len(s.overlays) - 1; i >= 0; i-- {
		if match(s.overlays[i]) {
			return s.updateAt(i, msg), true
		}
	}
	return nil, false
}

func (s *Stack) updateAt(i int, msg tea.Msg) tea.Cmd {
	model, cmd := s.overlays[i].Update(msg)
	if o, ok := model.(Overlay); ok {
		s.overlays[i] = o
	}
	return cmd
}
