// Package overlay tracks the per-option display toggles of a question:
// answer masking and cross-out. The two are independent maps keyed by
// option id and never touch each other.
package overlay

import "fmt"

// State is the overlay state of one question.
type State struct {
	Masking    bool            `json:"masking"`
	Revealed   map[string]bool `json:"revealed,omitempty"`
	CrossedOut map[string]bool `json:"crossed_out,omitempty"`
}

// SetMasking turns answer masking on or off. Turning it on hides every
// option again, including ones revealed earlier.
func (s *State) SetMasking(on bool) {
	if on && !s.Masking {
		s.Revealed = nil
	}
	s.Masking = on
}

// Reveal uncovers one masked option.
func (s *State) Reveal(option string) {
	if s.Revealed == nil {
		s.Revealed = map[string]bool{}
	}
	s.Revealed[option] = true
}

// ToggleCrossOut flips the cross-out mark of option and returns the new
// value.
func (s *State) ToggleCrossOut(option string) bool {
	if s.CrossedOut == nil {
		s.CrossedOut = map[string]bool{}
	}
	if s.CrossedOut[option] {
		delete(s.CrossedOut, option)
		return false
	}
	s.CrossedOut[option] = true
	return true
}

// IsMasked reports whether option text is currently hidden.
func (s State) IsMasked(option string) bool {
	return s.Masking && !s.Revealed[option]
}

// IsCrossedOut reports whether option is struck through.
func (s State) IsCrossedOut(option string) bool {
	return s.CrossedOut[option]
}

// Action is a single overlay change sent by the client.
type Action string

const (
	ActionMaskOn   Action = "mask_on"
	ActionMaskOff  Action = "mask_off"
	ActionReveal   Action = "reveal"
	ActionCrossOut Action = "cross_out"
)

// Apply performs action on s. Option is ignored by the masking actions.
func (s *State) Apply(action Action, option string) error {
	switch action {
	case ActionMaskOn:
		s.SetMasking(true)
	case ActionMaskOff:
		s.SetMasking(false)
	case ActionReveal:
		if option == "" {
			return fmt.Errorf("reveal needs an option id")
		}
		s.Reveal(option)
	case ActionCrossOut:
		if option == "" {
			return fmt.Errorf("cross_out needs an option id")
		}
		s.ToggleCrossOut(option)
	default:
		return fmt.Errorf("unknown overlay action %q", action)
	}
	return nil
}
