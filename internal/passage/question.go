package passage

import "github.com/ziadkadry99/examdesk/internal/overlay"

const (
	maskedClass     = "option-masked"
	crossedOutClass = "option-crossed-out"
)

// Option is one answer choice of a question.
type Option struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// OptionView is an option with its overlay applied. A masked option keeps
// its id and label but carries no content.
type OptionView struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	HTML       string   `json:"html"`
	Masked     bool     `json:"masked"`
	CrossedOut bool     `json:"crossed_out"`
	Classes    []string `json:"classes"`
}

// QuestionView is a rendered question, optionally with its passage.
type QuestionView struct {
	Prompt  string       `json:"prompt"`
	Options []OptionView `json:"options"`
	Masking bool         `json:"masking"`
	Passage *View        `json:"passage,omitempty"`
}

// RenderQuestion applies the overlay state to a question's options.
// Masking and cross-out are evaluated independently per option.
func RenderQuestion(prompt string, options []Option, st overlay.State) QuestionView {
	qv := QuestionView{
		Prompt:  prompt,
		Options: make([]OptionView, 0, len(options)),
		Masking: st.Masking,
	}
	for i, opt := range options {
		ov := OptionView{
			ID:      opt.ID,
			Label:   optionLabel(i),
			HTML:    opt.HTML,
			Classes: []string{"option"},
		}
		if st.IsMasked(opt.ID) {
			ov.Masked = true
			ov.HTML = ""
			ov.Classes = append(ov.Classes, maskedClass)
		}
		if st.IsCrossedOut(opt.ID) {
			ov.CrossedOut = true
			ov.Classes = append(ov.Classes, crossedOutClass)
		}
		qv.Options = append(qv.Options, ov)
	}
	return qv
}

// optionLabel returns A, B, ... Z, AA, AB and so on.
func optionLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}
