// Package reference resolves stored sentence references against a
// segmented passage into the set of sentences and sub-ranges to mark.
package reference

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ziadkadry99/examdesk/internal/textpos"
)

// SentenceReference points at a whole sentence, or at a sub-range of one
// when Partial is set. Start and End are offsets into the whole plain text,
// not into the sentence.
type SentenceReference struct {
	SentenceIndex int
	Partial       bool
	Start         textpos.PlainOffset
	End           textpos.PlainOffset
}

// Full references the whole sentence i.
func Full(i int) SentenceReference {
	return SentenceReference{SentenceIndex: i}
}

// Sub references [start, end) inside sentence i.
func Sub(i int, start, end textpos.PlainOffset) SentenceReference {
	return SentenceReference{SentenceIndex: i, Partial: true, Start: start, End: end}
}

type subRangeJSON struct {
	SentenceIndex *int `json:"sentenceIndex"`
	Start         *int `json:"start"`
	End           *int `json:"end"`
}

// UnmarshalJSON accepts a bare integer or {"sentenceIndex","start","end"}.
func (r *SentenceReference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj subRangeJSON
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.SentenceIndex == nil || obj.Start == nil || obj.End == nil {
			return fmt.Errorf("sub-range reference needs sentenceIndex, start and end")
		}
		*r = Sub(*obj.SentenceIndex, textpos.PlainOffset(*obj.Start), textpos.PlainOffset(*obj.End))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reference must be an integer or object: %w", err)
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("reference index %q is not an integer", n)
	}
	*r = Full(int(i))
	return nil
}

// MarshalJSON writes the same two shapes UnmarshalJSON reads.
func (r SentenceReference) MarshalJSON() ([]byte, error) {
	if !r.Partial {
		return json.Marshal(r.SentenceIndex)
	}
	return json.Marshal(map[string]int{
		"sentenceIndex": r.SentenceIndex,
		"start":         int(r.Start),
		"end":           int(r.End),
	})
}

// References is a stored reference list. Decoding skips malformed entries
// instead of failing the whole list, and null decodes to an empty list.
type References []SentenceReference

func (rs *References) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(References, 0, len(raw))
	for _, item := range raw {
		var ref SentenceReference
		if err := json.Unmarshal(item, &ref); err != nil {
			continue
		}
		out = append(out, ref)
	}
	*rs = out
	return nil
}

// Parse decodes a stored JSON column. Empty input yields no references.
func Parse(data []byte) (References, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var rs References
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing sentence references: %w", err)
	}
	return rs, nil
}
