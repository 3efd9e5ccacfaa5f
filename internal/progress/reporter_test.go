package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Description: "Importing passages", Out: &buf}

	r.Start(2)
	r.Update(1, "a.md")
	r.Update(2, "b.html")
	r.Finish()

	assert.Equal(t, "Importing passages: 2 files\n[1/2] a.md\n[2/2] b.html\nImporting passages: done\n", buf.String())
}

func TestNewReporter_CI(t *testing.T) {
	t.Setenv("CI", "true")
	r := NewReporter("Importing", &bytes.Buffer{})
	_, ok := r.(*CIReporter)
	assert.True(t, ok)
}

func TestNewReporter_Terminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	var buf bytes.Buffer
	r := NewReporter("Importing", &buf)
	_, ok := r.(*TerminalReporter)
	assert.True(t, ok)

	r.Start(1)
	r.Update(1, "x")
	r.Finish()
}

func TestNop(t *testing.T) {
	var r Reporter = Nop{}
	r.Start(3)
	r.Update(1, "ignored")
	r.Finish()
}
