package headlessterm

import "testing"

type captureClipboard struct {
	written string
}

func (c *captureClipboard) Read(clipboard byte) string { return c.written }
func (c *captureClipboard) Write(clipboard byte, data []byte) {
	c.written = string(data)
}

// Scenario 5 from spec.md §8: marking a word whose glyphs span a soft wrap
// selects across the row boundary instead of stopping at the wrap.
func TestMarkWordAcrossSoftWrap(t *testing.T) {
	term := New(WithSize(24, 10))
	clip := &captureClipboard{}
	term.SetClipboardProvider(clip)

	for i, r := range "hello" {
		term.activeBuffer.Cell(0, 5+i).Char = r
	}
	term.activeBuffer.row(0).linebreak = false // soft wrap: the word continues on row 1
	for i, r := range "world end" {
		term.activeBuffer.Cell(1, i).Char = r
	}
	term.activeBuffer.row(1).linebreak = true

	// pivot at 'w' of "world", row 1 col 0 — word should expand left across
	// the wrap into row 0's "hello" run and right to the end of "world".
	term.MarkWord(1, 0, false)

	got := term.GetSelectedText()
	if got != "helloworld" {
		t.Errorf("got %q, want %q", got, "helloworld")
	}
	if clip.written != got {
		t.Errorf("clipboard should receive the finalized text, got %q", clip.written)
	}
}

func TestSelectionStartUpdateFinalizeCancel(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("Hello World")

	term.StartSelection(0, 0)
	if !term.HasSelection() {
		t.Fatal("expected a selection in progress after StartSelection")
	}
	term.UpdateSelection(0, 4)
	term.FinalizeSelection()

	got := term.GetSelectedText()
	if got != "Hello" {
		t.Errorf("got %q, want %q", got, "Hello")
	}

	term.CancelSelection()
	if term.HasSelection() {
		t.Error("expected no selection after CancelSelection")
	}
	if term.GetSelectedText() != "" {
		t.Error("expected empty selection text after cancel")
	}
}

func TestMarkRowSelectsWholeRow(t *testing.T) {
	term := New(WithSize(24, 10))
	term.WriteString("abc")

	term.MarkRow(0)
	sel := term.GetSelection()
	if sel.Kind != SelectionLine {
		t.Errorf("got kind=%v, want SelectionLine", sel.Kind)
	}
	got := term.GetSelectedText()
	if got != "abc" {
		t.Errorf("got %q, want %q (trailing blanks trimmed)", got, "abc")
	}
}

// Extraction is idempotent: calling GetSelectedText twice without mutating
// the grid or the selection returns the same text both times.
func TestGetSelectedTextIsIdempotent(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("idempotent")
	term.StartSelection(0, 0)
	term.UpdateSelection(0, 9)
	term.FinalizeSelection()

	first := term.GetSelectedText()
	second := term.GetSelectedText()
	if first != second {
		t.Errorf("extraction should be idempotent: got %q then %q", first, second)
	}
}

func TestIsSelectedReflectsActiveSpan(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("selection span test")
	term.StartSelection(0, 0)
	term.UpdateSelection(0, 8)
	term.FinalizeSelection()

	if !term.IsSelected(0, 0) || !term.IsSelected(0, 8) {
		t.Error("endpoints of the finalized selection should report selected")
	}
	if term.IsSelected(0, 9) {
		t.Error("a cell past the selection end should not report selected")
	}
}
