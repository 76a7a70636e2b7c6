package headlessterm

import "strings"

// SelectionKind distinguishes how a selection was made, per spec.md §4.7.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionChar
	SelectionWord
	SelectionLine
)

// Selection is the text-selection state machine. Start and End are given
// in ring-absolute row coordinates (invariant across scrollback growth;
// only reflow invalidates them, which is why they are routed through
// ResizeReflow as tracking points rather than stored screen-relative).
// Row == -1 is the NONE sentinel.
type Selection struct {
	Start Position
	End   Position
	Kind  SelectionKind
}

// NewSelection returns the NONE selection.
func NewSelection() Selection {
	return Selection{Start: Position{Row: -1}, End: Position{Row: -1}, Kind: SelectionNone}
}

// Active reports whether a selection is in progress or finalized.
func (s Selection) Active() bool {
	return s.Kind != SelectionNone && s.Start.Row >= 0
}

// extraWordChars supplements letters/digits in the word-character
// predicate used by mark_word's non-spaces_only mode.
const extraWordChars = "_-."

func isWordChar(r rune, spacesOnly bool) bool {
	if spacesOnly {
		return r != ' ' && r != 0
	}
	if r >= '0' && r <= '9' {
		return true
	}
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
		return true
	}
	return strings.ContainsRune(extraWordChars, r)
}

// StartSelection begins a new character selection at the cell under
// screen-relative (screenRow, col) on buf, canceling any prior selection
// (spec.md §4.7 start).
func (t *Terminal) StartSelection(screenRow, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelSelectionLocked()
	buf := t.activeBuffer
	t.selection = Selection{
		Start: Position{Row: buf.idx(buf.view + screenRow), Col: col},
		End:   Position{Row: -1},
		Kind:  SelectionChar,
	}
}

// UpdateSelection extends the in-progress selection to screen-relative
// (screenRow, col), damaging the union of the old and new row spans so the
// renderer repaints (spec.md §4.7 update).
func (t *Terminal) UpdateSelection(screenRow, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selection.Kind == SelectionNone {
		return
	}
	buf := t.activeBuffer

	oldEnd := t.selection.End
	newEnd := Position{Row: buf.idx(buf.view + screenRow), Col: col}
	t.selection.End = newEnd

	t.damageSelectionSpan(buf, oldEnd, newEnd)
}

// damageSelectionSpan marks the screen rows spanned by a and b (both
// ring-absolute, either possibly the NONE sentinel) dirty.
func (t *Terminal) damageSelectionSpan(buf *Buffer, a, b Position) {
	lo, hi := a, b
	if lo.Row < 0 {
		lo = b
	}
	if hi.Row < 0 {
		hi = a
	}
	if lo.Row < 0 && hi.Row < 0 {
		return
	}
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	for r := lo.Row; ; r = buf.idx(r + 1) {
		screenRow := buf.idx(r - buf.view)
		if screenRow < buf.screenRows {
			buf.damage.EmitRange(DamageUpdate, buf.linear(screenRow, 0), buf.cols)
		}
		if r == hi.Row {
			break
		}
	}
	buf.hasDirty = true
}

// FinalizeSelection normalizes start/end (swapping if reversed) and
// publishes the extracted text to the primary selection clipboard, per
// spec.md §4.7 finalize.
func (t *Terminal) FinalizeSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finalizeSelectionLocked()
}

func (t *Terminal) finalizeSelectionLocked() {
	if t.selection.Kind == SelectionNone {
		return
	}
	if t.selection.End.Row < 0 {
		t.selection.End = t.selection.Start
	}
	if t.selection.End.Before(t.selection.Start) {
		t.selection.Start, t.selection.End = t.selection.End, t.selection.Start
	}
	text := t.extractSelectionLocked()
	if t.clipboardProvider != nil {
		t.clipboardProvider.Write('p', []byte(text))
	}
}

// CancelSelection resets the selection to NONE, damaging the previously
// selected span (spec.md §4.7 cancel).
func (t *Terminal) CancelSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelSelectionLocked()
}

func (t *Terminal) cancelSelectionLocked() {
	if t.selection.Kind == SelectionNone {
		return
	}
	t.damageSelectionSpan(t.activeBuffer, t.selection.Start, t.selection.End)
	t.selection = NewSelection()
}

// MarkWord expands a selection from screen-relative (screenRow, col) by
// the word-character predicate, stepping across soft/hard line wraps, and
// finalizes it (spec.md §4.7 mark_word).
func (t *Terminal) MarkWord(screenRow, col int, spacesOnly bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf := t.activeBuffer

	start := Position{Row: buf.idx(buf.view + screenRow), Col: col}
	end := start

	pivot := buf.absoluteCell(start.Row, start.Col)
	if pivot == nil {
		return
	}
	wantChar := isWordChar(pivot.Char, spacesOnly)

	for {
		prev, ok := buf.stepBack(start)
		if !ok {
			break
		}
		cell := buf.absoluteCell(prev.Row, prev.Col)
		if cell == nil || isWordChar(cell.Char, spacesOnly) != wantChar {
			break
		}
		start = prev
	}
	for {
		next, ok := buf.stepForward(end)
		if !ok {
			break
		}
		cell := buf.absoluteCell(next.Row, next.Col)
		if cell == nil || isWordChar(cell.Char, spacesOnly) != wantChar {
			break
		}
		end = next
	}

	t.selection = Selection{Start: start, End: end, Kind: SelectionWord}
	t.finalizeSelectionLocked()
}

// MarkRow selects the entire screen-relative row and finalizes it (spec.md
// §4.7 mark_row).
func (t *Terminal) MarkRow(screenRow int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf := t.activeBuffer
	ring := buf.idx(buf.view + screenRow)
	t.selection = Selection{
		Start: Position{Row: ring, Col: 0},
		End:   Position{Row: ring, Col: buf.cols - 1},
		Kind:  SelectionLine,
	}
	t.finalizeSelectionLocked()
}

// GetSelection returns the current selection state.
func (t *Terminal) GetSelection() Selection {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selection
}

// HasSelection returns true if a selection is currently active.
func (t *Terminal) HasSelection() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selection.Active()
}

// IsSelected returns true if the cell at screen-relative (row, col) lies
// within the active selection.
func (t *Terminal) IsSelected(row, col int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.selection.Active() {
		return false
	}
	buf := t.activeBuffer
	pos := Position{Row: buf.idx(buf.view + row), Col: col}
	if pos.Before(t.selection.Start) {
		return false
	}
	if t.selection.End.Before(pos) {
		return false
	}
	return true
}

// GetSelectedText extracts the active selection's text content; returns
// "" if there is no selection.
func (t *Terminal) GetSelectedText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.extractSelectionLocked()
}

// extractSelectionLocked implements spec.md §4.7's extraction algorithm:
// inclusive rows start.Row..end.Row, collapsing soft-wrapped rows and
// trimming trailing blanks on the final row. Does not mutate the grid.
func (t *Terminal) extractSelectionLocked() string {
	sel := t.selection
	if !sel.Active() {
		return ""
	}
	buf := t.activeBuffer
	var out []rune
	emittedAny := false

	for r := sel.Start.Row; ; r = buf.idx(r + 1) {
		row := buf.absoluteRow(r)
		isLast := r == sel.End.Row

		startCol := 0
		if r == sel.Start.Row {
			startCol = sel.Start.Col
		}
		endCol := buf.cols - 1
		if isLast {
			endCol = sel.End.Col
		}

		rowEmittedAny := false
		var pendingBlanks int
		for c := startCol; c <= endCol && c < buf.cols; c++ {
			cell := &row.cells[c]
			if cell.IsWideSpacer() {
				continue
			}
			if cell.Char == 0 || cell.Char == ' ' {
				pendingBlanks++
				continue
			}
			for i := 0; i < pendingBlanks; i++ {
				out = append(out, ' ')
			}
			pendingBlanks = 0
			out = append(out, cell.Char)
			rowEmittedAny = true
			emittedAny = true
		}

		if isLast {
			break
		}
		if rowEmittedAny && row.linebreak {
			out = append(out, '\n')
		}
	}
	if !emittedAny {
		return ""
	}
	return string(out)
}

// absoluteRow returns the Row at a ring-absolute index.
func (b *Buffer) absoluteRow(ringIdx int) *Row {
	return b.ring[b.idx(ringIdx)]
}

// absoluteCell returns the cell at a ring-absolute (row, col), or nil if
// col is out of bounds.
func (b *Buffer) absoluteCell(ringIdx, col int) *Cell {
	if col < 0 || col >= b.cols {
		return nil
	}
	return &b.absoluteRow(ringIdx).cells[col]
}

// stepBack returns the position immediately before p in reading order,
// wrapping to the previous row's last column at column 0 (spec.md §4.7
// mark_word's line-wrap-during-expansion rule). ok is false at the start
// of the ring.
func (b *Buffer) stepBack(p Position) (Position, bool) {
	if p.Col > 0 {
		return Position{Row: p.Row, Col: p.Col - 1}, true
	}
	prevRow := b.idx(p.Row - 1)
	if prevRow == b.idx(b.offset-b.historyRows-1) {
		return Position{}, false
	}
	return Position{Row: prevRow, Col: b.cols - 1}, true
}

// stepForward is the mirror of stepBack: past the last column moves to
// the next row's column 0. ok is false at the newest live row's end.
func (b *Buffer) stepForward(p Position) (Position, bool) {
	if p.Col < b.cols-1 {
		return Position{Row: p.Row, Col: p.Col + 1}, true
	}
	nextRow := b.idx(p.Row + 1)
	if nextRow == b.idx(b.offset+b.screenRows) {
		return Position{}, false
	}
	return Position{Row: nextRow, Col: 0}, true
}
