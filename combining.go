package headlessterm

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// combCharsBase is the lower bound of the synthetic rune range a Cell.Char
// uses to index into a CombiningTable, mirroring spec.md's COMB_CHARS_LO.
// It sits above the valid Unicode scalar range (max 0x10FFFF) so it can
// never collide with a real character.
const combCharsBase rune = 0x110000

// CombiningTable holds composed (base rune + combining marks) sequences
// that don't fit in a single Cell.Char. A cell whose Char is >=
// combCharsBase indexes this table with Char-combCharsBase.
type CombiningTable struct {
	sequences [][]rune
}

// NewCombiningTable returns an empty table.
func NewCombiningTable() *CombiningTable {
	return &CombiningTable{}
}

// IsCombiningMark reports whether r should be merged into the previous
// cell instead of occupying a cell of its own, per Unicode's canonical
// combining class (exposed via golang.org/x/text/unicode/norm's boundary
// properties rather than a hand-rolled table).
func IsCombiningMark(r rune) bool {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	return !norm.NFC.BoundaryBefore(buf[:n])
}

// Compose stores (base, combiners...) and returns the synthetic Char value
// to place in the cell. If base already indexes an existing sequence
// sharing the same base+combiners it is not deduplicated — callers append
// one mark at a time via Append instead.
func (t *CombiningTable) Compose(base rune, combiners ...rune) rune {
	seq := make([]rune, 0, 1+len(combiners))
	seq = append(seq, base)
	seq = append(seq, combiners...)
	t.sequences = append(t.sequences, seq)
	return combCharsBase + rune(len(t.sequences)-1)
}

// Append adds mark to the sequence referenced by char (which must already
// be a composed index). It returns nothing: the index stays the same because
// the table entry is mutated in place, so existing tracking points / cell
// copies that reference this index keep seeing the growing sequence.
func (t *CombiningTable) Append(char rune, mark rune) {
	idx := int(char - combCharsBase)
	if idx < 0 || idx >= len(t.sequences) {
		return
	}
	t.sequences[idx] = append(t.sequences[idx], mark)
}

// Sequence returns the full base+combiners rune sequence for a composed
// Char value, or nil if char is not a composed index.
func (t *CombiningTable) Sequence(char rune) []rune {
	idx := int(char - combCharsBase)
	if idx < 0 || idx >= len(t.sequences) {
		return nil
	}
	return t.sequences[idx]
}

// ResolveChar returns the base glyph used for width computation and reflow
// decisions (spec.md §4.6: "resolve COMB_CHARS_LO codes via the composed
// table to read the head glyph"). Non-composed runes are returned as-is.
func (t *CombiningTable) ResolveChar(char rune) rune {
	if char < combCharsBase {
		return char
	}
	seq := t.Sequence(char)
	if len(seq) == 0 {
		return char
	}
	return seq[0]
}

