package headlessterm

// SwapRows exchanges the two screen-relative rows a and b (a != b) without
// emitting damage; callers that need a repaint emit it themselves
// (spec.md §4.2). Panics (via defensive no-op) are avoided by simply
// ignoring an invalid call, matching spec.md §7's "invariant violation ->
// defensive clamp" policy for release builds.
func (buf *Buffer) SwapRows(a, b int) {
	if a == b || a < 0 || b < 0 || a >= buf.screenRows || b >= buf.screenRows {
		return
	}
	ra, rb := buf.ringRow(a), buf.ringRow(b)
	buf.ring[ra], buf.ring[rb] = buf.ring[rb], buf.ring[ra]
}

// ScrollUp shifts lines up by n positions within the screen-relative
// half-open region [top, bottom): row pointers are rotated (spec.md §4.4 —
// "rotating a window of row pointers within the ring"), never cell
// contents copied. When the region is the entire screen (top==0, bottom==
// Rows()) the rotation also advances the ring's offset, spilling evicted
// rows into scrollback; a narrower DEC STBM margin never feeds scrollback,
// matching real VT behavior. Erases [bottom-n, bottom) and emits SCROLL
// damage.
func (b *Buffer) ScrollUp(top, bottom, n int) {
	top, bottom, n = b.clampScrollRegion(top, bottom, n)
	if n <= 0 {
		return
	}

	if top == 0 && bottom == b.screenRows {
		b.scrollUpFullScreen(n)
	} else {
		b.scrollUpWindow(top, bottom, n)
	}

	b.hasDirty = true
	b.damage.EmitScroll(DamageScroll, n, top, bottom, b.cols)
}

// scrollUpFullScreen advances the ring offset by n, pushing the n
// newly-scrolled-off rows to the ScrollbackProvider when one is attached,
// and appending n freshly-blanked rows at the new bottom of the screen.
func (b *Buffer) scrollUpFullScreen(n int) {
	for i := 0; i < n; i++ {
		evicted := b.ring[b.idx(b.offset+i)]
		if b.scrollback != nil && b.scrollback.MaxLines() > 0 {
			b.scrollback.Push(evicted.cells)
		}
		b.destroySixelsOnRow(evicted)
	}

	wasAnchored := b.view == b.offset
	b.offset = b.idx(b.offset + n)
	if wasAnchored {
		b.view = b.offset
	}

	b.historyRows += n
	if max := b.numRows - b.screenRows; b.historyRows > max {
		b.historyRows = max
	}

	for i := 0; i < n; i++ {
		screenRow := b.screenRows - n + i
		ringIdx := b.ringRow(screenRow)
		b.ring[ringIdx] = newRow(b.cols, true)
	}
}

// scrollUpWindow rotates row pointers within [top,bottom) by n without
// touching offset/view or scrollback: rows below the window are untouched
// because they keep referencing the same ring slots.
func (b *Buffer) scrollUpWindow(top, bottom, n int) {
	h := bottom - top
	window := make([]*Row, h)
	for i := 0; i < h; i++ {
		window[i] = b.ring[b.ringRow(top+i)]
	}

	for i := 0; i < h-n; i++ {
		window[i] = window[i+n]
	}
	for i := h - n; i < h; i++ {
		old := window[i]
		b.destroySixelsOnRow(old)
		window[i] = newRow(b.cols, true)
	}

	for i := 0; i < h; i++ {
		b.ring[b.ringRow(top+i)] = window[i]
	}
}

// ScrollDown is the mirror of ScrollUp: lines shift toward higher row
// numbers, the vacated rows at the top of the region are blanked, and
// SCROLL_REVERSE damage is emitted. A full-screen scroll-down never feeds
// or drains scrollback (there is nothing above the live screen to recall
// this way); it simply rotates the offset backwards.
func (b *Buffer) ScrollDown(top, bottom, n int) {
	top, bottom, n = b.clampScrollRegion(top, bottom, n)
	if n <= 0 {
		return
	}

	if top == 0 && bottom == b.screenRows {
		b.scrollDownFullScreen(n)
	} else {
		b.scrollDownWindow(top, bottom, n)
	}

	b.hasDirty = true
	b.damage.EmitScroll(DamageScrollReverse, n, top, bottom, b.cols)
}

func (b *Buffer) scrollDownFullScreen(n int) {
	wasAnchored := b.view == b.offset
	for i := 0; i < n; i++ {
		evicted := b.ring[b.idx(b.offset-1-i)]
		b.destroySixelsOnRow(evicted)
	}
	b.offset = b.idx(b.offset - n)
	if wasAnchored {
		b.view = b.offset
	}
	b.historyRows -= n
	if b.historyRows < 0 {
		b.historyRows = 0
	}
	for i := 0; i < n; i++ {
		ringIdx := b.ringRow(i)
		b.ring[ringIdx] = newRow(b.cols, true)
	}
}

func (b *Buffer) scrollDownWindow(top, bottom, n int) {
	h := bottom - top
	window := make([]*Row, h)
	for i := 0; i < h; i++ {
		window[i] = b.ring[b.ringRow(top+i)]
	}

	for i := h - 1; i >= n; i-- {
		window[i] = window[i-n]
	}
	for i := 0; i < n; i++ {
		old := window[i]
		b.destroySixelsOnRow(old)
		window[i] = newRow(b.cols, true)
	}

	for i := 0; i < h; i++ {
		b.ring[b.ringRow(top+i)] = window[i]
	}
}

// clampScrollRegion normalizes (top, bottom, n): out-of-range bounds are
// clamped to the screen, and n >= region height collapses to exactly the
// region height ("erase the region", spec.md §4.4 and §9's resolution of
// the original's untested n>=H assertion — the DamageLog's own coalescing
// promotes the resulting full-region SCROLL into an ERASE, see damage.go).
func (b *Buffer) clampScrollRegion(top, bottom, n int) (int, int, int) {
	if top < 0 {
		top = 0
	}
	if bottom > b.screenRows {
		bottom = b.screenRows
	}
	if top >= bottom || n <= 0 {
		return top, bottom, 0
	}
	h := bottom - top
	if n > h {
		n = h
	}
	return top, bottom, n
}
