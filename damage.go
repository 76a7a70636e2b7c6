package headlessterm

// DamageKind distinguishes the two record shapes a DamageLog holds: a
// linear cell range, or a whole-region scroll delta.
type DamageKind uint8

const (
	// DamageUpdate marks a linear range whose cell contents changed.
	DamageUpdate DamageKind = iota
	// DamageErase marks a linear range that was blanked.
	DamageErase
	// DamageScroll marks a forward (up) whole-region shift of n lines.
	DamageScroll
	// DamageScrollReverse marks a backward (down) whole-region shift of n lines.
	DamageScrollReverse
)

func (k DamageKind) isRange() bool {
	return k == DamageUpdate || k == DamageErase
}

func (k DamageKind) isScroll() bool {
	return k == DamageScroll || k == DamageScrollReverse
}

// DamageRecord is one entry in a DamageLog. For range records Start/Length
// describe a linear [Start, Start+Length) span (linear = row*cols+col). For
// scroll records Lines is the accumulated shift and Start/Length are unused.
type DamageRecord struct {
	Kind   DamageKind
	Start  int
	Length int
	Lines  int
}

// DamageLog is the ordered, coalescing dirty-region log described in
// spec.md §4.3. Scroll records live at the front and merge by type; range
// records coalesce at the back when they touch or overlap an existing
// record of the same kind. Renderers drain it with Records/Clear.
type DamageLog struct {
	records []DamageRecord
}

// NewDamageLog returns an empty log.
func NewDamageLog() *DamageLog {
	return &DamageLog{}
}

// Records returns the current ordered record list. The slice is only valid
// until the next mutating call on the log.
func (d *DamageLog) Records() []DamageRecord {
	return d.records
}

// Clear empties the log; called by the renderer after it has consumed Records.
func (d *DamageLog) Clear() {
	d.records = d.records[:0]
}

// IsEmpty reports whether the log currently holds no records.
func (d *DamageLog) IsEmpty() bool {
	return len(d.records) == 0
}

// EmitRange records a dirty/erased linear range [start, start+length).
// Coalesces with the trailing record when it is the same kind and the
// ranges touch or overlap (spec.md §4.3 step 1).
func (d *DamageLog) EmitRange(kind DamageKind, start, length int) {
	if length <= 0 {
		return
	}
	end := start + length

	if n := len(d.records); n > 0 {
		last := &d.records[n-1]
		if last.Kind == kind && last.Kind.isRange() {
			prevStart, prevEnd := last.Start, last.Start+last.Length
			if start <= prevEnd && prevStart <= end {
				if start < prevStart {
					prevStart = start
				}
				if end > prevEnd {
					prevEnd = end
				}
				last.Start = prevStart
				last.Length = prevEnd - prevStart
				return
			}
		}
	}

	d.records = append(d.records, DamageRecord{Kind: kind, Start: start, Length: length})
}

// EmitScroll records a whole-region scroll of n lines (spec.md §4.3
// steps 2-4). regionTop/regionBottom/cols describe the scrolling region in
// screen rows so the method can promote an over-large scroll to an ERASE
// and clip/adjust the preceding range records.
func (d *DamageLog) EmitScroll(kind DamageKind, n, regionTop, regionBottom, cols int) {
	if n <= 0 {
		return
	}

	regionHeight := regionBottom - regionTop
	if regionHeight <= 0 {
		return
	}

	if len(d.records) > 0 && d.records[0].Kind == kind && d.records[0].Kind.isScroll() {
		d.records[0].Lines += n
	} else {
		d.records = append([]DamageRecord{{Kind: kind, Lines: n}}, d.records...)
	}

	lines := d.records[0].Lines
	if lines >= regionHeight {
		d.records[0] = DamageRecord{
			Kind:   DamageErase,
			Start:  regionTop * cols,
			Length: regionHeight * cols,
		}
	}

	d.adjustForScroll(kind, n, regionTop, regionBottom, cols)
}

// adjustForScroll shifts every range record behind the scroll record into
// the coordinate frame of the post-scroll screen (spec.md §4.3 step 4),
// clipping against the scrolling region (including a nonzero top margin —
// see SPEC_FULL.md §9 on the original's top_margin==0 restriction).
func (d *DamageLog) adjustForScroll(kind DamageKind, n, regionTop, regionBottom, cols int) {
	delta := n * cols
	if kind == DamageScrollReverse {
		delta = -delta
	}

	regionStart := regionTop * cols
	regionEnd := regionBottom * cols

	// A fresh slice: splitting one record into several must not overwrite
	// records that the loop below has not read yet.
	out := make([]DamageRecord, 1, len(d.records)+2)
	out[0] = d.records[0] // keep the (possibly just-written) scroll/erase record at front
	for _, rec := range d.records[1:] {
		if !rec.Kind.isRange() {
			out = append(out, rec)
			continue
		}

		start, end := rec.Start, rec.Start+rec.Length

		// Portion before the region is untouched by the scroll.
		if start < regionStart {
			before := end
			if before > regionStart {
				before = regionStart
			}
			out = append(out, DamageRecord{Kind: rec.Kind, Start: start, Length: before - start})
		}

		// Portion after the region is untouched by the scroll.
		if end > regionEnd {
			after := start
			if after < regionEnd {
				after = regionEnd
			}
			out = append(out, DamageRecord{Kind: rec.Kind, Start: after, Length: end - after})
		}

		// Portion inside the region shifts by delta and clips/drops at the edges.
		insideStart, insideEnd := start, end
		if insideStart < regionStart {
			insideStart = regionStart
		}
		if insideEnd > regionEnd {
			insideEnd = regionEnd
		}
		if insideStart >= insideEnd {
			continue
		}

		newStart := insideStart - delta
		newEnd := insideEnd - delta
		if newStart < regionStart {
			newStart = regionStart
		}
		if newEnd > regionEnd {
			newEnd = regionEnd
		}
		if newStart >= newEnd {
			continue
		}
		out = append(out, DamageRecord{Kind: rec.Kind, Start: newStart, Length: newEnd - newStart})
	}
	d.records = out
}
