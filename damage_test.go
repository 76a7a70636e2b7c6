package headlessterm

import "testing"

func TestDamageLogCoalescesTouchingRanges(t *testing.T) {
	d := NewDamageLog()
	d.EmitRange(DamageUpdate, 10, 5) // [10,15)
	d.EmitRange(DamageUpdate, 15, 5) // touches at 15, should merge into [10,20)

	recs := d.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 coalesced record, got %d", len(recs))
	}
	if recs[0].Start != 10 || recs[0].Length != 10 {
		t.Errorf("got start=%d length=%d, want start=10 length=10", recs[0].Start, recs[0].Length)
	}
}

func TestDamageLogDoesNotCoalesceDifferentKinds(t *testing.T) {
	d := NewDamageLog()
	d.EmitRange(DamageUpdate, 0, 5)
	d.EmitRange(DamageErase, 5, 5)

	if len(d.Records()) != 2 {
		t.Fatalf("expected 2 records (different kinds don't merge), got %d", len(d.Records()))
	}
}

func TestDamageLogDoesNotCoalesceNonTouchingRanges(t *testing.T) {
	d := NewDamageLog()
	d.EmitRange(DamageUpdate, 0, 5)
	d.EmitRange(DamageUpdate, 10, 5)

	if len(d.Records()) != 2 {
		t.Fatalf("expected 2 disjoint records, got %d", len(d.Records()))
	}
}

// Scenario 1 from spec.md §8: scroll inside a scrolling region leaves a
// single DamageScroll record with the accumulated line count.
func TestDamageLogScrollInsideRegionRecordsScroll(t *testing.T) {
	d := NewDamageLog()
	cols := 80
	// region rows [1,20), scroll up by 3
	d.EmitScroll(DamageScroll, 3, 1, 20, cols)

	recs := d.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Kind != DamageScroll || recs[0].Lines != 3 {
		t.Errorf("got kind=%v lines=%d, want DamageScroll lines=3", recs[0].Kind, recs[0].Lines)
	}
}

// Scenario 2 from spec.md §8: an UPDATE on row 0 followed by a full-screen
// scroll_up(1) removes the row-0 update, since that row is being scrolled
// off entirely and only the scroll record remains for it.
func TestDamageLogScrollAdjustsPriorRangeRecord(t *testing.T) {
	d := NewDamageLog()
	cols := 80
	rows := 24

	d.EmitRange(DamageUpdate, 0, cols) // row 0 dirty
	d.EmitScroll(DamageScroll, 1, 0, rows, cols)

	for _, rec := range d.Records() {
		if rec.Kind == DamageUpdate && rec.Start == 0 {
			t.Fatalf("row-0 update record should have been consumed by the scroll, found %+v", rec)
		}
	}
}

func TestDamageLogOversizedScrollPromotesToErase(t *testing.T) {
	d := NewDamageLog()
	cols := 80
	// region height is 10 rows; scrolling by >= 10 should erase the whole region
	d.EmitScroll(DamageScroll, 12, 5, 15, cols)

	recs := d.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Kind != DamageErase {
		t.Fatalf("expected erase promotion, got kind=%v", recs[0].Kind)
	}
	if recs[0].Start != 5*cols || recs[0].Length != 10*cols {
		t.Errorf("got start=%d length=%d, want start=%d length=%d", recs[0].Start, recs[0].Length, 5*cols, 10*cols)
	}
}

func TestDamageLogScrollWithNonzeroTopMarginClipsRanges(t *testing.T) {
	d := NewDamageLog()
	cols := 80

	// dirty row 0, which is entirely above the scrolling region [5,20)
	d.EmitRange(DamageUpdate, 0, cols)
	d.EmitScroll(DamageScroll, 2, 5, 20, cols)

	found := false
	for _, rec := range d.Records() {
		if rec.Kind == DamageUpdate && rec.Start == 0 && rec.Length == cols {
			found = true
		}
	}
	if !found {
		t.Errorf("row above a nonzero-top-margin region should survive the scroll untouched")
	}
}

func TestDamageLogClearEmptiesRecords(t *testing.T) {
	d := NewDamageLog()
	d.EmitRange(DamageUpdate, 0, 10)
	if d.IsEmpty() {
		t.Fatal("expected non-empty log before Clear")
	}
	d.Clear()
	if !d.IsEmpty() {
		t.Fatal("expected empty log after Clear")
	}
}
