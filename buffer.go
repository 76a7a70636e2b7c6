package headlessterm

// Buffer is the grid ring described in spec.md §3: a circular array of row
// pointers, sized to a power of two, with a rotating `offset` (top of the
// live screen) and `view` (top of what's currently shown, which differs
// from offset once the user has scrolled back). Screen-relative methods
// (Cell, SetCell, ScrollUp, ...) keep the signatures callers already use;
// internally every one of them resolves through offset/mask rather than
// caching a row pointer, so invariant 4 ("cur_row == rows[(offset+cursor.row)
// & mask]") holds by construction instead of needing upkeep.
type Buffer struct {
	numRows    int // power of two; ring capacity
	mask       int
	screenRows int // visible rows (spec.md's screen_rows)
	cols       int

	offset int // ring index of the top visible screen row
	view   int // ring index of the top user-visible row

	// historyRows counts how many ring rows immediately behind offset hold
	// real scrolled-in content, as opposed to never-written ring capacity.
	// Bounded to [0, numRows-screenRows]. Resize/reflow and scrollback
	// browsing walk exactly this many rows of history, never the ring's
	// full physical slack, so unused capacity never masquerades as content.
	historyRows int

	ring []*Row

	tabStop    []bool
	scrollback ScrollbackProvider // overflow storage once ring scrollback fills up

	hasDirty bool
	damage   *DamageLog
	sixels   []*SixelAnchor

	scrollRegionTop    int // screen-relative, half-open [top,bottom)
	scrollRegionBottom int

	combining *CombiningTable
}

// NewBuffer creates a buffer with the given dimensions and no scrollback
// (used for the alternate screen, which never keeps history).
func NewBuffer(rows, cols int) *Buffer {
	return NewBufferWithStorage(rows, cols, NoopScrollback{})
}

// ringScrollbackWindow is how many extra screens' worth of ring rows
// (beyond the visible screen) are kept live for scrollback before older
// lines are pushed out to the ScrollbackProvider. Generous enough that
// ordinary scrollback browsing, selection and sixel re-homing never need
// to touch the provider.
const ringScrollbackWindow = 4

// NewBufferWithStorage creates a buffer with custom scrollback storage.
// Tab stops are initialized every 8 columns.
func NewBufferWithStorage(rows, cols int, storage ScrollbackProvider) *Buffer {
	want := rows
	if _, noop := storage.(NoopScrollback); !noop && storage != nil {
		want = rows * (1 + ringScrollbackWindow)
	}
	numRows := nextPowerOfTwo(want)

	b := &Buffer{
		numRows:            numRows,
		mask:               numRows - 1,
		screenRows:         rows,
		cols:               cols,
		tabStop:            make([]bool, cols),
		scrollback:         storage,
		damage:             NewDamageLog(),
		combining:          NewCombiningTable(),
		scrollRegionBottom: rows,
	}

	b.ring = make([]*Row, numRows)
	for i := range b.ring {
		b.ring[i] = newRow(cols, true)
	}

	for i := 0; i < cols; i += 8 {
		b.tabStop[i] = true
	}

	return b
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (b *Buffer) idx(i int) int {
	return i & b.mask
}

// ringRow translates a screen-relative row into a ring index.
func (b *Buffer) ringRow(row int) int {
	return b.idx(b.offset + row)
}

// Rows returns the buffer height in character rows (the visible screen,
// not the ring's scrollback capacity).
func (b *Buffer) Rows() int {
	return b.screenRows
}

// Cols returns the buffer width in character columns.
func (b *Buffer) Cols() int {
	return b.cols
}

// SetScrollRegion records the scrolling region (screen-relative, half-open)
// used by ScrollUp/ScrollDown and by DamageLog's scroll-adjustment clipping.
func (b *Buffer) SetScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom > b.screenRows {
		bottom = b.screenRows
	}
	if top >= bottom {
		return
	}
	b.scrollRegionTop = top
	b.scrollRegionBottom = bottom
}

// ScrollRegion returns the current scrolling region (screen-relative, half-open).
func (b *Buffer) ScrollRegion() (top, bottom int) {
	return b.scrollRegionTop, b.scrollRegionBottom
}

// Damage returns the buffer's damage log.
func (b *Buffer) Damage() *DamageLog {
	return b.damage
}

// Combining returns the buffer's composed-character table.
func (b *Buffer) Combining() *CombiningTable {
	return b.combining
}

// row returns the Row at screen-relative index, or nil if out of bounds.
func (b *Buffer) row(row int) *Row {
	if row < 0 || row >= b.screenRows {
		return nil
	}
	return b.ring[b.ringRow(row)]
}

func (b *Buffer) linear(row, col int) int {
	return row*b.cols + col
}

// Cell returns a pointer to the cell at (row, col), screen-relative.
// Returns nil if coordinates are out of bounds. The pointer is valid until
// the next mutation that reallocates the owning row (resize, reflow).
func (b *Buffer) Cell(row, col int) *Cell {
	if col < 0 || col >= b.cols {
		return nil
	}
	r := b.row(row)
	if r == nil {
		return nil
	}
	return &r.cells[col]
}

// SetCell replaces the cell at (row, col) and marks it dirty.
// Does nothing if coordinates are out of bounds.
func (b *Buffer) SetCell(row, col int, cell Cell) {
	r := b.row(row)
	if r == nil || col < 0 || col >= b.cols {
		return
	}
	cell.MarkDirty()
	r.cells[col] = cell
	r.dirty = true
	b.hasDirty = true
	b.damage.EmitRange(DamageUpdate, b.linear(row, col), 1)
}

// MarkDirty marks the cell at (row, col) as modified.
// Does nothing if coordinates are out of bounds.
func (b *Buffer) MarkDirty(row, col int) {
	r := b.row(row)
	if r == nil || col < 0 || col >= b.cols {
		return
	}
	r.cells[col].MarkDirty()
	r.dirty = true
	b.hasDirty = true
	b.damage.EmitRange(DamageUpdate, b.linear(row, col), 1)
}

// HasDirty returns true if any cell has been modified since the last ClearAllDirty call.
func (b *Buffer) HasDirty() bool {
	return b.hasDirty
}

// DirtyCells returns positions of all modified cells on the visible screen.
func (b *Buffer) DirtyCells() []Position {
	var positions []Position
	for row := 0; row < b.screenRows; row++ {
		r := b.ring[b.ringRow(row)]
		for col := range r.cells {
			if r.cells[col].IsDirty() {
				positions = append(positions, Position{Row: row, Col: col})
			}
		}
	}
	return positions
}

// ClearAllDirty resets the dirty state of all cells on the visible screen.
func (b *Buffer) ClearAllDirty() {
	for row := 0; row < b.screenRows; row++ {
		r := b.ring[b.ringRow(row)]
		for col := range r.cells {
			r.cells[col].ClearDirty()
		}
		r.dirty = false
	}
	b.hasDirty = false
}

// ClearRow resets all cells in the row to default state and marks them dirty.
func (b *Buffer) ClearRow(row int) {
	r := b.row(row)
	if r == nil {
		return
	}
	b.eraseRowRange(row, r, 0, b.cols)
}

// ClearRowRange resets cells in the row from startCol (inclusive) to endCol (exclusive).
func (b *Buffer) ClearRowRange(row, startCol, endCol int) {
	r := b.row(row)
	if r == nil {
		return
	}
	if startCol < 0 {
		startCol = 0
	}
	if endCol > b.cols {
		endCol = b.cols
	}
	b.eraseRowRange(row, r, startCol, endCol)
}

func (b *Buffer) eraseRowRange(row int, r *Row, startCol, endCol int) {
	if startCol >= endCol {
		return
	}
	for col := startCol; col < endCol; col++ {
		r.cells[col].Reset()
		r.cells[col].MarkDirty()
	}
	r.dirty = true
	b.hasDirty = true
	b.damage.EmitRange(DamageErase, b.linear(row, startCol), endCol-startCol)
}

// ClearAll resets all cells in the buffer to default state.
func (b *Buffer) ClearAll() {
	for row := 0; row < b.screenRows; row++ {
		b.ClearRow(row)
	}
}

// InsertLines inserts n blank lines at row, shifting existing lines down.
// Equivalent to ScrollDown(row, bottom, n).
func (b *Buffer) InsertLines(row, n, bottom int) {
	if row < 0 || row >= bottom || n <= 0 {
		return
	}
	b.ScrollDown(row, bottom, n)
}

// DeleteLines removes n lines at row, shifting remaining lines up.
// Equivalent to ScrollUp(row, bottom, n).
func (b *Buffer) DeleteLines(row, n, bottom int) {
	if row < 0 || row >= bottom || n <= 0 {
		return
	}
	b.ScrollUp(row, bottom, n)
}

// InsertBlanks inserts n blank cells at (row, col), shifting existing characters right.
func (b *Buffer) InsertBlanks(row, col, n int) {
	r := b.row(row)
	if r == nil || col < 0 || col >= b.cols || n <= 0 {
		return
	}

	for c := b.cols - 1; c >= col+n; c-- {
		r.cells[c] = r.cells[c-n]
		r.cells[c].MarkDirty()
	}
	end := col + n
	if end > b.cols {
		end = b.cols
	}
	for c := col; c < end; c++ {
		r.cells[c].Reset()
		r.cells[c].MarkDirty()
	}
	r.dirty = true
	b.hasDirty = true
	b.damage.EmitRange(DamageUpdate, b.linear(row, col), b.cols-col)
}

// DeleteChars removes n characters at (row, col), shifting remaining characters left.
func (b *Buffer) DeleteChars(row, col, n int) {
	r := b.row(row)
	if r == nil || col < 0 || col >= b.cols || n <= 0 {
		return
	}

	for c := col; c < b.cols-n; c++ {
		r.cells[c] = r.cells[c+n]
		r.cells[c].MarkDirty()
	}
	for c := b.cols - n; c < b.cols; c++ {
		if c >= 0 {
			r.cells[c].Reset()
			r.cells[c].MarkDirty()
		}
	}
	r.dirty = true
	b.hasDirty = true
	b.damage.EmitRange(DamageUpdate, b.linear(row, col), b.cols-col)
}

// SetTabStop enables a tab stop at the specified column.
func (b *Buffer) SetTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStop[col] = true
	}
}

// ClearTabStop disables the tab stop at the specified column.
func (b *Buffer) ClearTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStop[col] = false
	}
}

// ClearAllTabStops disables all tab stops.
func (b *Buffer) ClearAllTabStops() {
	for i := range b.tabStop {
		b.tabStop[i] = false
	}
}

// NextTabStop returns the column index of the next enabled tab stop after col.
// Returns the last column if no tab stop is found.
func (b *Buffer) NextTabStop(col int) int {
	for c := col + 1; c < b.cols; c++ {
		if b.tabStop[c] {
			return c
		}
	}
	return b.cols - 1
}

// PrevTabStop returns the column index of the previous enabled tab stop before col.
// Returns 0 if no tab stop is found.
func (b *Buffer) PrevTabStop(col int) int {
	for c := col - 1; c >= 0; c-- {
		if b.tabStop[c] {
			return c
		}
	}
	return 0
}

// FillWithE fills all cells with 'E' (used by DECALN alignment test pattern).
func (b *Buffer) FillWithE() {
	for row := 0; row < b.screenRows; row++ {
		r := b.ring[b.ringRow(row)]
		for col := range r.cells {
			r.cells[col].Reset()
			r.cells[col].Char = 'E'
			r.cells[col].MarkDirty()
		}
		r.dirty = true
	}
	b.hasDirty = true
	b.damage.EmitRange(DamageUpdate, 0, b.screenRows*b.cols)
}

// ScrollbackLen returns the number of lines stored in the overflow scrollback provider.
func (b *Buffer) ScrollbackLen() int {
	if b.scrollback == nil {
		return 0
	}
	return b.scrollback.Len()
}

// ScrollbackLine returns a line from the overflow scrollback provider, where
// 0 is the oldest line. Returns nil if index is out of range or disabled.
func (b *Buffer) ScrollbackLine(index int) []Cell {
	if b.scrollback == nil {
		return nil
	}
	return b.scrollback.Line(index)
}

// ClearScrollback removes all stored scrollback lines (provider + in-ring history).
func (b *Buffer) ClearScrollback() {
	if b.scrollback != nil {
		b.scrollback.Clear()
	}
	b.view = b.offset
	b.historyRows = 0
}

// SetMaxScrollback sets the maximum number of scrollback lines to retain in the provider.
func (b *Buffer) SetMaxScrollback(max int) {
	if b.scrollback != nil {
		b.scrollback.SetMaxLines(max)
	}
}

// MaxScrollback returns the current maximum scrollback capacity of the provider.
func (b *Buffer) MaxScrollback() int {
	if b.scrollback == nil {
		return 0
	}
	return b.scrollback.MaxLines()
}

// SetScrollbackProvider replaces the scrollback storage implementation.
func (b *Buffer) SetScrollbackProvider(storage ScrollbackProvider) {
	b.scrollback = storage
}

// ScrollbackProvider returns the current scrollback storage implementation.
func (b *Buffer) ScrollbackProvider() ScrollbackProvider {
	return b.scrollback
}

// InRingScrollbackLen returns how many ring rows the view has currently
// scrolled back by (i.e. how far into history the user is looking).
func (b *Buffer) InRingScrollbackLen() int {
	return b.idx(b.offset - b.view)
}

// AvailableHistoryRows returns how many ring rows behind the visible screen
// hold real scrolled-in content and can be reached by scrolling the view
// back without consulting the ScrollbackProvider.
func (b *Buffer) AvailableHistoryRows() int {
	return b.historyRows
}

// LineContent returns the text content of a line, trimming trailing spaces.
// Wide character spacers are skipped. Returns empty string if the line is empty or out of bounds.
func (b *Buffer) LineContent(row int) string {
	r := b.row(row)
	if r == nil {
		return ""
	}
	return lineContent(r.cells)
}

func lineContent(cells []Cell) string {
	lastNonSpace := -1
	for col := len(cells) - 1; col >= 0; col-- {
		cell := &cells[col]
		if cell.Char != ' ' && cell.Char != 0 && !cell.IsWideSpacer() {
			lastNonSpace = col
			break
		}
	}

	if lastNonSpace < 0 {
		return ""
	}

	runes := make([]rune, 0, lastNonSpace+1)
	for col := range cells[:lastNonSpace+1] {
		cell := &cells[col]
		if cell.IsWideSpacer() {
			continue
		}
		if cell.Char == 0 {
			runes = append(runes, ' ')
		} else {
			runes = append(runes, cell.Char)
		}
	}

	return string(runes)
}

// --- Auto Resize ---

// GrowRows appends n new rows to the ring's scrollback tail and to the
// visible screen (used by the auto-resize/unlimited-scroll mode).
func (b *Buffer) GrowRows(n int) {
	if n <= 0 {
		return
	}
	b.growRingCapacity(n)
	b.screenRows += n
	b.scrollRegionBottom = b.screenRows
}

// growRingCapacity ensures at least n more ring slots exist beyond the
// current screen+scrollback usage, rebuilding the ring at the next power of
// two if necessary and re-homing offset/view/sixels.
func (b *Buffer) growRingCapacity(n int) {
	needed := b.screenRows + b.historyRows + n
	if needed <= b.numRows {
		return
	}
	b.linearizeRing(nextPowerOfTwo(needed))
}

// linearizeRing rebuilds the ring storage at newNumRows capacity, walking
// the existing ring from its oldest row so absolute ordering is preserved,
// and resets offset/view to keep the screen and viewport anchored.
func (b *Buffer) linearizeRing(newNumRows int) {
	totalRows := b.historyRows + b.screenRows
	oldest := b.idx(b.offset - b.historyRows)
	ordered := make([]*Row, 0, totalRows)
	for i := 0; i < totalRows; i++ {
		ordered = append(ordered, b.ring[b.idx(oldest+i)])
	}
	viewDistanceFromOffset := b.idx(b.offset - b.view)

	newRing := make([]*Row, newNumRows)
	copy(newRing, ordered)
	for i := len(ordered); i < newNumRows; i++ {
		newRing[i] = newRow(b.cols, true)
	}

	newOffset := len(ordered) - b.screenRows
	if newOffset < 0 {
		newOffset = 0
	}
	b.ring = newRing
	b.numRows = newNumRows
	b.mask = newNumRows - 1
	b.offset = b.idx(newOffset)
	b.historyRows = newOffset
	if b.historyRows > newNumRows-b.screenRows {
		b.historyRows = newNumRows - b.screenRows
	}
	b.view = b.idx(newOffset - viewDistanceFromOffset)
	// Sixel anchors reference Row objects directly (sixel_anchor.go), so
	// they remain valid automatically; nothing to remap here.
}

// GrowCols expands every row to at least minCols columns. Tab stops are
// extended if needed.
func (b *Buffer) GrowCols(row, minCols int) {
	if minCols <= b.cols {
		return
	}
	for i := range b.ring {
		b.ring[i].resize(minCols)
	}

	newTabStop := make([]bool, minCols)
	copy(newTabStop, b.tabStop)
	for i := len(b.tabStop); i < minCols; i += 8 {
		newTabStop[i] = true
	}
	b.tabStop = newTabStop
	b.cols = minCols
	b.hasDirty = true
}

// --- Wrapped Line Tracking ---

// IsWrapped returns true if the line is a soft-wrap continuation (i.e. does
// not end a logical line). This is `!linebreak` in spec.md terms.
func (b *Buffer) IsWrapped(row int) bool {
	r := b.row(row)
	if r == nil {
		return false
	}
	return !r.linebreak
}

// SetWrapped sets whether the line is a soft-wrap continuation (true) or
// ends a logical line (false maps to linebreak=true).
func (b *Buffer) SetWrapped(row int, wrapped bool) {
	r := b.row(row)
	if r == nil {
		return
	}
	r.linebreak = !wrapped
}

// Position identifies a cell location in the terminal grid (0-based).
type Position struct {
	Row int
	Col int
}

// Before returns true if this position comes before other in reading order (top-to-bottom, left-to-right).
func (p Position) Before(other Position) bool {
	if p.Row < other.Row {
		return true
	}
	if p.Row == other.Row && p.Col < other.Col {
		return true
	}
	return false
}

// Equal returns true if both row and column match.
func (p Position) Equal(other Position) bool {
	return p.Row == other.Row && p.Col == other.Col
}
