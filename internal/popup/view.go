package popup

// View is the pagination window over the notification collection: a
// contiguous index range [start, end) plus the two overflow counters. It
// holds no references to notifications, only indices, so collection
// mutations can never leave it pointing at freed entries.
type View struct {
	start      int
	end        int
	maxVisible int

	// Hidden-item counts for the synthetic counter entries. Zero means the
	// counter is absent.
	prevHidden int
	nextHidden int
}

// NewView creates a View showing at most maxVisible entries.
func NewView(maxVisible int) View {
	return View{maxVisible: maxVisible}
}

// Range returns the visible index range [start, end).
func (v *View) Range() (start, end int) {
	return v.start, v.end
}

// MaxVisible returns the window capacity.
func (v *View) MaxVisible() int {
	return v.maxVisible
}

// SetMaxVisible resizes the window capacity. Callers must Sync afterwards.
func (v *View) SetMaxVisible(n int) {
	v.maxVisible = n
}

// PrevHidden returns the number of entries hidden above the window.
func (v *View) PrevHidden() int { return v.prevHidden }

// NextHidden returns the number of entries hidden below the window.
func (v *View) NextHidden() int { return v.nextHidden }

// Visible reports whether collection index i is inside the window.
func (v *View) Visible(i int) bool {
	return i >= v.start && i < v.end
}

// Sync clamps the window against the current collection size and refreshes
// the counters. Call after every collection mutation.
func (v *View) Sync(count int) {
	if count <= v.maxVisible {
		v.start = 0
		v.end = count
	} else {
		if v.start < 0 {
			v.start = 0
		}
		v.end = v.start + v.maxVisible
		if v.end > count {
			v.end = count
			v.start = v.end - v.maxVisible
		}
	}
	v.updateCounters(count)
}

func (v *View) updateCounters(count int) {
	v.prevHidden = v.start
	v.nextHidden = 0
	if count > v.end {
		v.nextHidden = count - v.end
	}
}

// Next adjusts the window after focus moved forward to index idx. Moving
// onto the window's last row while more entries follow slides the window
// one row early, keeping a row of lookahead below the focus. A wrap to the
// front resets the window to the top.
func (v *View) Next(idx, count int) {
	switch {
	case idx == 0:
		v.start = 0
		v.end = v.maxVisible
	case idx >= v.end:
		v.end = idx + 1
		v.start = v.end - v.maxVisible
	case idx == v.end-1 && v.end < count:
		v.start++
		v.end++
	}
	v.Sync(count)
}

// Prev adjusts the window after focus moved backward to index idx,
// mirroring Next: a row of lookahead above the focus, and a wrap to the
// back jumps the window to the tail.
func (v *View) Prev(idx, count int) {
	switch {
	case idx == count-1:
		v.end = count
		v.start = v.end - v.maxVisible
	case idx < v.start:
		v.start = idx
		v.end = v.start + v.maxVisible
	case idx == v.start && v.start > 0:
		v.start--
		v.end--
	}
	v.Sync(count)
}

// ScrollTo moves the window the minimal distance needed to include idx.
func (v *View) ScrollTo(idx, count int) {
	if idx < v.start {
		v.start = idx
		v.end = v.start + v.maxVisible
	} else if idx >= v.end {
		v.end = idx + 1
		v.start = v.end - v.maxVisible
	}
	v.Sync(count)
}
