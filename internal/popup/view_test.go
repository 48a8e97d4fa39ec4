package popup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rangeOf(v *View) [2]int {
	s, e := v.Range()
	return [2]int{s, e}
}

func TestViewSyncClampsToCollection(t *testing.T) {
	v := NewView(3)

	v.Sync(0)
	assert.Equal(t, [2]int{0, 0}, rangeOf(&v))

	v.Sync(2)
	assert.Equal(t, [2]int{0, 2}, rangeOf(&v))
	assert.Equal(t, 0, v.PrevHidden())
	assert.Equal(t, 0, v.NextHidden())

	v.Sync(5)
	assert.Equal(t, [2]int{0, 3}, rangeOf(&v))
	assert.Equal(t, 2, v.NextHidden())
}

func TestViewSyncAfterShrink(t *testing.T) {
	v := NewView(3)
	v.Sync(10)
	v.ScrollTo(9, 10)
	assert.Equal(t, [2]int{7, 10}, rangeOf(&v))

	// Collection shrinks under the window
	v.Sync(8)
	assert.Equal(t, [2]int{5, 8}, rangeOf(&v))

	v.Sync(2)
	assert.Equal(t, [2]int{0, 2}, rangeOf(&v))
}

func TestViewNextLookahead(t *testing.T) {
	v := NewView(3)
	v.Sync(5)

	// Focus walks 0, 1, 2: landing on the window's last row slides it
	v.Next(0, 5)
	assert.Equal(t, [2]int{0, 3}, rangeOf(&v))
	v.Next(1, 5)
	assert.Equal(t, [2]int{0, 3}, rangeOf(&v))
	v.Next(2, 5)
	assert.Equal(t, [2]int{1, 4}, rangeOf(&v))
	assert.Equal(t, 1, v.PrevHidden())
	assert.Equal(t, 1, v.NextHidden())

	v.Next(3, 5)
	assert.Equal(t, [2]int{2, 5}, rangeOf(&v))
	// Last row of the collection: nothing below left to look ahead at
	v.Next(4, 5)
	assert.Equal(t, [2]int{2, 5}, rangeOf(&v))

	// Wrap to the front resets the window
	v.Next(0, 5)
	assert.Equal(t, [2]int{0, 3}, rangeOf(&v))
}

func TestViewPrevMirrorsNext(t *testing.T) {
	v := NewView(3)
	v.Sync(5)

	// Wrap to the back jumps to the tail window
	v.Prev(4, 5)
	assert.Equal(t, [2]int{2, 5}, rangeOf(&v))
	v.Prev(3, 5)
	assert.Equal(t, [2]int{2, 5}, rangeOf(&v))
	v.Prev(2, 5)
	assert.Equal(t, [2]int{1, 4}, rangeOf(&v))
	v.Prev(1, 5)
	assert.Equal(t, [2]int{0, 3}, rangeOf(&v))
	v.Prev(0, 5)
	assert.Equal(t, [2]int{0, 3}, rangeOf(&v))
}

func TestViewScrollTo(t *testing.T) {
	v := NewView(3)
	v.Sync(10)

	v.ScrollTo(1, 10)
	assert.Equal(t, [2]int{0, 3}, rangeOf(&v))

	v.ScrollTo(6, 10)
	assert.Equal(t, [2]int{4, 7}, rangeOf(&v))
	assert.True(t, v.Visible(6))
	assert.False(t, v.Visible(3))

	v.ScrollTo(2, 10)
	assert.Equal(t, [2]int{2, 5}, rangeOf(&v))
}

func TestViewCountersAbsentWhenAllVisible(t *testing.T) {
	v := NewView(5)
	v.Sync(5)
	assert.Equal(t, 0, v.PrevHidden())
	assert.Equal(t, 0, v.NextHidden())
}
