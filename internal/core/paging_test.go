package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPager(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		count      int
		size       int
		wantNumber int
		wantPages  int
	}{
		{"first page by default", "", 12, 5, 1, 3},
		{"explicit page", "2", 12, 5, 2, 3},
		{"non-integer falls back to first", "abc", 12, 5, 1, 3},
		{"past the end falls back to last", "9", 12, 5, 3, 3},
		{"zero falls back to last", "0", 12, 5, 3, 3},
		{"negative falls back to last", "-1", 12, 5, 3, 3},
		{"empty list has one page", "3", 0, 5, 1, 1},
		{"exact multiple", "2", 10, 5, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPager(tt.raw, tt.count, tt.size)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantPages, p.NumPages)
		})
	}
}

func TestPagerNavigation(t *testing.T) {
	p := NewPager("2", 12, 5)
	assert.Equal(t, 5, p.Offset())
	assert.True(t, p.HasPrevious())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.Previous())
	assert.Equal(t, 3, p.Next())
	assert.Equal(t, []int{1, 2, 3}, p.Pages())

	last := NewPager("3", 12, 5)
	assert.False(t, last.HasNext())
	assert.Equal(t, 10, last.Offset())
}
