// Package chapter manages the chapter list attached to a track: the plain
// text file format, time ordering, and YouTube description imports.
package chapter

import (
	"cmp"
	"slices"
	"time"

	"github.com/wavedeck/wavedeck/internal/timecode"
)

// Chapter is a single named position on the track timeline.
type Chapter struct {
	At    time.Duration `json:"at"`
	Title string        `json:"title"`
}

// String renders the chapter in its file form.
func (c Chapter) String() string {
	return timecode.FormatMillis(c.At) + " " + c.Title
}

// Sort orders chapters ascending by time. The sort is stable so chapters
// sharing a timestamp keep their relative order.
func Sort(chapters []Chapter) {
	slices.SortStableFunc(chapters, func(a, b Chapter) int {
		return cmp.Compare(a.At, b.At)
	})
}
