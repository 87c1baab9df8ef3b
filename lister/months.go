package lister

import (
	"sort"
	"time"

	"github.com/tnqbao/gau-media-storage/blob"
)

// MonthIndex counts objects per calendar month, keyed by year. Index 0 is January.
type MonthIndex map[int][12]int

func GroupByMonth(files []blob.Object, now time.Time) MonthIndex {
	idx := MonthIndex{}
	for _, f := range files {
		t := modified(f, now).UTC()
		counts := idx[t.Year()]
		counts[t.Month()-1]++
		idx[t.Year()] = counts
	}
	return idx
}

func (m MonthIndex) Total() int {
	total := 0
	for _, counts := range m {
		for _, n := range counts {
			total += n
		}
	}
	return total
}

// Years returns the years present, newest first.
func (m MonthIndex) Years() []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
