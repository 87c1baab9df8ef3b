package lister

import (
	"sort"
	"strings"
	"time"

	"github.com/tnqbao/gau-media-storage/blob"
)

type SortField string

const (
	SortNone SortField = ""
	SortName SortField = "name"
	SortSize SortField = "size"
	SortDate SortField = "date"
)

type Query struct {
	Search string
	SortBy SortField
	// Desc reverses the sort order.
	Desc bool
	// Month keeps only objects in the given "YYYY-MM" bucket.
	Month string
}

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(s)); f {
	case SortNone, SortName, SortSize, SortDate:
		return f, nil
	}
	return SortNone, blob.InvalidInput("list", "sort must be one of name, size, date")
}

// modified treats a missing timestamp as now.
func modified(o blob.Object, now time.Time) time.Time {
	if o.LastModified == nil || o.LastModified.IsZero() {
		return now
	}
	return *o.LastModified
}

// MonthOf returns the "YYYY-MM" bucket of an object.
func MonthOf(o blob.Object, now time.Time) string {
	return modified(o, now).UTC().Format("2006-01")
}

// Refine filters and sorts an already fetched set. It never touches the store
// and never mutates files.
func Refine(files []blob.Object, q Query, now time.Time) []blob.Object {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]blob.Object, 0, len(files))
	for _, f := range files {
		if search != "" && !strings.Contains(strings.ToLower(f.Key), search) {
			continue
		}
		if q.Month != "" && MonthOf(f, now) != q.Month {
			continue
		}
		out = append(out, f)
	}

	var less func(a, b blob.Object) bool
	switch q.SortBy {
	case SortName:
		less = func(a, b blob.Object) bool { return a.Key < b.Key }
	case SortSize:
		less = func(a, b blob.Object) bool { return a.Size < b.Size }
	case SortDate:
		less = func(a, b blob.Object) bool { return modified(a, now).Before(modified(b, now)) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
