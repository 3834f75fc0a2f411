package matchquery

import (
	"sort"
	"strconv"
	"strings"
)

// SortKeyFunc orders match numbers for formatting. Numbers are sorted by
// primary, then secondary, ascending.
type SortKeyFunc func(n int) (primary, secondary int)

// HundredsKey is the default ordering: group numbers by their hundreds
// bucket (101 before 205 before 1003), then ascending within the bucket.
func HundredsKey(n int) (int, int) {
	return n / 100, n
}

// Format renders a canonical match query string for the given numbers.
// Duplicates are dropped, the distinct numbers are sorted by key (nil
// means HundredsKey), and consecutive runs within the same hundreds
// bucket are collapsed into "start-end" ranges. Re-parsing the result
// yields the same set of numbers.
func Format(numbers []int, key SortKeyFunc) string {
	if key == nil {
		key = HundredsKey
	}

	distinct := make([]int, 0, len(numbers))
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if !seen[n] {
			seen[n] = true
			distinct = append(distinct, n)
		}
	}
	sort.Slice(distinct, func(i, j int) bool {
		pi, si := key(distinct[i])
		pj, sj := key(distinct[j])
		if pi != pj {
			return pi < pj
		}
		return si < sj
	})

	var groups []string
	addGroup := func(start, end int) {
		if start == end {
			groups = append(groups, strconv.Itoa(start))
		} else {
			groups = append(groups, strconv.Itoa(start)+"-"+strconv.Itoa(end))
		}
	}

	started := false
	var groupStart, groupEnd int
	for _, n := range distinct {
		if started {
			// runs never span a hundreds boundary
			if n == groupEnd+1 && n/100 == groupEnd/100 {
				groupEnd = n
				continue
			}
			addGroup(groupStart, groupEnd)
		}
		started = true
		groupStart = n
		groupEnd = n
	}
	if started {
		addGroup(groupStart, groupEnd)
	}
	return strings.Join(groups, ",")
}
