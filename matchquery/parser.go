// Package matchquery implements the compact textual range language used
// to select tournament matches, e.g. "5,7-9,12". Parsing and formatting
// round-trip: formatting a list of numbers and re-parsing it yields the
// same set.
package matchquery

import (
	"fmt"
	"strconv"
)

// DefaultMaxMatches caps how many distinct match numbers a single query
// may name when the parser is used with a zero MaxMatches.
const DefaultMaxMatches = 50

// Parser parses match query strings. The zero value is ready to use.
type Parser struct {
	// MaxMatches limits the number of distinct match numbers in one
	// query. Zero means DefaultMaxMatches.
	MaxMatches int
}

// Parse parses query with a default Parser.
func Parse(query string) ([]int, error) {
	return (&Parser{}).Parse(query)
}

// Parse parses a match query string into the ordered list of distinct
// match numbers it names, in first-seen order. Numbers are separated by
// whitespace and/or commas; "a-b" denotes the inclusive range a..b and
// may not cross a comma. Leading zeros are allowed. On a malformed query
// the error names the 1-based character position and the reason, and no
// partial result is returned.
func (p *Parser) Parse(query string) ([]int, error) {
	maxMatches := p.MaxMatches
	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}

	var (
		order []int
		seen  = make(map[int]bool)

		lastNum int  // buffered number awaiting a dash or separator
		hasLast bool
		dashPos = -1 // 0-based position of a pending dash
		digits  []rune
	)

	add := func(num int) error {
		if seen[num] {
			return nil
		}
		seen[num] = true
		order = append(order, num)
		if len(order) > maxMatches {
			return fmt.Errorf("Too many matches specified (max %d)", maxMatches)
		}
		return nil
	}

	// flushNumber completes the number ending just before position end.
	flushNumber := func(end int) error {
		if len(digits) == 0 {
			return nil
		}
		numStart := end - len(digits)
		num, err := strconv.Atoi(string(digits))
		if err != nil {
			return fmt.Errorf("Position %d: invalid number %q", numStart+1, string(digits))
		}
		digits = digits[:0]

		if dashPos >= 0 {
			if num < lastNum {
				return fmt.Errorf("Position %d: Range end is smaller than range start", numStart+1)
			}
			for x := lastNum; x <= num; x++ {
				if err := add(x); err != nil {
					return err
				}
			}
			hasLast = false
			dashPos = -1
			return nil
		}
		if hasLast {
			if err := add(lastNum); err != nil {
				return err
			}
		}
		lastNum = num
		hasLast = true
		return nil
	}

	runes := []rune(query)
	for i, c := range runes {
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == '-':
			if err := flushNumber(i); err != nil {
				return nil, err
			}
			if c == ',' {
				// ranges cannot cross commas
				if dashPos >= 0 {
					return nil, fmt.Errorf("Position %d: Dash without end number", dashPos+1)
				}
				if hasLast {
					if err := add(lastNum); err != nil {
						return nil, err
					}
					hasLast = false
				}
			} else if c == '-' {
				if !hasLast {
					return nil, fmt.Errorf("Position %d: Dash without a start number", i+1)
				}
				if dashPos >= 0 {
					return nil, fmt.Errorf("Position %d: invalid dash", i+1)
				}
				dashPos = i
			}
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		default:
			return nil, fmt.Errorf("Position %d: unknown character: %c", i+1, c)
		}
	}
	if err := flushNumber(len(runes)); err != nil {
		return nil, err
	}
	if dashPos >= 0 {
		return nil, fmt.Errorf("Position %d: Dash without end number", dashPos+1)
	}
	if hasLast {
		if err := add(lastNum); err != nil {
			return nil, err
		}
	}
	return order, nil
}
