package matchquery

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  []int
	}{
		{"", nil},
		{"   ", nil},
		{"5", []int{5}},
		{"007", []int{7}},
		{"5,7-9,12", []int{5, 7, 8, 9, 12}},
		{"5 7-9 12", []int{5, 7, 8, 9, 12}},
		{"5, 7 - 9 ,12", []int{5, 7, 8, 9, 12}},
		{"3-3", []int{3}},
		{"1-3,2-4", []int{1, 2, 3, 4}},
		{"12,5,12,5", []int{12, 5}},
		{"\t10 ,\n11", []int{10, 11}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.query)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.query, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"9-5", "Position 3: Range end is smaller than range start"},
		{"5-", "Position 2: Dash without end number"},
		{"5-,7", "Position 2: Dash without end number"},
		{"-5", "Position 1: Dash without a start number"},
		{"5--7", "Position 3: invalid dash"},
		{"5,x", "Position 3: unknown character: x"},
		{"5;7", "Position 2: unknown character: ;"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.query)
		if err == nil {
			t.Errorf("Parse(%q) = %v, want error", tt.query, got)
			continue
		}
		if err.Error() != tt.want {
			t.Errorf("Parse(%q) error = %q, want %q", tt.query, err.Error(), tt.want)
		}
	}
}

func TestParseMaxMatches(t *testing.T) {
	p := &Parser{MaxMatches: 5}
	if _, err := p.Parse("1-5"); err != nil {
		t.Fatalf("1-5 within limit: %v", err)
	}
	_, err := p.Parse("1-6")
	if err == nil || !strings.Contains(err.Error(), "Too many matches specified (max 5)") {
		t.Errorf("error = %v", err)
	}
	// duplicates do not count toward the limit
	if _, err := p.Parse("1-5,1-5,3"); err != nil {
		t.Errorf("duplicates should not exceed the limit: %v", err)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		numbers []int
		want    string
	}{
		{nil, ""},
		{[]int{5}, "5"},
		{[]int{5, 7, 8, 9, 12}, "5,7-9,12"},
		{[]int{9, 8, 12, 5, 7, 8}, "5,7-9,12"},
		{[]int{1, 2, 3}, "1-3"},
		// runs stop at hundreds boundaries
		{[]int{99, 100, 101}, "99,100-101"},
		// hundreds bucket ordering beats plain numeric ordering
		{[]int{1003, 205, 101}, "101,205,1003"},
	}
	for _, tt := range tests {
		if got := Format(tt.numbers, nil); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.numbers, got, tt.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	inputs := [][]int{
		{5, 7, 8, 9, 12},
		{99, 100, 101, 102, 300},
		{42},
		{1, 3, 5, 7, 9, 11},
	}
	p := &Parser{MaxMatches: 1000}
	for _, numbers := range inputs {
		formatted := Format(numbers, nil)
		parsed, err := p.Parse(formatted)
		if err != nil {
			t.Fatalf("re-parse of %q: %v", formatted, err)
		}
		want := make(map[int]bool)
		for _, n := range numbers {
			want[n] = true
		}
		got := make(map[int]bool)
		for _, n := range parsed {
			got[n] = true
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip of %v through %q = %v", numbers, formatted, parsed)
		}
	}
}
