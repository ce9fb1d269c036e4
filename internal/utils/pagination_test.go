package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		name string
		s    string
		def  int
		want int
	}{
		{"empty uses default", "", 1, 1},
		{"page number", "3", 1, 3},
		{"leading zeros", "007", 1, 7},
		{"negative parses", "-2", 1, -2},
		{"garbage uses default", "twenty", 20, 20},
		{"whitespace is not trimmed", " 5", 20, 20},
		{"overflow uses default", "92233720368547758080", 20, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AtoiDefault(tc.s, tc.def); got != tc.want {
				t.Errorf("AtoiDefault(%q, %d) = %d, want %d", tc.s, tc.def, got, tc.want)
			}
		})
	}
}
