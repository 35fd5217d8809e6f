package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{" 7 ", "7", true},
		{"0.01", "0.01", true},
		{"", "", false},
		{"0", "", false},
		{"-3", "", false},
		{"+3", "", false},
		{"12.3.4", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tc.in, err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseAmount(%q) expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(dec("12.3")); got != "12.30" {
		t.Fatalf("FormatAmount = %q, want 12.30", got)
	}
	// Non-terminating shares are truncated at display time only.
	third := dec("10").Div(dec("3"))
	if got := FormatAmount(third); got != "3.33" {
		t.Fatalf("FormatAmount(10/3) = %q, want 3.33", got)
	}
}
