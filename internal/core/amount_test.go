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
		{"50", "50", true},
		{"0.01", "0.01", true},
		{"0", "", false},
		{"-5", "", false},
		{"", "", false},
		{"abc", "", false},
	}
	for i, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("case %d (%q): unexpected error %v", i, tc.in, err)
			}
			if got.String() != tc.want {
				t.Fatalf("case %d (%q): got %s, want %s", i, tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("case %d (%q): expected error", i, tc.in)
		}
	}
}

func TestCoerceAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.34", "12.34"},
		{"12,34", "12.34"},
		{"-5", "-5"},
		{"", "0"},
		{"n/a", "0"},
	}
	for i, tc := range cases {
		if got := CoerceAmount(tc.in); got.String() != tc.want {
			t.Fatalf("case %d (%q): got %s, want %s", i, tc.in, got, tc.want)
		}
	}
}
