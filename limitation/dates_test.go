package limitation

import "testing"

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2015-06-15":           "2015-06-15",
		" 2015-06-15 ":         "2015-06-15",
		"15/06/2015":           "2015-06-15",
		"15-06-2015":           "2015-06-15",
		"2015-06-15T10:30:00Z": "2015-06-15",
		"2015-06-15T10:30:00":  "2015-06-15",
	}
	for in, want := range cases {
		got := ParseDate(in)
		if got == nil {
			t.Fatalf("ParseDate(%q) = nil", in)
		}
		if FormatDate(got) != want {
			t.Fatalf("ParseDate(%q) = %s, want %s", in, FormatDate(got), want)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date", "2015-13-40", "31/02/2020"} {
		if got := ParseDate(in); got != nil {
			t.Fatalf("ParseDate(%q) = %v, want nil", in, got)
		}
	}
}

func TestFormatDate_Nil(t *testing.T) {
	if got := FormatDate(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
