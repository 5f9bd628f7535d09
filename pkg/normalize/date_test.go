package normalize

import "testing"

func TestParseDatePrimaryLayouts(t *testing.T) {
	cases := map[string]string{
		"2021-03-04":       "2021-03-04",
		"2021/03/04":       "2021-03-04",
		"03/04/2021":       "2021-03-04",
		"3/4/2021":         "2021-03-04",
		"04 Mar 2021":      "2021-03-04",
		"Mar 4, 2021":      "2021-03-04",
		"March 4, 2021":    "2021-03-04",
		"4 March 2021":     "2021-03-04",
		"2021-03-04 10:30:00": "2021-03-04",
	}
	for in, want := range cases {
		got, conf, ok := ParseDate(in)
		if !ok {
			t.Errorf("ParseDate(%q) failed", in)
			continue
		}
		if got != want {
			t.Errorf("ParseDate(%q) = %q, want %q", in, got, want)
		}
		if conf != 0.9 {
			t.Errorf("ParseDate(%q) confidence = %v, want 0.9", in, conf)
		}
	}
}

func TestParseDateFallbackFormats(t *testing.T) {
	got, conf, ok := ParseDate("3/4/21")
	if !ok || got != "2021-03-04" {
		t.Errorf("ParseDate two-digit year = %q ok=%v", got, ok)
	}
	if conf != 0.8 {
		t.Errorf("fallback confidence = %v, want 0.8", conf)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not a date", "13/45/2021", "99/99/99"} {
		if _, _, ok := ParseDate(in); ok {
			t.Errorf("ParseDate(%q) should fail", in)
		}
	}
}

func TestIsISODate(t *testing.T) {
	if !IsISODate("2020-12-31") {
		t.Error("expected ISO date to validate")
	}
	for _, in := range []string{"12/31/2020", "2020-13-01", "yesterday"} {
		if IsISODate(in) {
			t.Errorf("IsISODate(%q) should be false", in)
		}
	}
}
