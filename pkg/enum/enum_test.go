package enum

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"In Progress":     "in-progress",
		"no_show":         "no-show",
		" follow-up ":     "follow-up",
		"Routine Checkup": "routine-checkup",
		"completed":       "completed",
		"":                "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
