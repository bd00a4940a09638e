package util

import (
	"strings"
	"testing"
)

func TestDeterministicUID(t *testing.T) {
	a := DeterministicUID("series_1")
	b := DeterministicUID("series_1")
	c := DeterministicUID("series_2")

	if a != b {
		t.Errorf("same name produced %q and %q", a, b)
	}
	if a == c {
		t.Errorf("different names produced the same UID %q", a)
	}
}

func TestUIDFormat(t *testing.T) {
	for _, uid := range []string{NewUID(), DeterministicUID("x")} {
		if !strings.HasPrefix(uid, "2.25.") {
			t.Errorf("UID %q missing 2.25 root", uid)
		}
		if len(uid) > 64 {
			t.Errorf("UID %q exceeds 64 characters", uid)
		}
		for _, r := range strings.TrimPrefix(uid, "2.25.") {
			if r < '0' || r > '9' {
				t.Errorf("UID %q has non-digit %q", uid, r)
				break
			}
		}
	}
}
