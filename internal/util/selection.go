package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRange parses a half-open slice selection "START:END". Bounds are
// checked against the ordered slice count later, once it is known.
func ParseRange(s string) (start, end int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid range %q, use START:END", s)
	}
	start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", parts[1], err)
	}
	if start < 0 || end <= start {
		return 0, 0, fmt.Errorf("invalid range %q: need 0 <= START < END", s)
	}
	return start, end, nil
}
