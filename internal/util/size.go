package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(B|KB|MB|GB)?$`)

var sizeMultipliers = map[string]int64{
	"":   1,
	"B":  1,
	"KB": 1024,
	"MB": 1024 * 1024,
	"GB": 1024 * 1024 * 1024,
}

// ParseSize parses a size string (e.g., "4.5GB", "100mb", "2048") into bytes.
// Units are case-insensitive; a bare number is bytes.
func ParseSize(sizeStr string) (int64, error) {
	matches := sizePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(sizeStr)))
	if matches == nil {
		return 0, fmt.Errorf("invalid size %q, use a format like '512MB' or '2GB'", sizeStr)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %v", err)
	}
	return int64(value * float64(sizeMultipliers[matches[2]])), nil
}

// FormatSize renders a byte count with the largest unit that keeps the
// value at or above one.
func FormatSize(bytes int64) string {
	switch {
	case bytes >= sizeMultipliers["GB"]:
		return fmt.Sprintf("%.2fGB", float64(bytes)/float64(sizeMultipliers["GB"]))
	case bytes >= sizeMultipliers["MB"]:
		return fmt.Sprintf("%.2fMB", float64(bytes)/float64(sizeMultipliers["MB"]))
	case bytes >= sizeMultipliers["KB"]:
		return fmt.Sprintf("%.2fKB", float64(bytes)/float64(sizeMultipliers["KB"]))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
