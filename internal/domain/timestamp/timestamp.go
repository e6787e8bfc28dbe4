// Package timestamp turns the loose time markers found in AI responses
// ("01:23", "starts at 1:02:03", "45") into seconds and back.
package timestamp

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// reTime matches up to three colon separated groups; the last group may
// carry a fractional part.
var reTime = regexp.MustCompile(`\d+(?::\d+){0,2}(?:\.\d+)?`)

// Parse extracts the first H:M:S, M:S or S pattern in s and returns it in
// seconds. ok is false when s holds no digits or a component does not
// convert; callers pick the fallback.
func Parse(s string) (sec float64, ok bool) {
	m := reTime.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	parts := strings.Split(m, ":")

	last, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || math.IsInf(last, 0) {
		return 0, false
	}
	switch len(parts) {
	case 1:
		return last, true
	case 2:
		mins, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, false
		}
		return float64(mins)*60 + last, true
	case 3:
		hours, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, false
		}
		mins, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, false
		}
		return float64(hours)*3600 + float64(mins)*60 + last, true
	}
	return 0, false
}

// Format renders seconds as MM:SS, dropping any fractional part. Minutes
// are not wrapped into hours.
func Format(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	whole := int(math.Floor(sec))
	return fmt.Sprintf("%02d:%02d", whole/60, whole%60)
}
