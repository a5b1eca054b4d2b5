package options

import (
	"regexp"
	"strconv"
	"strings"
)

// Delay units stored in delay node configuration.
const (
	UnitHours = "hours"
	UnitDays  = "days"
)

var delayPattern = regexp.MustCompile(`^(\d+)\s*(h|hr|hrs|hour|hours|d|day|days|w|wk|week|weeks)$`)

var noDelay = []string{"no delay", "none", "immediately", "immediate", "0", "no"}

// ParseDelay interprets a delay answer such as "2 days", "1 hour", "3d" or "12h".
// "No delay" parses successfully with a zero value and empty unit.
func ParseDelay(text string) (unit string, value int, ok bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, n := range noDelay {
		if t == n {
			return "", 0, true
		}
	}
	t = strings.TrimPrefix(t, "after ")
	t = strings.TrimPrefix(t, "wait ")
	if strings.HasPrefix(t, "a ") || strings.HasPrefix(t, "an ") {
		t = "1 " + strings.SplitN(t, " ", 2)[1]
	}

	m := delayPattern.FindStringSubmatch(t)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", 0, false
	}
	if n == 0 {
		return "", 0, true
	}
	switch m[2][0] {
	case 'h':
		return UnitHours, n, true
	case 'w':
		return UnitDays, n * 7, true
	default:
		return UnitDays, n, true
	}
}
