package linkedin

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relTimeRe = regexp.MustCompile(`(\d+)\s*(minute|hour|day|week|month)`)

// PublishedFrom converts a "Posted 3 weeks ago" style label into an absolute
// timestamp relative to now. A month counts as 30 days. Labels that carry no
// recognizable offset ("Just now", "") resolve to now itself.
func PublishedFrom(postedAgo string, now time.Time) time.Time {
	m := relTimeRe.FindStringSubmatch(strings.ToLower(postedAgo))
	if m == nil {
		return now
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}
	switch m[2] {
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, 0, -30*n)
	}
	return now
}
