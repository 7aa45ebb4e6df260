// Package identity derives the stable key that names a posting across runs.
package identity

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNotFound means no stable key could be derived. Callers drop the single
// item and move on; it is never a batch-level failure.
var ErrNotFound = errors.New("identity: no stable id found")

var (
	reJobParam = regexp.MustCompile(`[?&]currentJobId=(\d+)`)
	reViewPath = regexp.MustCompile(`/view/(\d+)`)
	reDigitRun = regexp.MustCompile(`\d{8,}`)
)

// FromURN extracts the numeric id from a platform entity URN such as
// "urn:li:jobPosting:4031234567". The id is the last colon-separated token.
func FromURN(urn string) (string, error) {
	urn = strings.TrimSpace(urn)
	if urn == "" {
		return "", ErrNotFound
	}
	parts := strings.Split(urn, ":")
	id := parts[len(parts)-1]
	if id == "" || !allDigits(id) {
		return "", ErrNotFound
	}
	return id, nil
}

// FromURL derives an identity from a free-form listing URL. Priority:
// a currentJobId query parameter, then a /view/<digits> path segment, then
// the longest run of 8+ consecutive digits anywhere in the URL.
func FromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNotFound
	}

	if m := reJobParam.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	if m := reViewPath.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}

	longest := ""
	for _, run := range reDigitRun.FindAllString(raw, -1) {
		if len(run) > len(longest) {
			longest = run
		}
	}
	if longest != "" {
		return longest, nil
	}
	return "", ErrNotFound
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
