package enrich

import (
	"encoding/json"
	"strings"
)

// DecodeResult turns whatever the model returned into a Result. Strict JSON
// first (after stripping markdown fences), then a permissive line scan for a
// labeled score, then an empty result. Never errors: an unusable response is
// an empty enrichment, not a failure.
func DecodeResult(content string) Result {
	content = stripMarkdownFences(content)
	if content == "" {
		return Result{}
	}

	// fit arrives as a number or a quoted string depending on the model;
	// clampFit only looks at digits, so raw bytes cover both.
	var raw struct {
		Fit        json.RawMessage `json:"fit"`
		Message    string          `json:"message"`
		TailoredCV string          `json:"tailored_cv"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err == nil {
		return Result{
			Fit:        clampFit(string(raw.Fit)),
			Message:    strings.TrimSpace(raw.Message),
			TailoredCV: strings.TrimSpace(raw.TailoredCV),
		}
	}

	fit, msg := scanFitAndMessage(content)
	return Result{Fit: fit, Message: msg}
}

func stripMarkdownFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// scanFitAndMessage is the best-effort fallback for non-JSON output: a line
// starting with FIT: carries the score, everything after a MESSAGE line is
// the message body.
func scanFitAndMessage(content string) (int, string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "FIT:") {
			continue
		}
		_, after, _ := strings.Cut(line, ":")
		fit := clampFit(after)

		for j := i + 1; j < len(lines); j++ {
			if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(lines[j])), "MESSAGE") {
				return fit, strings.TrimSpace(strings.Join(lines[j+1:], "\n"))
			}
		}
		return fit, ""
	}
	return 0, ""
}

// clampFit keeps only digits and clamps to 1..10; anything unusable is 0.
func clampFit(s string) int {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n := 0
	for _, r := range digits.String() {
		n = n*10 + int(r-'0')
		if n > 10 {
			return 10
		}
	}
	if n < 1 {
		return 1
	}
	return n
}
