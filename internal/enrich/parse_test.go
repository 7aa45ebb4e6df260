package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobscout-engine/internal/domain"
)

func TestDecodeResult_StrictJSON(t *testing.T) {
	r := DecodeResult(`{"fit": 7, "message": "Hi there"}`)
	assert.Equal(t, 7, r.Fit)
	assert.Equal(t, "Hi there", r.Message)
}

func TestDecodeResult_FitAsString(t *testing.T) {
	r := DecodeResult(`{"fit": "8", "message": "m"}`)
	assert.Equal(t, 8, r.Fit)
}

func TestDecodeResult_MarkdownFenced(t *testing.T) {
	r := DecodeResult("```json\n{\"fit\": 5, \"message\": \"fenced\"}\n```")
	assert.Equal(t, 5, r.Fit)
	assert.Equal(t, "fenced", r.Message)

	r = DecodeResult("```\n{\"fit\": 4}\n```")
	assert.Equal(t, 4, r.Fit)
}

func TestDecodeResult_LineScanFallback(t *testing.T) {
	r := DecodeResult("Some preamble\nFIT: 9/10\nMESSAGE:\nLine one\nLine two")
	assert.Equal(t, 9, r.Fit)
	assert.Equal(t, "Line one\nLine two", r.Message)
}

func TestDecodeResult_FitClamped(t *testing.T) {
	assert.Equal(t, 10, DecodeResult("FIT: 42\nMESSAGE:\nx").Fit)
	assert.Equal(t, 1, DecodeResult(`{"fit": 0}`).Fit)
}

func TestDecodeResult_Unusable(t *testing.T) {
	assert.Equal(t, Result{}, DecodeResult(""))
	assert.Equal(t, Result{}, DecodeResult("total garbage with no labels"))
}

func TestDecodeResult_TailoredCV(t *testing.T) {
	r := DecodeResult(`{"tailored_cv": "line1\nline2"}`)
	assert.Equal(t, "line1\nline2", r.TailoredCV)
	assert.Equal(t, 0, r.Fit)
}

func TestUserPrompt_IncludesProfileSnippet(t *testing.T) {
	p := domain.Posting{Title: "Data Engineer", Org: "Acme", Country: "Italy", RecruiterName: "Pat"}
	prof := &Profile{Name: "Pat", Subtitle: "Talent Lead", Location: "Milan"}

	got := UserPrompt(p, prof)
	assert.Contains(t, got, "Job title: Data Engineer")
	assert.Contains(t, got, "Pat | Talent Lead | Milan")

	got = UserPrompt(p, nil)
	assert.Contains(t, got, "Hiring manager profile: \n")
}
