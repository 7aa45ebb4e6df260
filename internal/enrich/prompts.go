package enrich

import (
	"fmt"
	"strings"

	"jobscout-engine/internal/domain"
)

const fitSystemPrompt = "You are an expert freelance job outreach coach focused on professional networks. " +
	"Goal: maximize replies and book a short call. Constraints: concise, specific, polite, no emojis, 4-6 lines. " +
	"Personalize using both the job description and hiring manager profile (role, domain, stack, location). " +
	"Avoid generic fluff; reference 1-2 concrete matches to my background. " +
	"If the job clearly mismatches my background, lower the fit score and suggest one pragmatic angle.\n\n" +
	"My CV (verbatim):\n%s\n\n" +
	"Output strictly a minified JSON object with two keys: " +
	"{\"fit\": <integer 1-10>, \"message\": \"<4-6 line tailored message>\"}. " +
	"Do not include any other text."

const tailoredCVSystemPrompt = "You are an expert resume tailor. Produce a concise tailored CV snippet (6-10 lines) aligned to the job, " +
	"highlighting the most relevant skills, stacks, and achievements from my CV. No emojis. " +
	"Be specific and outcome-oriented.\n\n" +
	"My CV (verbatim):\n%s\n\n" +
	"Output strictly JSON: {\"tailored_cv\": \"<6-10 lines>\"}."

// FitSystemPrompt embeds the CV text verbatim into the fit/message instruction.
func FitSystemPrompt(cvText string) string {
	return fmt.Sprintf(fitSystemPrompt, cvText)
}

// TailoredCVSystemPrompt embeds the CV text into the tailored-CV instruction.
func TailoredCVSystemPrompt(cvText string) string {
	return fmt.Sprintf(tailoredCVSystemPrompt, cvText)
}

// UserPrompt renders the job plus optional recruiter-profile context.
func UserPrompt(p domain.Posting, profile *Profile) string {
	var profileSnippet string
	if profile != nil {
		var parts []string
		for _, s := range []string{profile.Name, profile.Subtitle, profile.Location} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		profileSnippet = strings.Join(parts, " | ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Job title: %s\n", p.Title)
	fmt.Fprintf(&b, "Company: %s\n", p.Org)
	fmt.Fprintf(&b, "Country: %s\n", p.Country)
	fmt.Fprintf(&b, "Hiring manager name: %s\n", p.RecruiterName)
	fmt.Fprintf(&b, "Hiring manager profile: %s\n\n", profileSnippet)
	fmt.Fprintf(&b, "Key details from job description:\n%s\n\n", p.Description)
	return b.String()
}
