package linkedin

import "strings"

// WorkTypeCodes maps display names onto the f_WT query values.
var WorkTypeCodes = map[string]string{
	"On-site": "1",
	"Remote":  "2",
	"Hybrid":  "3",
}

// ContractTypeCodes maps display names onto the f_JT query values.
var ContractTypeCodes = map[string]string{
	"Full-time":  "F",
	"Contract":   "C",
	"Part-time":  "P",
	"Temporary":  "T",
	"Internship": "I",
	"Other":      "O",
}

// TimePostedCodes maps display labels onto the f_TPR query values. Unknown
// labels map to the empty string, which means no recency filter.
var TimePostedCodes = map[string]string{
	"Past 24 hours": "r86400",
	"Past Week":     "r604800",
	"Past Month":    "r2592000",
}

// EncodeKeyword prepares a search phrase for the listing URL: spaces become
// plus signs, then every plus is percent-escaped. "C++ dev" -> "C%2B%2B%2Bdev".
func EncodeKeyword(kw string) string {
	s := strings.TrimSpace(kw)
	s = strings.ReplaceAll(s, " ", "+")
	return strings.ReplaceAll(s, "+", "%2B")
}

// MapContractTypes translates display names to codes, dropping unknown names.
func MapContractTypes(names []string) []string {
	var codes []string
	for _, n := range names {
		if code, ok := ContractTypeCodes[strings.TrimSpace(n)]; ok {
			codes = append(codes, code)
		}
	}
	return codes
}

// MapTimePosted translates a display label to its code, "" when unknown.
func MapTimePosted(label string) string {
	return TimePostedCodes[strings.TrimSpace(label)]
}
