package governance

import (
	"regexp"
	"strings"
)

// Detector finds one kind of personally identifiable information.
type Detector struct {
	Name        string
	Description string
	Pattern     *regexp.Regexp
}

// Marker is the replacement text for a match, e.g. "[REDACTED:EMAIL]".
func (d Detector) Marker() string {
	return "[REDACTED:" + strings.ToUpper(d.Name) + "]"
}

// Detectors are applied in this order for both detection and redaction.
var Detectors = []Detector{
	{Name: "email", Description: "Email address", Pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)},
	{Name: "phone", Description: "Phone number", Pattern: regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
	{Name: "ssn", Description: "Social Security Number", Pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{Name: "creditCard", Description: "Credit card number", Pattern: regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)},
	{Name: "ipAddress", Description: "IP address", Pattern: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
}

// ProhibitedTerms are matched as case-insensitive substrings.
var ProhibitedTerms = []string{"hack", "exploit", "illegal", "dangerous"}

// DetectPII returns the names of every detector matching text, in detector order.
func DetectPII(text string) []string {
	var found []string
	for _, d := range Detectors {
		if d.Pattern.MatchString(text) {
			found = append(found, d.Name)
		}
	}
	return found
}

// RedactPII replaces every match with its detector marker. Detectors run in
// order over the progressively redacted text.
func RedactPII(text string) string {
	for _, d := range Detectors {
		text = d.Pattern.ReplaceAllLiteralString(text, d.Marker())
	}
	return text
}

// CheckContent returns one issue per prohibited term found in text.
func CheckContent(text string) []string {
	lower := strings.ToLower(text)
	var issues []string
	for _, term := range ProhibitedTerms {
		if strings.Contains(lower, term) {
			issues = append(issues, "Potentially unsafe content detected: "+term)
		}
	}
	return issues
}
