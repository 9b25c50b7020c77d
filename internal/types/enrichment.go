package types

// EnrichmentResult holds the attributes inferred for a lead by the oracle.
type EnrichmentResult struct {
	SEOHealth       int     `json:"seo_health"` // 0-10
	MissingFeatures string  `json:"missing_features"`
	OutreachMessage string  `json:"outreach_message"`
	Email           *string `json:"email"`
	ContactPerson   *string `json:"contact_person"`
}

// Fallback markers used when enrichment cannot complete.
const (
	FallbackMissingFeatures = "Error analyzing"
	FallbackOutreachPrefix  = "Could not generate message: "
)

// FallbackResult returns the placeholder result substituted whenever an external
// call fails. The error message is kept in OutreachMessage for operator visibility.
func FallbackResult(err error) EnrichmentResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return EnrichmentResult{
		SEOHealth:       0,
		MissingFeatures: FallbackMissingFeatures,
		OutreachMessage: FallbackOutreachPrefix + msg,
	}
}

// IsFallback reports whether the result was produced by FallbackResult.
func (e EnrichmentResult) IsFallback() bool {
	return e.SEOHealth == 0 && e.MissingFeatures == FallbackMissingFeatures
}

// ClampSEOHealth bounds a score to the 0-10 range.
func ClampSEOHealth(score int) int {
	return max(0, min(10, score))
}

// StringOrEmpty dereferences an optional string.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
