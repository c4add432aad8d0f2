package summariser

import "strings"

const (
	fallbackPrefix = "Top keywords (fallback): "
	NoSummaryText  = "No summary available."
	NoSavedSummary = "No summary saved."
)

// ResolveSummary picks the display text for a response: the summary when it
// has content, else the fallback keywords, else a placeholder.
func ResolveSummary(resp *SummaryResponse) string {
	if resp == nil {
		return NoSummaryText
	}
	if resp.Summary != nil && strings.TrimSpace(*resp.Summary) != "" {
		return *resp.Summary
	}
	if len(resp.TopWords) > 0 {
		return fallbackPrefix + strings.Join(resp.TopWords, ", ")
	}
	return NoSummaryText
}
