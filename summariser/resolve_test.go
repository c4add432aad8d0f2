package summariser

import "testing"

func strPtr(s string) *string { return &s }

func TestResolveSummary(t *testing.T) {
	cases := []struct {
		name string
		resp *SummaryResponse
		want string
	}{
		{name: "primary summary", resp: &SummaryResponse{Summary: strPtr("A concise summary."), TopWords: []string{"x"}}, want: "A concise summary."},
		{name: "blank summary falls back to keywords", resp: &SummaryResponse{Summary: strPtr("  \n"), TopWords: []string{"go", "pdf", "summary"}}, want: "Top keywords (fallback): go, pdf, summary"},
		{name: "null summary falls back to keywords", resp: &SummaryResponse{TopWords: []string{"one"}}, want: "Top keywords (fallback): one"},
		{name: "nothing available", resp: &SummaryResponse{Summary: strPtr(""), TopWords: []string{}}, want: "No summary available."},
		{name: "nil response", resp: nil, want: "No summary available."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveSummary(tc.resp); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
