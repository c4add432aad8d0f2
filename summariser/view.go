package summariser

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const EmptyHistoryText = "No uploads yet. Upload your first PDF to get started!"

// HistoryItem is the display projection of one record.
type HistoryItem struct {
	Index       int    `json:"index"`
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
	DisplaySize string `json:"display_size"`
	DisplayDate string `json:"display_date"`
	Summary     string `json:"summary"`
	when        time.Time
}

// HistoryView projects Replay for listing. Dates are shown in loc (time.Local when nil).
func HistoryView(j *Journal, loc *time.Location) []HistoryItem {
	if loc == nil {
		loc = time.Local
	}
	records := j.Replay()
	out := make([]HistoryItem, 0, len(records))
	for i, rec := range records {
		item := HistoryItem{
			Index:       i,
			ID:          rec.ID,
			DisplayName: rec.Name,
			DisplaySize: FormatSize(rec.Size),
			DisplayDate: rec.Date,
			Summary:     rec.Summary,
		}
		if tm, ok := rec.Time(); ok {
			item.when = tm
			item.DisplayDate = FormatDate(tm.In(loc))
		}
		out = append(out, item)
	}
	return out
}

// RecordForRecall returns the record at index for re-display.
func RecordForRecall(j *Journal, index int) (UploadRecord, bool) {
	return j.Lookup(index)
}

// FormatSize renders bytes as megabytes with two decimals.
func FormatSize(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
}

func FormatDate(tm time.Time) string {
	return tm.Format("2006-01-02") + " at " + tm.Format("15:04:05")
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RenderSummary is the result box shown after a successful upload.
func RenderSummary(out *Outcome, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	processed := out.Record.Date
	if tm, ok := out.Record.Time(); ok {
		processed = tm.In(loc).Format("2006-01-02 15:04:05")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Document Analysis Complete!"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("File:"), out.Record.Name)
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Processed:"), processed)
	b.WriteString(labelStyle.Render("Summary:"))
	b.WriteString("\n")
	b.WriteString(out.Summary)
	if out.HistoryErr != nil {
		b.WriteString("\n\n")
		b.WriteString(warningStyle.Render("Warning: history may not have been saved: " + out.HistoryErr.Error()))
	}
	return boxStyle.Render(b.String())
}

// RenderRecall re-displays a stored record.
func RenderRecall(rec UploadRecord, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	uploaded := rec.Date
	if tm, ok := rec.Time(); ok {
		uploaded = tm.In(loc).Format("2006-01-02 15:04:05")
	}
	summary := rec.Summary
	if summary == "" {
		summary = NoSavedSummary
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(rec.Name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Uploaded:"), uploaded)
	b.WriteString(labelStyle.Render("Summary:"))
	b.WriteString("\n")
	b.WriteString(summary)
	return boxStyle.Render(b.String())
}

// RenderHistory lists items newest first with their recall index.
func RenderHistory(items []HistoryItem, now time.Time) string {
	if len(items) == 0 {
		return mutedStyle.Render(EmptyHistoryText)
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("[%d]", it.Index)), titleStyle.Render(it.DisplayName))
		line := fmt.Sprintf("Uploaded on %s • %s", it.DisplayDate, it.DisplaySize)
		if !it.when.IsZero() {
			line += " • " + humanize.RelTime(it.when, now, "ago", "from now")
		}
		b.WriteString("    " + mutedStyle.Render(line) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
