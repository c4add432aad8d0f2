package summariser

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHistoryView_ProjectsReplay(t *testing.T) {
	j := LoadJournal(NewSlotBackend(NewMemoryStore(), ""), Unlimited)
	older := NewRecord(FileMeta{Name: "old.pdf", Size: 1024 * 1024}, "old summary", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	newer := NewRecord(FileMeta{Name: "new.pdf", Size: 5 * 1024 * 1024 / 2}, "new summary", time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC))
	for _, r := range []UploadRecord{older, newer} {
		if err := j.Append(r); err != nil {
			t.Fatal(err)
		}
	}

	items := HistoryView(j, time.UTC)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0]
	if first.Index != 0 || first.DisplayName != "new.pdf" || first.DisplaySize != "2.50 MB" || first.Summary != "new summary" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.DisplayDate != "2026-02-03 at 04:05:06" {
		t.Fatalf("unexpected display date %q", first.DisplayDate)
	}
	if items[1].DisplaySize != "1.00 MB" || items[1].Index != 1 {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
	if first.ID == "" {
		t.Fatalf("expected id in projection")
	}
}

func TestHistoryView_UnreadableDateFallsBack(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Set(DefaultSlot, `[{"name":"a.pdf","date":"yesterday"}]`); err != nil {
		t.Fatal(err)
	}
	items := HistoryView(LoadJournal(NewSlotBackend(store, ""), Unlimited), time.UTC)
	if len(items) != 1 || items[0].DisplayDate != "yesterday" {
		t.Fatalf("expected raw date kept, got %+v", items)
	}
}

func TestRecordForRecall(t *testing.T) {
	j := LoadJournal(NewSlotBackend(NewMemoryStore(), ""), Unlimited)
	if _, ok := RecordForRecall(j, 0); ok {
		t.Fatalf("empty journal has nothing to recall")
	}
	if err := j.Append(rec("a.pdf")); err != nil {
		t.Fatal(err)
	}
	if r, ok := RecordForRecall(j, 0); !ok || r.Name != "a.pdf" {
		t.Fatalf("unexpected recall: %+v ok=%v", r, ok)
	}
}

func TestUploadRecord_TimeFallsBackToTimestamp(t *testing.T) {
	r := UploadRecord{Date: "garbage", Timestamp: 1770465600000}
	tm, ok := r.Time()
	if !ok || !tm.Equal(time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected timestamp fallback, got %s ok=%v", tm, ok)
	}
	if _, ok := (UploadRecord{}).Time(); ok {
		t.Fatalf("zero record has no time")
	}
}

func TestRenderHistory(t *testing.T) {
	if got := RenderHistory(nil, time.Now()); !strings.Contains(got, EmptyHistoryText) {
		t.Fatalf("expected empty text, got %q", got)
	}

	j := LoadJournal(NewSlotBackend(NewMemoryStore(), ""), Unlimited)
	when := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	if err := j.Append(NewRecord(FileMeta{Name: "cv.pdf", Size: 2048}, "s", when)); err != nil {
		t.Fatal(err)
	}
	out := RenderHistory(HistoryView(j, time.UTC), when.Add(3*time.Hour))
	for _, want := range []string{"[0]", "cv.pdf", "Uploaded on 2026-02-07 at 12:00:00", "0.00 MB", "3 hours ago"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderSummaryAndRecall(t *testing.T) {
	r := NewRecord(FileMeta{Name: "cv.pdf", Size: 10}, "", time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC))
	out := RenderSummary(&Outcome{Record: r, Summary: "Fine summary.", HistoryErr: errors.New("quota")}, time.UTC)
	for _, want := range []string{"Document Analysis Complete!", "cv.pdf", "2026-02-07 12:00:00", "Fine summary.", "history may not have been saved"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary box:\n%s", want, out)
		}
	}

	recall := RenderRecall(r, time.UTC)
	if !strings.Contains(recall, NoSavedSummary) || !strings.Contains(recall, "cv.pdf") {
		t.Fatalf("expected placeholder for empty saved summary:\n%s", recall)
	}
}
