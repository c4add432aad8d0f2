package summariser

import "time"

// isoMillis matches JavaScript's Date.prototype.toISOString output so
// histories written by the browser page and by this tool are interchangeable.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// UploadRecord is one journal entry.
type UploadRecord struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"`
	Summary   string `json:"summary"`
	// ID is assigned at append time. Records written by older clients have none.
	ID string `json:"id,omitempty"`
}

// FileMeta is the descriptive metadata the session controller knows about a file.
type FileMeta struct {
	Name        string
	Size        int64
	ContentType string
}

// NewRecord captures Date and Timestamp from the same instant.
func NewRecord(meta FileMeta, summary string, now time.Time) UploadRecord {
	now = now.UTC()
	return UploadRecord{
		Name:      meta.Name,
		Size:      meta.Size,
		Date:      now.Format(isoMillis),
		Timestamp: now.UnixMilli(),
		Summary:   summary,
	}
}

// Time parses Date, falling back to Timestamp when Date is unreadable.
func (r UploadRecord) Time() (time.Time, bool) {
	if r.Date != "" {
		if tm, err := time.Parse(time.RFC3339Nano, r.Date); err == nil {
			return tm, true
		}
	}
	if r.Timestamp > 0 {
		return time.UnixMilli(r.Timestamp).UTC(), true
	}
	return time.Time{}, false
}

// SummaryResponse is the JSON body returned by the summarisation endpoint.
type SummaryResponse struct {
	ID          int      `json:"id"`
	Filename    string   `json:"filename"`
	InsightType string   `json:"insight_type"`
	Summary     *string  `json:"summary"`
	TopWords    []string `json:"top_words"`
}

// KVSlot is one named slot in the SQLite key-value store.
type KVSlot struct {
	Name      string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// JournalEntry is one row of the append-oriented journal backend.
type JournalEntry struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	RecordID  string `gorm:"index;size:64"`
	Name      string `gorm:"size:1024"`
	Size      int64
	Date      string `gorm:"size:64"`
	Timestamp int64  `gorm:"index"`
	Summary   string `gorm:"type:text"`
}

func entryFromRecord(r UploadRecord) JournalEntry {
	return JournalEntry{
		RecordID:  r.ID,
		Name:      r.Name,
		Size:      r.Size,
		Date:      r.Date,
		Timestamp: r.Timestamp,
		Summary:   r.Summary,
	}
}

func (e JournalEntry) record() UploadRecord {
	return UploadRecord{
		Name:      e.Name,
		Size:      e.Size,
		Date:      e.Date,
		Timestamp: e.Timestamp,
		Summary:   e.Summary,
		ID:        e.RecordID,
	}
}
