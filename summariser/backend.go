package summariser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// DefaultSlot is the slot name the browser page used for its history.
const DefaultSlot = "pdfHistory"

// Backend moves the journal sequence to and from durable storage.
//
// Persist receives the full newest-first sequence. The first unsaved records
// have not reached storage yet; backends that rewrite everything may ignore it.
type Backend interface {
	Load() ([]UploadRecord, error)
	Persist(records []UploadRecord, unsaved int) error
}

// SlotBackend stores the whole journal as one JSON array in a single slot.
// The array is the browser page's format; the extra "id" key is omitted for
// records that have none, so either side can read what the other wrote.
type SlotBackend struct {
	Store Store
	Key   string
}

func NewSlotBackend(store Store, key string) *SlotBackend {
	if key == "" {
		key = DefaultSlot
	}
	return &SlotBackend{Store: store, Key: key}
}

func (b *SlotBackend) Load() ([]UploadRecord, error) {
	raw, ok, err := b.Store.Get(b.Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeRecords([]byte(raw))
}

func (b *SlotBackend) Persist(records []UploadRecord, _ int) error {
	if records == nil {
		records = []UploadRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return b.Store.Set(b.Key, string(payload))
}

// decodeRecords accepts any JSON array. Elements that are not record-shaped
// decode to zero records so stored positions are preserved.
func decodeRecords(raw []byte) ([]UploadRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("history slot is not an array: %w", err)
	}
	out := make([]UploadRecord, len(items))
	for i, item := range items {
		var rec UploadRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			rec = decodeLoose(item)
		}
		out[i] = rec
	}
	return out, nil
}

// decodeLoose salvages the fields that have the expected type when the
// element as a whole does not decode (e.g. size stored as a string).
func decodeLoose(item json.RawMessage) UploadRecord {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return UploadRecord{}
	}
	var rec UploadRecord
	_ = json.Unmarshal(fields["name"], &rec.Name)
	_ = json.Unmarshal(fields["size"], &rec.Size)
	_ = json.Unmarshal(fields["date"], &rec.Date)
	_ = json.Unmarshal(fields["timestamp"], &rec.Timestamp)
	_ = json.Unmarshal(fields["summary"], &rec.Summary)
	_ = json.Unmarshal(fields["id"], &rec.ID)
	return rec
}

// LogBackend appends one row per record instead of rewriting the sequence.
// Rows are only deleted when Retention is capped; other writers sharing the
// table keep their rows otherwise.
type LogBackend struct {
	db        *gorm.DB
	retention Retention
}

func NewLogBackend(db *gorm.DB, retention Retention) *LogBackend {
	return &LogBackend{db: db, retention: retention}
}

func (b *LogBackend) Load() ([]UploadRecord, error) {
	var rows []JournalEntry
	if err := b.db.Order("seq desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]UploadRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

func (b *LogBackend) Persist(records []UploadRecord, unsaved int) error {
	if unsaved > len(records) {
		unsaved = len(records)
	}
	return b.db.Transaction(func(tx *gorm.DB) error {
		// Oldest pending record first so seq order matches insertion order.
		for i := unsaved - 1; i >= 0; i-- {
			row := entryFromRecord(records[i])
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		if b.retention.Unlimited() {
			return nil
		}
		var total int64
		if err := tx.Model(&JournalEntry{}).Count(&total).Error; err != nil {
			return err
		}
		if total <= int64(b.retention.MaxRecords) {
			return nil
		}
		return tx.Exec(
			"DELETE FROM journal_entries WHERE seq NOT IN (SELECT seq FROM journal_entries ORDER BY seq DESC LIMIT ?)",
			b.retention.MaxRecords,
		).Error
	})
}
