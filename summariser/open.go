package summariser

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// HistoryOptions is the resolved storage configuration of a journal.
type HistoryOptions struct {
	Storage    string
	DBPath     string
	Dir        string
	QuotaBytes int
	Backend    string
	Slot       string
	Retention  Retention
}

// History owns the journal and whatever storage handle backs it.
type History struct {
	Journal *Journal
	db      *gorm.DB
}

func (h *History) Close() error {
	if h == nil {
		return nil
	}
	err := CloseDB(h.db)
	h.db = nil
	return err
}

// OpenHistory builds the configured backend and loads the journal from it once.
func OpenHistory(opts HistoryOptions) (*History, error) {
	backendKind := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backendKind == "" {
		backendKind = BackendSlot
	}
	storageKind := strings.ToLower(strings.TrimSpace(opts.Storage))
	if storageKind == "" {
		storageKind = StorageSQLite
	}

	h := &History{}
	var backend Backend

	switch backendKind {
	case BackendLog:
		if storageKind != StorageSQLite {
			return nil, fmt.Errorf("log backend requires sqlite storage, got %q", storageKind)
		}
		db, err := OpenDB(defaultString(opts.DBPath, DefaultDBPath))
		if err != nil {
			return nil, err
		}
		h.db = db
		backend = NewLogBackend(db, opts.Retention)
	case BackendSlot:
		var store Store
		switch storageKind {
		case StorageSQLite:
			db, err := OpenDB(defaultString(opts.DBPath, DefaultDBPath))
			if err != nil {
				return nil, err
			}
			h.db = db
			store = NewSQLiteStore(db)
		case StorageFile:
			fs, err := NewFileStore(defaultString(opts.Dir, DefaultDir))
			if err != nil {
				return nil, err
			}
			store = fs
		case StorageMemory:
			store = NewMemoryStore()
		default:
			return nil, fmt.Errorf("unknown storage %q (want sqlite, file or memory)", storageKind)
		}
		if opts.QuotaBytes > 0 {
			store = &QuotaStore{Store: store, Limit: opts.QuotaBytes}
		}
		backend = NewSlotBackend(store, opts.Slot)
	default:
		return nil, fmt.Errorf("unknown history backend %q (want slot or log)", backendKind)
	}

	h.Journal = LoadJournal(backend, opts.Retention)
	return h, nil
}

func defaultString(v string, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
