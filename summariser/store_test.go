package summariser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := s.Set("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("expected v2, got %q ok=%v err=%v", v, ok, err)
	}
	if err := s.Set("other", ""); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get("other"); !ok || v != "" {
		t.Fatalf("expected empty value stored, got %q ok=%v", v, ok)
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	testStoreContract(t, NewSQLiteStore(openTestDB(t)))
}

func TestFileStore(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "history"))
	if err != nil {
		t.Fatal(err)
	}
	testStoreContract(t, fs)
}

func TestFileStore_EscapesKeys(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Set("../escape", "x"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || strings.Contains(entries[0].Name(), "/") {
		t.Fatalf("expected one escaped file inside dir, got %v", entries)
	}
	if v, ok, _ := fs.Get("../escape"); !ok || v != "x" {
		t.Fatalf("expected round trip of escaped key, got %q ok=%v", v, ok)
	}
}

func TestNewFileStore_EmptyDirErrors(t *testing.T) {
	if _, err := NewFileStore(" "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestQuotaStore(t *testing.T) {
	mem := NewMemoryStore()
	q := &QuotaStore{Store: mem, Limit: 4}
	if err := q.Set("k", "1234"); err != nil {
		t.Fatal(err)
	}
	err := q.Set("k", "12345")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if v, _, _ := mem.Get("k"); v != "1234" {
		t.Fatalf("rejected write must not reach the store, got %q", v)
	}
	q.Limit = 0
	if err := q.Set("k", strings.Repeat("x", 100)); err != nil {
		t.Fatalf("zero limit disables quota, got %v", err)
	}
}

func TestWriteFileAtomic_ReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "slot.json")
	if err := WriteFileAtomic(p, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(p, []byte("new")); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "new" {
		t.Fatalf("unexpected content: %q", string(b))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %d entries", len(entries))
	}
}

func TestWriteFileAtomic_EmptyPathErrors(t *testing.T) {
	if err := WriteFileAtomic("", []byte("x")); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
