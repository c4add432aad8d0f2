package summariser

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFile(t *testing.T) {
	cases := []struct {
		name string
		meta FileMeta
		want error
	}{
		{name: "pdf within limit", meta: FileMeta{Name: "a.pdf", Size: 1024, ContentType: PDFContentType}},
		{name: "pdf exactly at limit", meta: FileMeta{Name: "a.pdf", Size: DefaultMaxFileBytes, ContentType: PDFContentType}},
		{name: "pdf over limit", meta: FileMeta{Name: "a.pdf", Size: DefaultMaxFileBytes + 1, ContentType: PDFContentType}, want: ErrFileTooLarge},
		{name: "not a pdf", meta: FileMeta{Name: "a.txt", Size: 10, ContentType: "text/plain"}, want: ErrNotPDF},
		{name: "type checked before size", meta: FileMeta{Name: "big.bin", Size: DefaultMaxFileBytes * 2, ContentType: "application/octet-stream"}, want: ErrNotPDF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFile(tc.meta, 0)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateFile_CustomLimit(t *testing.T) {
	meta := FileMeta{Name: "a.pdf", Size: 2048, ContentType: PDFContentType}
	if err := ValidateFile(meta, 1024); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestValidateFile_MessageNamesConfiguredLimit(t *testing.T) {
	cases := []struct {
		limit int64
		want  string
	}{
		{limit: DefaultMaxFileBytes, want: "File size must be less than 10MB."},
		{limit: 5 * 1024 * 1024, want: "File size must be less than 5MB."},
		{limit: 1536, want: "File size must be less than 1.5 KiB."},
	}
	for _, tc := range cases {
		meta := FileMeta{Name: "a.pdf", Size: tc.limit + 1, ContentType: PDFContentType}
		err := ValidateFile(meta, tc.limit)
		if !errors.Is(err, ErrFileTooLarge) {
			t.Fatalf("limit %d: expected ErrFileTooLarge, got %v", tc.limit, err)
		}
		if err.Error() != tc.want {
			t.Fatalf("limit %d: expected %q, got %q", tc.limit, tc.want, err.Error())
		}
	}
}

func TestOpenUpload_SniffsPDF(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "doc.pdf")
	content := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatal(err)
	}
	up, closer, err := OpenUpload(p)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	if up.Name != "doc.pdf" || up.Size != int64(len(content)) || up.ContentType != PDFContentType {
		t.Fatalf("unexpected meta: %+v", up.FileMeta)
	}
	// Sniffing must not consume the body.
	body, err := io.ReadAll(up.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != string(content) {
		t.Fatalf("body was not rewound after sniffing")
	}
}

func TestOpenUpload_RenamedTextIsNotPDF(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(p, []byte("just some text"), 0o644); err != nil {
		t.Fatal(err)
	}
	up, closer, err := OpenUpload(p)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	if err := ValidateFile(up.FileMeta, 0); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v (content type %q)", err, up.ContentType)
	}
}

func TestOpenUpload_Errors(t *testing.T) {
	if _, _, err := OpenUpload(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, _, err := OpenUpload(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory")
	}
}
