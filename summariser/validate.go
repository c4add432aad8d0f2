package summariser

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

const PDFContentType = "application/pdf"

// DefaultMaxFileBytes is the 10MB upload limit.
const DefaultMaxFileBytes int64 = 10 * 1024 * 1024

var (
	ErrNoFile       = errors.New("Please select a PDF file first.")
	ErrNotPDF       = errors.New("Only PDF files are allowed.")
	ErrFileTooLarge = errors.New("File size must be less than 10MB.")
)

// ValidateFile checks type and size before any request is made.
func ValidateFile(meta FileMeta, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	if meta.ContentType != PDFContentType {
		return ErrNotPDF
	}
	if meta.Size > maxBytes {
		return TooLarge(maxBytes)
	}
	return nil
}

// SizeLimitError is ErrFileTooLarge for a limit other than the default.
type SizeLimitError struct {
	MaxBytes int64
}

func (e *SizeLimitError) Error() string {
	limit := humanize.IBytes(uint64(e.MaxBytes))
	if e.MaxBytes%(1024*1024) == 0 {
		limit = fmt.Sprintf("%dMB", e.MaxBytes/(1024*1024))
	}
	return "File size must be less than " + limit + "."
}

func (e *SizeLimitError) Is(target error) bool { return target == ErrFileTooLarge }

// TooLarge returns the rejection for a file over maxBytes.
func TooLarge(maxBytes int64) error {
	if maxBytes <= 0 || maxBytes == DefaultMaxFileBytes {
		return ErrFileTooLarge
	}
	return &SizeLimitError{MaxBytes: maxBytes}
}

// FileUpload is a file ready to be sent to the summarisation endpoint.
type FileUpload struct {
	FileMeta
	Body io.Reader
}

// OpenUpload opens a local file and sniffs its content type.
// The caller closes the returned closer once the upload is done.
func OpenUpload(path string) (*FileUpload, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}
	ct, err := sniffContentType(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return &FileUpload{
		FileMeta: FileMeta{Name: filepath.Base(path), Size: info.Size(), ContentType: ct},
		Body:     f,
	}, f, nil
}

func sniffContentType(f io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return baseContentType(http.DetectContentType(head[:n])), nil
}

// baseContentType strips parameters such as "; charset=utf-8".
func baseContentType(ct string) string {
	for i := 0; i < len(ct); i++ {
		if ct[i] == ';' {
			return ct[:i]
		}
	}
	return ct
}
