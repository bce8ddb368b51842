package storage

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrTooLarge        = errors.New("storage: file too large")
	ErrUnsupportedType = errors.New("storage: unsupported media type")
)

// Kind is the class of media an upload must contain.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

type Limits struct {
	MaxVideoBytes int64
	MaxImageBytes int64
}

func (l Limits) max(kind Kind) int64 {
	if kind == KindImage {
		return l.MaxImageBytes
	}
	return l.MaxVideoBytes
}

// Check enforces the size limit for kind and sniffs the content type. The
// returned File replays the sniffed bytes and carries the detected type.
// Reading past the limit fails with ErrTooLarge even when Size lied.
func (l Limits) Check(f File, kind Kind) (File, error) {
	limit := l.max(kind)
	if f.Size > limit {
		return File{}, ErrTooLarge
	}

	head := make([]byte, 3072)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return File{}, err
	}
	head = head[:n]

	mime := mimetype.Detect(head)
	if !strings.HasPrefix(mime.String(), string(kind)+"/") {
		return File{}, ErrUnsupportedType
	}

	f.Reader = &limitedReader{r: io.MultiReader(bytes.NewReader(head), f.Reader), left: limit}
	f.ContentType = mime.String()
	return f, nil
}

type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
