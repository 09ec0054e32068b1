// Package intake collects the photos and documents a user stages before
// asking for a page.
package intake

import (
	"errors"
	"fmt"
	"strings"
)

// File is one staged upload.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

var (
	// ErrUnsupportedType rejects anything that is not an image or a PDF.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNothingToSubmit gates generation when neither a note nor a file
	// was provided.
	ErrNothingToSubmit = errors.New("add a note or at least one file first")

	// ErrTooManyFiles stops staging once a chat hits its file limit.
	ErrTooManyFiles = errors.New("too many staged files")
)

// Allowed reports whether a MIME type may be staged: any image/* plus
// application/pdf. Parameters after a semicolon are ignored.
func Allowed(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return strings.HasPrefix(mt, "image/") || mt == "application/pdf"
}

// CheckSubmit enforces the submit gate: a request must carry a note or at
// least one staged file.
func CheckSubmit(note string, fileCount int) error {
	if strings.TrimSpace(note) == "" && fileCount == 0 {
		return ErrNothingToSubmit
	}
	return nil
}

// Collection is an ordered list of staged files. Files keep the order they
// were added in and can be removed individually before submission.
type Collection struct {
	files []File
}

func (c *Collection) Add(f File) error {
	if !Allowed(f.MIMEType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, f.MIMEType)
	}
	c.files = append(c.files, f)
	return nil
}

func (c *Collection) RemoveAt(i int) error {
	if i < 0 || i >= len(c.files) {
		return fmt.Errorf("no staged file at position %d", i)
	}
	c.files = append(c.files[:i], c.files[i+1:]...)
	return nil
}

// Files returns a copy of the staged files in order.
func (c *Collection) Files() []File {
	out := make([]File, len(c.files))
	copy(out, c.files)
	return out
}

func (c *Collection) Len() int {
	return len(c.files)
}
