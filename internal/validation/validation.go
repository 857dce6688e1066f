// Package validation checks command-line inputs before they reach the
// document layer: path shape, file size and whether a file's content
// matches the container its extension claims.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits applied to document inputs (CWE-400).
const (
	// MaxDocumentSize is the largest document file accepted (256 MB).
	MaxDocumentSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrTooLarge         = errors.New("file too large")
	ErrNotRegular       = errors.New("not a regular file")
	ErrTypeMismatch     = errors.New("file type mismatch")
)

// ValidatePath rejects empty paths, overlong paths and paths holding null
// bytes or control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// SanitizePath resolves userPath against baseDir and rejects results that
// escape it. It returns the cleaned relative path.
func SanitizePath(baseDir, userPath string) (string, error) {
	if err := ValidatePath(userPath); err != nil {
		return "", err
	}
	cleanPath := filepath.Clean(userPath)
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleanPath, nil
}

// FileType is the content type detected from a file's leading bytes.
type FileType string

const (
	FileTypeZip     FileType = "zip"
	FileTypeXZ      FileType = "xz"
	FileTypeXML     FileType = "xml"
	FileTypeUnknown FileType = "unknown"
)

var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
}

// CheckDocument validates a document path given on the command line: the
// path shape, that it names a regular file within MaxDocumentSize, and that
// its leading bytes match the container its extension claims.
func CheckDocument(path string) (FileType, error) {
	if err := ValidatePath(path); err != nil {
		return FileTypeUnknown, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileTypeUnknown, err
	}
	if !info.Mode().IsRegular() {
		return FileTypeUnknown, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if info.Size() > MaxDocumentSize {
		return FileTypeUnknown, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, err
	}
	defer f.Close()
	return ValidateFileType(f, path)
}

// ValidateFileType reads the start of r and checks it against the type
// filename's extension implies.
func ValidateFileType(r io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	expected := typeFromExtension(filename)
	detected := typeFromMagic(buf)
	if detected == FileTypeUnknown && isLikelyXML(buf) {
		detected = FileTypeXML
	}
	if expected == FileTypeUnknown || detected == expected {
		return detected, nil
	}
	return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is %s", ErrTypeMismatch, expected, detected)
}

func typeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

func typeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".odt", ".ott":
		return FileTypeZip
	case ".xz":
		return FileTypeXZ
	case ".fodt", ".xml":
		return FileTypeXML
	}
	return FileTypeUnknown
}

// isLikelyXML reports whether buf starts, after an optional byte order mark
// and whitespace, with markup and holds no null bytes.
func isLikelyXML(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}
	buf = bytes.TrimPrefix(buf, []byte("\xef\xbb\xbf"))
	buf = bytes.TrimLeft(buf, " \t\r\n")
	return len(buf) > 0 && buf[0] == '<'
}
