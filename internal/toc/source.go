package toc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Base64Prefix marks an argument carrying the PDF bytes inline.
const Base64Prefix = "base64:"

// SourceKind describes where the PDF bytes come from.
type SourceKind string

const (
	// SourcePath is a filesystem path read by the backend itself.
	SourcePath SourceKind = "path"
	// SourceBase64 is an inline base64 payload.
	SourceBase64 SourceKind = "base64"
	// SourceStdin is raw PDF bytes read from standard input.
	SourceStdin SourceKind = "stdin"
	// SourceUpload is raw PDF bytes received as an HTTP request body.
	SourceUpload SourceKind = "upload"
)

// Source is a resolved reference to a PDF document.
type Source struct {
	Kind SourceKind
	Path string
	Data []byte
}

// ParseSource resolves a command-line argument into a Source.
// "-" reads raw PDF bytes from stdin, a "base64:" prefix carries the bytes
// inline, anything else is a path that must exist.
func ParseSource(arg string, stdin io.Reader) (Source, error) {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" {
		return Source{}, UsageError{Message: "missing input: expected a PDF path or base64:<data>"}
	}

	if strings.HasPrefix(trimmed, Base64Prefix) {
		data, err := DecodeBase64(strings.TrimPrefix(trimmed, Base64Prefix))
		if err != nil {
			return Source{}, err
		}
		return Source{Kind: SourceBase64, Data: data}, nil
	}

	if trimmed == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return Source{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) == 0 {
			return Source{}, UsageError{Message: "no PDF data on stdin"}
		}
		return Source{Kind: SourceStdin, Data: data}, nil
	}

	info, err := os.Stat(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, NotFoundError{Message: fmt.Sprintf("file does not exist: %s", trimmed), Path: trimmed}
		}
		return Source{}, fmt.Errorf("failed to stat %s: %w", trimmed, err)
	}
	if info.IsDir() {
		return Source{}, UsageError{Message: fmt.Sprintf("%s is a directory, expected a PDF file", trimmed)}
	}

	return Source{Kind: SourcePath, Path: trimmed}, nil
}

// DecodeBase64 decodes a standard base64 payload, ignoring embedded
// whitespace and line breaks.
func DecodeBase64(payload string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)
	if cleaned == "" {
		return nil, DecodeError{Message: "empty base64 payload"}
	}

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		// Accept unpadded input as well.
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "=")); rawErr == nil {
			return raw, nil
		}
		return nil, DecodeError{Message: fmt.Sprintf("invalid base64 payload: %v", err), Err: err}
	}
	return data, nil
}

// Bytes returns the PDF bytes, reading the file for path sources.
func (s Source) Bytes() ([]byte, error) {
	if s.Kind != SourcePath {
		return s.Data, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NotFoundError{Message: fmt.Sprintf("file does not exist: %s", s.Path), Path: s.Path}
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	return data, nil
}
