package toc

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
)

// Result is the outcome of one extraction, serialized as
//
//	{"ok": true, "bookmarks": [...]}
//	{"ok": false, "error": "...", "details": {...}}
type Result struct {
	OK        bool
	Bookmarks []*outline.Node
	Error     string
	Details   map[string]interface{}
}

type successEnvelope struct {
	OK        bool            `json:"ok" yaml:"ok"`
	Bookmarks []*outline.Node `json:"bookmarks" yaml:"bookmarks"`
}

type failureEnvelope struct {
	OK      bool                   `json:"ok" yaml:"ok"`
	Error   string                 `json:"error" yaml:"error"`
	Details map[string]interface{} `json:"details" yaml:"details"`
}

// Success wraps a bookmark forest.
func Success(nodes []*outline.Node) *Result {
	if nodes == nil {
		nodes = []*outline.Node{}
	}
	return &Result{OK: true, Bookmarks: nodes}
}

// Failure classifies err and wraps it. extra entries are merged into
// details, skipping empty values.
func Failure(err error, extra map[string]interface{}) *Result {
	if err == nil {
		err = errors.New("unknown error")
	}
	details := ErrorDetails(err)
	for k, v := range extra {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		if _, exists := details[k]; !exists {
			details[k] = v
		}
	}
	return &Result{OK: false, Error: err.Error(), Details: details}
}

// ErrorDetails returns type/category information for err.
func ErrorDetails(err error) map[string]interface{} {
	details := map[string]interface{}{
		"error":    err.Error(),
		"type":     "internal",
		"category": "system",
	}

	var usageErr UsageError
	if errors.As(err, &usageErr) {
		details["type"] = "usage"
		details["category"] = "user"
	}

	var capErr CapabilityError
	if errors.As(err, &capErr) {
		details["type"] = "missing_capability"
		details["category"] = "system"
		details["backend"] = capErr.Backend
	}

	var notFoundErr NotFoundError
	if errors.As(err, &notFoundErr) {
		details["type"] = "not_found"
		details["category"] = "user"
		details["path"] = notFoundErr.Path
	}

	var decodeErr DecodeError
	if errors.As(err, &decodeErr) {
		details["type"] = "decode"
		details["category"] = "user"
	}

	var parseErr ParseError
	if errors.As(err, &parseErr) {
		details["type"] = "parse"
		details["category"] = "user"
		details["backend"] = parseErr.Backend
	}

	var internalErr InternalError
	if errors.As(err, &internalErr) {
		details["type"] = "internal"
		details["category"] = "system"
		if internalErr.Trace != "" {
			details["trace"] = internalErr.Trace
		}
	}

	return details
}

// ErrorType returns details["type"], or "" for a successful result.
func (r *Result) ErrorType() string {
	if r == nil || r.OK {
		return ""
	}
	t, _ := r.Details["type"].(string)
	return t
}

func (r *Result) envelope() interface{} {
	if r.OK {
		nodes := r.Bookmarks
		if nodes == nil {
			nodes = []*outline.Node{}
		}
		return successEnvelope{OK: true, Bookmarks: nodes}
	}
	details := r.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	return failureEnvelope{OK: false, Error: r.Error, Details: details}
}

// MarshalJSON implements json.Marshaler.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.envelope()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalYAML implements yaml.Marshaler.
func (r *Result) MarshalYAML() (interface{}, error) {
	return r.envelope(), nil
}

// UnmarshalJSON implements json.Unmarshaler for either envelope shape.
func (r *Result) UnmarshalJSON(data []byte) error {
	var env struct {
		OK        *bool                  `json:"ok"`
		Bookmarks []*outline.Node        `json:"bookmarks"`
		Error     string                 `json:"error"`
		Details   map[string]interface{} `json:"details"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.OK == nil {
		return errors.New("envelope is missing \"ok\"")
	}
	*r = Result{OK: *env.OK, Error: env.Error, Details: env.Details}
	if r.OK {
		r.Bookmarks = env.Bookmarks
		if r.Bookmarks == nil {
			r.Bookmarks = []*outline.Node{}
		}
	}
	return nil
}
