package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

// extractRequest is the JSON request body form.
type extractRequest struct {
	Input   string `json:"input"`
	Backend string `json:"backend,omitempty"`
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	src, backend, status, err := s.readSource(w, r)
	if err != nil {
		writeResult(w, status, toc.Failure(err, nil))
		return
	}

	res := toc.RunSource(r.Context(), s.opts.Registry, backend, src)
	if !res.OK {
		s.log.WithFields(logrus.Fields{
			"type":    res.ErrorType(),
			"backend": backend,
		}).Warn(res.Error)
	}
	writeResult(w, statusFor(res), res)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	src, _, status, err := s.readSource(w, r)
	if err != nil {
		writeResult(w, status, toc.Failure(err, nil))
		return
	}

	summary, err := toc.Inspect(src)
	if err != nil {
		res := toc.Failure(err, map[string]interface{}{"source": string(src.Kind)})
		writeResult(w, statusFor(res), res)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// readSource turns the request body into a toc.Source. JSON bodies carry a
// "base64:" input; any other content type is the raw PDF. Filesystem paths
// are never accepted over HTTP.
func (s *Server) readSource(w http.ResponseWriter, r *http.Request) (toc.Source, string, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	backend := r.URL.Query().Get("backend")
	if backend == "" {
		backend = s.opts.Backend
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return toc.Source{}, backend, http.StatusRequestEntityTooLarge,
				toc.UsageError{Message: fmt.Sprintf("request body exceeds max size (%d bytes)", s.opts.MaxUploadBytes)}
		}
		return toc.Source{}, backend, http.StatusBadRequest, toc.UsageError{Message: "failed to read request body: " + err.Error()}
	}
	if len(data) == 0 {
		return toc.Source{}, backend, http.StatusBadRequest, toc.UsageError{Message: "request body is empty"}
	}

	if !isJSON(r.Header.Get("Content-Type")) {
		return toc.Source{Kind: toc.SourceUpload, Data: data}, backend, 0, nil
	}

	var req extractRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return toc.Source{}, backend, http.StatusBadRequest, toc.UsageError{Message: "invalid JSON body: " + err.Error()}
	}
	if req.Backend != "" {
		backend = req.Backend
	}
	input := strings.TrimSpace(req.Input)
	if !strings.HasPrefix(input, toc.Base64Prefix) {
		return toc.Source{}, backend, http.StatusBadRequest,
			toc.UsageError{Message: fmt.Sprintf("input must start with %q", toc.Base64Prefix)}
	}
	decoded, err := toc.DecodeBase64(strings.TrimPrefix(input, toc.Base64Prefix))
	if err != nil {
		return toc.Source{}, backend, http.StatusBadRequest, err
	}
	return toc.Source{Kind: toc.SourceBase64, Data: decoded}, backend, 0, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

// statusFor maps an envelope's error type to an HTTP status.
func statusFor(res *toc.Result) int {
	if res.OK {
		return http.StatusOK
	}
	switch res.ErrorType() {
	case "usage", "decode":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "parse":
		return http.StatusUnprocessableEntity
	case "missing_capability":
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeResult(w http.ResponseWriter, code int, res *toc.Result) {
	writeJSON(w, code, res)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
