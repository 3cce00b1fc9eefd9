package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

type fakeReader struct {
	records []outline.Record
	err     error
	got     []byte
}

func (f *fakeReader) Name() string { return "pdfcpu" }

func (f *fakeReader) ReadFile(_ context.Context, _ string) ([]outline.Record, error) {
	return nil, errors.New("paths are not served")
}

func (f *fakeReader) ReadBytes(_ context.Context, data []byte) ([]outline.Record, error) {
	f.got = data
	return f.records, f.err
}

type envelope struct {
	OK        bool                   `json:"ok"`
	Bookmarks []*outline.Node        `json:"bookmarks"`
	Error     string                 `json:"error"`
	Details   map[string]interface{} `json:"details"`
}

func newTestServer(reader *fakeReader, apiKey string, maxBytes int64) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(Options{
		Registry:       toc.NewRegistry(reader),
		APIKey:         apiKey,
		MaxUploadBytes: maxBytes,
		Logger:         log,
	})
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeReader{}, "secret", 0)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) || !strings.Contains(rec.Body.String(), "pdfcpu") {
		t.Fatalf("unexpected health body %s", rec.Body.String())
	}
}

func TestBookmarks_RawBody(t *testing.T) {
	reader := &fakeReader{records: []outline.Record{
		{Level: 1, Title: "Intro", PageIndex: 0},
		{Level: 2, Title: "Scope", PageIndex: 2},
	}}
	s := newTestServer(reader, "", 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/bookmarks", strings.NewReader("%PDF-raw"))
	req.Header.Set("Content-Type", "application/pdf")
	rec, env := do(t, s, req)

	if rec.Code != http.StatusOK || !env.OK {
		t.Fatalf("expected success, got %d %+v", rec.Code, env)
	}
	if string(reader.got) != "%PDF-raw" {
		t.Fatalf("reader received %q", reader.got)
	}
	if len(env.Bookmarks) != 1 || env.Bookmarks[0].Children[0].PageNumber != 3 {
		t.Fatalf("unexpected bookmarks %+v", env.Bookmarks)
	}
}

func TestBookmarks_JSONBase64(t *testing.T) {
	reader := &fakeReader{records: []outline.Record{}}
	s := newTestServer(reader, "", 0)

	body := `{"input":"base64:` + base64.StdEncoding.EncodeToString([]byte("%PDF-json")) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bookmarks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec, env := do(t, s, req)

	if rec.Code != http.StatusOK || !env.OK {
		t.Fatalf("expected success, got %d %+v", rec.Code, env)
	}
	if env.Bookmarks == nil || len(env.Bookmarks) != 0 {
		t.Fatalf("expected empty bookmarks array, got %+v", env.Bookmarks)
	}
	if string(reader.got) != "%PDF-json" {
		t.Fatalf("reader received %q", reader.got)
	}
}

func TestBookmarks_Errors(t *testing.T) {
	tests := []struct {
		name        string
		reader      *fakeReader
		body        string
		contentType string
		query       string
		wantStatus  int
		wantType    string
	}{
		{"empty body", &fakeReader{}, "", "application/pdf", "", http.StatusBadRequest, "usage"},
		{"path input rejected", &fakeReader{}, `{"input":"/etc/passwd"}`, "application/json", "", http.StatusBadRequest, "usage"},
		{"bad json", &fakeReader{}, `{"input":`, "application/json", "", http.StatusBadRequest, "usage"},
		{"bad base64", &fakeReader{}, `{"input":"base64:!!!"}`, "application/json", "", http.StatusBadRequest, "decode"},
		{"parse failure", &fakeReader{err: toc.ParseError{Message: "broken xref", Backend: "pdfcpu"}}, "junk", "application/pdf", "", http.StatusUnprocessableEntity, "parse"},
		{"missing backend", &fakeReader{}, "junk", "application/pdf", "?backend=mupdf", http.StatusNotImplemented, "missing_capability"},
		{"internal failure", &fakeReader{err: toc.InternalError{Message: "boom"}}, "junk", "application/pdf", "", http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.reader, "", 0)
			req := httptest.NewRequest(http.MethodPost, "/v1/bookmarks"+tt.query, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec, env := do(t, s, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.OK || env.Error == "" {
				t.Fatalf("expected failure envelope, got %+v", env)
			}
			if env.Details["type"] != tt.wantType {
				t.Fatalf("details.type = %v, want %s", env.Details["type"], tt.wantType)
			}
		})
	}
}

func TestBookmarks_BodyTooLarge(t *testing.T) {
	s := newTestServer(&fakeReader{}, "", 8)
	req := httptest.NewRequest(http.MethodPost, "/v1/bookmarks", bytes.NewReader(make([]byte, 64)))
	rec, env := do(t, s, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if env.Details["type"] != "usage" {
		t.Fatalf("unexpected details %+v", env.Details)
	}
}

func TestAuthMiddleware(t *testing.T) {
	reader := &fakeReader{records: []outline.Record{}}
	s := newTestServer(reader, "secret", 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/bookmarks", strings.NewReader("pdf"))
	rec, env := do(t, s, req)
	if rec.Code != http.StatusUnauthorized || env.Error != "missing authorization" {
		t.Fatalf("expected missing authorization, got %d %+v", rec.Code, env)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/bookmarks", strings.NewReader("pdf"))
	req.Header.Set("Authorization", "Bearer wrong")
	rec, env = do(t, s, req)
	if rec.Code != http.StatusUnauthorized || env.Error != "invalid api key" {
		t.Fatalf("expected invalid api key, got %d %+v", rec.Code, env)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/bookmarks", strings.NewReader("pdf"))
	req.Header.Set("Authorization", "Bearer secret")
	rec, env = do(t, s, req)
	if rec.Code != http.StatusOK || !env.OK {
		t.Fatalf("expected success with valid key, got %d %+v", rec.Code, env)
	}
}

func TestCheck_InvalidPDF(t *testing.T) {
	s := newTestServer(&fakeReader{}, "", 0)
	req := httptest.NewRequest(http.MethodPost, "/v1/check", strings.NewReader("not a pdf"))
	rec, env := do(t, s, req)

	if env.OK {
		t.Fatalf("expected failure, got %+v", env)
	}
	if rec.Code != http.StatusUnprocessableEntity && rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if env.Details["source"] != "upload" {
		t.Fatalf("expected upload source, got %+v", env.Details)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(toc.Success(nil)); got != http.StatusOK {
		t.Fatalf("success status = %d", got)
	}
	if got := statusFor(toc.Failure(toc.NotFoundError{Message: "gone"}, nil)); got != http.StatusNotFound {
		t.Fatalf("not_found status = %d", got)
	}
}
