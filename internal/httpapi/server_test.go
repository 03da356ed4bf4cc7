package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"horse.fit/dealsweep/internal/auth"
	"horse.fit/dealsweep/internal/dedup"
)

type stubRunner struct {
	report  dedup.RunReport
	err     error
	lastReq dedup.RunRequest
}

func (r *stubRunner) Run(ctx context.Context, req dedup.RunRequest) (dedup.RunReport, error) {
	r.lastReq = req
	return r.report, r.err
}

func newTestServer(runner CleanupRunner, tokenHash string) *Server {
	return NewServer(nil, runner, zerolog.Nop(), Options{APITokenHash: tokenHash})
}

func invoke(t *testing.T, handler echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeJSend(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return payload
}

func TestHandleCleanupPreview(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{report: dedup.RunReport{
		RunID:       "run-1",
		Mode:        dedup.ModePreview,
		State:       dedup.StateReported,
		Analyzed:    10,
		GroupsFound: 2,
	}}
	server := newTestServer(runner, "")

	rec := invoke(t, server.handleCleanupPreview, http.MethodPost, "/api/v1/cleanup/preview",
		`{"strategy":"recency","days":14}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
	payload := decodeJSend(t, rec)
	if payload["status"] != "success" {
		t.Fatalf("jsend status = %v", payload["status"])
	}
	data, ok := payload["data"].(map[string]any)
	if !ok || data["run_id"] != "run-1" || data["mode"] != "preview" {
		t.Fatalf("unexpected data: %v", payload["data"])
	}

	if runner.lastReq.Mode != dedup.ModePreview {
		t.Fatalf("runner mode = %v, want preview", runner.lastReq.Mode)
	}
	if runner.lastReq.Window.Strategy != dedup.WindowRecency || runner.lastReq.Window.Days != 14 {
		t.Fatalf("unexpected window: %+v", runner.lastReq.Window)
	}
}

func TestHandleCleanupPreviewDefaultsEmptyBody(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{report: dedup.RunReport{State: dedup.StateReported}}
	server := newTestServer(runner, "")

	rec := invoke(t, server.handleCleanupPreview, http.MethodPost, "/api/v1/cleanup/preview", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body should use defaults, got %d\n%s", rec.Code, rec.Body.String())
	}
	if runner.lastReq.Window.Strategy != dedup.WindowRecency || runner.lastReq.Window.Days != 7 {
		t.Fatalf("unexpected default window: %+v", runner.lastReq.Window)
	}
}

func TestHandleCleanupApplyPassesTokenAndLimit(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{report: dedup.RunReport{State: dedup.StateReported}}
	server := newTestServer(runner, "")

	rec := invoke(t, server.handleCleanupApply, http.MethodPost, "/api/v1/cleanup/apply",
		`{"confirmation_token":"tok","max_deletions":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	if runner.lastReq.Mode != dedup.ModeApply {
		t.Fatalf("runner mode = %v, want apply", runner.lastReq.Mode)
	}
	if runner.lastReq.ConfirmationToken != "tok" || runner.lastReq.Limits.MaxDeletions != 3 {
		t.Fatalf("unexpected request: %+v", runner.lastReq)
	}
}

func TestHandleCleanupRunConflict(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: dedup.ErrRunActive}
	server := newTestServer(runner, "")

	rec := invoke(t, server.handleCleanupApply, http.MethodPost, "/api/v1/cleanup/apply", `{}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409\n%s", rec.Code, rec.Body.String())
	}
	payload := decodeJSend(t, rec)
	if payload["status"] != "fail" {
		t.Fatalf("jsend status = %v", payload["status"])
	}
}

func TestHandleCleanupRunRejectsBadBody(t *testing.T) {
	t.Parallel()

	server := newTestServer(&stubRunner{}, "")

	for _, body := range []string{`{`, `{"bogus":1}`, `{"days":"x"}`} {
		rec := invoke(t, server.handleCleanupPreview, http.MethodPost, "/api/v1/cleanup/preview", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestHandleCleanupRunRejectsBadWindow(t *testing.T) {
	t.Parallel()

	server := newTestServer(&stubRunner{}, "")

	cases := []string{
		`{"strategy":"publication-date"}`,
		`{"strategy":"publication-date","date":"02/20/2026"}`,
		`{"strategy":"bogus"}`,
	}
	for _, body := range cases {
		rec := invoke(t, server.handleCleanupPreview, http.MethodPost, "/api/v1/cleanup/preview", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestParseWindowRequest(t *testing.T) {
	t.Parallel()

	w, err := parseWindowRequest(cleanupRequest{})
	if err != nil || w.Strategy != dedup.WindowRecency || w.Days != 7 {
		t.Fatalf("default window = %+v, err %v", w, err)
	}

	w, err = parseWindowRequest(cleanupRequest{Strategy: "publication-date", Date: "2026-02-20"})
	if err != nil || w.Strategy != dedup.WindowPublicationDate {
		t.Fatalf("publication-date window = %+v, err %v", w, err)
	}
	if w.Date.Year() != 2026 || w.Date.Month() != 2 || w.Date.Day() != 20 {
		t.Fatalf("parsed date = %v", w.Date)
	}

	if _, err = parseWindowRequest(cleanupRequest{Strategy: "publication-date"}); err == nil {
		t.Fatal("publication-date without a date must fail")
	}
}

func TestRequireAuth(t *testing.T) {
	hash, err := auth.HashToken("secret")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	run := func(t *testing.T, tokenHash, header string) *httptest.ResponseRecorder {
		t.Helper()

		server := newTestServer(&stubRunner{}, tokenHash)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cleanup/preview", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		if err := server.requireAuth()(next)(e.NewContext(req, rec)); err != nil {
			t.Fatalf("middleware error: %v", err)
		}
		return rec
	}

	if rec := run(t, "", "Bearer secret"); rec.Code != http.StatusForbidden {
		t.Fatalf("no configured hash: status = %d, want 403", rec.Code)
	}
	if rec := run(t, hash, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status = %d, want 401", rec.Code)
	}
	if rec := run(t, hash, "Bearer wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want 401", rec.Code)
	}
	if rec := run(t, hash, "Token secret"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("non-bearer scheme: status = %d, want 401", rec.Code)
	}
	if rec := run(t, hash, "Bearer secret"); rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		token  string
		found  bool
	}{
		{header: "Bearer abc", token: "abc", found: true},
		{header: "bearer abc", token: "abc", found: true},
		{header: "Bearer   abc  ", token: "abc", found: true},
		{header: "Bearer", found: false},
		{header: "Bearer ", found: false},
		{header: "Basic abc", found: false},
		{header: "", found: false},
	}
	for _, tc := range cases {
		token, found := bearerToken(tc.header)
		if token != tc.token || found != tc.found {
			t.Fatalf("bearerToken(%q) = %q, %v; want %q, %v", tc.header, token, found, tc.token, tc.found)
		}
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if v, err := parsePositiveInt("", 50, 1, 200); err != nil || v != 50 {
		t.Fatalf("empty input: %d, %v", v, err)
	}
	if v, err := parsePositiveInt("25", 50, 1, 200); err != nil || v != 25 {
		t.Fatalf("valid input: %d, %v", v, err)
	}
	if _, err := parsePositiveInt("abc", 50, 1, 200); err == nil {
		t.Fatal("non-integer input must fail")
	}
	if _, err := parsePositiveInt("0", 50, 1, 200); err == nil {
		t.Fatal("below-minimum input must fail")
	}
	if _, err := parsePositiveInt("201", 50, 1, 200); err == nil {
		t.Fatal("above-maximum input must fail")
	}
}
