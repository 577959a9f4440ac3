package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"varanasihub.com/site/internal/platform/requestctx"
)

func TestNewLoggerWritesCloudLoggingFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(WithLevel("debug"), WithOutput(&buf))
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug("hello")
	_ = logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["severity"] != "DEBUG" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Fatalf("missing timestamp in %v", entry)
	}
}

func TestRequestLoggerRecordsStatusAndTenant(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := NewLogger(WithLevel("info"), WithOutput(&buf))

	handler := InjectLoggerMiddleware(logger)(RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/s/kashi", nil)
	req = req.WithContext(requestctx.WithTenant(req.Context(), "kashi\nsweets"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if entry["severity"] != "WARN" || entry["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected completion entry %v", entry)
	}
	if entry["tenant"] != "kashisweets" {
		t.Fatalf("expected sanitised tenant, got %v", entry["tenant"])
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	handler := RecoveryMiddleware(nil)(panicky)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/business/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"internal_server_error"`) {
		t.Fatalf("expected JSON envelope, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "{") {
		t.Fatalf("expected plain error page, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestParseCloudTraceContext(t *testing.T) {
	sc, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1f;o=1")
	if !ok {
		t.Fatal("expected header to parse")
	}
	if sc.TraceID().String() != "105445aa7843bc8bf206b12000100000" || sc.SpanID().String() != "000000000000001f" {
		t.Fatalf("unexpected span context %v %v", sc.TraceID(), sc.SpanID())
	}
	if !sc.IsSampled() || !sc.IsRemote() {
		t.Fatalf("expected sampled remote context")
	}
	for _, header := range []string{"", "abc/1", "105445aa7843bc8bf206b12000100000", "105445aa7843bc8bf206b12000100000/zz"} {
		if _, ok := parseCloudTraceContext(header); ok {
			t.Errorf("expected %q to be rejected", header)
		}
	}
}

func TestTraceMiddlewareStoresTraceInfo(t *testing.T) {
	var info requestctx.TraceInfo
	handler := TraceMiddleware("vh-prod")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, _ = requestctx.Trace(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/1;o=1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if info.ProjectID != "vh-prod" {
		t.Fatalf("expected project id, got %+v", info)
	}
	if info.TraceID != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("expected remote trace id to be continued, got %s", info.TraceID)
	}
}
