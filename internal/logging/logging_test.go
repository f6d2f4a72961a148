package logging

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "nabin.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	SetLogLevel("info")
	LogEvent("hello %s", "world")
	LogError(errors.New("boom"), "reindex %s", "failed")
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "reindex failed") || !strings.Contains(content, "boom") {
		t.Fatalf("expected LogError content, got: %s", content)
	}
}

func TestRequestFieldsDefaults(t *testing.T) {
	fields := requestFields(" nabin->llm ", " ", "", " embed ", map[string]any{"ok": true})
	want := log.Fields{
		"direction": "NABIN->LLM",
		"host":      "unknown",
		"model":     "unknown",
		"op":        "embed",
		"payload":   `{"ok":true}`,
	}
	for k, v := range want {
		if fields[k] != v {
			t.Fatalf("field %s = %v, want %v", k, fields[k], v)
		}
	}
	if _, ok := requestFields("out", "h", "m", "", nil)["op"]; ok {
		t.Fatal("blank op should be omitted")
	}
}

func TestLogRequestClipsLongPayloads(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetLevel(log.DebugLevel)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	})

	LogRequest("out", "http://ollama:11434", "paraphrase-multilingual", "embed", strings.Repeat("phở ", 600))
	out := buf.String()
	if !strings.Contains(out, "model traffic") || !strings.Contains(out, "op=embed") {
		t.Fatalf("expected structured request line, got: %s", out)
	}
	if !strings.Contains(out, "(400 more runes)") {
		t.Fatalf("expected clipped payload, got: %s", out)
	}

	buf.Reset()
	log.SetLevel(log.InfoLevel)
	LogRequest("out", "h", "m", "embed", "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug traffic should not log at info level: %s", buf.String())
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	cases := map[string]log.Level{
		"verbose": log.DebugLevel,
		"WARNING": log.WarnLevel,
		"error":   log.ErrorLevel,
		"quiet":   log.FatalLevel,
		"":        log.InfoLevel,
		"bogus":   log.InfoLevel,
	}
	for name, want := range cases {
		SetLogLevel(name)
		if got := log.GetLevel(); got != want {
			t.Fatalf("SetLogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestGinLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	router := gin.New()
	router.Use(GinLogger(), GinRecovery())
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok?q=pho", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
	if !strings.Contains(buf.String(), "path=\"/ok?q=pho\"") {
		t.Fatalf("expected path in log line, got: %s", buf.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}
