package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewFallsBackToInfo(t *testing.T) {
	logger := NewWithOutput("chatty", &bytes.Buffer{})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level=%s, want info", logger.GetLevel())
	}

	logger = NewWithOutput("debug", &bytes.Buffer{})
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level=%s, want debug", logger.GetLevel())
	}
}

func TestLogErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("error", &buf)

	LogError(logger, "engine", "Calculate", "price line items", map[string]string{"category": "flooring"}, errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "boom" || entry["module"] != "engine" || entry["funcName"] != "Calculate" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if _, ok := entry["data"]; !ok {
		t.Fatalf("expected data field in %v", entry)
	}
}

func TestLogErrorWithoutData(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("error", &buf)

	LogError(logger, "proposal", "Save", "insert", nil, errors.New("locked"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := entry["data"]; ok {
		t.Fatalf("did not expect data field in %v", entry)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("info", &buf)

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["path"] != "/healthz" || entry["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}
