package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("GET", "/api/books", "success", 20*time.Millisecond)
	c.RecordRequest("GET", "/api/books", "success", 10*time.Millisecond)
	c.RecordRequest("GET", "/api/books", "unauthorized", time.Millisecond)

	if got := testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/books", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/books", "unauthorized")); got != 1 {
		t.Errorf("unauthorized count = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(c.latency); n != 1 {
		t.Errorf("latency series = %d, want 1", n)
	}
}

func TestRecordSessionEnd(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSessionEnd("expired")
	if got := testutil.ToFloat64(c.sessionEnds.WithLabelValues("expired")); got != 1 {
		t.Errorf("expired = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRequest("DELETE", "/api/authors/{id}", "forbidden", time.Millisecond)

	path := filepath.Join(t.TempDir(), "library_admin.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `library_admin_api_requests_total{method="DELETE",outcome="forbidden",route="/api/authors/{id}"} 1`) {
		t.Fatalf("textfile missing request counter:\n%s", b)
	}
}
