package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(8888)
	time.Sleep(100 * time.Millisecond)
	defer srv.Stop(context.Background())

	RecordFetch("example.com", 200, 1.0, 11, "")

	resp, err := http.Get("http://localhost:8888/metrics")
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	output := string(body)
	if !strings.Contains(output, "seocrawl_fetches_total") {
		t.Errorf("expected seocrawl_fetches_total metric")
	}
	if !strings.Contains(output, "seocrawl_fetch_duration_seconds_bucket") {
		t.Errorf("expected seocrawl_fetch_duration_seconds metric")
	}
	if !strings.Contains(output, `seocrawl_fetch_bytes_total{host="example.com"}`) {
		t.Errorf("expected seocrawl_fetch_bytes_total metric for example.com")
	}
}

func TestRecordFetch_ChallengeDetected(t *testing.T) {
	RecordFetch("challenged.example", 403, 0.5, 0, "Cloudflare")
}
