package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("framectl", "GET", "/health", 200, 12*time.Millisecond)

	log.Debug().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestStreamRecorderCounts(t *testing.T) {
	r := NewStreamRecorder("metrics-test", "network", "hexadecimal")
	r.Opened()
	r.Received(10)
	r.Received(5)
	r.Frame()
	r.Frame()
	r.DecodeFailure()
	r.Buffered(7)

	if got := testutil.ToFloat64(streamBytes.WithLabelValues("metrics-test", "network")); got != 15 {
		t.Fatalf("bytes got=%v", got)
	}
	if got := testutil.ToFloat64(streamFrames.WithLabelValues("metrics-test", "network")); got != 2 {
		t.Fatalf("frames got=%v", got)
	}
	if got := testutil.ToFloat64(streamDecodeFailures.WithLabelValues("metrics-test", "network", "hexadecimal")); got != 1 {
		t.Fatalf("decode failures got=%v", got)
	}
	if got := testutil.ToFloat64(streamBuffered.WithLabelValues("metrics-test", "network")); got != 7 {
		t.Fatalf("buffered got=%v", got)
	}
	r.Closed()
}

func TestZeroStreamRecorderIsNoop(t *testing.T) {
	var r StreamRecorder
	r.Opened()
	r.Received(1)
	r.Frame()
	r.DecodeFailure()
	r.Buffered(1)
	r.Closed()
}
