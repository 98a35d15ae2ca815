package trace

import (
	"context"
	"testing"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "false")
	if err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Enabled() {
		t.Fatal("tracing should be disabled")
	}

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	if _, _, ok := GetTraceFields(ctx); ok {
		t.Error("disabled tracing should not report trace fields")
	}
}

func TestSampleRatio(t *testing.T) {
	cases := map[string]float64{"": 1, "0.25": 0.25, "2": 1, "-1": 1, "abc": 1}
	for in, want := range cases {
		t.Setenv("TRACE_SAMPLE_RATIO", in)
		if got := sampleRatio(); got != want {
			t.Errorf("sampleRatio(%q) = %v, want %v", in, got, want)
		}
	}
}
