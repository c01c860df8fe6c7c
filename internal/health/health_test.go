package health

import (
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"tickstream/internal/logging"
)

type fakeChecker struct {
	stalled bool
}

func (f *fakeChecker) Stalled(time.Duration) bool { return f.stalled }

func TestNewStartsServing(t *testing.T) {
	s := New(&fakeChecker{}, 5*time.Second, logging.Noop{})
	resp, err := s.healthSrv.Check(nil, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING at construction, got %v", resp.Status)
	}
}

func TestWatchFlipsToNotServingWhenStalled(t *testing.T) {
	checker := &fakeChecker{stalled: true}
	s := New(checker, 20*time.Millisecond, logging.Noop{})

	done := make(chan struct{})
	go func() {
		s.watch()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	resp, err := s.healthSrv.Check(nil, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING once stalled, got %v", resp.Status)
	}
}
