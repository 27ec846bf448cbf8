package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/metrics"
)

type sinkFunc func(ctx context.Context, event domain.LotEvent) error

func (f sinkFunc) Publish(ctx context.Context, event domain.LotEvent) error {
	return f(ctx, event)
}

func TestFanoutDeliversToAllSinksDespiteFailure(t *testing.T) {
	boom := errors.New("broker down")
	var delivered []string

	f := NewFanout(zap.NewNop())
	f.Add("fanout_test_broken", sinkFunc(func(ctx context.Context, event domain.LotEvent) error { return boom }))
	f.Add("fanout_test_ok", sinkFunc(func(ctx context.Context, event domain.LotEvent) error {
		delivered = append(delivered, event.ID)
		return nil
	}))

	err := f.Publish(context.Background(), domain.LotEvent{ID: "e1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined sink error, got %v", err)
	}
	if len(delivered) != 1 || delivered[0] != "e1" {
		t.Errorf("expected healthy sink to receive the event, got %v", delivered)
	}
	if n := testutil.ToFloat64(metrics.NotificationsPublished.WithLabelValues("fanout_test_broken", "error")); n != 1 {
		t.Errorf("expected 1 failed publish, got %v", n)
	}
	if n := testutil.ToFloat64(metrics.NotificationsPublished.WithLabelValues("fanout_test_ok", "ok")); n != 1 {
		t.Errorf("expected 1 successful publish, got %v", n)
	}
}

func TestEmptyFanout(t *testing.T) {
	f := NewFanout(zap.NewNop())
	if f.Len() != 0 {
		t.Fatalf("expected no sinks")
	}
	if err := f.Publish(context.Background(), domain.LotEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
