// Package notify delivers lot events to every configured sink.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/metrics"
)

type Sink interface {
	Publish(ctx context.Context, event domain.LotEvent) error
}

type namedSink struct {
	name string
	sink Sink
}

// Fanout publishes to each sink in registration order. A failing sink does
// not stop delivery to the others.
type Fanout struct {
	sinks  []namedSink
	logger *zap.Logger
}

func NewFanout(logger *zap.Logger) *Fanout {
	return &Fanout{logger: logger}
}

func (f *Fanout) Add(name string, sink Sink) {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) Publish(ctx context.Context, event domain.LotEvent) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.sink.Publish(ctx, event)
		metrics.NotificationsPublished.WithLabelValues(s.name, metrics.Result(err)).Inc()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		f.logger.Debug("lot event delivered", zap.String("sink", s.name), zap.String("event_id", event.ID))
	}
	return errors.Join(errs...)
}
