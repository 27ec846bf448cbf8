package service

import (
	"context"
	"time"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/logger"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/metrics"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"
	"go.uber.org/zap"
)

// step is one store call of a multi-call operation.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// runSteps executes steps in order and stops at the first failure. Completed
// steps are not compensated: a failure after insert_event leaves the row.
func (s *ParkingService) runSteps(ctx context.Context, op string, steps []step) error {
	log := logger.FromContext(ctx, s.logger).With(zap.String("operation", op))
	for i, st := range steps {
		start := time.Now()
		err := st.run(ctx)
		metrics.StepDuration.WithLabelValues(op, st.name, metrics.Result(err)).Observe(time.Since(start).Seconds())
		if err != nil {
			log.Error("store step failed",
				zap.String("step", st.name),
				zap.Int("completed_steps", i),
				zap.String("error_code", repository.ErrorCode(err)),
				zap.Error(err),
			)
			return &UpstreamError{Op: op, Step: st.name, Err: err}
		}
		log.Debug("store step done", zap.String("step", st.name), zap.Duration("took", time.Since(start)))
	}
	return nil
}
