package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/logger"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/metrics"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"
)

// LotEventPublisher receives lot events after successful mutations.
type LotEventPublisher interface {
	Publish(ctx context.Context, event domain.LotEvent) error
}

type ParkingService struct {
	eventRepo     repository.ParkingEventRepository
	statusRepo    repository.LotStatusRepository
	occupancyRepo repository.OccupancyRepository
	publisher     LotEventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

type Option func(*ParkingService)

func WithPublisher(p LotEventPublisher) Option {
	return func(s *ParkingService) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *ParkingService) { s.now = now }
}

func NewParkingService(
	eventRepo repository.ParkingEventRepository,
	statusRepo repository.LotStatusRepository,
	occupancyRepo repository.OccupancyRepository,
	logger *zap.Logger,
	opts ...Option,
) *ParkingService {
	s := &ParkingService{
		eventRepo:     eventRepo,
		statusRepo:    statusRepo,
		occupancyRepo: occupancyRepo,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckIn opens a new event for the plate, bumps the lot counter and touches
// the lot status. No check is made for an already open event.
func (s *ParkingService) CheckIn(ctx context.Context, lotID int, plateNumber string) error {
	checkIn := s.now().UTC()
	event := &domain.ParkingEvent{
		LotID:       lotID,
		PlateNumber: plateNumber,
		CheckIn:     null.TimeFrom(checkIn),
		IsOut:       false,
		Paid:        false,
	}

	err := s.runSteps(ctx, "check_in", []step{
		{name: "insert_event", run: func(ctx context.Context) error {
			return s.eventRepo.Create(ctx, event)
		}},
		{name: "increment_occupancy", run: func(ctx context.Context) error {
			return s.occupancyRepo.Increment(ctx, lotID)
		}},
		{name: "touch_status", run: func(ctx context.Context) error {
			_, err := s.statusRepo.TouchLatestUpdate(ctx, lotID, s.now().UTC())
			return err
		}},
	})
	metrics.Operations.WithLabelValues("check_in", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info("car checked in",
		zap.Int("lot_id", lotID), zap.String("plate_number", plateNumber))
	s.publish(ctx, domain.LotEvent{
		Type:        domain.LotEventCheckIn,
		LotID:       null.IntFrom(int64(lotID)),
		PlateNumber: plateNumber,
		OccurredAt:  checkIn,
	})
	return nil
}

// CheckOut closes the open event for (lotID, plateNumber), lowers the lot
// counter and touches the lot status. The counter is lowered even when no
// open event matched.
func (s *ParkingService) CheckOut(ctx context.Context, lotID int, plateNumber string, parkingFee int) error {
	checkOut := s.now().UTC()
	var closed int64

	err := s.runSteps(ctx, "check_out", []step{
		{name: "close_event", run: func(ctx context.Context) error {
			var err error
			closed, err = s.eventRepo.CloseOpen(ctx, lotID, plateNumber, domain.CheckOutUpdate{
				CheckOut:   checkOut,
				ParkingFee: parkingFee,
			})
			return err
		}},
		{name: "decrement_occupancy", run: func(ctx context.Context) error {
			return s.occupancyRepo.Decrement(ctx, lotID)
		}},
		{name: "touch_status", run: func(ctx context.Context) error {
			_, err := s.statusRepo.TouchLatestUpdate(ctx, lotID, s.now().UTC())
			return err
		}},
	})
	metrics.Operations.WithLabelValues("check_out", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx, s.logger)
	if closed == 0 {
		metrics.UnmatchedCheckOuts.Inc()
		log.Warn("check-out matched no open event",
			zap.Int("lot_id", lotID), zap.String("plate_number", plateNumber))
	}
	log.Info("car checked out",
		zap.Int("lot_id", lotID), zap.String("plate_number", plateNumber),
		zap.Int("parking_fee", parkingFee), zap.Int64("closed_events", closed))
	s.publish(ctx, domain.LotEvent{
		Type:        domain.LotEventCheckOut,
		LotID:       null.IntFrom(int64(lotID)),
		PlateNumber: plateNumber,
		ParkingFee:  null.IntFrom(int64(parkingFee)),
		OccurredAt:  checkOut,
	})
	return nil
}

// UpdatePayment sets paid on every event carrying the plate, whatever the lot
// or visit.
func (s *ParkingService) UpdatePayment(ctx context.Context, plateNumber string, paid bool) error {
	var updated int64
	err := s.runSteps(ctx, "update_payment", []step{
		{name: "set_paid", run: func(ctx context.Context) error {
			var err error
			updated, err = s.eventRepo.SetPaidByPlate(ctx, plateNumber, paid)
			return err
		}},
	})
	metrics.Operations.WithLabelValues("update_payment", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info("payment status updated",
		zap.String("plate_number", plateNumber), zap.Bool("paid", paid), zap.Int64("updated_events", updated))
	s.publish(ctx, domain.LotEvent{
		Type:        domain.LotEventPayment,
		PlateNumber: plateNumber,
		Paid:        null.BoolFrom(paid),
		OccurredAt:  s.now().UTC(),
	})
	return nil
}

// GetLotStatus returns the lot's status row unchanged.
func (s *ParkingService) GetLotStatus(ctx context.Context, lotID int) (json.RawMessage, error) {
	status, err := s.statusRepo.FindByLotID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, &UpstreamError{Op: "get_lot_status", Step: "select_status", Err: err}
	}
	return status, nil
}

// GetParkingHistory returns the lot's events, newest check-in first. An empty
// lot yields an empty, non-nil slice.
func (s *ParkingService) GetParkingHistory(ctx context.Context, lotID int) ([]domain.ParkingEvent, error) {
	events, err := s.eventRepo.FindByLot(ctx, lotID)
	if err != nil {
		return nil, &UpstreamError{Op: "get_parking_history", Step: "select_events", Err: err}
	}
	if events == nil {
		events = []domain.ParkingEvent{}
	}
	return events, nil
}

func (s *ParkingService) publish(ctx context.Context, event domain.LotEvent) {
	if s.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.FromContext(ctx, s.logger).Warn("failed to publish lot event",
			zap.String("event_id", event.ID), zap.String("type", string(event.Type)), zap.Error(err))
	}
}
