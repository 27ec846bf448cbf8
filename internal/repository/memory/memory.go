// Package memory is an in-process stand-in for the external store. It follows
// the same filter semantics as the SQL and REST backends and lets callers
// inject failures per method.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"
	"gopkg.in/guregu/null.v4"
)

type Store struct {
	mu       sync.Mutex
	events   []domain.ParkingEvent
	statuses map[int]*domain.LotStatus
	columns  map[int]map[string]any
	nextID   int64
	calls    []string
	failures map[string]error
}

func New() *Store {
	return &Store{
		statuses: make(map[int]*domain.LotStatus),
		columns:  make(map[int]map[string]any),
		failures: make(map[string]error),
	}
}

// Repositories exposes s through the repository interfaces.
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Events:    s,
		Status:    s,
		Occupancy: s,
		Close:     func() error { return nil },
	}
}

// FailOn makes every later call to method (e.g. "Increment") return err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = err
}

func (s *Store) SeedStatus(lotID int, customers int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[lotID] = &domain.LotStatus{ParkingLotID: lotID, CustomerCount: null.IntFrom(customers)}
}

// SeedStatusColumns attaches columns the service never touches (e.g.
// "capacity") to the lot's status row. They come back from FindByLotID.
func (s *Store) SeedStatusColumns(lotID int, cols map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := make(map[string]any, len(cols))
	for k, v := range s.columns[lotID] {
		merged[k] = v
	}
	for k, v := range cols {
		merged[k] = v
	}
	s.columns[lotID] = merged
}

func (s *Store) SeedEvent(event domain.ParkingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	event.ID.SetValid(s.nextID)
	s.events = append(s.events, event)
}

// Events returns a copy of every stored event in insertion order.
func (s *Store) Events() []domain.ParkingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ParkingEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) LotStatus(lotID int) (domain.LotStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[lotID]
	if !ok {
		return domain.LotStatus{}, false
	}
	return *st, true
}

// Calls lists the store calls made so far, formatted as Method[args...], e.g. "Increment[1]".
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Store) record(method string, args ...any) error {
	s.calls = append(s.calls, fmt.Sprintf("%s%v", method, args))
	return s.failures[method]
}

func (s *Store) Create(ctx context.Context, event *domain.ParkingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Create", event.LotID, event.PlateNumber); err != nil {
		return err
	}
	s.nextID++
	event.ID.SetValid(s.nextID)
	s.events = append(s.events, *event)
	return nil
}

func (s *Store) CloseOpen(ctx context.Context, lotID int, plateNumber string, upd domain.CheckOutUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("CloseOpen", lotID, plateNumber); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.events {
		e := &s.events[i]
		if e.PlateNumber == plateNumber && e.LotID == lotID && !e.IsOut {
			e.CheckOut.SetValid(upd.CheckOut)
			e.ParkingFee.SetValid(int64(upd.ParkingFee))
			e.IsOut = true
			n++
		}
	}
	return n, nil
}

func (s *Store) SetPaidByPlate(ctx context.Context, plateNumber string, paid bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("SetPaidByPlate", plateNumber, paid); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.events {
		if s.events[i].PlateNumber == plateNumber {
			s.events[i].Paid = paid
			n++
		}
	}
	return n, nil
}

func (s *Store) FindByLot(ctx context.Context, lotID int) ([]domain.ParkingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("FindByLot", lotID); err != nil {
		return nil, err
	}
	out := []domain.ParkingEvent{}
	for _, e := range s.events {
		if e.LotID == lotID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckIn.Time.After(out[j].CheckIn.Time) })
	return out, nil
}

func (s *Store) FindByLotID(ctx context.Context, lotID int) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("FindByLotID", lotID); err != nil {
		return nil, err
	}
	st, ok := s.statuses[lotID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	base, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	if len(s.columns[lotID]) == 0 {
		return base, nil
	}
	row := make(map[string]any, len(s.columns[lotID]))
	for k, v := range s.columns[lotID] {
		row[k] = v
	}
	if err := json.Unmarshal(base, &row); err != nil {
		return nil, err
	}
	return json.Marshal(row)
}

func (s *Store) TouchLatestUpdate(ctx context.Context, lotID int, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("TouchLatestUpdate", lotID); err != nil {
		return 0, err
	}
	st, ok := s.statuses[lotID]
	if !ok {
		return 0, nil
	}
	st.LatestUpdateAt.SetValid(at)
	return 1, nil
}

func (s *Store) Increment(ctx context.Context, lotID int) error {
	return s.adjust("Increment", lotID, 1)
}

func (s *Store) Decrement(ctx context.Context, lotID int) error {
	return s.adjust("Decrement", lotID, -1)
}

func (s *Store) adjust(method string, lotID int, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(method, lotID); err != nil {
		return err
	}
	if st, ok := s.statuses[lotID]; ok {
		st.CustomerCount.SetValid(st.CustomerCount.Int64 + delta)
	}
	return nil
}
