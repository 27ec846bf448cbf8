package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"
)

// NewStore wires the REST-backed repositories around one client. Every call
// is bounded by timeout.
func NewStore(client *postgrest.Client, timeout time.Duration) *repository.Store {
	c := &conn{client: client, timeout: timeout}
	return &repository.Store{
		Events:    &parkingEventRepository{conn: c},
		Status:    &lotStatusRepository{conn: c},
		Occupancy: &occupancyRepository{conn: c},
		Close:     func() error { return nil },
	}
}

type conn struct {
	client  *postgrest.Client
	timeout time.Duration
}

func (c *conn) run(ctx context.Context, fb *postgrest.FilterBuilder) ([]byte, error) {
	return execute(ctx, c.timeout, fb)
}

// update runs fb and counts the rows PostgREST hands back.
func (c *conn) update(ctx context.Context, fb *postgrest.FilterBuilder) (int64, error) {
	body, err := c.run(ctx, fb)
	if err != nil {
		return 0, err
	}
	var changed []json.RawMessage
	if len(body) > 0 {
		if err := json.Unmarshal(body, &changed); err != nil {
			return 0, fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return int64(len(changed)), nil
}

// rpc posts params to a store function. It goes through the table path
// rather than Client.Rpc, which ignores the response status and parks
// transport errors on the shared client.
func (c *conn) rpc(ctx context.Context, fn string, params any) error {
	_, err := c.run(ctx, c.client.From("rpc/"+fn).Insert(params, false, "", "minimal", ""))
	return err
}

type parkingEventRepository struct {
	conn *conn
}

type newParkingEventRow struct {
	LotID       int    `json:"lot_id"`
	PlateNumber string `json:"plate_number"`
	CheckIn     string `json:"check_in"`
	IsOut       bool   `json:"is_out"`
	Paid        bool   `json:"paid"`
}

type checkOutPatch struct {
	CheckOut   string `json:"check_out"`
	ParkingFee int    `json:"parking_fee"`
	IsOut      bool   `json:"is_out"`
}

func (r *parkingEventRepository) Create(ctx context.Context, event *domain.ParkingEvent) error {
	row := newParkingEventRow{
		LotID:       event.LotID,
		PlateNumber: event.PlateNumber,
		CheckIn:     formatTimestamp(event.CheckIn.Time),
		IsOut:       event.IsOut,
		Paid:        event.Paid,
	}
	fb := r.conn.client.From(repository.ParkingEventTable).Insert(row, false, "", "minimal", "")
	if _, err := r.conn.run(ctx, fb); err != nil {
		return fmt.Errorf("ParkingEventRepository.Create: %w", err)
	}
	return nil
}

func (r *parkingEventRepository) CloseOpen(ctx context.Context, lotID int, plateNumber string, upd domain.CheckOutUpdate) (int64, error) {
	patch := checkOutPatch{
		CheckOut:   formatTimestamp(upd.CheckOut),
		ParkingFee: upd.ParkingFee,
		IsOut:      true,
	}
	fb := r.conn.client.From(repository.ParkingEventTable).
		Update(patch, "representation", "").
		Eq("plate_number", plateNumber).
		Eq("lot_id", strconv.Itoa(lotID)).
		Eq("is_out", strconv.FormatBool(false))
	n, err := r.conn.update(ctx, fb)
	if err != nil {
		return 0, fmt.Errorf("ParkingEventRepository.CloseOpen: %w", err)
	}
	return n, nil
}

func (r *parkingEventRepository) SetPaidByPlate(ctx context.Context, plateNumber string, paid bool) (int64, error) {
	fb := r.conn.client.From(repository.ParkingEventTable).
		Update(map[string]bool{"paid": paid}, "representation", "").
		Eq("plate_number", plateNumber)
	n, err := r.conn.update(ctx, fb)
	if err != nil {
		return 0, fmt.Errorf("ParkingEventRepository.SetPaidByPlate: %w", err)
	}
	return n, nil
}

func (r *parkingEventRepository) FindByLot(ctx context.Context, lotID int) ([]domain.ParkingEvent, error) {
	fb := r.conn.client.From(repository.ParkingEventTable).
		Select("*", "", false).
		Eq("lot_id", strconv.Itoa(lotID)).
		Order("check_in", &postgrest.OrderOpts{Ascending: false})
	body, err := r.conn.run(ctx, fb)
	if err != nil {
		return nil, fmt.Errorf("ParkingEventRepository.FindByLot: %w", err)
	}
	events := []domain.ParkingEvent{}
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("ParkingEventRepository.FindByLot: failed to decode rows: %w", err)
	}
	return events, nil
}

type lotStatusRepository struct {
	conn *conn
}

func (r *lotStatusRepository) FindByLotID(ctx context.Context, lotID int) (json.RawMessage, error) {
	fb := r.conn.client.From(repository.LotStatusTable).
		Select("*", "", false).
		Eq("parking_lot_id", strconv.Itoa(lotID))
	body, err := r.conn.run(ctx, fb)
	if err != nil {
		return nil, fmt.Errorf("LotStatusRepository.FindByLotID: %w", err)
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("LotStatusRepository.FindByLotID: failed to decode rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return rows[0], nil
}

func (r *lotStatusRepository) TouchLatestUpdate(ctx context.Context, lotID int, at time.Time) (int64, error) {
	fb := r.conn.client.From(repository.LotStatusTable).
		Update(map[string]string{"latest_update_at": formatTimestamp(at)}, "representation", "").
		Eq("parking_lot_id", strconv.Itoa(lotID))
	n, err := r.conn.update(ctx, fb)
	if err != nil {
		return 0, fmt.Errorf("LotStatusRepository.TouchLatestUpdate: %w", err)
	}
	return n, nil
}

type occupancyRepository struct {
	conn *conn
}

type lotParams struct {
	Lot int `json:"lot"`
}

func (r *occupancyRepository) Increment(ctx context.Context, lotID int) error {
	if err := r.conn.rpc(ctx, repository.IncrementOccupancyProc, lotParams{Lot: lotID}); err != nil {
		return fmt.Errorf("OccupancyRepository.Increment: %w", err)
	}
	return nil
}

func (r *occupancyRepository) Decrement(ctx context.Context, lotID int) error {
	if err := r.conn.rpc(ctx, repository.DecrementOccupancyProc, lotParams{Lot: lotID}); err != nil {
		return fmt.Errorf("OccupancyRepository.Decrement: %w", err)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
