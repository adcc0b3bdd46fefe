package viewstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-core/models"

	"github.com/shopspring/decimal"
)

func orderAt(id int64, at time.Time) models.OrderWithLines {
	return models.OrderWithLines{
		Order: models.Order{ID: id, CreatedAt: at, DeliveryCost: 5},
		Lines: []models.OrderLine{{Cost: decimal.NewFromInt(10), Quantity: 2}},
	}
}

func TestGroupOrdersTodayAndYesterday(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	orders := []models.OrderWithLines{
		orderAt(3, time.Date(2024, 3, 9, 18, 0, 0, 0, loc)),
		orderAt(2, time.Date(2024, 3, 10, 9, 0, 0, 0, loc)),
		orderAt(1, time.Date(2024, 3, 10, 10, 0, 0, 0, loc)),
	}

	buckets := GroupOrders(orders, now, loc)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Label != LabelToday || len(buckets[0].Entries) != 2 {
		t.Fatalf("unexpected first bucket %+v", buckets[0])
	}
	if buckets[0].Entries[0].Order.ID != 1 || buckets[0].Entries[1].Order.ID != 2 {
		t.Errorf("expected 10:00 before 09:00, got %d then %d", buckets[0].Entries[0].Order.ID, buckets[0].Entries[1].Order.ID)
	}
	if buckets[0].Entries[0].TimeLabel != "120 min ago" {
		t.Errorf("expected '120 min ago', got %q", buckets[0].Entries[0].TimeLabel)
	}
	if buckets[1].Label != LabelYesterday || len(buckets[1].Entries) != 1 || buckets[1].Entries[0].Order.ID != 3 {
		t.Errorf("unexpected second bucket %+v", buckets[1])
	}
	if buckets[1].Entries[0].TimeLabel != "18:00" {
		t.Errorf("expected clock label 18:00, got %q", buckets[1].Entries[0].TimeLabel)
	}
	if !buckets[0].Entries[0].Total.Equal(decimal.NewFromInt(25)) {
		t.Errorf("expected total 25, got %s", buckets[0].Entries[0].Total)
	}
}

func TestGroupOrdersFutureOrderJoinsToday(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 10, 23, 59, 0, 0, loc)
	orders := []models.OrderWithLines{
		orderAt(1, now.Add(-time.Hour)),
		orderAt(2, now.Add(2*time.Minute)),
	}

	buckets := GroupOrders(orders, now, loc)
	if len(buckets) != 1 {
		t.Fatalf("expected a single bucket, got %d", len(buckets))
	}
	if buckets[0].Label != LabelToday || len(buckets[0].Entries) != 2 {
		t.Fatalf("unexpected bucket %+v", buckets[0])
	}
	if buckets[0].Entries[0].Order.ID != 2 {
		t.Errorf("expected the later order first, got %d", buckets[0].Entries[0].Order.ID)
	}
	if got := buckets[0].Entries[0].TimeLabel; got != "0 min ago" {
		t.Errorf("expected '0 min ago' for a future order, got %q", got)
	}
	if got := buckets[0].Entries[1].TimeLabel; got != "60 min ago" {
		t.Errorf("expected '60 min ago', got %q", got)
	}
}

func TestGroupOrdersUsesViewerZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, loc)
	// 22:30 UTC on the 9th is 01:30 on the 10th in UTC+3.
	orders := []models.OrderWithLines{orderAt(1, time.Date(2024, 3, 9, 22, 30, 0, 0, time.UTC))}

	buckets := GroupOrders(orders, now, loc)
	if len(buckets) != 1 || buckets[0].Label != LabelToday {
		t.Errorf("expected the order in Today, got %+v", buckets)
	}
}

func TestGroupOrdersOlderDates(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	orders := []models.OrderWithLines{
		orderAt(1, time.Date(2024, 2, 28, 8, 0, 0, 0, loc)),
		orderAt(2, time.Date(2024, 3, 5, 8, 0, 0, 0, loc)),
		orderAt(3, time.Date(2024, 3, 5, 9, 15, 0, 0, loc)),
	}

	buckets := GroupOrders(orders, now, loc)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "5 March 2024" || buckets[1].Label != "28 February 2024" {
		t.Errorf("unexpected labels %q, %q", buckets[0].Label, buckets[1].Label)
	}
	if buckets[0].Entries[0].Order.ID != 3 || buckets[0].Entries[0].TimeLabel != "09:15" {
		t.Errorf("unexpected first entry %+v", buckets[0].Entries[0])
	}
}

func TestGroupOrdersEmpty(t *testing.T) {
	if got := GroupOrders(nil, time.Now(), time.UTC); len(got) != 0 {
		t.Errorf("expected no buckets, got %d", len(got))
	}
}

type fakeHistory struct {
	orders []models.OrderWithLines
	err    error
}

func (f fakeHistory) OrdersHistory(ctx context.Context) ([]models.OrderWithLines, error) {
	return f.orders, f.err
}

func TestHistoryLoad(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	h := NewHistory(fakeHistory{orders: []models.OrderWithLines{orderAt(1, now.Add(-time.Hour))}}, time.UTC, nil)
	h.now = func() time.Time { return now }

	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	s := h.Snapshot()
	if len(s.Buckets) != 1 || s.Buckets[0].Entries[0].TimeLabel != "60 min ago" || s.Loading {
		t.Errorf("unexpected state %+v", s)
	}

	h.repo = fakeHistory{err: errBoom}
	if err := h.Load(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if s := h.Snapshot(); len(s.Buckets) != 1 || s.Error == "" {
		t.Errorf("expected prior buckets kept with error, got %+v", s)
	}
}
