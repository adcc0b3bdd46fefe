package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"storefront-core/logger"
	"storefront-core/models"

	"github.com/shopspring/decimal"
)

const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"

	dateLabelLayout = "2 January 2006"
	clockLayout     = "15:04"
)

type HistoryEntry struct {
	Order     models.OrderWithLines
	TimeLabel string
	Total     decimal.Decimal
}

type Bucket struct {
	Label   string
	Entries []HistoryEntry
}

// GroupOrders buckets orders by local calendar day: Today, Yesterday, then
// one bucket per older date. Buckets and the entries in them are newest first.
func GroupOrders(orders []models.OrderWithLines, now time.Time, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	sorted := append([]models.OrderWithLines(nil), orders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var buckets []Bucket
	index := map[time.Time]int{}
	for _, o := range sorted {
		created := o.CreatedAt.In(loc)
		day := startOfDay(created)
		// Orders stamped ahead of the local clock still belong to today.
		if day.After(today) {
			day = today
		}

		var label string
		switch {
		case day.Equal(today):
			label = LabelToday
		case day.Equal(yesterday):
			label = LabelYesterday
		default:
			label = day.Format(dateLabelLayout)
		}

		i, ok := index[day]
		if !ok {
			i = len(buckets)
			index[day] = i
			buckets = append(buckets, Bucket{Label: label})
		}
		buckets[i].Entries = append(buckets[i].Entries, HistoryEntry{
			Order:     o,
			TimeLabel: timeLabel(created, now, label == LabelToday),
			Total:     o.Total(),
		})
	}
	return buckets
}

func timeLabel(created, now time.Time, today bool) string {
	age := now.Sub(created)
	if age < 0 {
		age = 0
	}
	if today && age < 24*time.Hour {
		return fmt.Sprintf("%d min ago", int(age/time.Minute))
	}
	return created.Format(clockLayout)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type HistoryLoader interface {
	OrdersHistory(ctx context.Context) ([]models.OrderWithLines, error)
}

type HistoryState struct {
	Buckets []Bucket
	Loading bool
	Error   string
}

// History is the grouped order history view.
type History struct {
	repo HistoryLoader
	loc  *time.Location
	now  func() time.Time
	log  *slog.Logger

	mu      sync.Mutex
	buckets []Bucket
	loading bool
	errMsg  string
}

func NewHistory(repo HistoryLoader, loc *time.Location, log *slog.Logger) *History {
	if log == nil {
		log = logger.Discard()
	}
	return &History{repo: repo, loc: loc, now: time.Now, log: log}
}

func (h *History) Load(ctx context.Context) error {
	h.mu.Lock()
	h.loading = true
	h.mu.Unlock()

	orders, err := h.repo.OrdersHistory(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.loading = false
	if err != nil {
		h.errMsg = err.Error()
		h.log.Warn("order history load failed", "err", err)
		return err
	}
	h.buckets = GroupOrders(orders, h.now(), h.loc)
	h.errMsg = ""
	return nil
}

func (h *History) Snapshot() HistoryState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HistoryState{
		Buckets: append([]Bucket(nil), h.buckets...),
		Loading: h.loading,
		Error:   h.errMsg,
	}
}
