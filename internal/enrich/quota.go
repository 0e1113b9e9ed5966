package enrich

import (
	"context"
	"sync"
	"time"
)

// quotaStore is the slice of the station store the quota tracker needs.
type quotaStore interface {
	AddQuotaUsed(ctx context.Context, day string, n int) error
}

// quota tracks the day's discovery-call budget. Reservations are serialized
// under a mutex and persisted immediately so concurrent workers cannot
// collectively overspend, and so the count survives an interrupted run.
type quota struct {
	mu    sync.Mutex
	store quotaStore
	day   string
	limit int
	used  int
}

// DayKey formats the quota day for a moment in the given location. The
// provider's budget resets at local midnight, so the key is a calendar date.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// reserve claims one discovery call. Returns false when the budget is spent.
func (q *quota) reserve(ctx context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.used >= q.limit {
		return false, nil
	}
	if err := q.store.AddQuotaUsed(ctx, q.day, 1); err != nil {
		return false, err
	}
	q.used++
	return true, nil
}

func (q *quota) usedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}
