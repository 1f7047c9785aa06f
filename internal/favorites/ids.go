package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"

	"mealcart/internal/cache"
)

// IDList is the bare id list the browse screens toggle. It is stored apart
// from the detail flow's favorites.
type IDList struct {
	mu     sync.RWMutex
	doc    *cache.Document[[]int]
	ids    []int
	loaded bool
}

func NewIDList(c cache.Cache) *IDList {
	return &IDList{doc: cache.NewDocument[[]int](c, IDsKey)}
}

func (l *IDList) Load(ctx context.Context) error {
	ids, _, err := l.doc.Load(ctx)
	if errors.Is(err, cache.ErrCorrupt) {
		slog.ErrorContext(ctx, "favorite ids are unreadable, starting empty", "key", l.doc.Key(), "error", err)
		ids, err = []int{}, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load favorite ids: %w", err)
	}
	ids = lo.Uniq(ids)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = ids
	l.loaded = true
	return nil
}

// Toggle flips id in the list and reports whether it is present afterwards.
func (l *IDList) Toggle(ctx context.Context, id int) (bool, error) {
	if id == 0 {
		return false, ErrMissingID
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		return false, ErrNotLoaded
	}

	present := slices.Contains(l.ids, id)
	var next []int
	if present {
		next = lo.Without(l.ids, id)
	} else {
		next = append(slices.Clone(l.ids), id)
	}
	if next == nil {
		next = []int{}
	}
	if err := l.doc.Save(ctx, next); err != nil {
		slog.ErrorContext(ctx, "failed to save favorite ids", "error", err)
		return present, err
	}
	l.ids = next
	return !present, nil
}

func (l *IDList) Contains(id int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Contains(l.ids, id)
}

func (l *IDList) IDs() []int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.ids)
}

// CheckDivergence logs when the two favorites stores disagree. They are
// written by different flows and drift apart over time.
func CheckDivergence(ctx context.Context, m *Manager, l *IDList) (onlyDetail, onlyIDs []int) {
	onlyDetail, onlyIDs = lo.Difference(m.IDs(), l.IDs())
	if len(onlyDetail) > 0 || len(onlyIDs) > 0 {
		slog.WarnContext(ctx, "favorites stores diverge",
			"only_in_"+Key, onlyDetail,
			"only_in_"+IDsKey, onlyIDs)
	}
	return onlyDetail, onlyIDs
}
