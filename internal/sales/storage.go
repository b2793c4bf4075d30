package sales

import (
	"context"
	"sort"
	"sync"
)

// Storage is the main interface for our sales storage layer.
type Storage interface {
	// Save inserts the sale atomically and assigns its ID.
	Save(ctx context.Context, sale *Sale) error
	// GetAll returns every sale ordered by date desc, then id desc.
	GetAll(ctx context.Context) ([]*Sale, error)
	Ping(ctx context.Context) error
}

var _ Storage = (*LocalStorage)(nil)

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	mu     sync.RWMutex
	nextID int64
	m      map[int64]Sale
}

// NewLocalStorage instantiates a new LocalStorage for sales with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[int64]Sale{},
	}
}

// Save stores a copy of the sale under the next free ID.
// Returns ErrNilSale if the sale is nil.
func (l *LocalStorage) Save(_ context.Context, sale *Sale) error {
	if sale == nil {
		return ErrNilSale
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	sale.ID = l.nextID
	l.m[sale.ID] = *sale
	return nil
}

// GetAll retrieves all sales from the local storage, most recent first.
func (l *LocalStorage) GetAll(_ context.Context) ([]*Sale, error) {
	l.mu.RLock()
	sales := make([]*Sale, 0, len(l.m))
	for _, s := range l.m {
		s := s
		sales = append(sales, &s)
	}
	l.mu.RUnlock()

	sort.Slice(sales, func(i, j int) bool {
		if !sales[i].Date.Equal(sales[j].Date) {
			return sales[i].Date.After(sales[j].Date)
		}
		return sales[i].ID > sales[j].ID
	})
	return sales, nil
}

// Ping always succeeds for the in-memory store.
func (l *LocalStorage) Ping(_ context.Context) error {
	return nil
}
