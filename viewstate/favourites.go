package viewstate

import (
	"context"
	"log/slog"
	"sync"

	"storefront-core/logger"
	"storefront-core/models"
	"storefront-core/repository"

	"github.com/google/uuid"
)

type FavouriteStore interface {
	ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	FavoriteProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}

var _ FavouriteStore = (*repository.FavoriteRepository)(nil)

// Favourites is the optimistic favourite set of the signed-in user.
type Favourites struct {
	repo     FavouriteStore
	sessions repository.Sessions
	log      *slog.Logger

	mu      sync.Mutex
	ids     map[uuid.UUID]bool
	errMsg  string
	toggles keyedLocks
}

func NewFavourites(repo FavouriteStore, sessions repository.Sessions, log *slog.Logger) *Favourites {
	if log == nil {
		log = logger.Discard()
	}
	return &Favourites{repo: repo, sessions: sessions, log: log, ids: map[uuid.UUID]bool{}}
}

// Load replaces the set with the store's.
func (f *Favourites) Load(ctx context.Context) error {
	userID, err := f.sessions.UserID()
	if err != nil {
		return err
	}
	ids, err := f.repo.ProductIDs(ctx, userID)
	if err != nil {
		f.setError(err)
		return err
	}

	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	f.mu.Lock()
	f.ids = set
	f.errMsg = ""
	f.mu.Unlock()
	return nil
}

// Products fetches the favourite products for display.
func (f *Favourites) Products(ctx context.Context) ([]models.Product, error) {
	userID, err := f.sessions.UserID()
	if err != nil {
		return nil, err
	}
	return f.repo.FavoriteProducts(ctx, userID)
}

func (f *Favourites) Contains(productID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[productID]
}

// IDs returns a copy of the set.
func (f *Favourites) IDs() map[uuid.UUID]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]bool, len(f.ids))
	for id := range f.ids {
		out[id] = true
	}
	return out
}

func (f *Favourites) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Toggle flips productID in the set and confirms with the store, rolling
// the flip back if the store call fails. It returns the new state. Toggles
// of the same product run one at a time.
func (f *Favourites) Toggle(ctx context.Context, productID uuid.UUID) (bool, error) {
	userID, err := f.sessions.UserID()
	if err != nil {
		return f.Contains(productID), err
	}

	unlock := f.toggles.lock(productID)
	defer unlock()

	f.mu.Lock()
	was := f.ids[productID]
	f.set(productID, !was)
	f.mu.Unlock()

	if was {
		err = f.repo.Remove(ctx, userID, productID)
	} else {
		err = f.repo.Add(ctx, userID, productID)
	}
	if err != nil {
		f.mu.Lock()
		f.set(productID, was)
		f.errMsg = err.Error()
		f.mu.Unlock()
		f.log.Warn("favourite toggle rolled back", "product_id", productID, "err", err)
		return was, err
	}
	return !was, nil
}

func (f *Favourites) set(productID uuid.UUID, on bool) {
	if on {
		f.ids[productID] = true
	} else {
		delete(f.ids, productID)
	}
}

func (f *Favourites) setError(err error) {
	f.mu.Lock()
	f.errMsg = err.Error()
	f.mu.Unlock()
	f.log.Warn("favourites load failed", "err", err)
}
