package stores

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grocerysaver/grocerysaver/internal/shared"
)

type memoryRepo struct {
	stores map[int64]Store
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stores: make(map[int64]Store)}
}

func (r *memoryRepo) List(ctx context.Context) ([]Store, error) {
	out := make([]Store, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Store, error) {
	if s, ok := r.stores[id]; ok {
		return s, nil
	}
	return Store{}, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, store Store) (Store, error) {
	for _, s := range r.stores {
		if s.Name == store.Name {
			return Store{}, shared.ErrConflict
		}
	}
	r.nextID++
	store.ID = r.nextID
	store.CreatedAt = time.Now().UTC()
	r.stores[store.ID] = store
	return store, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, store Store) error {
	existing, ok := r.stores[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = store.Name
	r.stores[id] = existing
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.stores[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.stores, id)
	return nil
}

func TestStoreLifecycle(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Store{Name: "Netto"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Netto", got.Name)

	require.NoError(t, svc.Update(ctx, created.ID, Store{Name: "Netto City"}))
	got, _ = svc.Get(ctx, created.ID)
	require.Equal(t, "Netto City", got.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStoreDuplicateName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Store{Name: "Rema"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Store{Name: "Rema"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestStoreNameTrimmedBeforePersist(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Store{Name: "  Lidl  "})
	require.NoError(t, err)
	require.Equal(t, "Lidl", created.Name)

	_, err = svc.Create(ctx, Store{Name: "Lidl"})
	require.ErrorIs(t, err, shared.ErrConflict)

	require.NoError(t, svc.Update(ctx, created.ID, Store{Name: " Lidl City "}))
	got, _ := svc.Get(ctx, created.ID)
	require.Equal(t, "Lidl City", got.Name)
}

func TestStoreValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Store{Name: "  "})
	require.Error(t, err)

	_, err = svc.Create(ctx, Store{Name: strings.Repeat("x", 81)})
	require.Error(t, err)

	require.Error(t, svc.Update(ctx, 0, Store{Name: "ok"}))
	require.Error(t, svc.Delete(ctx, -1))
}
