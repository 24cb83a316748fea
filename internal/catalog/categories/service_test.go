package categories

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grocerysaver/grocerysaver/internal/shared"
)

type memoryRepo struct {
	categories map[int64]Category
	inUse      map[int64]bool
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{categories: make(map[int64]Category), inUse: make(map[int64]bool)}
}

func (r *memoryRepo) List(ctx context.Context) ([]Category, error) {
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Category, error) {
	if c, ok := r.categories[id]; ok {
		return c, nil
	}
	return Category{}, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, category Category) (Category, error) {
	for _, c := range r.categories {
		if c.Name == category.Name {
			return Category{}, shared.ErrConflict
		}
	}
	r.nextID++
	category.ID = r.nextID
	category.CreatedAt = time.Now().UTC()
	r.categories[category.ID] = category
	return category, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, category Category) error {
	existing, ok := r.categories[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = category.Name
	existing.Image = category.Image
	r.categories[id] = existing
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.categories[id]; !ok {
		return shared.ErrNotFound
	}
	if r.inUse[id] {
		return ErrCategoryInUse
	}
	delete(r.categories, id)
	return nil
}

func TestCategoryLifecycle(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	image := "dairy.png"
	created, err := svc.Create(ctx, Category{Name: "Dairy", Image: &image})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotNil(t, created.Image)

	require.NoError(t, svc.Update(ctx, created.ID, Category{Name: "Dairy & Eggs"}))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Dairy & Eggs", got.Name)
	require.Nil(t, got.Image)

	require.NoError(t, svc.Delete(ctx, created.ID))
}

func TestCategoryDeleteProtected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Category{Name: "Dairy"})
	require.NoError(t, err)
	repo.inUse[created.ID] = true

	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrCategoryInUse)
}

func TestCategoryNameTrimmedBeforePersist(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Category{Name: "  Dairy  "})
	require.NoError(t, err)
	require.Equal(t, "Dairy", created.Name)

	_, err = svc.Create(ctx, Category{Name: "Dairy"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCategoryValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Category{Name: ""})
	require.Error(t, err)

	_, err = svc.Create(ctx, Category{Name: strings.Repeat("x", 81)})
	require.Error(t, err)

	_, err = svc.Get(ctx, 0)
	require.Error(t, err)
}
