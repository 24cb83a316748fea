package codes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grocerysaver/grocerysaver/internal/shared"
)

type memoryRepo struct {
	products map[int64]struct{}
	codes    map[string]ProductCode
	nextID   int64

	// conflictOnce forces one shared.ErrConflict from InsertCodes to
	// simulate a commit-time uniqueness race.
	conflictOnce bool
}

func newMemoryRepo(productIDs ...int64) *memoryRepo {
	r := &memoryRepo{products: make(map[int64]struct{}), codes: make(map[string]ProductCode)}
	for _, id := range productIDs {
		r.products[id] = struct{}{}
	}
	return r
}

func (r *memoryRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	_, ok := r.codes[code]
	return ok, nil
}

func (r *memoryRepo) ProductExists(ctx context.Context, productID int64) (bool, error) {
	_, ok := r.products[productID]
	return ok, nil
}

func (r *memoryRepo) InsertCodes(ctx context.Context, productID int64, items []NewCode) ([]ProductCode, error) {
	if r.conflictOnce {
		r.conflictOnce = false
		return nil, fmt.Errorf("codes: uniqueness race: %w", shared.ErrConflict)
	}
	rows := make([]ProductCode, 0, len(items))
	for _, item := range items {
		if _, dup := r.codes[item.Code]; dup {
			return nil, fmt.Errorf("codes: uniqueness race: %w", shared.ErrConflict)
		}
		r.nextID++
		row := ProductCode{
			ID:        r.nextID,
			ProductID: productID,
			Code:      item.Code,
			CodeType:  item.CodeType,
			CreatedAt: time.Now().UTC(),
		}
		r.codes[item.Code] = row
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *memoryRepo) ListByProduct(ctx context.Context, productID int64) ([]ProductCode, error) {
	var rows []ProductCode
	for _, row := range r.codes {
		if row.ProductID == productID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func TestAssignBatchGeneratesAndAccepts(t *testing.T) {
	repo := newMemoryRepo(7)
	svc := NewService(nil, repo)
	ctx := context.Background()

	assigned, err := svc.AssignBatch(ctx, 7, []BatchItem{
		{Code: "4006381333931", CodeType: TypeBarcode},
		{CodeType: TypeBarcode},
		{CodeType: TypeQR},
	})
	require.NoError(t, err)
	require.Len(t, assigned, 3)

	require.Equal(t, "4006381333931", assigned[0].Code)
	require.False(t, assigned[0].Regenerated)

	require.True(t, assigned[1].Regenerated)
	require.True(t, ValidEAN13(assigned[1].Code))

	require.True(t, assigned[2].Regenerated)
	require.Contains(t, assigned[2].Code, "QR-")

	seen := make(map[string]struct{})
	for _, a := range assigned {
		require.Equal(t, int64(7), a.ProductID)
		_, dup := seen[a.Code]
		require.False(t, dup)
		seen[a.Code] = struct{}{}
	}
}

func TestAssignBatchDefaultsToBarcode(t *testing.T) {
	repo := newMemoryRepo(1)
	svc := NewService(nil, repo)

	assigned, err := svc.AssignBatch(context.Background(), 1, []BatchItem{{}})
	require.NoError(t, err)
	require.Equal(t, TypeBarcode, assigned[0].CodeType)
	require.True(t, ValidEAN13(assigned[0].Code))
}

func TestAssignBatchRepairsDuplicateSubmission(t *testing.T) {
	repo := newMemoryRepo(1)
	svc := NewService(nil, repo)
	ctx := context.Background()

	first, err := svc.AssignBatch(ctx, 1, []BatchItem{{Code: "5901234123457"}})
	require.NoError(t, err)
	require.False(t, first[0].Regenerated)

	second, err := svc.AssignBatch(ctx, 1, []BatchItem{{Code: "5901234123457"}})
	require.NoError(t, err)
	require.True(t, second[0].Regenerated)
	require.NotEqual(t, first[0].Code, second[0].Code)
}

func TestAssignBatchRetriesOnConflict(t *testing.T) {
	repo := newMemoryRepo(1)
	repo.conflictOnce = true
	svc := NewService(nil, repo)

	assigned, err := svc.AssignBatch(context.Background(), 1, []BatchItem{{CodeType: TypeQR}})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.Contains(t, assigned[0].Code, "QR-")
}

func TestAssignBatchUnknownProduct(t *testing.T) {
	svc := NewService(nil, newMemoryRepo())

	_, err := svc.AssignBatch(context.Background(), 42, []BatchItem{{}})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAssignBatchRejectsUnknownType(t *testing.T) {
	svc := NewService(nil, newMemoryRepo(1))

	_, err := svc.AssignBatch(context.Background(), 1, []BatchItem{{CodeType: "nfc"}})
	require.Error(t, err)
}
