package codes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryChecker struct {
	existing map[string]struct{}
	queries  int
}

func newMemoryChecker(codes ...string) *memoryChecker {
	m := &memoryChecker{existing: make(map[string]struct{})}
	for _, c := range codes {
		m.existing[c] = struct{}{}
	}
	return m
}

func (m *memoryChecker) CodeExists(ctx context.Context, code string) (bool, error) {
	m.queries++
	_, ok := m.existing[code]
	return ok, nil
}

// fixedGenerator always emits the same candidate sequence.
func fixedGenerator(digits ...int) *Generator {
	i := 0
	return &Generator{
		randDigit: func() int {
			d := digits[i%len(digits)]
			i++
			return d
		},
		newUUID: uuid.New,
	}
}

func TestMintBatchPairwiseDistinct(t *testing.T) {
	dedup := NewDeduplicator(NewGenerator(), newMemoryChecker())
	reserved := NewReservationSet()
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 40; i++ {
		code, err := dedup.Mint(ctx, TypeBarcode, reserved)
		require.NoError(t, err)
		_, dup := seen[code]
		require.False(t, dup, "minted duplicate %q", code)
		seen[code] = struct{}{}
	}
}

func TestMintExhaustsAgainstReservations(t *testing.T) {
	// A constant generator can only ever produce one value; once it is
	// reserved every further attempt collides.
	dedup := NewDeduplicator(fixedGenerator(0), newMemoryChecker())
	reserved := NewReservationSet()
	ctx := context.Background()

	first, err := dedup.Mint(ctx, TypeBarcode, reserved)
	require.NoError(t, err)
	require.True(t, reserved.Contains(first))

	_, err = dedup.Mint(ctx, TypeBarcode, reserved)
	require.ErrorIs(t, err, ErrGenerationExhausted)
}

func TestMintSkipsPersistedCodes(t *testing.T) {
	// The first candidate is all zeros and already persisted, the
	// second is all ones.
	digits := make([]int, 0, 24)
	for i := 0; i < 12; i++ {
		digits = append(digits, 0)
	}
	for i := 0; i < 12; i++ {
		digits = append(digits, 1)
	}
	store := newMemoryChecker("0000000000000")
	dedup := NewDeduplicator(fixedGenerator(digits...), store)

	code, err := dedup.Mint(context.Background(), TypeBarcode, NewReservationSet())
	require.NoError(t, err)
	require.Equal(t, "1111111111116", code)
	require.Equal(t, 2, store.queries)
}

func TestResolveAcceptsFreshSubmission(t *testing.T) {
	dedup := NewDeduplicator(NewGenerator(), newMemoryChecker())
	reserved := NewReservationSet()

	code, regenerated, err := dedup.Resolve(context.Background(), "  4006381333931  ", TypeBarcode, reserved)
	require.NoError(t, err)
	require.False(t, regenerated)
	require.Equal(t, "4006381333931", code)
	require.True(t, reserved.Contains(code))
}

func TestResolveRepairsCollision(t *testing.T) {
	dedup := NewDeduplicator(NewGenerator(), newMemoryChecker("4006381333931"))
	reserved := NewReservationSet()

	code, regenerated, err := dedup.Resolve(context.Background(), "4006381333931", TypeBarcode, reserved)
	require.NoError(t, err)
	require.True(t, regenerated)
	require.NotEqual(t, "4006381333931", code)
	require.True(t, ValidEAN13(code))
}

func TestResolveRepairsBatchDuplicate(t *testing.T) {
	dedup := NewDeduplicator(NewGenerator(), newMemoryChecker())
	reserved := NewReservationSet()
	ctx := context.Background()

	first, regenerated, err := dedup.Resolve(ctx, "4006381333931", TypeBarcode, reserved)
	require.NoError(t, err)
	require.False(t, regenerated)

	second, regenerated, err := dedup.Resolve(ctx, "4006381333931", TypeBarcode, reserved)
	require.NoError(t, err)
	require.True(t, regenerated)
	require.NotEqual(t, first, second)
}

func TestResolveMintsForBlankSubmission(t *testing.T) {
	dedup := NewDeduplicator(NewGenerator(), newMemoryChecker())

	code, regenerated, err := dedup.Resolve(context.Background(), "   ", TypeQR, NewReservationSet())
	require.NoError(t, err)
	require.True(t, regenerated)
	require.Contains(t, code, "QR-")
}
