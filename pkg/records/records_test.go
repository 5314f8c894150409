package records_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"btreeidx/pkg/records"

	"github.com/stretchr/testify/require"
)

// TestLoadExtractRoundTrip covers spec scenario S5: load a record file,
// then extract the same pairs back out in ascending key order.
func TestLoadExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("5,50\n3,30\n8,80\n1,10\n4,40\n"), 0644))

	loaded := map[uint64]uint64{}
	var order []uint64
	err := records.Load(in, func(key, value uint64) error {
		loaded[key] = value
		order = append(order, key)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{5, 3, 8, 1, 4}, order)
	require.Equal(t, uint64(10), loaded[1])
	require.Equal(t, uint64(80), loaded[8])

	sorted := []uint64{1, 3, 4, 5, 8}
	out := filepath.Join(dir, "out.csv")
	idx := 0
	err = records.Extract(out, func(yield func(uint64, uint64) bool) {
		for ; idx < len(sorted); idx++ {
			k := sorted[idx]
			if !yield(k, loaded[k]) {
				return
			}
		}
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "1,10\n3,30\n4,40\n5,50\n8,80\n", string(data))
}

// TestExtractRefusesExistingFile verifies that Extract never overwrites
// an existing target.
func TestExtractRefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0644))

	err := records.Extract(out, func(yield func(uint64, uint64) bool) {})
	require.ErrorIs(t, err, records.ErrExists)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "old", string(data))
}

// TestLoadContinuesPastMalformedRow verifies that a bad row is reported
// but does not prevent subsequent well-formed rows from being visited,
// matching the source tool's no-rollback bulk-load behavior.
func TestLoadContinuesPastMalformedRow(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("1,10\nnotanumber,20\n3,30\n"), 0644))

	var visited []uint64
	err := records.Load(in, func(key, value uint64) error {
		visited = append(visited, key)
		return nil
	})
	require.ErrorIs(t, err, records.ErrMalformed)
	require.Equal(t, []uint64{1, 3}, visited)
}

// TestLoadPropagatesVisitError verifies that an error returned by visit
// (e.g. a caller rejecting a duplicate key) is surfaced from Load, not
// swallowed, even though the scan of the remaining rows continues.
func TestLoadPropagatesVisitError(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("1,10\n2,20\n3,30\n"), 0644))

	visitErr := errors.New("rejected")
	var visited []uint64
	err := records.Load(in, func(key, value uint64) error {
		visited = append(visited, key)
		if key == 2 {
			return visitErr
		}
		return nil
	})
	require.ErrorIs(t, err, visitErr)
	require.Equal(t, []uint64{1, 2, 3}, visited)
}
