package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrencesValueScan(t *testing.T) {
	t.Run("Round trip through driver value", func(t *testing.T) {
		chunkID := uuid.New()
		occs := Occurrences{
			{ChunkID: chunkID, Start: 0, End: 5},
			{ChunkID: chunkID, Start: 17, End: 24},
		}

		value, err := occs.Value()
		require.NoError(t, err)

		var scanned Occurrences
		err = scanned.Scan(value)
		require.NoError(t, err)

		assert.Equal(t, occs, scanned)
	})

	t.Run("Scan nil yields empty list", func(t *testing.T) {
		var occs Occurrences

		err := occs.Scan(nil)

		require.NoError(t, err)
		assert.Empty(t, occs)
	})

	t.Run("Scan rejects non byte values", func(t *testing.T) {
		var occs Occurrences

		err := occs.Scan(42)

		assert.Error(t, err)
	})
}
