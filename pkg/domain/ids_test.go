package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clearledger/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseLedgerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects a different type code", func(t *testing.T) {
		_, err := ParseLedgerID("US2410160001")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects short serial", func(t *testing.T) {
		_, err := ParseUserID("US241016001")
		require.Error(t, err)
	})

	t.Run("accepts padded serial", func(t *testing.T) {
		id, err := ParseUserID("US2410160007")
		require.NoError(t, err)
		assert.Equal(t, UserID("US2410160007"), id)
	})

	t.Run("accepts widened serial", func(t *testing.T) {
		id, err := ParseTransactionID("TX24101612345")
		require.NoError(t, err)
		assert.Equal(t, "TX24101612345", id.String())
	})
}
