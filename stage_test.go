package estate_test

import (
	"testing"

	"github.com/fwojciec/estate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageRecord_Mark(t *testing.T) {
	t.Parallel()

	t.Run("progresses through stages", func(t *testing.T) {
		t.Parallel()

		r := &estate.StageRecord{Site: "otodom", Date: "2024-05-01", Sequence: 1}
		assert.Equal(t, estate.StageStart, r.State())

		require.NoError(t, r.Mark(estate.StageDiscovery))
		assert.Equal(t, estate.StageDiscoveryDone, r.State())

		require.NoError(t, r.Mark(estate.StageDetails))
		assert.Equal(t, estate.StageDetailsDone, r.State())
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		r := &estate.StageRecord{Site: "otodom", Date: "2024-05-01", Sequence: 1}
		require.NoError(t, r.Mark(estate.StageDiscovery))
		require.NoError(t, r.Mark(estate.StageDiscovery))

		assert.True(t, r.DiscoveryComplete)
		assert.False(t, r.DetailsComplete)
	})

	t.Run("rejects details before discovery", func(t *testing.T) {
		t.Parallel()

		r := &estate.StageRecord{Site: "otodom", Date: "2024-05-01", Sequence: 1}
		err := r.Mark(estate.StageDetails)

		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))
		assert.False(t, r.DetailsComplete)
	})

	t.Run("rejects unknown stage", func(t *testing.T) {
		t.Parallel()

		r := &estate.StageRecord{}
		err := r.Mark(estate.Stage("publish"))

		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))
	})
}

func TestStageState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "start", estate.StageStart.String())
	assert.Equal(t, "discovery-done", estate.StageDiscoveryDone.String())
	assert.Equal(t, "details-done", estate.StageDetailsDone.String())
}
