package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackloop/trackd/internal/database"
	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.OpenSqliteStandalone(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	b := New(db, zerolog.Nop(), time.Hour) // flush manually in tests
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBackend_PositionsBatched(t *testing.T) {
	b := newTestBackend(t)

	now := time.Now().UTC()
	require.NoError(t, b.RecordPosition(&core.PositionRecord{
		VehicleID: "A", Time: now, Latitude: 0, Longitude: 1,
		Speed: 12.5, Direction: core.DirectionForward,
	}))
	require.NoError(t, b.RecordPosition(&core.PositionRecord{
		VehicleID: "B", Time: now, Latitude: 0, Longitude: 2,
		Direction: core.DirectionBackward,
	}))
	assert.Equal(t, 2, b.Pending())

	require.NoError(t, b.Flush())
	assert.Zero(t, b.Pending())

	var rows []Position
	require.NoError(t, b.db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].VehicleID)
	assert.Equal(t, 12.5, rows[0].Speed)
	assert.Equal(t, string(core.DirectionBackward), rows[1].Direction)
}

func TestBackend_EventsKeepPayload(t *testing.T) {
	b := newTestBackend(t)

	alert := &core.AlertRecord{VehicleID: "A", Message: "engine fire", Time: time.Now().UTC()}
	require.NoError(t, b.RecordAlert(alert))
	require.NoError(t, b.RecordWarning(&streaming.WarningPayload{TargetID: "B", Alert: alert}))
	require.NoError(t, b.RecordStatus(&core.StatusRecord{VehicleID: "C", Message: "pitting", Time: time.Now().UTC()}))

	require.NoError(t, b.Flush())

	var rows []Event
	require.NoError(t, b.db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, streaming.TypeAlert, rows[0].Type)
	assert.Equal(t, "A", rows[0].VehicleID)
	assert.Contains(t, string(rows[0].Payload), "engine fire")
	assert.Equal(t, streaming.TypeWarning, rows[1].Type)
	assert.Equal(t, "B", rows[1].VehicleID)
	assert.Equal(t, streaming.TypeStatus, rows[2].Type)
}

func TestBackend_CloseFlushesPending(t *testing.T) {
	db, err := database.OpenSqliteStandalone(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	b := New(db, zerolog.Nop(), time.Hour)
	require.NoError(t, b.Init())

	require.NoError(t, b.RecordStatus(&core.StatusRecord{VehicleID: "A", Message: "done", Time: time.Now().UTC()}))
	require.NoError(t, b.Close())

	var count int64
	require.NoError(t, db.Model(&Event{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
