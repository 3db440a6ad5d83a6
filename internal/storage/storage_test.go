package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackloop/trackd/internal/storage/memory"
	"github.com/trackloop/trackd/pkg/core"
)

func TestMulti_TeesToAllBackends(t *testing.T) {
	first := memory.New()
	second := memory.New()

	m := NewMulti(first, second)
	require.NoError(t, m.Init())

	require.NoError(t, m.RecordPosition(&core.PositionRecord{VehicleID: "A"}))
	require.NoError(t, m.RecordStatus(&core.StatusRecord{VehicleID: "B"}))

	assert.Equal(t, 2, first.Len())
	assert.Equal(t, 2, second.Len())
	require.NoError(t, m.Close())
}

func TestAssemble_SingleBackendPassthrough(t *testing.T) {
	journal := memory.New()
	assert.Equal(t, Backend(journal), Assemble(journal))
}

func TestAssemble_SkipsNilOptional(t *testing.T) {
	journal := memory.New()
	b := Assemble(journal, nil)
	assert.Equal(t, Backend(journal), b)
}
