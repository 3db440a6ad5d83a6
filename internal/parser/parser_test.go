package parser

import (
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackloop/trackd/pkg/core"
)

func newTestParser() *Parser {
	return New(slog.Default())
}

func TestParseFix_Valid(t *testing.T) {
	p := newTestParser()

	fix, err := p.ParseFix("5231.2114,N,01323.4456,E,34.5,12.3,87.0,150825,114500")
	require.NoError(t, err)

	assert.InDelta(t, 52.520190, fix.Latitude, 1e-6)
	assert.InDelta(t, 13.390760, fix.Longitude, 1e-6)
	assert.Equal(t, 34.5, fix.Altitude)
	assert.Equal(t, 12.3, fix.Speed)
	assert.Equal(t, 87.0, fix.Course)
}

func TestParseFix_SouthWestNegated(t *testing.T) {
	p := newTestParser()

	fix, err := p.ParseFix("3345.0000,S,15130.0000,W,0,0,0,150825,114500")
	require.NoError(t, err)

	assert.InDelta(t, -33.75, fix.Latitude, 1e-6)
	assert.InDelta(t, -151.5, fix.Longitude, 1e-6)
}

func TestParseFix_TooFewFields(t *testing.T) {
	p := newTestParser()

	_, err := p.ParseFix("5231.2114,N,01323.4456,E,34.5")
	assert.ErrorIs(t, err, core.ErrMalformedInput)
}

func TestParseFix_EmptyRequiredFields(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name     string
		sentence string
	}{
		{"empty latitude", ",N,01323.4456,E,34.5,12.3,87.0,150825,114500"},
		{"empty lat hemisphere", "5231.2114,,01323.4456,E,34.5,12.3,87.0,150825,114500"},
		{"empty longitude", "5231.2114,N,,E,34.5,12.3,87.0,150825,114500"},
		{"empty lon hemisphere", "5231.2114,N,01323.4456,,34.5,12.3,87.0,150825,114500"},
		{"empty date", "5231.2114,N,01323.4456,E,34.5,12.3,87.0,,114500"},
		{"empty time", "5231.2114,N,01323.4456,E,34.5,12.3,87.0,150825,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseFix(tt.sentence)
			assert.ErrorIs(t, err, core.ErrMalformedInput)
		})
	}
}

func TestParseFix_NonNumericScalarsYieldNaN(t *testing.T) {
	p := newTestParser()

	fix, err := p.ParseFix("5231.2114,N,01323.4456,E,n/a,abc, ,150825,114500")
	require.NoError(t, err)

	assert.True(t, math.IsNaN(fix.Altitude))
	assert.True(t, math.IsNaN(fix.Speed))
	assert.True(t, math.IsNaN(fix.Course))
}

func TestParseFix_ExtraVendorFieldsIgnored(t *testing.T) {
	p := newTestParser()

	fix, err := p.ParseFix("5231.2114,N,01323.4456,E,34.5,12.3,87.0,150825,114500,A,3.1,extra")
	require.NoError(t, err)
	assert.InDelta(t, 52.520190, fix.Latitude, 1e-6)
}

func TestParseFix_UnparseableCoordinateRejected(t *testing.T) {
	p := newTestParser()

	_, err := p.ParseFix("xxxx.0000,N,01323.4456,E,34.5,12.3,87.0,150825,114500")
	assert.ErrorIs(t, err, core.ErrMalformedInput)
}
