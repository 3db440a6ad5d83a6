package parser

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/trackloop/trackd/pkg/core"
)

// Positioning sentence field layout. The tracker units emit a fixed
// comma-separated sentence; trailing vendor fields past index 8 are ignored.
//
//	0: latitude, degrees and decimal minutes (DDMM.MMMM)
//	1: latitude hemisphere, N or S
//	2: longitude, degrees and decimal minutes (DDDMM.MMMM)
//	3: longitude hemisphere, E or W
//	4: altitude, meters
//	5: speed, km/h
//	6: course over ground, degrees
//	7: date, DDMMYY
//	8: time, HHMMSS
const (
	fieldLatitude = iota
	fieldLatHemisphere
	fieldLongitude
	fieldLonHemisphere
	fieldAltitude
	fieldSpeed
	fieldCourse
	fieldDate
	fieldTime

	minFields = 9
)

// requiredFields must be non-empty for a sentence to be accepted.
var requiredFields = []int{
	fieldLatitude, fieldLatHemisphere,
	fieldLongitude, fieldLonHemisphere,
	fieldDate, fieldTime,
}

// Parser converts raw positioning sentences into structured fixes.
type Parser struct {
	logger *slog.Logger
}

// New creates a new parser with only a logger dependency.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFix parses a raw positioning sentence into a Fix.
// Returns core.ErrMalformedInput when the sentence has too few fields or a
// required field is empty.
func (p *Parser) ParseFix(sentence string) (core.Fix, error) {
	var fix core.Fix

	fields := strings.Split(sentence, ",")
	if len(fields) < minFields {
		return fix, fmt.Errorf("%w: got %d fields, want at least %d",
			core.ErrMalformedInput, len(fields), minFields)
	}
	for _, i := range requiredFields {
		if strings.TrimSpace(fields[i]) == "" {
			return fix, fmt.Errorf("%w: field %d is empty", core.ErrMalformedInput, i)
		}
	}

	lat, err := parseAngle(fields[fieldLatitude], fields[fieldLatHemisphere], 2)
	if err != nil {
		return fix, fmt.Errorf("%w: latitude: %v", core.ErrMalformedInput, err)
	}
	lon, err := parseAngle(fields[fieldLongitude], fields[fieldLonHemisphere], 3)
	if err != nil {
		return fix, fmt.Errorf("%w: longitude: %v", core.ErrMalformedInput, err)
	}

	fix.Latitude = lat
	fix.Longitude = lon

	// Non-numeric scalar fields parse to NaN rather than rejecting the
	// sentence; the units occasionally blank these while keeping a valid
	// position, and downstream consumers handle NaN.
	fix.Altitude = parseDecimal(fields[fieldAltitude])
	fix.Speed = parseDecimal(fields[fieldSpeed])
	fix.Course = parseDecimal(fields[fieldCourse])

	p.logger.Debug("parsed fix",
		"latitude", fix.Latitude,
		"longitude", fix.Longitude,
		"speed", fix.Speed)

	return fix, nil
}

// parseAngle converts a degrees-and-decimal-minutes value (with the given
// number of degree digits) and a hemisphere letter into decimal degrees.
func parseAngle(value, hemisphere string, degreeDigits int) (float64, error) {
	if len(value) <= degreeDigits {
		return 0, fmt.Errorf("value %q too short", value)
	}
	deg, err := strconv.ParseFloat(value[:degreeDigits], 64)
	if err != nil {
		return 0, fmt.Errorf("degrees in %q: %v", value, err)
	}
	minutes, err := strconv.ParseFloat(value[degreeDigits:], 64)
	if err != nil {
		return 0, fmt.Errorf("minutes in %q: %v", value, err)
	}

	result := deg + minutes/60
	switch strings.ToUpper(hemisphere) {
	case "S", "W":
		result = -result
	}
	return result, nil
}

func parseDecimal(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
