package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/trackloop/trackd/pkg/core"
)

// TRACK GEOMETRY
// The track is a fixed closed loop; file order defines the traversal order
// and therefore the circular index space. Distances between a fix and the
// track are planar Euclidean in degree-space: the loop spans a small area,
// so the approximation error is negligible and geodesic math is not worth
// its cost here.

// SRIDWebMercator marks a track file whose coordinates are EPSG:3857.
const SRIDWebMercator = 3857

// Match is the result of a nearest-point lookup.
type Match struct {
	Index    int
	Point    core.TrackPoint
	Distance float64
}

// Track is the ordered, circular sequence of track points. Immutable after
// load; safe for concurrent use without locking.
type Track struct {
	points []core.TrackPoint
	line   geom.LineString
}

// LoadTrack reads a JSON polyline file ("[[lat,lon],...]") and builds a
// Track. When srid is SRIDWebMercator the coordinates are reprojected to
// WGS84 before use. An unreadable file or an empty polyline is a
// configuration error.
func LoadTrack(path string, srid int) (*Track, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading track file %s: %w", path, err)
	}
	return ParseTrack(raw, srid)
}

// ParseTrack builds a Track from raw JSON polyline bytes.
func ParseTrack(raw []byte, srid int) (*Track, error) {
	var coords [][]float64
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil, fmt.Errorf("parsing track polyline: %w", err)
	}
	if len(coords) == 0 {
		return nil, core.ErrTrackEmpty
	}

	var from3857 wgs84.Func
	if srid == SRIDWebMercator {
		from3857 = wgs84.EPSG().Transform(SRIDWebMercator, 4326)
	}

	points := make([]core.TrackPoint, len(coords))
	flat := make([]float64, 0, len(coords)*2)
	for i, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("track point %d has insufficient values", i)
		}
		lat, lon := c[0], c[1]
		if from3857 != nil {
			// wgs84 transforms operate on (x=lon, y=lat).
			lon, lat, _ = from3857(c[1], c[0], 0)
		}
		points[i] = core.TrackPoint{Latitude: lat, Longitude: lon}
		flat = append(flat, lon, lat)
	}

	seq := geom.NewSequence(flat, geom.DimXY)
	line, err := geom.NewLineString(seq)
	if err != nil {
		return nil, fmt.Errorf("building track geometry: %w", err)
	}
	return &Track{points: points, line: line}, nil
}

// Len returns the number of track points N.
func (t *Track) Len() int {
	return len(t.points)
}

// Point returns the track point at index i. The index space is circular;
// i must already be reduced modulo N.
func (t *Track) Point(i int) core.TrackPoint {
	return t.points[i]
}

// Points returns the ordered track points. Callers must not mutate the slice.
func (t *Track) Points() []core.TrackPoint {
	return t.points
}

// Geometry returns the loop as a LineString, suitable for GeoJSON export.
func (t *Track) Geometry() geom.Geometry {
	return t.line.AsGeometry()
}

// Length returns the planar length of the loop in degree-space.
func (t *Track) Length() float64 {
	return t.line.Length()
}

// Nearest scans all track points and returns the one closest to the given
// coordinates. Ties are broken by the lowest index. O(N), which is fine:
// N is the length of a physical circuit, hundreds of points at most.
func (t *Track) Nearest(lat, lon float64) Match {
	best := Match{Index: 0, Point: t.points[0], Distance: planarDistance(lat, lon, t.points[0])}
	for i := 1; i < len(t.points); i++ {
		if d := planarDistance(lat, lon, t.points[i]); d < best.Distance {
			best = Match{Index: i, Point: t.points[i], Distance: d}
		}
	}
	return best
}

// ForwardDistance returns the circular index distance from a to b walking
// toward increasing indices.
func (t *Track) ForwardDistance(a, b int) int {
	n := len(t.points)
	return ((b-a)%n + n) % n
}

// BackwardDistance returns the circular index distance from a to b walking
// toward decreasing indices.
func (t *Track) BackwardDistance(a, b int) int {
	return t.ForwardDistance(b, a)
}

func planarDistance(lat, lon float64, p core.TrackPoint) float64 {
	return math.Hypot(lat-p.Latitude, lon-p.Longitude)
}
