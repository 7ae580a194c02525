package roundexport

import (
	"encoding/json"
	"fmt"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	"github.com/peterstace/simplefeatures/geom"
)

// ShotTrail returns the positioned strokes of a round as a GeoJSON feature
// collection: one Point per stroke, plus a LineString per hole with at least
// two distinct positions. Strokes without a position are skipped, and a
// stroke played from the spot of the previous one adds no vertex to the line.
func ShotTrail(strokes []rounddomain.Stroke) (geom.GeoJSONFeatureCollection, error) {
	fc := geom.GeoJSONFeatureCollection{}
	byHole := map[int][]float64{}
	var holeOrder []int

	for _, s := range strokes {
		if s.Position == nil {
			continue
		}
		xy := geom.XY{X: s.Position.Longitude, Y: s.Position.Latitude}
		props := map[string]any{
			"stroke_id":  s.ID.String(),
			"hole_index": s.HoleIndex,
			"accuracy":   s.Position.Accuracy,
		}
		if s.Club != nil {
			props["club"] = *s.Club
		}
		if s.Distance != nil {
			props["distance"] = *s.Distance
		}
		pt, err := geom.NewPoint(geom.Coordinates{XY: xy})
		if err != nil {
			return nil, fmt.Errorf("invalid position for stroke %s: %w", s.ID, err)
		}
		fc = append(fc, geom.GeoJSONFeature{
			Geometry:   pt.AsGeometry(),
			ID:         s.ID.String(),
			Properties: props,
		})

		if _, ok := byHole[s.HoleIndex]; !ok {
			holeOrder = append(holeOrder, s.HoleIndex)
		}
		coords := byHole[s.HoleIndex]
		if n := len(coords); n >= 2 && coords[n-2] == xy.X && coords[n-1] == xy.Y {
			continue
		}
		byHole[s.HoleIndex] = append(coords, xy.X, xy.Y)
	}

	for _, hole := range holeOrder {
		coords := byHole[hole]
		if len(coords) < 4 {
			continue
		}
		ls, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
		if err != nil {
			return nil, fmt.Errorf("invalid trail for hole %d: %w", hole, err)
		}
		fc = append(fc, geom.GeoJSONFeature{
			Geometry:   ls.AsGeometry(),
			ID:         fmt.Sprintf("hole-%d", hole),
			Properties: map[string]any{"hole_index": hole},
		})
	}
	return fc, nil
}

// ShotTrailGeoJSON marshals ShotTrail.
func ShotTrailGeoJSON(strokes []rounddomain.Stroke) ([]byte, error) {
	fc, err := ShotTrail(strokes)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shot trail: %w", err)
	}
	return data, nil
}
