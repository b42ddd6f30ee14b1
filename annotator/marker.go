package annotator

import (
	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/3DRX/point-normal-annotator/config"
	"gonum.org/v1/gonum/spatial/r3"
)

// BuildMarkers returns one arrow per point running from the point along
// its normal for cfg.ArrowLength. With a non-nil boundary only flagged
// points get an arrow, but ids always equal the point index, so they are
// sparse in that case.
func BuildMarkers(header cloud.Header, points []cloud.PointNormal, boundary []bool, cfg config.AnnotatorConfig) []cloud.Marker {
	markers := make([]cloud.Marker, 0, len(points))
	for i, p := range points {
		if boundary != nil && (i >= len(boundary) || !boundary[i]) {
			continue
		}
		start := r3.Vec(p.Point.Vector3())
		dir := r3.Vec{X: p.Normal.X, Y: p.Normal.Y, Z: p.Normal.Z}
		end := r3.Add(start, r3.Scale(cfg.ArrowLength, dir))
		markers = append(markers, cloud.Marker{
			Header:    header,
			Namespace: cfg.MarkerNamespace,
			ID:        int32(i),
			Type:      cloud.MarkerArrow,
			Action:    cloud.MarkerAdd,
			Points:    [2]cloud.Vector3{cloud.Vector3(start), cloud.Vector3(end)},
			Scale:     cfg.MarkerScale,
			Color:     cfg.MarkerColor,
		})
	}
	return markers
}
