// Package features estimates per-point surface properties: normals with
// curvature, and whether a point lies on the boundary of the sampled
// surface.
package features

import (
	"math"

	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/3DRX/point-normal-annotator/search"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// minNeighbours is the smallest neighbourhood that defines a plane.
const minNeighbours = 3

// NormalEstimation fits a plane to the neighbours of every point found
// within Radius. The normal is the direction of least variance in the
// neighbourhood, oriented towards Viewpoint.
type NormalEstimation struct {
	Radius    float64
	Viewpoint cloud.Point
}

// Compute returns one normal per input point. Points with fewer than three
// neighbours get cloud.InvalidNormal.
func (ne NormalEstimation) Compute(points []cloud.Point, s search.Searcher) []cloud.Normal {
	normals := make([]cloud.Normal, len(points))
	for i, p := range points {
		if !p.IsFinite() {
			normals[i] = cloud.InvalidNormal()
			continue
		}
		normals[i] = ne.fit(points, s.Radius(p, ne.Radius), p)
	}
	return normals
}

func (ne NormalEstimation) fit(points []cloud.Point, neighbours []int, p cloud.Point) cloud.Normal {
	if len(neighbours) < minNeighbours {
		return cloud.InvalidNormal()
	}
	data := make([]float64, 0, 3*len(neighbours))
	for _, j := range neighbours {
		q := points[j]
		data = append(data, q.X, q.Y, q.Z)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, mat.NewDense(len(neighbours), 3, data), nil)

	var es mat.EigenSym
	if ok := es.Factorize(&cov, true); !ok {
		return cloud.InvalidNormal()
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	// eigenvalues are ascending, column 0 is the least-variance direction
	n := r3.Vec{X: vectors.At(0, 0), Y: vectors.At(1, 0), Z: vectors.At(2, 0)}
	toView := r3.Sub(vec(ne.Viewpoint.Vector3()), vec(p.Vector3()))
	if r3.Dot(toView, n) < 0 {
		n = r3.Scale(-1, n)
	}

	curvature := 0.0
	if sum := floats.Sum(values); sum > 0 {
		curvature = math.Max(values[0], 0) / sum
	}
	return cloud.Normal{X: n.X, Y: n.Y, Z: n.Z, Curvature: curvature}
}
