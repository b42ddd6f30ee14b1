package features

import (
	"math"
	"sort"

	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/3DRX/point-normal-annotator/search"
	"gonum.org/v1/gonum/spatial/r3"
)

const DefaultBoundaryAngle = math.Pi / 2

// BoundaryEstimation flags a point as boundary when its K nearest
// neighbours, projected on the tangent plane, leave an angular gap wider
// than AngleThreshold around it.
type BoundaryEstimation struct {
	K              int
	AngleThreshold float64
}

func (be BoundaryEstimation) Compute(points []cloud.Point, normals []cloud.Normal, s search.Searcher) []bool {
	threshold := be.AngleThreshold
	if threshold <= 0 {
		threshold = DefaultBoundaryAngle
	}
	flags := make([]bool, len(points))
	for i, p := range points {
		if i >= len(normals) || !p.IsFinite() || !normals[i].IsFinite() {
			continue
		}
		flags[i] = isBoundary(points, p, normals[i], s.Nearest(p, be.K), threshold)
	}
	return flags
}

func isBoundary(points []cloud.Point, q cloud.Point, n cloud.Normal, neighbours []int, threshold float64) bool {
	normal := r3.Vec{X: n.X, Y: n.Y, Z: n.Z}
	u := unitOrthogonal(normal)
	v := r3.Cross(normal, u)
	origin := vec(q.Vector3())

	angles := make([]float64, 0, len(neighbours))
	for _, j := range neighbours {
		delta := r3.Sub(vec(points[j].Vector3()), origin)
		if delta == (r3.Vec{}) {
			continue
		}
		angles = append(angles, math.Atan2(r3.Dot(v, delta), r3.Dot(u, delta)))
	}
	if len(angles) == 0 {
		return false
	}
	sort.Float64s(angles)

	maxGap := 0.0
	for i := 0; i < len(angles)-1; i++ {
		maxGap = math.Max(maxGap, angles[i+1]-angles[i])
	}
	// gap across ±π
	maxGap = math.Max(maxGap, 2*math.Pi-angles[len(angles)-1]+angles[0])
	return maxGap > threshold
}

// unitOrthogonal returns a unit vector perpendicular to n.
func unitOrthogonal(n r3.Vec) r3.Vec {
	const eps = 1e-5
	if math.Abs(n.X) > eps*math.Abs(n.Z) || math.Abs(n.Y) > eps*math.Abs(n.Z) {
		inv := 1 / math.Hypot(n.X, n.Y)
		return r3.Vec{X: -n.Y * inv, Y: n.X * inv}
	}
	inv := 1 / math.Hypot(n.Y, n.Z)
	return r3.Vec{Y: -n.Z * inv, Z: n.Y * inv}
}

func vec(v cloud.Vector3) r3.Vec {
	return r3.Vec(v)
}
