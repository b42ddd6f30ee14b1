package features

import (
	"math"
	"testing"

	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/3DRX/point-normal-annotator/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grid returns an n×n square lattice with the given spacing at height z.
func grid(n int, spacing, z float64) []cloud.Point {
	pts := make([]cloud.Point, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			pts = append(pts, cloud.Point{X: float64(i) * spacing, Y: float64(j) * spacing, Z: z})
		}
	}
	return pts
}

func TestNormalsOnPlane(t *testing.T) {
	pts := grid(10, 0.01, 1)
	normals := NormalEstimation{Radius: 0.03}.Compute(pts, search.NewKdTree(pts))
	require.Len(t, normals, len(pts))

	for i, n := range normals {
		require.True(t, n.IsFinite(), "point %d", i)
		// oriented towards the origin, which lies below the plane
		assert.InDelta(t, -1, n.Z, 1e-9)
		assert.InDelta(t, 0, n.X, 1e-9)
		assert.InDelta(t, 0, n.Y, 1e-9)
		assert.InDelta(t, 0, n.Curvature, 1e-9)
	}
}

func TestNormalsFacingViewpoint(t *testing.T) {
	pts := grid(5, 0.01, 0)
	vp := cloud.Point{Z: 5}
	normals := NormalEstimation{Radius: 0.03, Viewpoint: vp}.Compute(pts, search.NewKdTree(pts))
	for _, n := range normals {
		assert.InDelta(t, 1, n.Z, 1e-9)
	}
}

func TestNormalsSparseNeighbourhood(t *testing.T) {
	pts := []cloud.Point{{X: 0}, {X: 1}, {Y: 1}}
	normals := NormalEstimation{Radius: 0.03}.Compute(pts, search.NewKdTree(pts))
	require.Len(t, normals, 3)
	for _, n := range normals {
		assert.False(t, n.IsFinite())
		assert.True(t, math.IsNaN(n.Curvature))
	}
}

func TestNormalsCurvedSurface(t *testing.T) {
	// points on a unit sphere cap have a non-zero curvature
	var pts []cloud.Point
	for i := -5; i <= 5; i++ {
		for j := -5; j <= 5; j++ {
			x, y := float64(i)*0.05, float64(j)*0.05
			pts = append(pts, cloud.Point{X: x, Y: y, Z: math.Sqrt(1 - x*x - y*y)})
		}
	}
	normals := NormalEstimation{Radius: 0.2}.Compute(pts, search.NewKdTree(pts))
	centre := normals[60]
	require.True(t, centre.IsFinite())
	assert.InDelta(t, -1, centre.Z, 1e-6)
	assert.Greater(t, centre.Curvature, 0.0)
}

func TestNormalsEmpty(t *testing.T) {
	assert.Empty(t, NormalEstimation{Radius: 0.03}.Compute(nil, search.NewKdTree(nil)))
}

func TestBoundary(t *testing.T) {
	const n = 10
	pts := grid(n, 0.01, 1)
	tree := search.NewKdTree(pts)
	normals := NormalEstimation{Radius: 0.03}.Compute(pts, tree)
	flags := BoundaryEstimation{K: 20}.Compute(pts, normals, tree)
	require.Len(t, flags, len(pts))

	at := func(i, j int) bool { return flags[j*n+i] }
	tests := []struct {
		name     string
		i, j     int
		expected bool
	}{
		{"corner", 0, 0, true},
		{"opposite corner", n - 1, n - 1, true},
		{"bottom edge", 5, 0, true},
		{"left edge", 0, 4, true},
		{"centre", 5, 5, false},
		{"one in from edge", 1, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, at(tt.i, tt.j))
		})
	}
}

func TestBoundaryInvalidNormal(t *testing.T) {
	pts := grid(3, 0.01, 0)
	normals := make([]cloud.Normal, len(pts))
	for i := range normals {
		normals[i] = cloud.InvalidNormal()
	}
	flags := BoundaryEstimation{K: 20}.Compute(pts, normals, search.NewKdTree(pts))
	for _, f := range flags {
		assert.False(t, f)
	}
}

func TestBoundaryIsolatedPoint(t *testing.T) {
	pts := []cloud.Point{{Z: 1}}
	normals := []cloud.Normal{{Z: 1}}
	flags := BoundaryEstimation{K: 20}.Compute(pts, normals, search.NewKdTree(pts))
	assert.Equal(t, []bool{false}, flags)
}

func TestUnitOrthogonal(t *testing.T) {
	for _, n := range []cloud.Vector3{{Z: 1}, {X: 1}, {Y: -1}, {X: 0.6, Z: 0.8}} {
		u := unitOrthogonal(vec(n))
		assert.InDelta(t, 0, u.X*n.X+u.Y*n.Y+u.Z*n.Z, 1e-12)
		assert.InDelta(t, 1, math.Sqrt(u.X*u.X+u.Y*u.Y+u.Z*u.Z), 1e-12)
	}
}
