package search

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line() []cloud.Point {
	return []cloud.Point{
		{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4},
	}
}

func TestRadius(t *testing.T) {
	tree := NewKdTree(line())
	require.Equal(t, 5, tree.Len())

	tests := []struct {
		name     string
		q        cloud.Point
		r        float64
		expected []int
	}{
		{"self only", cloud.Point{X: 2}, 0.5, []int{2}},
		{"inclusive bound", cloud.Point{X: 2}, 1, []int{2, 1, 3}},
		{"off cloud query", cloud.Point{X: 0.4}, 0.7, []int{0, 1}},
		{"nothing in range", cloud.Point{X: 10}, 1, []int{}},
		{"negative radius", cloud.Point{X: 2}, -1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tree.Radius(tt.q, tt.r)
			if len(tt.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNearest(t *testing.T) {
	tree := NewKdTree(line())

	assert.Equal(t, []int{4, 3, 2}, tree.Nearest(cloud.Point{X: 4.1}, 3))
	assert.Len(t, tree.Nearest(cloud.Point{}, 20), 5)
	assert.Empty(t, tree.Nearest(cloud.Point{}, 0))
}

func TestSkipsNonFinite(t *testing.T) {
	pts := []cloud.Point{{X: math.NaN()}, {X: 1}, {X: 2}}
	tree := NewKdTree(pts)
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, []int{1, 2}, tree.Nearest(cloud.Point{X: 1}, 5))
	assert.Empty(t, tree.Radius(cloud.Point{X: math.NaN()}, 1))
}

func TestEmptyTree(t *testing.T) {
	tree := NewKdTree(nil)
	assert.Empty(t, tree.Radius(cloud.Point{}, 1))
	assert.Empty(t, tree.Nearest(cloud.Point{}, 3))
}

func TestMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	pts := make([]cloud.Point, 500)
	for i := range pts {
		pts[i] = cloud.Point{X: rnd.Float64(), Y: rnd.Float64(), Z: rnd.Float64()}
	}
	tree := NewKdTree(pts)

	for trial := 0; trial < 20; trial++ {
		q := pts[rnd.Intn(len(pts))]
		const r = 0.15
		var want []int
		for i, p := range pts {
			if dist2(p, q) <= r*r {
				want = append(want, i)
			}
		}
		got := tree.Radius(q, r)
		sort.Ints(got)
		assert.Equal(t, want, got)

		knn := tree.Nearest(q, 10)
		require.Len(t, knn, 10)
		byDist := make([]int, len(pts))
		for i := range byDist {
			byDist[i] = i
		}
		sort.SliceStable(byDist, func(a, b int) bool {
			return dist2(pts[byDist[a]], q) < dist2(pts[byDist[b]], q)
		})
		assert.Equal(t, byDist[:10], knn)
	}
}

func dist2(a, b cloud.Point) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}
