package filter

import (
	"cmp"
	"math"

	"github.com/3DRX/point-normal-annotator/cloud"
	"golang.org/x/exp/slices"
)

type Filter interface {
	Filter(points []cloud.Point) []cloud.Point
}

// VoxelGrid replaces all points falling in the same cubic cell of edge
// LeafSize by their centroid.
type VoxelGrid struct {
	LeafSize float64
}

type voxelKey struct {
	i, j, k int64
}

type voxel struct {
	key              voxelKey
	sumX, sumY, sumZ float64
	n                int
}

func (v VoxelGrid) Filter(points []cloud.Point) []cloud.Point {
	finite := make([]cloud.Point, 0, len(points))
	for _, p := range points {
		if p.IsFinite() {
			finite = append(finite, p)
		}
	}
	if v.LeafSize <= 0 || len(finite) == 0 {
		return finite
	}

	inv := 1 / v.LeafSize
	voxels := make(map[voxelKey]*voxel)
	for _, p := range finite {
		key := voxelKey{
			i: int64(math.Floor(p.X * inv)),
			j: int64(math.Floor(p.Y * inv)),
			k: int64(math.Floor(p.Z * inv)),
		}
		vx, ok := voxels[key]
		if !ok {
			vx = &voxel{key: key}
			voxels[key] = vx
		}
		vx.sumX += p.X
		vx.sumY += p.Y
		vx.sumZ += p.Z
		vx.n++
	}

	ordered := make([]*voxel, 0, len(voxels))
	for _, vx := range voxels {
		ordered = append(ordered, vx)
	}
	// z major, then y, then x: the order of a linear voxel index
	slices.SortFunc(ordered, func(a, b *voxel) int {
		if c := cmp.Compare(a.key.k, b.key.k); c != 0 {
			return c
		}
		if c := cmp.Compare(a.key.j, b.key.j); c != 0 {
			return c
		}
		return cmp.Compare(a.key.i, b.key.i)
	})

	out := make([]cloud.Point, len(ordered))
	for i, vx := range ordered {
		n := float64(vx.n)
		out[i] = cloud.Point{X: vx.sumX / n, Y: vx.sumY / n, Z: vx.sumZ / n}
	}
	return out
}
