// Package search provides neighbourhood queries over a point cloud.
package search

import (
	"github.com/3DRX/point-normal-annotator/cloud"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Searcher answers neighbourhood queries against the cloud it was built
// over. Returned indices refer to that cloud and are ordered by increasing
// distance; a query point that belongs to the cloud is its own neighbour.
type Searcher interface {
	Radius(q cloud.Point, r float64) []int
	Nearest(q cloud.Point, k int) []int
}

type KdTree struct {
	tree *kdtree.Tree
	size int
}

// NewKdTree indexes the finite points of points.
func NewKdTree(points []cloud.Point) *KdTree {
	ips := make(indexedPoints, 0, len(points))
	for i, p := range points {
		if !p.IsFinite() {
			continue
		}
		ips = append(ips, indexedPoint{p: kdtree.Point{p.X, p.Y, p.Z}, idx: i})
	}
	return &KdTree{
		tree: kdtree.New(ips, false),
		size: len(ips),
	}
}

func (t *KdTree) Len() int {
	return t.size
}

func (t *KdTree) Radius(q cloud.Point, r float64) []int {
	if t.size == 0 || r < 0 || !q.IsFinite() {
		return nil
	}
	// kdtree.Point distances are squared
	keep := kdtree.NewDistKeeper(r * r)
	t.tree.NearestSet(keep, query(q))
	return collect(keep.Heap)
}

func (t *KdTree) Nearest(q cloud.Point, k int) []int {
	if t.size == 0 || k <= 0 || !q.IsFinite() {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	t.tree.NearestSet(keep, query(q))
	return collect(keep.Heap)
}

func query(q cloud.Point) indexedPoint {
	return indexedPoint{p: kdtree.Point{q.X, q.Y, q.Z}, idx: -1}
}

// collect returns the keeper contents ordered by distance, skipping the
// sentinel a keeper may still hold.
func collect(h kdtree.Heap) []int {
	found := make([]kdtree.ComparableDist, 0, len(h))
	for _, c := range h {
		if c.Comparable == nil {
			continue
		}
		found = append(found, c)
	}
	sortByDist(found)
	out := make([]int, len(found))
	for i, c := range found {
		out[i] = c.Comparable.(indexedPoint).idx
	}
	return out
}
