package search

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// indexedPoint is a kdtree.Comparable that remembers its position in the
// source cloud.
type indexedPoint struct {
	p   kdtree.Point
	idx int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.p[d] - q.p[d]
}

func (p indexedPoint) Dims() int {
	return len(p.p)
}

func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	return p.p.Distance(q.p)
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return plane{indexedPoints: p, Dim: d}.Pivot()
}
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts indexedPoints along a single dimension.
type plane struct {
	kdtree.Dim
	indexedPoints
}

func (p plane) Less(i, j int) bool {
	return p.indexedPoints[i].p[p.Dim] < p.indexedPoints[j].p[p.Dim]
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints = p.indexedPoints[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

func sortByDist(cs []kdtree.ComparableDist) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Dist != cs[j].Dist {
			return cs[i].Dist < cs[j].Dist
		}
		return cs[i].Comparable.(indexedPoint).idx < cs[j].Comparable.(indexedPoint).idx
	})
}
