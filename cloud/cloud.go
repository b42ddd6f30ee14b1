// Package cloud holds the point cloud and marker types shared by the
// annotator, the ROS channel and the viewer feed. They mirror the ROS
// messages closely enough that conversion is a field-by-field copy.
package cloud

import (
	"errors"
	"fmt"
	"math"
)

var ErrSizeMismatch = errors.New("point and normal counts differ")

type Time struct {
	Sec     int32  `json:"sec"`
	Nanosec uint32 `json:"nanosec"`
}

// Header mirrors std_msgs/Header.
type Header struct {
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Z)
}

// Normal is a unit direction plus the surface curvature at the point.
// All components are NaN when no normal could be estimated.
type Normal struct {
	X         float64 `json:"normal_x"`
	Y         float64 `json:"normal_y"`
	Z         float64 `json:"normal_z"`
	Curvature float64 `json:"curvature"`
}

func InvalidNormal() Normal {
	nan := math.NaN()
	return Normal{X: nan, Y: nan, Z: nan, Curvature: nan}
}

func (n Normal) IsFinite() bool {
	return isFinite(n.X) && isFinite(n.Y) && isFinite(n.Z)
}

type PointNormal struct {
	Point  `json:"point"`
	Normal `json:"normal"`
}

type PointCloud struct {
	Header Header  `json:"header"`
	Width  uint32  `json:"width"`
	Height uint32  `json:"height"`
	Points []Point `json:"points"`
}

// AnnotatedCloud is the published point+normal cloud.
type AnnotatedCloud struct {
	Header Header        `json:"header"`
	Width  uint32        `json:"width"`
	Height uint32        `json:"height"`
	Points []PointNormal `json:"points"`
}

// Concatenate pairs points[i] with normals[i].
func Concatenate(points []Point, normals []Normal) ([]PointNormal, error) {
	if len(points) != len(normals) {
		return nil, fmt.Errorf("concatenate %d points with %d normals: %w", len(points), len(normals), ErrSizeMismatch)
	}
	out := make([]PointNormal, len(points))
	for i := range points {
		out[i] = PointNormal{Point: points[i], Normal: normals[i]}
	}
	return out, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
