// Package annotator turns raw point clouds into clouds annotated with
// surface normals plus one arrow marker per annotated point.
package annotator

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/3DRX/point-normal-annotator/config"
	"github.com/3DRX/point-normal-annotator/features"
	"github.com/3DRX/point-normal-annotator/filter"
	"github.com/3DRX/point-normal-annotator/search"
)

type NormalEstimator interface {
	Compute(points []cloud.Point, s search.Searcher) []cloud.Normal
}

type BoundaryEstimator interface {
	Compute(points []cloud.Point, normals []cloud.Normal, s search.Searcher) []bool
}

// Sink receives the annotator output. Implementations are the ROS
// publishers and the viewer feed.
type Sink interface {
	PublishCloud(c *cloud.AnnotatedCloud) error
	PublishMarker(m *cloud.Marker) error
}

type Result struct {
	Cloud    *cloud.AnnotatedCloud
	Boundary []bool // nil when boundary filtering is disabled
	Markers  []cloud.Marker
}

type Annotator struct {
	cfg        config.AnnotatorConfig
	sink       Sink
	filter     filter.Filter
	normals    NormalEstimator
	boundaries BoundaryEstimator
	log        *slog.Logger
}

type Option func(a *Annotator)

func WithNormalEstimator(ne NormalEstimator) Option {
	return func(a *Annotator) { a.normals = ne }
}

func WithBoundaryEstimator(be BoundaryEstimator) Option {
	return func(a *Annotator) { a.boundaries = be }
}

func WithFilter(f filter.Filter) Option {
	return func(a *Annotator) { a.filter = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Annotator) { a.log = l }
}

func New(cfg config.AnnotatorConfig, sink Sink, opts ...Option) *Annotator {
	a := &Annotator{
		cfg:        cfg,
		sink:       sink,
		filter:     filter.VoxelGrid{LeafSize: cfg.VoxelLeafSize},
		normals:    features.NormalEstimation{Radius: cfg.NormalSearchRadius},
		boundaries: features.BoundaryEstimation{K: cfg.BoundaryKNeighbors, AngleThreshold: cfg.BoundaryAngleThreshold},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Annotate computes the annotated cloud and its markers without
// publishing anything.
func (a *Annotator) Annotate(in *cloud.PointCloud) (*Result, error) {
	points := in.Points
	width, height := in.Width, in.Height
	if a.cfg.EnableDownsampling {
		points = a.filter.Filter(points)
	}
	if a.cfg.EnableDownsampling || uint64(width)*uint64(height) != uint64(len(points)) {
		width, height = uint32(len(points)), 1
	}

	// one search structure per cloud, shared by both estimators
	tree := search.NewKdTree(points)
	normals := a.normals.Compute(points, tree)
	augmented, err := cloud.Concatenate(points, normals)
	if err != nil {
		return nil, err
	}

	var boundary []bool
	if a.cfg.EnableBoundaryFilter {
		boundary = a.boundaries.Compute(points, normals, tree)
		if len(boundary) != len(points) {
			return nil, fmt.Errorf("boundary estimation returned %d flags for %d points: %w", len(boundary), len(points), cloud.ErrSizeMismatch)
		}
	}

	return &Result{
		Cloud: &cloud.AnnotatedCloud{
			Header: in.Header,
			Width:  width,
			Height: height,
			Points: augmented,
		},
		Boundary: boundary,
		Markers:  BuildMarkers(in.Header, augmented, boundary, a.cfg),
	}, nil
}

// OnPointCloud annotates in, publishes the annotated cloud and then every
// marker in index order. A failed publish does not stop the remaining
// ones; all failures are returned joined.
func (a *Annotator) OnPointCloud(in *cloud.PointCloud) error {
	res, err := a.Annotate(in)
	if err != nil {
		a.log.Error("Failed to annotate point cloud", "frame", in.Header.FrameID, "error", err)
		return err
	}
	a.log.Debug("annotated point cloud",
		"frame", in.Header.FrameID,
		"input", len(in.Points),
		"filtered", len(res.Cloud.Points),
		"markers", len(res.Markers),
	)

	var errs []error
	if err := a.sink.PublishCloud(res.Cloud); err != nil {
		a.log.Error("Failed to publish annotated cloud", "error", err)
		errs = append(errs, err)
	}
	for i := range res.Markers {
		if err := a.sink.PublishMarker(&res.Markers[i]); err != nil {
			a.log.Error("Failed to publish marker", "id", res.Markers[i].ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
