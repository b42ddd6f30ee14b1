package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/3DRX/point-normal-annotator/consts"
)

type TopicConfig struct {
	Input      string `json:"input"`       // sensor_msgs/msg/PointCloud2
	Cloud      string `json:"cloud"`       // annotated sensor_msgs/msg/PointCloud2
	Markers    string `json:"markers"`     // visualization_msgs/msg/Marker
	QueueDepth int    `json:"queue_depth"` // QoS history depth of every topic
}

type AnnotatorConfig struct {
	EnableDownsampling     bool            `json:"enable_downsampling"`
	VoxelLeafSize          float64         `json:"voxel_leaf_size"`
	NormalSearchRadius     float64         `json:"normal_search_radius"`
	EnableBoundaryFilter   bool            `json:"enable_boundary_filter"`
	BoundaryKNeighbors     int             `json:"boundary_k_neighbors"`
	BoundaryAngleThreshold float64         `json:"boundary_angle_threshold"` // radians
	ArrowLength            float64         `json:"arrow_length"`
	MarkerNamespace        string          `json:"marker_namespace"`
	MarkerScale            cloud.Vector3   `json:"marker_scale"`
	MarkerColor            cloud.ColorRGBA `json:"marker_color"`
}

type Config struct {
	Variant    string          `json:"variant"` // either "boundary" or "normals"
	NodeName   string          `json:"node_name"`
	LogLevel   string          `json:"log_level"`
	ViewerAddr string          `json:"viewer_addr"` // websocket viewer feed, empty disables it
	Topics     TopicConfig     `json:"topics"`
	Annotator  AnnotatorConfig `json:"annotator"`
}

// Boundary marks only the boundary points of a downsampled cloud.
func Boundary() AnnotatorConfig {
	return AnnotatorConfig{
		EnableDownsampling:     true,
		VoxelLeafSize:          0.01,
		NormalSearchRadius:     0.03,
		EnableBoundaryFilter:   true,
		BoundaryKNeighbors:     20,
		BoundaryAngleThreshold: 0,
		ArrowLength:            0.1,
		MarkerNamespace:        consts.MARKER_NAMESPACE,
		MarkerScale:            cloud.Vector3{X: 0.005, Y: 0.01, Z: 0},
		MarkerColor:            cloud.ColorRGBA{R: 0, G: 0, B: 1, A: 1},
	}
}

// Normals marks every point of the unfiltered cloud.
func Normals() AnnotatorConfig {
	c := Boundary()
	c.EnableDownsampling = false
	c.EnableBoundaryFilter = false
	c.MarkerScale = cloud.Vector3{X: 0.01, Y: 0.02, Z: 0}
	c.MarkerColor = cloud.ColorRGBA{R: 1, G: 0, B: 0, A: 1}
	return c
}

func defaultCfg(variant string) (*Config, error) {
	c := &Config{
		Variant:  variant,
		NodeName: "normal_estimation_node",
		LogLevel: "info",
		Topics: TopicConfig{
			Input:      "/kinect/depth/points",
			Cloud:      "transformed_normals_topic",
			Markers:    "normals_marker_topic",
			QueueDepth: 1,
		},
	}
	switch variant {
	case consts.VARIANT_BOUNDARY:
		c.Annotator = Boundary()
	case consts.VARIANT_NORMALS:
		c.Annotator = Normals()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	return c, nil
}

// LoadCfg reads path over the defaults of the selected variant. The
// variant argument wins over the one in the file; when both are empty the
// boundary variant is used. A missing file yields the defaults.
func LoadCfg(path string, variant string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config file not found, using default config", "path", path)
		data = nil
	} else if err != nil {
		return nil, err
	}
	if variant == "" && data != nil {
		probe := struct {
			Variant string `json:"variant"`
		}{}
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		variant = probe.Variant
	}
	if variant == "" {
		variant = consts.VARIANT_BOUNDARY
	}
	c, err := defaultCfg(variant)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	c.Variant = variant
	if err := checkCfg(c); err != nil {
		return nil, err
	}
	return c, nil
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func checkCfg(c *Config) error {
	if c.Variant != consts.VARIANT_BOUNDARY && c.Variant != consts.VARIANT_NORMALS {
		return fmt.Errorf("unsupported variant %q", c.Variant)
	}
	if c.NodeName == "" {
		return errors.New("node_name must not be empty")
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Topics.Input == "" || c.Topics.Cloud == "" || c.Topics.Markers == "" {
		return errors.New("topic names must not be empty")
	}
	if c.Topics.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1, got %d", c.Topics.QueueDepth)
	}
	return checkAnnotatorCfg(&c.Annotator)
}

func checkAnnotatorCfg(a *AnnotatorConfig) error {
	if a.NormalSearchRadius <= 0 {
		return fmt.Errorf("normal_search_radius must be positive, got %v", a.NormalSearchRadius)
	}
	if a.EnableDownsampling && a.VoxelLeafSize <= 0 {
		return fmt.Errorf("voxel_leaf_size must be positive when downsampling, got %v", a.VoxelLeafSize)
	}
	if a.EnableBoundaryFilter && a.BoundaryKNeighbors < 3 {
		return fmt.Errorf("boundary_k_neighbors must be at least 3, got %d", a.BoundaryKNeighbors)
	}
	if a.BoundaryAngleThreshold < 0 {
		return fmt.Errorf("boundary_angle_threshold must not be negative, got %v", a.BoundaryAngleThreshold)
	}
	if a.MarkerNamespace == "" {
		return errors.New("marker_namespace must not be empty")
	}
	for _, ch := range []float32{a.MarkerColor.R, a.MarkerColor.G, a.MarkerColor.B, a.MarkerColor.A} {
		if ch < 0 || ch > 1 {
			return fmt.Errorf("marker_color channels must be within [0, 1], got %+v", a.MarkerColor)
		}
	}
	return nil
}
