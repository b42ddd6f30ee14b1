package roschannel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/3DRX/point-normal-annotator/config"
	"github.com/3DRX/point-normal-annotator/consts"
	sensor_msgs_msg "github.com/3DRX/point-normal-annotator/rclgo_gen/sensor_msgs/msg"
	visualization_msgs_msg "github.com/3DRX/point-normal-annotator/rclgo_gen/visualization_msgs/msg"
	"github.com/tiiuae/rclgo/pkg/rclgo"
)

var errNotSpinning = errors.New("ros channel is not spinning")

type ROSChannel struct {
	cfg       *config.Config
	cloudPub  *sensor_msgs_msg.PointCloud2Publisher
	markerPub *visualization_msgs_msg.MarkerPublisher
}

func InitROSChannel(cfg *config.Config) *ROSChannel {
	return &ROSChannel{
		cfg: cfg,
	}
}

// Spin creates the node, both publishers and the point cloud
// subscription, then dispatches onCloud for every received cloud until
// ctx is done. onCloud runs on the wait set goroutine, one cloud at a time.
func (r *ROSChannel) Spin(ctx context.Context, onCloud func(*cloud.PointCloud)) error {
	err := rclgo.Init(nil)
	if err != nil {
		return fmt.Errorf("init rclgo: %w", err)
	}
	defer rclgo.Uninit()

	slog.Info("creating node", "name", r.cfg.NodeName)
	node, err := rclgo.NewNode(r.cfg.NodeName, "")
	if err != nil {
		return fmt.Errorf("create node %s: %w", r.cfg.NodeName, err)
	}
	defer node.Close()

	pubOpts := rclgo.NewDefaultPublisherOptions()
	pubOpts.Qos.Depth = r.cfg.Topics.QueueDepth
	r.cloudPub, err = sensor_msgs_msg.NewPointCloud2Publisher(node, r.cfg.Topics.Cloud, pubOpts)
	if err != nil {
		return fmt.Errorf("create %s publisher on %s: %w", consts.MSG_POINT_CLOUD2, r.cfg.Topics.Cloud, err)
	}
	defer r.cloudPub.Close()
	r.markerPub, err = visualization_msgs_msg.NewMarkerPublisher(node, r.cfg.Topics.Markers, pubOpts)
	if err != nil {
		return fmt.Errorf("create %s publisher on %s: %w", consts.MSG_MARKER, r.cfg.Topics.Markers, err)
	}
	defer r.markerPub.Close()

	subOpts := rclgo.NewDefaultSubscriptionOptions()
	subOpts.Qos.Depth = r.cfg.Topics.QueueDepth
	sub, err := sensor_msgs_msg.NewPointCloud2Subscription(
		node,
		r.cfg.Topics.Input,
		subOpts,
		func(msg *sensor_msgs_msg.PointCloud2, info *rclgo.MessageInfo, err error) {
			if err != nil {
				slog.Error("Failed to take point cloud message", "error", err)
				return
			}
			pc, err := FromPointCloud2(msg)
			if err != nil {
				slog.Error("Received malformed point cloud", "frame", msg.Header.FrameId, "error", err)
				return
			}
			onCloud(pc)
		},
	)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.cfg.Topics.Input, err)
	}
	defer sub.Close()

	ws, err := rclgo.NewWaitSet()
	if err != nil {
		return fmt.Errorf("create wait set: %w", err)
	}
	defer ws.Close()
	ws.AddSubscriptions(sub.Subscription)
	slog.Info("spinning",
		"input", r.cfg.Topics.Input,
		"cloud", r.cfg.Topics.Cloud,
		"markers", r.cfg.Topics.Markers,
	)
	return ws.Run(ctx)
}

func (r *ROSChannel) PublishCloud(c *cloud.AnnotatedCloud) error {
	if r.cloudPub == nil {
		return errNotSpinning
	}
	return r.cloudPub.Publish(ToPointCloud2(c))
}

func (r *ROSChannel) PublishMarker(m *cloud.Marker) error {
	if r.markerPub == nil {
		return errNotSpinning
	}
	return r.markerPub.Publish(ToMarker(m))
}
