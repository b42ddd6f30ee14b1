package roschannel

import (
	geometry_msgs_msg "github.com/3DRX/point-normal-annotator/rclgo_gen/geometry_msgs/msg"
	std_msgs_msg "github.com/3DRX/point-normal-annotator/rclgo_gen/std_msgs/msg"
	visualization_msgs_msg "github.com/3DRX/point-normal-annotator/rclgo_gen/visualization_msgs/msg"

	"github.com/3DRX/point-normal-annotator/cloud"
)

func ToMarker(m *cloud.Marker) *visualization_msgs_msg.Marker {
	msg := visualization_msgs_msg.NewMarker()
	msg.Header = toHeader(m.Header)
	msg.Ns = m.Namespace
	msg.Id = m.ID
	msg.Type = m.Type
	msg.Action = m.Action
	// arrow endpoints are absolute, keep the pose at identity
	msg.Pose.Orientation.W = 1
	msg.Points = []geometry_msgs_msg.Point{
		{X: m.Points[0].X, Y: m.Points[0].Y, Z: m.Points[0].Z},
		{X: m.Points[1].X, Y: m.Points[1].Y, Z: m.Points[1].Z},
	}
	msg.Scale = geometry_msgs_msg.Vector3{X: m.Scale.X, Y: m.Scale.Y, Z: m.Scale.Z}
	msg.Color = std_msgs_msg.ColorRGBA{R: m.Color.R, G: m.Color.G, B: m.Color.B, A: m.Color.A}
	return msg
}
