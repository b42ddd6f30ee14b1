package roschannel

import (
	"encoding/binary"
	"fmt"
	"math"

	builtin_interfaces_msg "github.com/3DRX/point-normal-annotator/rclgo_gen/builtin_interfaces/msg"
	sensor_msgs_msg "github.com/3DRX/point-normal-annotator/rclgo_gen/sensor_msgs/msg"
	std_msgs_msg "github.com/3DRX/point-normal-annotator/rclgo_gen/std_msgs/msg"

	"github.com/3DRX/point-normal-annotator/cloud"
)

// sensor_msgs/PointField datatypes
const (
	datatypeFloat32 uint8 = 7
	datatypeFloat64 uint8 = 8
)

// pointNormalStep is the size of one point in the PCL PointNormal layout:
// xyz and the normal are each padded to 16 bytes, curvature to 16.
const pointNormalStep = 48

var pointNormalFields = []sensor_msgs_msg.PointField{
	{Name: "x", Offset: 0, Datatype: datatypeFloat32, Count: 1},
	{Name: "y", Offset: 4, Datatype: datatypeFloat32, Count: 1},
	{Name: "z", Offset: 8, Datatype: datatypeFloat32, Count: 1},
	{Name: "normal_x", Offset: 16, Datatype: datatypeFloat32, Count: 1},
	{Name: "normal_y", Offset: 20, Datatype: datatypeFloat32, Count: 1},
	{Name: "normal_z", Offset: 24, Datatype: datatypeFloat32, Count: 1},
	{Name: "curvature", Offset: 32, Datatype: datatypeFloat32, Count: 1},
}

type fieldReader struct {
	offset   int
	datatype uint8
}

func (f fieldReader) size() int {
	if f.datatype == datatypeFloat64 {
		return 8
	}
	return 4
}

func (f fieldReader) read(b []byte, order binary.ByteOrder) float64 {
	if f.datatype == datatypeFloat64 {
		return math.Float64frombits(order.Uint64(b[f.offset:]))
	}
	return float64(math.Float32frombits(order.Uint32(b[f.offset:])))
}

func findField(fields []sensor_msgs_msg.PointField, name string) (fieldReader, error) {
	for _, f := range fields {
		if f.Name != name {
			continue
		}
		if f.Datatype != datatypeFloat32 && f.Datatype != datatypeFloat64 {
			return fieldReader{}, fmt.Errorf("field %q has unsupported datatype %d", name, f.Datatype)
		}
		return fieldReader{offset: int(f.Offset), datatype: f.Datatype}, nil
	}
	return fieldReader{}, fmt.Errorf("point cloud has no %q field", name)
}

// FromPointCloud2 extracts the xyz coordinates of every point, row by row.
func FromPointCloud2(msg *sensor_msgs_msg.PointCloud2) (*cloud.PointCloud, error) {
	var xyz [3]fieldReader
	for i, name := range []string{"x", "y", "z"} {
		f, err := findField(msg.Fields, name)
		if err != nil {
			return nil, err
		}
		xyz[i] = f
	}
	pointStep, rowStep := int(msg.PointStep), int(msg.RowStep)
	width, height := int(msg.Width), int(msg.Height)
	for _, f := range xyz {
		if f.offset+f.size() > pointStep {
			return nil, fmt.Errorf("field at offset %d does not fit point_step %d", f.offset, pointStep)
		}
	}
	if width*pointStep > rowStep && height > 0 && width > 0 {
		return nil, fmt.Errorf("row_step %d is shorter than %d points of %d bytes", rowStep, width, pointStep)
	}
	if need := height * rowStep; len(msg.Data) < need {
		return nil, fmt.Errorf("data has %d bytes, expected %d", len(msg.Data), need)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if msg.IsBigendian {
		order = binary.BigEndian
	}
	pc := &cloud.PointCloud{
		Header: fromHeader(msg.Header),
		Width:  msg.Width,
		Height: msg.Height,
		Points: make([]cloud.Point, 0, width*height),
	}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			b := msg.Data[row*rowStep+col*pointStep:]
			pc.Points = append(pc.Points, cloud.Point{
				X: xyz[0].read(b, order),
				Y: xyz[1].read(b, order),
				Z: xyz[2].read(b, order),
			})
		}
	}
	return pc, nil
}

// ToPointCloud2 encodes c in the PointNormal layout, little endian.
func ToPointCloud2(c *cloud.AnnotatedCloud) *sensor_msgs_msg.PointCloud2 {
	msg := sensor_msgs_msg.NewPointCloud2()
	msg.Header = toHeader(c.Header)
	msg.Width = c.Width
	msg.Height = c.Height
	msg.Fields = append([]sensor_msgs_msg.PointField(nil), pointNormalFields...)
	msg.IsBigendian = false
	msg.PointStep = pointNormalStep
	msg.RowStep = pointNormalStep * c.Width
	msg.Data = make([]uint8, pointNormalStep*len(c.Points))
	msg.IsDense = true

	put := func(b []byte, off int, v float64) {
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(float32(v)))
	}
	for i, p := range c.Points {
		b := msg.Data[i*pointNormalStep:]
		put(b, 0, p.Point.X)
		put(b, 4, p.Point.Y)
		put(b, 8, p.Point.Z)
		put(b, 16, p.Normal.X)
		put(b, 20, p.Normal.Y)
		put(b, 24, p.Normal.Z)
		put(b, 32, p.Normal.Curvature)
		if !p.Point.IsFinite() || !p.Normal.IsFinite() {
			msg.IsDense = false
		}
	}
	return msg
}

func fromHeader(h std_msgs_msg.Header) cloud.Header {
	return cloud.Header{
		Stamp:   cloud.Time{Sec: h.Stamp.Sec, Nanosec: h.Stamp.Nanosec},
		FrameID: h.FrameId,
	}
}

func toHeader(h cloud.Header) std_msgs_msg.Header {
	return std_msgs_msg.Header{
		Stamp:   builtin_interfaces_msg.Time{Sec: h.Stamp.Sec, Nanosec: h.Stamp.Nanosec},
		FrameId: h.FrameID,
	}
}
