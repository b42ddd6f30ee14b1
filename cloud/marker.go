package cloud

// Marker type and action codes, as in visualization_msgs/Marker.
const (
	MarkerArrow int32 = 0
	MarkerAdd   int32 = 0
)

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type ColorRGBA struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

// Marker is a single line-segment arrow from Points[0] to Points[1].
type Marker struct {
	Header    Header     `json:"header"`
	Namespace string     `json:"ns"`
	ID        int32      `json:"id"`
	Type      int32      `json:"type"`
	Action    int32      `json:"action"`
	Points    [2]Vector3 `json:"points"`
	Scale     Vector3    `json:"scale"`
	Color     ColorRGBA  `json:"color"`
}

func (p Point) Vector3() Vector3 {
	return Vector3{X: p.X, Y: p.Y, Z: p.Z}
}
