package viewerchannel

import (
	"math"
	"strconv"

	"github.com/3DRX/point-normal-annotator/cloud"
)

// jsonFloat encodes non-finite values as null, which encoding/json
// refuses to do for float64.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// viewerCloud packs each point as [x, y, z, normal_x, normal_y, normal_z, curvature].
type viewerCloud struct {
	Header cloud.Header   `json:"header"`
	Width  uint32         `json:"width"`
	Height uint32         `json:"height"`
	Points [][7]jsonFloat `json:"points"`
}

func newViewerCloud(c *cloud.AnnotatedCloud) viewerCloud {
	vc := viewerCloud{
		Header: c.Header,
		Width:  c.Width,
		Height: c.Height,
		Points: make([][7]jsonFloat, len(c.Points)),
	}
	for i, p := range c.Points {
		vc.Points[i] = [7]jsonFloat{
			jsonFloat(p.Point.X), jsonFloat(p.Point.Y), jsonFloat(p.Point.Z),
			jsonFloat(p.Normal.X), jsonFloat(p.Normal.Y), jsonFloat(p.Normal.Z),
			jsonFloat(p.Normal.Curvature),
		}
	}
	return vc
}
