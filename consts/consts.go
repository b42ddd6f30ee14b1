package consts

const (
	MSG_POINT_CLOUD2 = "sensor_msgs/msg/PointCloud2"
	MSG_MARKER       = "visualization_msgs/msg/Marker"

	// 注解器变体
	VARIANT_BOUNDARY = "boundary" // downsample, normals, boundary markers only
	VARIANT_NORMALS  = "normals"  // normals for every point, no downsampling

	MARKER_NAMESPACE = "normals"

	DEFAULT_CONFIG_FILE = "pna.json"
)
