package formats

// JSON types for the embedded-buffer subset of glTF 2.0. Scene-graph
// resolution (nodes, transforms, animations, skins) is out of scope, so
// only the geometry chain asset -> mesh -> primitive -> accessor ->
// bufferView -> buffer is modeled.

// glTF componentType constants.
const (
	gltfByte          = 5120
	gltfUnsignedByte  = 5121
	gltfShort         = 5122
	gltfUnsignedShort = 5123
	gltfUnsignedInt   = 5125
	gltfFloat         = 5126
)

type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Buffers     []gltfBuffer     `json:"buffers"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Accessors   []gltfAccessor   `json:"accessors"`
	Meshes      []gltfMesh       `json:"meshes"`
	Materials   []gltfMaterial   `json:"materials"`
}

type gltfAsset struct {
	Version string `json:"version"`
}

type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`

	data []byte // decoded from the data: URI
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

type gltfAccessor struct {
	BufferView    *int   `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	ComponentType int    `json:"componentType"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
}

type gltfMesh struct {
	Name       string          `json:"name"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices"`
	Material   *int           `json:"material"`
}

type gltfMaterial struct {
	Name           string      `json:"name"`
	PBR            *gltfPBR    `json:"pbrMetallicRoughness"`
	EmissiveFactor *[3]float32 `json:"emissiveFactor"`
}

type gltfPBR struct {
	BaseColorFactor *[4]float32 `json:"baseColorFactor"`
	RoughnessFactor *float32    `json:"roughnessFactor"`
}

// gltfComponentSize returns the byte width of a componentType, or 0 for an
// unknown constant.
func gltfComponentSize(componentType int) int {
	switch componentType {
	case gltfByte, gltfUnsignedByte:
		return 1
	case gltfShort, gltfUnsignedShort:
		return 2
	case gltfUnsignedInt, gltfFloat:
		return 4
	default:
		return 0
	}
}

// gltfTypeComponents returns the component count of an accessor type, or 0
// for an unknown name.
func gltfTypeComponents(accessorType string) int {
	switch accessorType {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4", "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	default:
		return 0
	}
}
