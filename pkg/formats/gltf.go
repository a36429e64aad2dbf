package formats

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	gomath "math"
	"os"
	"strings"

	"github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/result"
	"github.com/Faultbox/meshkit/pkg/scene"
)

// ParseGLTF parses the embedded-buffer subset of glTF JSON into a validated
// Scene. External buffer URIs are not supported; buffers must be base64
// data: URIs. Errors carry a slash path into the document.
func ParseGLTF(data []byte) (*scene.Scene, error) {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, result.Errorf(ErrMalformedHeader, "invalid glTF JSON: %v", err)
	}

	if doc.Asset.Version == "" {
		return nil, result.PathErrorf("asset/version", ErrMissingAttribute,
			"missing asset.version")
	}

	if err := decodeGLTFBuffers(&doc); err != nil {
		return nil, err
	}

	materials := make([]scene.Material, len(doc.Materials))
	for i := range doc.Materials {
		materials[i] = convertGLTFMaterial(&doc.Materials[i], i)
	}

	meshes := make([]scene.Mesh, 0, len(doc.Meshes))
	for mi := range doc.Meshes {
		mesh, err := convertGLTFMesh(&doc, mi, materials)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}

	s := scene.New("gltf", meshes, materials)
	if err := scene.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseGLTFFile parses a glTF file from disk.
func ParseGLTFFile(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading glTF file: %w", err)
	}
	return ParseGLTF(data)
}

// decodeGLTFBuffers decodes every declared buffer's data: URI in place.
func decodeGLTFBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		path := fmt.Sprintf("buffers/%d", i)

		if !strings.HasPrefix(buf.URI, "data:") {
			return result.PathErrorf(path, ErrUnsupported,
				"external buffer URI not supported for buffer %d", i)
		}
		marker := strings.Index(buf.URI, ";base64,")
		if marker < 0 {
			return result.PathErrorf(path, ErrInvalidValue,
				"buffer %d data URI is not base64 encoded", i)
		}
		decoded, err := base64.StdEncoding.DecodeString(buf.URI[marker+len(";base64,"):])
		if err != nil {
			return result.PathErrorf(path, ErrInvalidValue,
				"buffer %d base64 decode failed: %v", i, err)
		}
		buf.data = decoded
	}
	return nil
}

func convertGLTFMaterial(m *gltfMaterial, index int) scene.Material {
	out := scene.Material{Name: m.Name}
	if out.Name == "" {
		out.Name = fmt.Sprintf("material_%d", index)
	}
	if m.PBR != nil {
		if m.PBR.BaseColorFactor != nil {
			c := *m.PBR.BaseColorFactor
			out.Diffuse = &math.Vec3{X: c[0], Y: c[1], Z: c[2]}
		}
		if m.PBR.RoughnessFactor != nil {
			shininess := (1 - *m.PBR.RoughnessFactor) * 128
			out.Shininess = &shininess
		}
	}
	if m.EmissiveFactor != nil {
		e := *m.EmissiveFactor
		out.Ambient = &math.Vec3{X: e[0], Y: e[1], Z: e[2]}
	}
	return out
}

// convertGLTFMesh flattens all primitives of one glTF mesh into a single
// canonical Mesh, rebasing each primitive's indices onto the shared vertex
// list.
func convertGLTFMesh(doc *gltfDocument, mi int, materials []scene.Material) (scene.Mesh, error) {
	gm := &doc.Meshes[mi]
	mesh := scene.Mesh{Name: gm.Name}
	if mesh.Name == "" {
		mesh.Name = fmt.Sprintf("mesh_%d", mi)
	}

	for pi := range gm.Primitives {
		prim := &gm.Primitives[pi]
		primPath := fmt.Sprintf("meshes/%d/primitives/%d", mi, pi)

		posIdx, ok := prim.Attributes["POSITION"]
		if !ok {
			return mesh, result.PathErrorf(primPath+"/attributes/POSITION",
				ErrMissingAttribute, "primitive has no POSITION accessor")
		}
		positions, err := readGLTFAccessor(doc, posIdx, 3, primPath+"/attributes/POSITION")
		if err != nil {
			return mesh, err
		}

		var normals, texCoords []float64
		if normIdx, ok := prim.Attributes["NORMAL"]; ok {
			normals, err = readGLTFAccessor(doc, normIdx, 3, primPath+"/attributes/NORMAL")
			if err != nil {
				return mesh, err
			}
		}
		if tcIdx, ok := prim.Attributes["TEXCOORD_0"]; ok {
			texCoords, err = readGLTFAccessor(doc, tcIdx, 2, primPath+"/attributes/TEXCOORD_0")
			if err != nil {
				return mesh, err
			}
		}

		base := len(mesh.Vertices)
		vertexCount := len(positions) / 3
		for i := 0; i < vertexCount; i++ {
			v := scene.Vertex{Position: math.Vec3{
				X: float32(positions[i*3]),
				Y: float32(positions[i*3+1]),
				Z: float32(positions[i*3+2]),
			}}
			if i*3+2 < len(normals) {
				n := math.Vec3{
					X: float32(normals[i*3]),
					Y: float32(normals[i*3+1]),
					Z: float32(normals[i*3+2]),
				}
				v.Normal = &n
			}
			if i*2+1 < len(texCoords) {
				t := math.Vec2{
					X: float32(texCoords[i*2]),
					Y: float32(texCoords[i*2+1]),
				}
				v.TexCoord = &t
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		materialName := ""
		if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(materials) {
			materialName = materials[*prim.Material].Name
		}

		// Triangle-list topology is assumed; indices are grouped in
		// triples. Without an index accessor the vertices themselves
		// form sequential triangles.
		var indices []int
		if prim.Indices != nil {
			raw, err := readGLTFAccessor(doc, *prim.Indices, 1, primPath+"/indices")
			if err != nil {
				return mesh, err
			}
			indices = make([]int, len(raw))
			for i, f := range raw {
				indices[i] = int(f)
			}
		} else {
			indices = make([]int, vertexCount)
			for i := range indices {
				indices[i] = i
			}
		}
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, scene.Face{
				Indices:  []int{base + indices[i], base + indices[i+1], base + indices[i+2]},
				Material: materialName,
			})
		}
	}

	return mesh, nil
}

// readGLTFAccessor materializes an accessor as a flat float64 slice of
// count x components values, resolving the bufferView -> buffer chain and
// honoring both byte offsets. Only FLOAT, UNSIGNED_SHORT and UNSIGNED_INT
// component types are readable.
func readGLTFAccessor(doc *gltfDocument, idx, wantComponents int, path string) ([]float64, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, result.PathErrorf(path, ErrInvalidValue,
			"accessor index %d out of range", idx)
	}
	acc := &doc.Accessors[idx]

	components := gltfTypeComponents(acc.Type)
	if components == 0 {
		return nil, result.PathErrorf(path, ErrUnsupported,
			"unsupported accessor type %q", acc.Type)
	}
	if components != wantComponents {
		return nil, result.PathErrorf(path, ErrInvalidValue,
			"accessor type %s has %d components, want %d", acc.Type, components, wantComponents)
	}

	switch acc.ComponentType {
	case gltfFloat, gltfUnsignedShort, gltfUnsignedInt:
	default:
		return nil, result.PathErrorf(path, ErrUnsupported,
			"unsupported componentType %d", acc.ComponentType)
	}
	componentSize := gltfComponentSize(acc.ComponentType)

	if acc.BufferView == nil {
		return nil, result.PathErrorf(path, ErrMissingAttribute,
			"accessor has no bufferView")
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, result.PathErrorf(path, ErrInvalidValue,
			"bufferView index %d out of range", *acc.BufferView)
	}
	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, result.PathErrorf(path, ErrInvalidValue,
			"buffer index %d out of range", bv.Buffer)
	}
	buf := doc.Buffers[bv.Buffer].data

	offset := bv.ByteOffset + acc.ByteOffset
	total := acc.Count * components
	need := total * componentSize
	if offset < 0 || offset+need > len(buf) {
		return nil, result.PathErrorf(path, ErrUnexpectedEOF,
			"accessor needs %d bytes at offset %d, buffer holds %d", need, offset, len(buf))
	}

	out := make([]float64, total)
	for i := 0; i < total; i++ {
		b := buf[offset+i*componentSize:]
		switch acc.ComponentType {
		case gltfFloat:
			out[i] = float64(gomath.Float32frombits(binary.LittleEndian.Uint32(b)))
		case gltfUnsignedShort:
			out[i] = float64(binary.LittleEndian.Uint16(b))
		case gltfUnsignedInt:
			out[i] = float64(binary.LittleEndian.Uint32(b))
		}
	}
	return out, nil
}
