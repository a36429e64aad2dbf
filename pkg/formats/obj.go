package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/result"
	"github.com/Faultbox/meshkit/pkg/scene"
)

// objKey identifies a unique (position, texcoord, normal) reference triple.
// Absent components are -1. OBJ indexes the three attribute lists
// independently, while the canonical Vertex bundles them, so identical
// triples must collapse onto one canonical vertex.
type objKey struct {
	pos, tex, norm int
}

type objParser struct {
	positions []math.Vec3
	texCoords []math.Vec2
	normals   []math.Vec3

	vertices []scene.Vertex
	faces    []scene.Face
	lookup   map[objKey]int

	material string   // current usemtl context
	matNames []string // distinct usemtl names, in order of appearance
	mtlLibs  []string // declared material libraries, resolved by ParseOBJFile
}

// ParseOBJ parses Wavefront OBJ text into a validated Scene. Errors carry
// the 1-based source line they were found on. Declared material libraries
// are not resolved here; ParseOBJFile does that, since library paths are
// relative to the OBJ file's location.
func ParseOBJ(data []byte) (*scene.Scene, error) {
	s, _, err := parseOBJ(data)
	return s, err
}

func parseOBJ(data []byte) (*scene.Scene, []string, error) {
	p := &objParser{lookup: make(map[objKey]int)}

	lines := strings.Split(string(data), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := p.parseLine(i+1, line); err != nil {
			return nil, nil, err
		}
	}

	// A point cloud: positions but no faces become one vertex each.
	if len(p.faces) == 0 && len(p.vertices) == 0 {
		for _, pos := range p.positions {
			p.vertices = append(p.vertices, scene.Vertex{Position: pos})
		}
	}

	mesh := scene.Mesh{
		Name:     "default",
		Vertices: p.vertices,
		Faces:    p.faces,
	}
	var materials []scene.Material
	for _, name := range p.matNames {
		materials = append(materials, scene.Material{Name: name})
	}

	s := scene.New("obj", []scene.Mesh{mesh}, materials)
	if err := scene.Validate(s); err != nil {
		return nil, nil, err
	}
	return s, p.mtlLibs, nil
}

// ParseOBJFile parses an OBJ file from disk and resolves its declared
// material libraries relative to the file's directory, merging their
// definitions into the scene's materials.
func ParseOBJFile(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	s, libs, err := parseOBJ(data)
	if err != nil {
		return nil, err
	}
	if err := resolveMTLLibraries(s, libs, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *objParser) parseLine(linenum int, line string) error {
	fields := strings.Fields(line)

	switch fields[0] {
	case "v":
		v, err := parseObjVec3(fields[1:], linenum, "v")
		if err != nil {
			return err
		}
		p.positions = append(p.positions, v)

	case "vt":
		if len(fields) < 3 {
			return result.LineErrorf(linenum, ErrInvalidValue,
				"vt needs 2 coordinates, got %d", len(fields)-1)
		}
		u, err := parseObjFloat(fields[1], linenum)
		if err != nil {
			return err
		}
		v, err := parseObjFloat(fields[2], linenum)
		if err != nil {
			return err
		}
		p.texCoords = append(p.texCoords, math.Vec2{X: u, Y: v})

	case "vn":
		v, err := parseObjVec3(fields[1:], linenum, "vn")
		if err != nil {
			return err
		}
		p.normals = append(p.normals, v)

	case "usemtl":
		if len(fields) < 2 {
			return result.LineErrorf(linenum, ErrMissingAttribute, "usemtl needs a material name")
		}
		p.setMaterial(fields[1])

	case "mtllib":
		p.mtlLibs = append(p.mtlLibs, fields[1:]...)

	case "f":
		if len(fields) < 4 {
			return result.LineErrorf(linenum, ErrInvalidValue,
				"face needs at least 3 vertex references, got %d", len(fields)-1)
		}
		indices := make([]int, 0, len(fields)-1)
		for _, ref := range fields[1:] {
			idx, err := p.resolveRef(ref, linenum)
			if err != nil {
				return err
			}
			indices = append(indices, idx)
		}
		p.faces = append(p.faces, scene.Face{Indices: indices, Material: p.material})

	default:
		// o, g, s and other grouping directives carry no geometry.
	}
	return nil
}

func (p *objParser) setMaterial(name string) {
	p.material = name
	for _, n := range p.matNames {
		if n == name {
			return
		}
	}
	p.matNames = append(p.matNames, name)
}

// resolveRef turns a face reference "pos[/tex][/norm]" (1-based, negative
// means relative to the end of the list) into an index into the canonical
// vertex list, deduplicating identical triples. References must be checked
// against the attribute lists here: the face ends up holding canonical
// vertex indices, so a raw out-of-range value could alias a legitimate
// vertex once deduplication grows the canonical list past the position
// count.
func (p *objParser) resolveRef(ref string, linenum int) (int, error) {
	parts := strings.Split(ref, "/")

	pi, err := strconv.Atoi(parts[0])
	if err != nil || pi == 0 {
		return 0, result.LineErrorf(linenum, ErrInvalidValue, "invalid vertex index %q", parts[0])
	}
	pos := resolveObjIndex(pi, len(p.positions))
	if pos < 0 || pos >= len(p.positions) {
		return 0, result.LineErrorf(linenum, scene.ErrIndexOutOfRange,
			"vertex index %d out of range for %d positions", pi, len(p.positions))
	}

	tex := -1
	if len(parts) > 1 && parts[1] != "" {
		ti, err := strconv.Atoi(parts[1])
		if err != nil || ti == 0 {
			return 0, result.LineErrorf(linenum, ErrInvalidValue, "invalid texcoord index %q", parts[1])
		}
		tex = resolveObjIndex(ti, len(p.texCoords))
		if tex < 0 || tex >= len(p.texCoords) {
			return 0, result.LineErrorf(linenum, scene.ErrIndexOutOfRange,
				"texcoord index %d out of range for %d texcoords", ti, len(p.texCoords))
		}
	}

	norm := -1
	if len(parts) > 2 && parts[2] != "" {
		ni, err := strconv.Atoi(parts[2])
		if err != nil || ni == 0 {
			return 0, result.LineErrorf(linenum, ErrInvalidValue, "invalid normal index %q", parts[2])
		}
		norm = resolveObjIndex(ni, len(p.normals))
		if norm < 0 || norm >= len(p.normals) {
			return 0, result.LineErrorf(linenum, scene.ErrIndexOutOfRange,
				"normal index %d out of range for %d normals", ni, len(p.normals))
		}
	}

	key := objKey{pos, tex, norm}
	if ci, ok := p.lookup[key]; ok {
		return ci, nil
	}

	v := scene.Vertex{Position: p.positions[pos]}
	if tex >= 0 {
		tc := p.texCoords[tex]
		v.TexCoord = &tc
	}
	if norm >= 0 {
		n := p.normals[norm]
		v.Normal = &n
	}

	ci := len(p.vertices)
	p.vertices = append(p.vertices, v)
	p.lookup[key] = ci
	return ci, nil
}

// resolveObjIndex converts a 1-based OBJ index to 0-based; negative indices
// count back from the end of the list.
func resolveObjIndex(i, n int) int {
	if i > 0 {
		return i - 1
	}
	return n + i
}

func parseObjVec3(args []string, linenum int, directive string) (math.Vec3, error) {
	if len(args) < 3 {
		return math.Vec3{}, result.LineErrorf(linenum, ErrInvalidValue,
			"%s needs 3 coordinates, got %d", directive, len(args))
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		f, err := parseObjFloat(args[i], linenum)
		if err != nil {
			return math.Vec3{}, err
		}
		out[i] = f
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func parseObjFloat(s string, linenum int) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, result.LineErrorf(linenum, ErrInvalidValue, "invalid float %q", s)
	}
	f32 := float32(f)
	if math32.IsNaN(f32) || math32.IsInf(f32, 0) {
		return 0, result.LineErrorf(linenum, ErrInvalidValue, "non-finite float %q", s)
	}
	return f32, nil
}

// EncodeOBJ renders the first mesh of a Scene as Wavefront OBJ text.
// Texture coordinates and normals are emitted only when every vertex
// carries them, since OBJ face references cannot mix presence per corner.
func EncodeOBJ(s *scene.Scene) (string, error) {
	if len(s.Meshes) == 0 {
		return "", fmt.Errorf("%w: scene has no meshes", ErrNothingToEncode)
	}
	mesh := &s.Meshes[0]
	if len(mesh.Vertices) == 0 {
		return "", fmt.Errorf("%w: mesh has no vertices", ErrNothingToEncode)
	}

	hasUV := true
	hasNorm := true
	for i := range mesh.Vertices {
		if mesh.Vertices[i].TexCoord == nil {
			hasUV = false
		}
		if mesh.Vertices[i].Normal == nil {
			hasNorm = false
		}
	}

	var b strings.Builder
	for i := range mesh.Vertices {
		p := mesh.Vertices[i].Position
		fmt.Fprintf(&b, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	if hasUV {
		for i := range mesh.Vertices {
			t := mesh.Vertices[i].TexCoord
			fmt.Fprintf(&b, "vt %g %g\n", t.X, t.Y)
		}
	}
	if hasNorm {
		for i := range mesh.Vertices {
			n := mesh.Vertices[i].Normal
			fmt.Fprintf(&b, "vn %g %g %g\n", n.X, n.Y, n.Z)
		}
	}

	material := ""
	for fi := range mesh.Faces {
		face := &mesh.Faces[fi]
		if face.Material != "" && face.Material != material {
			material = face.Material
			fmt.Fprintf(&b, "usemtl %s\n", material)
		}
		b.WriteString("f")
		for _, idx := range face.Indices {
			ref := idx + 1
			switch {
			case hasUV && hasNorm:
				fmt.Fprintf(&b, " %d/%d/%d", ref, ref, ref)
			case hasUV:
				fmt.Fprintf(&b, " %d/%d", ref, ref)
			case hasNorm:
				fmt.Fprintf(&b, " %d//%d", ref, ref)
			default:
				fmt.Fprintf(&b, " %d", ref)
			}
		}
		b.WriteByte('\n')
	}

	return b.String(), nil
}
