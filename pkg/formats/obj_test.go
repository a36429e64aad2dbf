package formats

import (
	"errors"
	"testing"

	"github.com/Faultbox/meshkit/pkg/result"
	"github.com/Faultbox/meshkit/pkg/scene"
)

// locatedError unwraps the *result.Error carried by err, failing the test
// when there is none.
func locatedError(t *testing.T, err error) *result.Error {
	t.Helper()
	var re *result.Error
	if !errors.As(err, &re) {
		t.Fatalf("expected a located error, got %v", err)
	}
	return re
}

func TestParseOBJTriangle(t *testing.T) {
	s, err := ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if s.Metadata.Format != "obj" {
		t.Errorf("format = %q, want obj", s.Metadata.Format)
	}
	if len(s.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(s.Meshes))
	}
	mesh := &s.Meshes[0]
	if len(mesh.Vertices) != 3 {
		t.Errorf("expected 3 vertices, got %d", len(mesh.Vertices))
	}
	if len(mesh.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(mesh.Faces))
	}
	want := []int{0, 1, 2}
	for i, idx := range mesh.Faces[0].Indices {
		if idx != want[i] {
			t.Errorf("face index %d = %d, want %d", i, idx, want[i])
		}
	}

	bb := s.Metadata.BoundingBox
	if bb == nil {
		t.Fatal("expected a bounding box")
	}
	if bb.Max.X != 1 || bb.Max.Y != 1 || bb.Max.Z != 0 {
		t.Errorf("bounding box max = %v", bb.Max)
	}
}

func TestParseOBJRoundTrip(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nf 1 2 3\nf 2 4 3\n"
	s, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	out, err := EncodeOBJ(s)
	if err != nil {
		t.Fatalf("EncodeOBJ failed: %v", err)
	}
	s2, err := ParseOBJ([]byte(out))
	if err != nil {
		t.Fatalf("reparsing encoded OBJ failed: %v", err)
	}

	if s2.Metadata.VertexCount != s.Metadata.VertexCount {
		t.Errorf("vertex count changed: %d -> %d", s.Metadata.VertexCount, s2.Metadata.VertexCount)
	}
	if s2.Metadata.FaceCount != s.Metadata.FaceCount {
		t.Errorf("face count changed: %d -> %d", s.Metadata.FaceCount, s2.Metadata.FaceCount)
	}
}

func TestParseOBJAttributeBundling(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`
	s, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	mesh := &s.Meshes[0]
	if len(mesh.Vertices) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(mesh.Vertices))
	}
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		if v.Normal == nil {
			t.Fatalf("vertex %d missing normal", i)
		}
		if v.TexCoord == nil {
			t.Fatalf("vertex %d missing texcoord", i)
		}
		if v.Normal.Z != 1 {
			t.Errorf("vertex %d normal = %v", i, *v.Normal)
		}
	}
	if mesh.Vertices[1].TexCoord.X != 1 {
		t.Errorf("vertex 1 texcoord = %v", *mesh.Vertices[1].TexCoord)
	}
}

func TestParseOBJVertexDedup(t *testing.T) {
	// Two faces sharing two corners: identical reference triples must
	// collapse onto the same canonical vertex.
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nf 1 2 3\nf 2 4 3\n"
	s, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if got := len(s.Meshes[0].Vertices); got != 4 {
		t.Errorf("expected 4 deduplicated vertices, got %d", got)
	}
}

func TestParseOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
	s, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	want := []int{0, 1, 2}
	for i, idx := range s.Meshes[0].Faces[0].Indices {
		if idx != want[i] {
			t.Errorf("face index %d = %d, want %d", i, idx, want[i])
		}
	}
}

func TestParseOBJPointCloud(t *testing.T) {
	s, err := ParseOBJ([]byte("v 0 0 0\nv 1 2 3\n"))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if got := len(s.Meshes[0].Vertices); got != 2 {
		t.Errorf("expected 2 vertices, got %d", got)
	}
	if got := len(s.Meshes[0].Faces); got != 0 {
		t.Errorf("expected 0 faces, got %d", got)
	}
}

func TestParseOBJMaterials(t *testing.T) {
	src := `mtllib scene.mtl
v 0 0 0
v 1 0 0
v 0 1 0
usemtl steel
f 1 2 3
usemtl wood
f 3 2 1
`
	s, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if len(s.Materials) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(s.Materials))
	}
	if s.Materials[0].Name != "steel" || s.Materials[1].Name != "wood" {
		t.Errorf("materials = %v", s.Materials)
	}
	if s.Meshes[0].Faces[0].Material != "steel" {
		t.Errorf("face 0 material = %q", s.Meshes[0].Faces[0].Material)
	}
	if s.Meshes[0].Faces[1].Material != "wood" {
		t.Errorf("face 1 material = %q", s.Meshes[0].Faces[1].Material)
	}
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
		line     int
	}{
		{"bad float", "v 0 abc 0\n", ErrInvalidValue, 1},
		{"non-finite", "v 0 NaN 0\n", ErrInvalidValue, 1},
		{"short vertex", "v 1 2\n", ErrInvalidValue, 1},
		{"short face", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2\n", ErrInvalidValue, 4},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrInvalidValue, 4},
		{"bad index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf a 1 2\n", ErrInvalidValue, 4},
		{"bare usemtl", "usemtl\n", ErrMissingAttribute, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tt.sentinel)
			}
			if re := locatedError(t, err); re.Line != tt.line {
				t.Errorf("error line = %d, want %d", re.Line, tt.line)
			}
		})
	}
}

func TestParseOBJFaceIndexOutOfRange(t *testing.T) {
	_, err := ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 6\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, scene.ErrIndexOutOfRange) {
		t.Errorf("error %v does not wrap ErrIndexOutOfRange", err)
	}
	if re := locatedError(t, err); re.Line != 4 {
		t.Errorf("error line = %d, want 4", re.Line)
	}
}

func TestParseOBJOutOfRangeAfterNormalSplit(t *testing.T) {
	// Splitting positions across normals grows the canonical vertex list
	// past the position count. A raw position reference beyond the
	// position list must still be rejected, not land on one of the split
	// vertices.
	src := "v 0 0 0\nv 1 0 0\nvn 0 0 1\nvn 0 1 0\nf 1//1 2//1 1//2\nf 1//2 2//2 3\n"
	_, err := ParseOBJ([]byte(src))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, scene.ErrIndexOutOfRange) {
		t.Errorf("error %v does not wrap ErrIndexOutOfRange", err)
	}
	if re := locatedError(t, err); re.Line != 6 {
		t.Errorf("error line = %d, want 6", re.Line)
	}
}

func TestParseOBJAttributeRefOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"texcoord", "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/2 3/1\n", 5},
		{"normal", "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2//1 3//2\n", 5},
		{"negative position", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -4 1 2\n", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, scene.ErrIndexOutOfRange) {
				t.Errorf("error %v does not wrap ErrIndexOutOfRange", err)
			}
			if re := locatedError(t, err); re.Line != tt.line {
				t.Errorf("error line = %d, want %d", re.Line, tt.line)
			}
		})
	}
}

func TestParseOBJEmpty(t *testing.T) {
	_, err := ParseOBJ([]byte("# nothing here\n"))
	if !errors.Is(err, scene.ErrEmptyScene) && !errors.Is(err, scene.ErrEmptyMesh) {
		t.Errorf("expected an empty-scene error, got %v", err)
	}
}

func TestEncodeOBJWithNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2//1 3//1\n"
	s, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	out, err := EncodeOBJ(s)
	if err != nil {
		t.Fatalf("EncodeOBJ failed: %v", err)
	}
	s2, err := ParseOBJ([]byte(out))
	if err != nil {
		t.Fatalf("reparsing encoded OBJ failed: %v", err)
	}
	if s2.Meshes[0].Vertices[0].Normal == nil {
		t.Error("normals lost in round trip")
	}
}

func TestEncodeOBJEmptyScene(t *testing.T) {
	if _, err := EncodeOBJ(scene.New("obj", nil, nil)); !errors.Is(err, ErrNothingToEncode) {
		t.Errorf("expected ErrNothingToEncode, got %v", err)
	}
}
