package scene

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/result"
)

func requirePathError(t *testing.T, err error, sentinel error, path string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel), "want %v in chain, got %v", sentinel, err)

	var re *result.Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, path, re.Path)
}

func TestValidateOK(t *testing.T) {
	s := New("obj", []Mesh{triangleMesh()}, nil)
	assert.NoError(t, Validate(s))
}

func TestValidatePointCloud(t *testing.T) {
	// Vertices without faces are a valid scene.
	m := triangleMesh()
	m.Faces = nil
	s := New("ply", []Mesh{m}, nil)
	assert.NoError(t, Validate(s))
}

func TestValidateEmptyScene(t *testing.T) {
	s := New("obj", nil, nil)
	requirePathError(t, Validate(s), ErrEmptyScene, "meshes")
}

func TestValidateEmptyMesh(t *testing.T) {
	s := New("obj", []Mesh{triangleMesh(), {Name: "hollow"}}, nil)
	requirePathError(t, Validate(s), ErrEmptyMesh, "meshes/1")
}

func TestValidateNonFinitePosition(t *testing.T) {
	m := triangleMesh()
	m.Vertices[1].Position.Y = math32.NaN()
	s := New("obj", []Mesh{m}, nil)
	requirePathError(t, Validate(s), ErrNonFiniteValue, "meshes/0/vertices/1/position")
}

func TestValidateNonFiniteNormal(t *testing.T) {
	m := triangleMesh()
	n := math.Vec3{X: math32.Inf(1), Y: 0, Z: 0}
	m.Vertices[2].Normal = &n
	s := New("obj", []Mesh{m}, nil)
	requirePathError(t, Validate(s), ErrNonFiniteValue, "meshes/0/vertices/2/normal")
}

func TestValidateShortFace(t *testing.T) {
	m := triangleMesh()
	m.Faces = append(m.Faces, Face{Indices: []int{0, 1}})
	s := New("obj", []Mesh{m}, nil)
	requirePathError(t, Validate(s), ErrShortFace, "meshes/0/faces/1")
}

func TestValidateIndexOutOfRange(t *testing.T) {
	// A face referencing vertex 5 of a 3-vertex mesh names the exact index.
	m := triangleMesh()
	m.Faces[0].Indices = []int{0, 1, 5}
	s := New("obj", []Mesh{m}, nil)
	requirePathError(t, Validate(s), ErrIndexOutOfRange, "meshes/0/faces/0/indices/2")
}

func TestValidateNegativeIndex(t *testing.T) {
	m := triangleMesh()
	m.Faces[0].Indices = []int{-1, 1, 2}
	s := New("obj", []Mesh{m}, nil)
	requirePathError(t, Validate(s), ErrIndexOutOfRange, "meshes/0/faces/0/indices/0")
}

func TestValidateCountMismatch(t *testing.T) {
	s := New("obj", []Mesh{triangleMesh()}, nil)
	s.Metadata.VertexCount = 99
	requirePathError(t, Validate(s), ErrCountMismatch, "metadata/vertexCount")

	s = New("obj", []Mesh{triangleMesh()}, nil)
	s.Metadata.FaceCount = 0
	requirePathError(t, Validate(s), ErrCountMismatch, "metadata/faceCount")
}
