package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshkit/pkg/math"
)

func triangleMesh() Mesh {
	return Mesh{
		Name: "tri",
		Vertices: []Vertex{
			{Position: math.Vec3{X: 0, Y: 0, Z: 0}},
			{Position: math.Vec3{X: 1, Y: 0, Z: 0}},
			{Position: math.Vec3{X: 0, Y: 1, Z: 0}},
		},
		Faces: []Face{{Indices: []int{0, 1, 2}}},
	}
}

func TestNew(t *testing.T) {
	s := New("obj", []Mesh{triangleMesh()}, nil)

	assert.Equal(t, "obj", s.Metadata.Format)
	assert.Equal(t, 3, s.Metadata.VertexCount)
	assert.Equal(t, 1, s.Metadata.FaceCount)

	require.NotNil(t, s.Metadata.BoundingBox)
	assert.Equal(t, math.Vec3{X: 0, Y: 0, Z: 0}, s.Metadata.BoundingBox.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 0}, s.Metadata.BoundingBox.Max)
}

func TestNewMultipleMeshes(t *testing.T) {
	m2 := Mesh{
		Name: "offset",
		Vertices: []Vertex{
			{Position: math.Vec3{X: -2, Y: 5, Z: 1}},
		},
	}
	s := New("ply", []Mesh{triangleMesh(), m2}, nil)

	assert.Equal(t, 4, s.Metadata.VertexCount)
	assert.Equal(t, 1, s.Metadata.FaceCount)
	assert.Equal(t, math.Vec3{X: -2, Y: 0, Z: 0}, s.Metadata.BoundingBox.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 5, Z: 1}, s.Metadata.BoundingBox.Max)
}

func TestNewEmpty(t *testing.T) {
	s := New("obj", nil, nil)
	assert.Zero(t, s.Metadata.VertexCount)
	assert.Nil(t, s.Metadata.BoundingBox)
	assert.Equal(t, math.Vec3{}, s.Center())
}

func TestCenter(t *testing.T) {
	s := New("obj", []Mesh{triangleMesh()}, nil)
	c := s.Center()
	assert.InDelta(t, 0.5, c.X, 1e-6)
	assert.InDelta(t, 0.5, c.Y, 1e-6)
	assert.InDelta(t, 0.0, c.Z, 1e-6)
}

func TestMaterialByName(t *testing.T) {
	mats := []Material{
		{Name: "steel"},
		{Name: "wood", TextureMap: "wood.png"},
	}
	s := New("obj", []Mesh{triangleMesh()}, mats)

	m := s.MaterialByName("wood")
	require.NotNil(t, m)
	assert.Equal(t, "wood.png", m.TextureMap)

	assert.Nil(t, s.MaterialByName("glass"))
}
