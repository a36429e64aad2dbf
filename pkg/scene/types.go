// Package scene defines the canonical in-memory geometry model shared by
// every parser and encoder. A Scene is built once, fully, and never mutated
// afterward; its JSON form is the interchange shape handed to consumers.
package scene

import "github.com/Faultbox/meshkit/pkg/math"

// Vertex is a single point of a mesh. Normal and TexCoord are nil when the
// source format did not declare them; they are never defaulted to zero
// vectors at the model level.
type Vertex struct {
	Position math.Vec3  `json:"position"`
	Normal   *math.Vec3 `json:"normal,omitempty"`
	TexCoord *math.Vec2 `json:"texCoord,omitempty"`
}

// Face references vertices of its owning mesh by 0-based index.
type Face struct {
	Indices  []int  `json:"indices"`
	Material string `json:"material,omitempty"`
}

// Material is a named bag of optional shading parameters. Pure data, no
// behavior.
type Material struct {
	Name       string     `json:"name"`
	Ambient    *math.Vec3 `json:"ambient,omitempty"`
	Diffuse    *math.Vec3 `json:"diffuse,omitempty"`
	Specular   *math.Vec3 `json:"specular,omitempty"`
	Shininess  *float32   `json:"shininess,omitempty"`
	TextureMap string     `json:"textureMap,omitempty"`
}

// Mesh owns its vertices and faces. The vertex list is the sole index space
// for this mesh's faces; indices never reach across meshes.
type Mesh struct {
	Name     string   `json:"name"`
	Vertices []Vertex `json:"vertices"`
	Faces    []Face   `json:"faces"`
	Material string   `json:"material,omitempty"`
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3 `json:"min"`
	Max math.Vec3 `json:"max"`
}

// Metadata carries denormalized totals that must equal the sums across
// meshes; the validator checks this, it is not just documentation.
type Metadata struct {
	Format      string  `json:"format"`
	VertexCount int     `json:"vertexCount"`
	FaceCount   int     `json:"faceCount"`
	BoundingBox *Bounds `json:"boundingBox,omitempty"`
}

// Scene is the canonical unit exchanged between parsers, the validator,
// encoders and external consumers.
type Scene struct {
	Meshes    []Mesh     `json:"meshes"`
	Materials []Material `json:"materials,omitempty"`
	Metadata  Metadata   `json:"metadata"`
}
