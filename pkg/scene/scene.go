package scene

import "github.com/Faultbox/meshkit/pkg/math"

// New builds a fully formed Scene for the given source format: vertex and
// face totals and the bounding box are derived from the meshes here, once,
// so the metadata invariant holds by construction.
func New(format string, meshes []Mesh, materials []Material) *Scene {
	s := &Scene{
		Meshes:    meshes,
		Materials: materials,
		Metadata: Metadata{
			Format: format,
		},
	}
	for i := range meshes {
		s.Metadata.VertexCount += len(meshes[i].Vertices)
		s.Metadata.FaceCount += len(meshes[i].Faces)
	}
	s.Metadata.BoundingBox = computeBounds(meshes)
	return s
}

// computeBounds returns the axis-aligned box enclosing every vertex
// position, or nil when there are no vertices.
func computeBounds(meshes []Mesh) *Bounds {
	var b Bounds
	seen := false
	for i := range meshes {
		for j := range meshes[i].Vertices {
			p := meshes[i].Vertices[j].Position
			if !seen {
				b.Min, b.Max = p, p
				seen = true
				continue
			}
			b.Min = b.Min.Min(p)
			b.Max = b.Max.Max(p)
		}
	}
	if !seen {
		return nil
	}
	return &b
}

// VertexCount returns the total number of vertices across all meshes.
func (s *Scene) VertexCount() int {
	total := 0
	for i := range s.Meshes {
		total += len(s.Meshes[i].Vertices)
	}
	return total
}

// FaceCount returns the total number of faces across all meshes.
func (s *Scene) FaceCount() int {
	total := 0
	for i := range s.Meshes {
		total += len(s.Meshes[i].Faces)
	}
	return total
}

// MaterialByName returns the named material, or nil if not found.
func (s *Scene) MaterialByName(name string) *Material {
	for i := range s.Materials {
		if s.Materials[i].Name == name {
			return &s.Materials[i]
		}
	}
	return nil
}

// Center returns the center of the bounding box, or the origin for an
// empty scene.
func (s *Scene) Center() math.Vec3 {
	bb := s.Metadata.BoundingBox
	if bb == nil {
		return math.Vec3{}
	}
	return bb.Min.Add(bb.Max).Scale(0.5)
}
