package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshkit/pkg/result"
)

// Validation errors. Each invariant violation wraps one of these, so
// callers can classify failures with errors.Is.
var (
	ErrEmptyScene      = errors.New("scene has no meshes")
	ErrEmptyMesh       = errors.New("mesh has no vertices")
	ErrNonFiniteValue  = errors.New("non-finite component")
	ErrShortFace       = errors.New("face has fewer than 3 indices")
	ErrIndexOutOfRange = errors.New("face index out of range")
	ErrCountMismatch   = errors.New("metadata count mismatch")
)

// Validate cross-checks the structural invariants of a Scene before it is
// handed to a consumer. It fails fast: the first violation is returned as a
// path-qualified *result.Error and the rest of the scene is not examined.
func Validate(s *Scene) error {
	if len(s.Meshes) == 0 {
		return result.PathErrorf("meshes", ErrEmptyScene, "scene has no meshes")
	}

	for mi := range s.Meshes {
		mesh := &s.Meshes[mi]
		if len(mesh.Vertices) == 0 {
			return result.PathErrorf(fmt.Sprintf("meshes/%d", mi), ErrEmptyMesh,
				"mesh %q has no vertices", mesh.Name)
		}

		for vi := range mesh.Vertices {
			v := &mesh.Vertices[vi]
			if !v.Position.IsFinite() {
				return result.PathErrorf(fmt.Sprintf("meshes/%d/vertices/%d/position", mi, vi),
					ErrNonFiniteValue, "vertex position has a non-finite component")
			}
			if v.Normal != nil && !v.Normal.IsFinite() {
				return result.PathErrorf(fmt.Sprintf("meshes/%d/vertices/%d/normal", mi, vi),
					ErrNonFiniteValue, "vertex normal has a non-finite component")
			}
		}

		for fi := range mesh.Faces {
			face := &mesh.Faces[fi]
			if len(face.Indices) < 3 {
				return result.PathErrorf(fmt.Sprintf("meshes/%d/faces/%d", mi, fi),
					ErrShortFace, "face has %d indices, need at least 3", len(face.Indices))
			}
			for ii, idx := range face.Indices {
				if idx < 0 || idx >= len(mesh.Vertices) {
					return result.PathErrorf(fmt.Sprintf("meshes/%d/faces/%d/indices/%d", mi, fi, ii),
						ErrIndexOutOfRange, "index %d out of range for %d vertices",
						idx, len(mesh.Vertices))
				}
			}
		}
	}

	if got := s.VertexCount(); got != s.Metadata.VertexCount {
		return result.PathErrorf("metadata/vertexCount", ErrCountMismatch,
			"metadata declares %d vertices, meshes hold %d", s.Metadata.VertexCount, got)
	}
	if got := s.FaceCount(); got != s.Metadata.FaceCount {
		return result.PathErrorf("metadata/faceCount", ErrCountMismatch,
			"metadata declares %d faces, meshes hold %d", s.Metadata.FaceCount, got)
	}

	return nil
}
