package formats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/scene"
)

// ErrNothingToEncode is returned when a scene holds no encodable geometry.
var ErrNothingToEncode = errors.New("scene has nothing to encode")

// EncodePLY renders the first mesh of a Scene as ASCII PLY text. Only the
// first mesh is encoded; multi-mesh export is out of scope. The property
// set is fixed to x,y,z,nx,ny,nz, with absent normals written as 0 0 0.
func EncodePLY(s *scene.Scene) (string, error) {
	if len(s.Meshes) == 0 {
		return "", fmt.Errorf("%w: scene has no meshes", ErrNothingToEncode)
	}
	mesh := &s.Meshes[0]
	if len(mesh.Vertices) == 0 {
		return "", fmt.Errorf("%w: mesh has no vertices", ErrNothingToEncode)
	}
	if len(mesh.Faces) == 0 {
		return "", fmt.Errorf("%w: mesh has no faces", ErrNothingToEncode)
	}

	var b strings.Builder
	b.WriteString("ply\n")
	b.WriteString("format ascii 1.0\n")
	fmt.Fprintf(&b, "element vertex %d\n", len(mesh.Vertices))
	b.WriteString("property float x\n")
	b.WriteString("property float y\n")
	b.WriteString("property float z\n")
	b.WriteString("property float nx\n")
	b.WriteString("property float ny\n")
	b.WriteString("property float nz\n")
	fmt.Fprintf(&b, "element face %d\n", len(mesh.Faces))
	b.WriteString("property list uchar int vertex_indices\n")
	b.WriteString("end_header\n")

	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		n := math.Vec3{}
		if v.Normal != nil {
			n = *v.Normal
		}
		fmt.Fprintf(&b, "%g %g %g %g %g %g\n",
			v.Position.X, v.Position.Y, v.Position.Z, n.X, n.Y, n.Z)
	}

	for i := range mesh.Faces {
		face := &mesh.Faces[i]
		fmt.Fprintf(&b, "%d", len(face.Indices))
		for _, idx := range face.Indices {
			fmt.Fprintf(&b, " %d", idx)
		}
		b.WriteByte('\n')
	}

	return b.String(), nil
}
