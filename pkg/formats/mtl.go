package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshkit/pkg/result"
	"github.com/Faultbox/meshkit/pkg/scene"
)

// ParseMTL parses a Wavefront material library into named materials.
// Supported directives: newmtl, Ka (ambient), Kd (diffuse), Ks (specular),
// Ns (shininess), map_Kd (texture map). Anything else is ignored.
func ParseMTL(data []byte) ([]scene.Material, error) {
	var materials []scene.Material
	var current *scene.Material

	lines := strings.Split(string(data), "\n")
	for i, raw := range lines {
		linenum := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return nil, result.LineErrorf(linenum, ErrMissingAttribute,
					"newmtl needs a material name")
			}
			materials = append(materials, scene.Material{Name: fields[1]})
			current = &materials[len(materials)-1]
			continue
		}

		if current == nil {
			return nil, result.LineErrorf(linenum, ErrMalformedHeader,
				"%s before any newmtl", fields[0])
		}

		switch fields[0] {
		case "Ka":
			v, err := parseObjVec3(fields[1:], linenum, "Ka")
			if err != nil {
				return nil, err
			}
			current.Ambient = &v
		case "Kd":
			v, err := parseObjVec3(fields[1:], linenum, "Kd")
			if err != nil {
				return nil, err
			}
			current.Diffuse = &v
		case "Ks":
			v, err := parseObjVec3(fields[1:], linenum, "Ks")
			if err != nil {
				return nil, err
			}
			current.Specular = &v
		case "Ns":
			if len(fields) < 2 {
				return nil, result.LineErrorf(linenum, ErrInvalidValue, "Ns needs a value")
			}
			f, err := parseObjFloat(fields[1], linenum)
			if err != nil {
				return nil, err
			}
			current.Shininess = &f
		case "map_Kd":
			if len(fields) < 2 {
				return nil, result.LineErrorf(linenum, ErrMissingAttribute,
					"map_Kd needs a file name")
			}
			current.TextureMap = fields[1]
		default:
			// d, Ni, illum and friends are shading-model details the
			// canonical material does not carry.
		}
	}

	return materials, nil
}

// ParseMTLFile parses an MTL file from disk.
func ParseMTLFile(path string) ([]scene.Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MTL file: %w", err)
	}
	return ParseMTL(data)
}

// resolveMTLLibraries parses each declared material library under dir and
// merges its definitions into the scene, filling in the name-only entries
// usemtl left behind. Libraries absent from disk are skipped; OBJ files
// routinely travel without their MTL sidecars. Libraries that exist but
// fail to parse are errors.
func resolveMTLLibraries(s *scene.Scene, libs []string, dir string) error {
	for _, lib := range libs {
		path := filepath.Join(dir, lib)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		mats, err := ParseMTLFile(path)
		if err != nil {
			return fmt.Errorf("material library %s: %w", lib, err)
		}
		mergeMaterials(s, mats)
	}
	return nil
}

func mergeMaterials(s *scene.Scene, mats []scene.Material) {
	for _, m := range mats {
		if existing := s.MaterialByName(m.Name); existing != nil {
			*existing = m
			continue
		}
		s.Materials = append(s.Materials, m)
	}
}
