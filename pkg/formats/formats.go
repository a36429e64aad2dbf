// Package formats provides decoders and encoders for 3D geometry file
// formats (Wavefront OBJ, PLY ASCII/binary, glTF with embedded buffers).
// Every decoder turns raw bytes into the canonical scene model and runs the
// scene validator before returning; encoders do the reverse.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshkit/pkg/scene"
)

// Failure categories shared by all decoders. Located errors wrap one of
// these, so callers can classify with errors.Is.
var (
	ErrMalformedHeader  = errors.New("malformed header")
	ErrUnexpectedEOF    = errors.New("unexpected end of file")
	ErrInvalidValue     = errors.New("invalid numeric value")
	ErrMissingAttribute = errors.New("missing required attribute")
	ErrUnsupported      = errors.New("unsupported feature")
	ErrUnknownFormat    = errors.New("unknown format")
)

// Format identifies a supported wire format.
type Format int

const (
	FormatUnknown Format = iota
	FormatOBJ
	FormatPLY
	FormatGLTF
)

// String returns the canonical lowercase format name.
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatPLY:
		return "ply"
	case FormatGLTF:
		return "gltf"
	default:
		return "unknown"
	}
}

// Detect guesses the format from the file name extension, falling back to
// sniffing the content: a "ply" magic line, a JSON object opener, or OBJ
// directive lines.
func Detect(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".obj":
		return FormatOBJ
	case ".ply":
		return FormatPLY
	case ".gltf":
		return FormatGLTF
	}

	if bytes.HasPrefix(data, []byte("ply\r")) || bytes.HasPrefix(data, []byte("ply\n")) {
		return FormatPLY
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatGLTF
	}
	if looksLikeOBJ(data) {
		return FormatOBJ
	}
	return FormatUnknown
}

// looksLikeOBJ reports whether the data begins with OBJ directive lines.
func looksLikeOBJ(data []byte) bool {
	for _, line := range strings.SplitN(string(data), "\n", 20) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch strings.SplitN(line, " ", 2)[0] {
		case "v", "vt", "vn", "f", "o", "g", "usemtl", "mtllib":
			return true
		default:
			return false
		}
	}
	return false
}

// Decode parses data in the detected format into a validated Scene.
func Decode(name string, data []byte) (*scene.Scene, error) {
	switch Detect(name, data) {
	case FormatOBJ:
		return ParseOBJ(data)
	case FormatPLY:
		return ParsePLY(data)
	case FormatGLTF:
		return ParseGLTF(data)
	default:
		return nil, fmt.Errorf("%w: cannot detect format of %q", ErrUnknownFormat, name)
	}
}

// DecodeFile reads and decodes a file from disk. OBJ files go through
// ParseOBJFile so their material libraries resolve relative to the file's
// directory; byte-slice Decode has no directory to resolve against.
func DecodeFile(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if Detect(path, data) == FormatOBJ {
		s, libs, err := parseOBJ(data)
		if err != nil {
			return nil, err
		}
		if err := resolveMTLLibraries(s, libs, filepath.Dir(path)); err != nil {
			return nil, err
		}
		return s, nil
	}
	return Decode(path, data)
}
