package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/result"
	"github.com/Faultbox/meshkit/pkg/scene"
)

type plyFormat int

const (
	plyASCII plyFormat = iota
	plyBinaryLE
	plyBinaryBE
)

// plyScalarSizes maps declared property types to their byte widths. Both
// the classic names and the sized aliases are accepted.
var plyScalarSizes = map[string]int{
	"char": 1, "int8": 1,
	"uchar": 1, "uint8": 1,
	"short": 2, "int16": 2,
	"ushort": 2, "uint16": 2,
	"int": 4, "int32": 4,
	"uint": 4, "uint32": 4,
	"float": 4, "float32": 4,
	"double": 8, "float64": 8,
}

// plyProperty is one declared property of an element. For list properties
// typ holds the item type and countType the list-length type.
type plyProperty struct {
	name      string
	typ       string
	isList    bool
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	format   plyFormat
	elements []plyElement
	// endLine is the 1-based line number of end_header.
	endLine int
}

func (h *plyHeader) element(name string) *plyElement {
	for i := range h.elements {
		if h.elements[i].name == name {
			return &h.elements[i]
		}
	}
	return nil
}

// ParsePLY parses PLY data, ASCII or binary, into a validated Scene. The
// first ~1KB is probed as text: a binary_* format token selects the binary
// body decoder with the payload starting right after the end_header line.
func ParsePLY(data []byte) (*scene.Scene, error) {
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}

	if bytes.Contains(probe, []byte("format binary_")) {
		if idx := bytes.Index(data, []byte("end_header")); idx >= 0 {
			header, err := parsePLYHeader(splitPLYLines(string(data[:idx+len("end_header")])))
			if err != nil {
				return nil, err
			}
			offset := idx + len("end_header")
			if offset < len(data) && data[offset] == '\r' {
				offset++
			}
			if offset < len(data) && data[offset] == '\n' {
				offset++
			}
			order := binary.ByteOrder(binary.LittleEndian)
			if header.format == plyBinaryBE {
				order = binary.BigEndian
			}
			return parsePLYBinaryBody(header, data[offset:], order)
		}
		// No end_header anywhere; fall through so the header parser
		// reports it against the last line scanned.
	}

	lines := splitPLYLines(string(data))
	header, err := parsePLYHeader(lines)
	if err != nil {
		return nil, err
	}
	return parsePLYASCIIBody(header, lines)
}

// ParsePLYFile parses a PLY file from disk.
func ParsePLYFile(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLY file: %w", err)
	}
	return ParsePLY(data)
}

func splitPLYLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}

// parsePLYHeader parses the line-oriented header grammar, terminated by
// end_header. Properties accumulate onto the most recently declared element.
func parsePLYHeader(lines []string) (*plyHeader, error) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "ply" {
		return nil, result.LineErrorf(1, ErrMalformedHeader, "missing ply magic")
	}

	header := &plyHeader{format: plyASCII}

	for i := 1; i < len(lines); i++ {
		linenum := i + 1
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "comment", "obj_info":
			// Ignored.

		case "format":
			if len(fields) < 3 {
				return nil, result.LineErrorf(linenum, ErrMalformedHeader,
					"format needs a type and a version")
			}
			switch fields[1] {
			case "ascii":
				header.format = plyASCII
			case "binary_little_endian":
				header.format = plyBinaryLE
			case "binary_big_endian":
				header.format = plyBinaryBE
			default:
				return nil, result.LineErrorf(linenum, ErrUnsupported,
					"unsupported PLY format %q", fields[1])
			}

		case "element":
			if len(fields) < 3 {
				return nil, result.LineErrorf(linenum, ErrMalformedHeader,
					"element needs a name and a count")
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, result.LineErrorf(linenum, ErrInvalidValue,
					"invalid element count %q", fields[2])
			}
			header.elements = append(header.elements, plyElement{
				name:  fields[1],
				count: count,
			})

		case "property":
			if len(header.elements) == 0 {
				return nil, result.LineErrorf(linenum, ErrMalformedHeader,
					"property declared before any element")
			}
			prop, err := parsePLYProperty(fields, linenum)
			if err != nil {
				return nil, err
			}
			el := &header.elements[len(header.elements)-1]
			el.props = append(el.props, prop)

		case "end_header":
			header.endLine = linenum
			return header, nil

		default:
			return nil, result.LineErrorf(linenum, ErrMalformedHeader,
				"unknown header keyword %q", fields[0])
		}
	}

	return nil, result.LineErrorf(len(lines), ErrMalformedHeader, "missing end_header")
}

func parsePLYProperty(fields []string, linenum int) (plyProperty, error) {
	if fields[1] == "list" {
		if len(fields) < 5 {
			return plyProperty{}, result.LineErrorf(linenum, ErrMalformedHeader,
				"property list needs count type, item type and name")
		}
		if _, ok := plyScalarSizes[fields[2]]; !ok {
			return plyProperty{}, result.LineErrorf(linenum, ErrUnsupported,
				"unsupported list count type %q", fields[2])
		}
		if _, ok := plyScalarSizes[fields[3]]; !ok {
			return plyProperty{}, result.LineErrorf(linenum, ErrUnsupported,
				"unsupported list item type %q", fields[3])
		}
		return plyProperty{
			name:      fields[4],
			typ:       fields[3],
			isList:    true,
			countType: fields[2],
		}, nil
	}

	if len(fields) < 3 {
		return plyProperty{}, result.LineErrorf(linenum, ErrMalformedHeader,
			"property needs a type and a name")
	}
	if _, ok := plyScalarSizes[fields[1]]; !ok {
		return plyProperty{}, result.LineErrorf(linenum, ErrUnsupported,
			"unsupported property type %q", fields[1])
	}
	return plyProperty{name: fields[2], typ: fields[1]}, nil
}

// plyVertex accumulates recognized per-vertex properties during body
// decoding; which of them become canonical attributes is decided by the
// header declarations, not by the values.
type plyVertex struct {
	pos  math.Vec3
	norm math.Vec3
	tex  math.Vec2
}

// setPLYField routes a property value into the accumulator by its declared
// name. Color channels and unrecognized names are discarded.
func setPLYField(v *plyVertex, name string, val float32) {
	switch name {
	case "x":
		v.pos.X = val
	case "y":
		v.pos.Y = val
	case "z":
		v.pos.Z = val
	case "nx":
		v.norm.X = val
	case "ny":
		v.norm.Y = val
	case "nz":
		v.norm.Z = val
	case "s", "u", "texture_u":
		v.tex.X = val
	case "t", "v", "texture_v":
		v.tex.Y = val
	}
}

func plyIsNormalProp(name string) bool {
	return name == "nx" || name == "ny" || name == "nz"
}

func plyIsTexProp(name string) bool {
	switch name {
	case "s", "u", "texture_u", "t", "v", "texture_v":
		return true
	}
	return false
}

func plyIsIndexList(p *plyProperty) bool {
	return p.isList && (p.name == "vertex_indices" || p.name == "vertex_index")
}

// plyAttrs reports which canonical vertex attributes the header declares.
func plyAttrs(vertexEl *plyElement) (hasPos, hasNorm, hasTex bool) {
	var x, y, z bool
	for i := range vertexEl.props {
		p := &vertexEl.props[i]
		if p.isList {
			continue
		}
		switch p.name {
		case "x":
			x = true
		case "y":
			y = true
		case "z":
			z = true
		}
		if plyIsNormalProp(p.name) {
			hasNorm = true
		}
		if plyIsTexProp(p.name) {
			hasTex = true
		}
	}
	return x && y && z, hasNorm, hasTex
}

// assemblePLYScene converts accumulated vertices and faces into a validated
// canonical Scene.
func assemblePLYScene(verts []plyVertex, faces []scene.Face, hasNorm, hasTex bool) (*scene.Scene, error) {
	vertices := make([]scene.Vertex, len(verts))
	for i := range verts {
		vertices[i] = scene.Vertex{Position: verts[i].pos}
		if hasNorm {
			n := verts[i].norm
			vertices[i].Normal = &n
		}
		if hasTex {
			t := verts[i].tex
			vertices[i].TexCoord = &t
		}
	}

	mesh := scene.Mesh{Name: "default", Vertices: vertices, Faces: faces}
	s := scene.New("ply", []scene.Mesh{mesh}, nil)
	if err := scene.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// parsePLYASCIIBody decodes the text body following the header: one line
// per element instance, fields positionally matched to declared properties.
func parsePLYASCIIBody(header *plyHeader, lines []string) (*scene.Scene, error) {
	vertexEl := header.element("vertex")
	if vertexEl == nil {
		return nil, result.Errorf(ErrMissingAttribute, "no vertex element declared")
	}
	hasPos, hasNorm, hasTex := plyAttrs(vertexEl)
	if !hasPos {
		return nil, result.Errorf(ErrMissingAttribute, "vertex element lacks x/y/z properties")
	}

	// Queue of non-empty body lines with their 1-based numbers.
	type bodyLine struct {
		num  int
		text string
	}
	var body []bodyLine
	for i := header.endLine; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		body = append(body, bodyLine{num: i + 1, text: lines[i]})
	}

	next := 0
	take := func() (bodyLine, error) {
		if next >= len(body) {
			return bodyLine{}, result.LineErrorf(len(lines), ErrUnexpectedEOF,
				"unexpected end of file in PLY body")
		}
		l := body[next]
		next++
		return l, nil
	}

	var verts []plyVertex
	var faces []scene.Face

	for ei := range header.elements {
		el := &header.elements[ei]
		for n := 0; n < el.count; n++ {
			line, err := take()
			if err != nil {
				return nil, err
			}
			fields := strings.Fields(line.text)

			switch el.name {
			case "vertex":
				v, err := parsePLYASCIIVertex(el, fields, line.num)
				if err != nil {
					return nil, err
				}
				verts = append(verts, v)

			case "face":
				face, err := parsePLYASCIIFace(el, fields, line.num)
				if err != nil {
					return nil, err
				}
				faces = append(faces, face)

			default:
				// Unrecognized elements are consumed and discarded.
			}
		}
	}

	return assemblePLYScene(verts, faces, hasNorm, hasTex)
}

func parsePLYASCIIVertex(el *plyElement, fields []string, linenum int) (plyVertex, error) {
	var v plyVertex
	cursor := 0
	for pi := range el.props {
		p := &el.props[pi]
		if p.isList {
			// Vertex-level lists are consumed and discarded.
			if cursor >= len(fields) {
				return v, result.LineErrorf(linenum, ErrUnexpectedEOF,
					"vertex line ends before property %q", p.name)
			}
			n, err := strconv.Atoi(fields[cursor])
			if err != nil || n < 0 {
				return v, result.LineErrorf(linenum, ErrInvalidValue,
					"invalid list length %q", fields[cursor])
			}
			cursor += 1 + n
			continue
		}

		if cursor >= len(fields) {
			return v, result.LineErrorf(linenum, ErrUnexpectedEOF,
				"vertex line ends before property %q", p.name)
		}
		f, err := strconv.ParseFloat(fields[cursor], 64)
		if err != nil {
			return v, result.LineErrorf(linenum, ErrInvalidValue,
				"invalid float %q for property %q", fields[cursor], p.name)
		}
		setPLYField(&v, p.name, float32(f))
		cursor++
	}
	return v, nil
}

func parsePLYASCIIFace(el *plyElement, fields []string, linenum int) (scene.Face, error) {
	var face scene.Face
	cursor := 0
	for pi := range el.props {
		p := &el.props[pi]

		if !p.isList {
			// Non-list face properties (color etc.) are discarded.
			if cursor >= len(fields) {
				return face, result.LineErrorf(linenum, ErrUnexpectedEOF,
					"face line ends before property %q", p.name)
			}
			cursor++
			continue
		}

		if cursor >= len(fields) {
			return face, result.LineErrorf(linenum, ErrUnexpectedEOF,
				"face line ends before property %q", p.name)
		}
		count, err := strconv.Atoi(fields[cursor])
		if err != nil || count < 0 {
			return face, result.LineErrorf(linenum, ErrInvalidValue,
				"invalid list length %q", fields[cursor])
		}
		cursor++

		if !plyIsIndexList(p) {
			cursor += count
			continue
		}

		if count < 3 {
			return face, result.LineErrorf(linenum, ErrInvalidValue,
				"face has %d indices, need at least 3", count)
		}
		indices := make([]int, 0, count)
		for k := 0; k < count; k++ {
			if cursor >= len(fields) {
				return face, result.LineErrorf(linenum, ErrUnexpectedEOF,
					"face line ends after %d of %d indices", k, count)
			}
			idx, err := strconv.Atoi(fields[cursor])
			if err != nil {
				return face, result.LineErrorf(linenum, ErrInvalidValue,
					"invalid face index %q", fields[cursor])
			}
			indices = append(indices, idx)
			cursor++
		}
		face.Indices = indices
	}

	if face.Indices == nil {
		return face, result.LineErrorf(linenum, ErrMissingAttribute,
			"face element has no vertex_indices list")
	}
	return face, nil
}

// parsePLYBinaryBody decodes fixed-width binary records in header-declared
// property order. Every declared property is read, even when discarded,
// since the byte cursor only stays aligned if each width is consumed.
func parsePLYBinaryBody(header *plyHeader, body []byte, order binary.ByteOrder) (*scene.Scene, error) {
	vertexEl := header.element("vertex")
	if vertexEl == nil {
		return nil, result.Errorf(ErrMissingAttribute, "no vertex element declared")
	}
	hasPos, hasNorm, hasTex := plyAttrs(vertexEl)
	if !hasPos {
		return nil, result.Errorf(ErrMissingAttribute, "vertex element lacks x/y/z properties")
	}

	r := bytes.NewReader(body)

	var verts []plyVertex
	var faces []scene.Face

	for ei := range header.elements {
		el := &header.elements[ei]
		for n := 0; n < el.count; n++ {
			switch el.name {
			case "vertex":
				var v plyVertex
				for pi := range el.props {
					p := &el.props[pi]
					if p.isList {
						if err := discardPLYList(r, order, p, el.name); err != nil {
							return nil, err
						}
						continue
					}
					val, err := readPLYScalar(r, order, p.typ)
					if err != nil {
						return nil, plyReadError(err, el.name, n)
					}
					setPLYField(&v, p.name, float32(val))
				}
				verts = append(verts, v)

			case "face":
				face, err := readPLYBinaryFace(r, order, el, n)
				if err != nil {
					return nil, err
				}
				faces = append(faces, face)

			default:
				for pi := range el.props {
					p := &el.props[pi]
					if p.isList {
						if err := discardPLYList(r, order, p, el.name); err != nil {
							return nil, err
						}
						continue
					}
					if _, err := readPLYScalar(r, order, p.typ); err != nil {
						return nil, plyReadError(err, el.name, n)
					}
				}
			}
		}
	}

	return assemblePLYScene(verts, faces, hasNorm, hasTex)
}

func readPLYBinaryFace(r *bytes.Reader, order binary.ByteOrder, el *plyElement, n int) (scene.Face, error) {
	var face scene.Face
	for pi := range el.props {
		p := &el.props[pi]

		if !p.isList {
			// Non-list face properties are read for cursor alignment
			// and discarded.
			if _, err := readPLYScalar(r, order, p.typ); err != nil {
				return face, plyReadError(err, el.name, n)
			}
			continue
		}

		count, err := readPLYScalar(r, order, p.countType)
		if err != nil {
			return face, plyReadError(err, el.name, n)
		}
		listLen := int(count)
		if listLen < 0 {
			return face, result.Errorf(ErrInvalidValue,
				"face %d: negative list length %d", n, listLen)
		}

		if !plyIsIndexList(p) {
			for k := 0; k < listLen; k++ {
				if _, err := readPLYScalar(r, order, p.typ); err != nil {
					return face, plyReadError(err, el.name, n)
				}
			}
			continue
		}

		if listLen < 3 {
			return face, result.Errorf(ErrInvalidValue,
				"face %d has %d indices, need at least 3", n, listLen)
		}
		indices := make([]int, 0, listLen)
		for k := 0; k < listLen; k++ {
			idx, err := readPLYScalar(r, order, p.typ)
			if err != nil {
				return face, plyReadError(err, el.name, n)
			}
			indices = append(indices, int(idx))
		}
		face.Indices = indices
	}

	if face.Indices == nil {
		return face, result.Errorf(ErrMissingAttribute,
			"face element has no vertex_indices list")
	}
	return face, nil
}

func discardPLYList(r *bytes.Reader, order binary.ByteOrder, p *plyProperty, elName string) error {
	count, err := readPLYScalar(r, order, p.countType)
	if err != nil {
		return plyReadError(err, elName, -1)
	}
	for k := 0; k < int(count); k++ {
		if _, err := readPLYScalar(r, order, p.typ); err != nil {
			return plyReadError(err, elName, -1)
		}
	}
	return nil
}

// readPLYScalar reads one fixed-width value of the declared type and widens
// it to float64. The type determines the width, so discarded values still
// advance the cursor correctly.
func readPLYScalar(r *bytes.Reader, order binary.ByteOrder, typ string) (float64, error) {
	switch typ {
	case "char", "int8":
		var v int8
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "uchar", "uint8":
		var v uint8
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "short", "int16":
		var v int16
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "ushort", "uint16":
		var v uint16
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "int", "int32":
		var v int32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "uint", "uint32":
		var v uint32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "float", "float32":
		var v float32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "double", "float64":
		var v float64
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return v, nil
	default:
		return 0, fmt.Errorf("%w: property type %q", ErrUnsupported, typ)
	}
}

func plyReadError(err error, elName string, n int) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if n >= 0 {
			return result.Errorf(ErrUnexpectedEOF,
				"unexpected end of file reading %s %d", elName, n)
		}
		return result.Errorf(ErrUnexpectedEOF,
			"unexpected end of file reading element %q", elName)
	}
	return err
}
