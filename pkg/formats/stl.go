package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"strconv"
	"strings"

	"github.com/Faultbox/explodeview/pkg/math"
)

// STL format errors.
var (
	ErrInvalidSTL   = errors.New("invalid STL data")
	ErrTruncatedSTL = errors.New("truncated STL data")
)

// DefaultSolidName is used when a solid is written without a name.
const DefaultSolidName = "exported"

const (
	stlHeaderSize = 80
	stlFacetSize  = 50 // normal + 3 vertices (12 float32) + uint16 attribute
)

// STLFacet is one triangle of an STL solid.
type STLFacet struct {
	Normal   [3]float32
	Vertices [3][3]float32
}

// STL is a parsed STL solid.
type STL struct {
	Name   string
	Facets []STLFacet
}

// Soup converts the solid's vertex listings back into a triangle soup.
func (s *STL) Soup() Soup {
	soup := make(Soup, len(s.Facets))
	for i, f := range s.Facets {
		tri := make([][]float64, 3)
		for j, v := range f.Vertices {
			tri[j] = []float64{float64(v[0]), float64(v[1]), float64(v[2])}
		}
		soup[i] = tri
	}
	return soup
}

// FacetNormal returns the unit normal of the triangle a->b->c, i.e.
// normalize((b-a) x (c-a)). A degenerate triangle yields the zero vector.
func FacetNormal(a, b, c math.Vec3) math.Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// Facets builds STL facets from a flat vertex buffer and a triangle index
// buffer.
func Facets(vertices []float32, indices []uint32) []STLFacet {
	facets := make([]STLFacet, 0, len(indices)/3)
	for t := 0; t+2 < len(indices); t += 3 {
		a := math.VertexAt(vertices, int(indices[t]))
		b := math.VertexAt(vertices, int(indices[t+1]))
		c := math.VertexAt(vertices, int(indices[t+2]))
		facets = append(facets, STLFacet{
			Normal:   FacetNormal(a, b, c).Array(),
			Vertices: [3][3]float32{a.Array(), b.Array(), c.Array()},
		})
	}
	return facets
}

// WriteASCIISTL writes the triangles as an ASCII STL solid.
func WriteASCIISTL(w io.Writer, name string, vertices []float32, indices []uint32) error {
	name = solidName(name)
	bw := bufio.NewWriter(w)
	scratch := make([]byte, 0, 64)

	bw.WriteString("solid " + name + "\n")
	for _, f := range Facets(vertices, indices) {
		scratch = appendTriple(append(scratch[:0], "facet normal"...), f.Normal)
		bw.Write(scratch)
		bw.WriteString("  outer loop\n")
		for _, v := range f.Vertices {
			scratch = appendTriple(append(scratch[:0], "    vertex"...), v)
			bw.Write(scratch)
		}
		bw.WriteString("  endloop\nendfacet\n")
	}
	bw.WriteString("endsolid " + name + "\n")

	return bw.Flush()
}

// appendTriple appends " x y z\n" using the shortest float32 representation.
func appendTriple(dst []byte, v [3]float32) []byte {
	for _, c := range v {
		dst = append(dst, ' ')
		dst = strconv.AppendFloat(dst, float64(c), 'g', -1, 32)
	}
	return append(dst, '\n')
}

// WriteBinarySTL writes the triangles as a binary STL solid.
func WriteBinarySTL(w io.Writer, name string, vertices []float32, indices []uint32) error {
	facets := Facets(vertices, indices)
	bw := bufio.NewWriter(w)

	// A header starting with "solid" confuses ASCII sniffers.
	header := make([]byte, stlHeaderSize)
	copy(header, "binary "+solidName(name))
	bw.Write(header)

	buf := binary.LittleEndian.AppendUint32(make([]byte, 0, stlFacetSize), uint32(len(facets)))
	bw.Write(buf)

	for _, f := range facets {
		buf = buf[:0]
		buf = appendFloat32s(buf, f.Normal)
		for _, v := range f.Vertices {
			buf = appendFloat32s(buf, v)
		}
		buf = binary.LittleEndian.AppendUint16(buf, 0)
		bw.Write(buf)
	}

	return bw.Flush()
}

func appendFloat32s(dst []byte, v [3]float32) []byte {
	for _, c := range v {
		dst = binary.LittleEndian.AppendUint32(dst, gomath.Float32bits(c))
	}
	return dst
}

// ReadSTL reads an STL solid in either encoding.
func ReadSTL(r io.Reader) (*STL, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseSTL(data)
}

// ParseSTL parses an STL solid, detecting binary vs ASCII encoding. A
// payload whose size matches its binary triangle count is treated as
// binary even when the header starts with "solid".
func ParseSTL(data []byte) (*STL, error) {
	if len(data) >= stlHeaderSize+4 {
		count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(len(data)) == stlHeaderSize+4+uint64(count)*stlFacetSize {
			return parseBinarySTL(data)
		}
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCIISTL(data)
	}
	if len(data) < stlHeaderSize+4 {
		return nil, ErrTruncatedSTL
	}
	return nil, fmt.Errorf("%w: size does not match binary triangle count", ErrTruncatedSTL)
}

func parseBinarySTL(data []byte) (*STL, error) {
	header := data[:stlHeaderSize]
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])

	name := strings.TrimRight(string(header), " \x00")
	name = strings.TrimPrefix(name, "binary ")

	s := &STL{Name: name, Facets: make([]STLFacet, count)}
	body := data[stlHeaderSize+4:]
	for i := range s.Facets {
		rec := body[i*stlFacetSize : (i+1)*stlFacetSize]
		f := &s.Facets[i]
		f.Normal = readFloat32s(rec[0:12])
		for v := 0; v < 3; v++ {
			f.Vertices[v] = readFloat32s(rec[12+12*v : 24+12*v])
		}
	}
	return s, nil
}

func readFloat32s(b []byte) [3]float32 {
	return [3]float32{
		gomath.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		gomath.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		gomath.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}
}

func parseASCIISTL(data []byte) (*STL, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	s := &STL{}
	var (
		facet    *STLFacet
		nVerts   int
		lineNo   int
		started  bool
		finished bool
	)

	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if finished {
			return nil, fmt.Errorf("%w: line %d: content after endsolid", ErrInvalidSTL, lineNo)
		}

		switch fields[0] {
		case "solid":
			if started {
				return nil, fmt.Errorf("%w: line %d: nested solid", ErrInvalidSTL, lineNo)
			}
			started = true
			s.Name = strings.Join(fields[1:], " ")

		case "facet":
			if !started || facet != nil || len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: line %d: bad facet", ErrInvalidSTL, lineNo)
			}
			n, err := parseTriple(fields[2:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, lineNo, err)
			}
			facet = &STLFacet{Normal: n}
			nVerts = 0

		case "outer", "endloop":
			if facet == nil {
				return nil, fmt.Errorf("%w: line %d: %s outside facet", ErrInvalidSTL, lineNo, fields[0])
			}

		case "vertex":
			if facet == nil || nVerts == 3 || len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: bad vertex", ErrInvalidSTL, lineNo)
			}
			v, err := parseTriple(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, lineNo, err)
			}
			facet.Vertices[nVerts] = v
			nVerts++

		case "endfacet":
			if facet == nil || nVerts != 3 {
				return nil, fmt.Errorf("%w: line %d: facet needs 3 vertices", ErrInvalidSTL, lineNo)
			}
			s.Facets = append(s.Facets, *facet)
			facet = nil

		case "endsolid":
			if !started || facet != nil {
				return nil, fmt.Errorf("%w: line %d: unexpected endsolid", ErrInvalidSTL, lineNo)
			}
			finished = true

		default:
			return nil, fmt.Errorf("%w: line %d: unknown keyword %q", ErrInvalidSTL, lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !finished {
		return nil, fmt.Errorf("%w: missing endsolid", ErrTruncatedSTL)
	}
	return s, nil
}

func parseTriple(fields []string) ([3]float32, error) {
	var v [3]float32
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(x)
	}
	return v, nil
}

func solidName(name string) string {
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return DefaultSolidName
	}
	return name
}
