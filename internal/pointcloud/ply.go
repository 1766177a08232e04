package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// The reconstruction pipeline emits PLY point clouds (ascii or binary,
// vertex element only is consumed here). Faces and any other elements
// following the vertices are ignored.

type plyFormat int

const (
	plyASCII plyFormat = iota
	plyBinaryLE
	plyBinaryBE
)

type plyProperty struct {
	name string
	typ  string
	size int
}

type plyHeader struct {
	format      plyFormat
	vertexCount int
	props       []plyProperty
	stride      int
}

var plyTypeSizes = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4,
	"double": 8, "float64": 8,
}

// LoadPLY reads a PLY point cloud from disk. A failure here means the
// scan source is unusable and is surfaced to the caller; the engine
// never starts on a cloud that failed to load.
func LoadPLY(path string) (*Cloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cloud, err := ReadPLY(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cloud, nil
}

// ReadPLY parses a PLY stream into a cloud.
func ReadPLY(in *bufio.Reader) (*Cloud, error) {
	header, err := parsePLYHeader(in)
	if err != nil {
		return nil, err
	}

	xi := header.propIndex("x")
	yi := header.propIndex("y")
	zi := header.propIndex("z")
	if xi < 0 || yi < 0 || zi < 0 {
		return nil, fmt.Errorf("vertex element missing x/y/z properties")
	}

	// Color is adopted only when the canonical uchar triple is present.
	ri := header.colorIndex("red")
	gi := header.colorIndex("green")
	bi := header.colorIndex("blue")
	hasColor := ri >= 0 && gi >= 0 && bi >= 0

	points := make([]Point, 0, header.vertexCount)
	if header.format == plyASCII {
		points, err = readPLYAscii(in, header, points, xi, yi, zi, ri, gi, bi, hasColor)
	} else {
		points, err = readPLYBinary(in, header, points, xi, yi, zi, ri, gi, bi, hasColor)
	}
	if err != nil {
		return nil, err
	}

	return New(points, hasColor), nil
}

func parsePLYHeader(in *bufio.Reader) (*plyHeader, error) {
	magic, err := readPLYLine(in)
	if err != nil || magic != "ply" {
		return nil, fmt.Errorf("not a PLY stream")
	}

	h := &plyHeader{vertexCount: -1}
	inVertex := false
	for {
		line, err := readPLYLine(in)
		if err != nil {
			return nil, fmt.Errorf("truncated header: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "comment", "obj_info":
			// ignored
		case "format":
			if len(fields) < 3 || fields[2] != "1.0" {
				return nil, fmt.Errorf("unsupported PLY format line %q", line)
			}
			switch fields[1] {
			case "ascii":
				h.format = plyASCII
			case "binary_little_endian":
				h.format = plyBinaryLE
			case "binary_big_endian":
				h.format = plyBinaryBE
			default:
				return nil, fmt.Errorf("unsupported PLY encoding %q", fields[1])
			}
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed element line %q", line)
			}
			if fields[1] == "vertex" {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("bad vertex count %q", fields[2])
				}
				h.vertexCount = n
				inVertex = true
			} else {
				if h.vertexCount < 0 {
					// Vertex data must come first so it can be read
					// without decoding other elements.
					return nil, fmt.Errorf("element %q precedes vertices", fields[1])
				}
				inVertex = false
			}
		case "property":
			if !inVertex {
				continue
			}
			if len(fields) >= 2 && fields[1] == "list" {
				return nil, fmt.Errorf("list property on vertex element")
			}
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed property line %q", line)
			}
			size, ok := plyTypeSizes[fields[1]]
			if !ok {
				return nil, fmt.Errorf("unknown property type %q", fields[1])
			}
			h.props = append(h.props, plyProperty{name: fields[2], typ: fields[1], size: size})
			h.stride += size
		case "end_header":
			if h.vertexCount < 0 {
				return nil, fmt.Errorf("no vertex element declared")
			}
			return h, nil
		}
	}
}

func (h *plyHeader) propIndex(name string) int {
	for i, p := range h.props {
		if p.name == name {
			return i
		}
	}
	return -1
}

// colorIndex matches the uchar color convention emitted by COLMAP and
// OpenMVS; color stored in any other width is treated as absent.
func (h *plyHeader) colorIndex(name string) int {
	i := h.propIndex(name)
	if i < 0 || h.props[i].size != 1 {
		return -1
	}
	return i
}

func readPLYAscii(in *bufio.Reader, h *plyHeader, points []Point, xi, yi, zi, ri, gi, bi int, hasColor bool) ([]Point, error) {
	for n := 0; n < h.vertexCount; n++ {
		line, err := readPLYLine(in)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", n, err)
		}
		fields := strings.Fields(line)
		if len(fields) < len(h.props) {
			return nil, fmt.Errorf("vertex %d: %d fields, want %d", n, len(fields), len(h.props))
		}

		var pt Point
		x, err := strconv.ParseFloat(fields[xi], 32)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", n, err)
		}
		y, err := strconv.ParseFloat(fields[yi], 32)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", n, err)
		}
		z, err := strconv.ParseFloat(fields[zi], 32)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", n, err)
		}
		pt.Position = mgl32.Vec3{float32(x), float32(y), float32(z)}

		if hasColor {
			for k, idx := range [3]int{ri, gi, bi} {
				v, err := strconv.ParseUint(fields[idx], 10, 8)
				if err != nil {
					return nil, fmt.Errorf("vertex %d color: %w", n, err)
				}
				pt.Color[k] = uint8(v)
			}
		}
		points = append(points, pt)
	}
	return points, nil
}

func readPLYBinary(in *bufio.Reader, h *plyHeader, points []Point, xi, yi, zi, ri, gi, bi int, hasColor bool) ([]Point, error) {
	var order binary.ByteOrder = binary.LittleEndian
	if h.format == plyBinaryBE {
		order = binary.BigEndian
	}

	offsets := make([]int, len(h.props))
	off := 0
	for i, p := range h.props {
		offsets[i] = off
		off += p.size
	}

	buf := make([]byte, h.stride)
	for n := 0; n < h.vertexCount; n++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, fmt.Errorf("vertex %d: %w", n, err)
		}

		var pt Point
		for k, idx := range [3]int{xi, yi, zi} {
			v, err := decodePLYFloat(buf[offsets[idx]:], h.props[idx], order)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", n, err)
			}
			pt.Position[k] = v
		}
		if hasColor {
			pt.Color[0] = buf[offsets[ri]]
			pt.Color[1] = buf[offsets[gi]]
			pt.Color[2] = buf[offsets[bi]]
		}
		points = append(points, pt)
	}
	return points, nil
}

func decodePLYFloat(b []byte, p plyProperty, order binary.ByteOrder) (float32, error) {
	switch p.typ {
	case "float", "float32":
		return math.Float32frombits(order.Uint32(b)), nil
	case "double", "float64":
		return float32(math.Float64frombits(order.Uint64(b))), nil
	default:
		return 0, fmt.Errorf("coordinate property %s has non-float type %s", p.name, p.typ)
	}
}

// readPLYLine reads one header/ascii line, tolerating CRLF endings.
func readPLYLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
