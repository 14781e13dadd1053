package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OBJ codec errors.
var (
	ErrOBJBadVertex = errors.New("malformed OBJ vertex line")
	ErrOBJBadFace   = errors.New("malformed OBJ face line")
)

// DecodeOBJ parses a Wavefront OBJ stream into a Mesh. Only the
// elements the interchange contract needs are handled: positions,
// normals, one texture-coordinate layer, faces, and usemtl markers
// (recorded as materials). Unknown directives are ignored.
func DecodeOBJ(r io.Reader, name string) (*Mesh, error) {
	m := &Mesh{Name: name}

	var normalPool [][3]float32
	var uvPool [][2]float32
	normalOf := map[int]int{} // position index -> normal pool index
	uvOf := map[int]int{}     // position index -> uv pool index
	hasUV := false

	lineNo := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		ident, val := fields[0], fields[1:]
		switch ident {
		case "v", "vn":
			if len(val) < 3 {
				return nil, fmt.Errorf("line %d: %w", lineNo, ErrOBJBadVertex)
			}
			var p [3]float32
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(val[i], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: %q: %w", lineNo, val[i], ErrOBJBadVertex)
				}
				p[i] = float32(f)
			}
			if ident == "v" {
				m.Positions = append(m.Positions, p)
			} else {
				normalPool = append(normalPool, p)
			}
		case "vt":
			if len(val) < 2 {
				return nil, fmt.Errorf("line %d: %w", lineNo, ErrOBJBadVertex)
			}
			s, err := strconv.ParseFloat(val[0], 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %q: %w", lineNo, val[0], ErrOBJBadVertex)
			}
			t, err := strconv.ParseFloat(val[1], 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %q: %w", lineNo, val[1], ErrOBJBadVertex)
			}
			uvPool = append(uvPool, [2]float32{float32(s), float32(t)})
		case "usemtl":
			matName := "material"
			if len(val) > 0 {
				matName = val[0]
			}
			m.Materials = append(m.Materials, Material{Name: matName})
		case "f":
			if len(val) < 3 {
				return nil, fmt.Errorf("line %d: %w", lineNo, ErrOBJBadFace)
			}
			face := make(Face, 0, len(val))
			for _, tok := range val {
				idx := strings.Split(tok, "/")
				// Indices in the file start at 1.
				pos, err := strconv.Atoi(idx[0])
				if err != nil {
					return nil, fmt.Errorf("line %d: %q: %w", lineNo, tok, ErrOBJBadFace)
				}
				if pos < 0 {
					pos = len(m.Positions) + pos + 1
				}
				if pos < 1 || pos > len(m.Positions) {
					return nil, fmt.Errorf("line %d: index %d: %w", lineNo, pos, ErrFaceIndexOutOfRange)
				}
				pi := pos - 1
				face = append(face, pi)

				if len(idx) > 1 && idx[1] != "" {
					if t, err := strconv.Atoi(idx[1]); err == nil && t >= 1 && t <= len(uvPool) {
						uvOf[pi] = t - 1
						hasUV = true
					}
				}
				if len(idx) > 2 && idx[2] != "" {
					if n, err := strconv.Atoi(idx[2]); err == nil && n >= 1 && n <= len(normalPool) {
						normalOf[pi] = n - 1
					}
				}
			}
			m.Faces = append(m.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	// Rebuild per-vertex streams parallel to Positions.
	if len(normalOf) > 0 {
		m.Normals = make([][3]float32, len(m.Positions))
		for pi, ni := range normalOf {
			m.Normals[pi] = normalPool[ni]
		}
	}
	if hasUV {
		coords := make([][2]float32, len(m.Positions))
		for pi, ti := range uvOf {
			coords[pi] = uvPool[ti]
		}
		m.UVLayers = []UVLayer{{Name: "UVMap", Coords: coords}}
	}
	return m, nil
}

// EncodeOBJ writes the mesh as Wavefront OBJ. Positions, normals, the
// primary UV layer, and faces are emitted; that is all the external
// remesher consumes.
func EncodeOBJ(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "o %s\n", objName(m.Name))
	for _, p := range m.Positions {
		fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
	}
	hasUV := len(m.UVLayers) > 0 && len(m.UVLayers[0].Coords) == len(m.Positions)
	if hasUV {
		for _, t := range m.UVLayers[0].Coords {
			fmt.Fprintf(bw, "vt %g %g\n", t[0], t[1])
		}
	}
	hasNormals := len(m.Normals) == len(m.Positions) && len(m.Normals) > 0
	if hasNormals {
		for _, n := range m.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
		}
	}
	for _, f := range m.Faces {
		bw.WriteString("f")
		for _, v := range f {
			switch {
			case hasUV && hasNormals:
				fmt.Fprintf(bw, " %d/%d/%d", v+1, v+1, v+1)
			case hasNormals:
				fmt.Fprintf(bw, " %d//%d", v+1, v+1)
			case hasUV:
				fmt.Fprintf(bw, " %d/%d", v+1, v+1)
			default:
				fmt.Fprintf(bw, " %d", v+1)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadOBJFile loads an OBJ file into a Mesh named after the file.
func ReadOBJFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := DecodeOBJ(f, base)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// WriteOBJFile writes a Mesh to an OBJ file.
func WriteOBJFile(path string, m *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := EncodeOBJ(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func objName(name string) string {
	if name == "" {
		return "untitled"
	}
	return strings.ReplaceAll(name, " ", "_")
}
