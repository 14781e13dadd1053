// Package export emits game-ready GLB files from approved LOD results.
// Geometry and texture compression are the concern of a later packing
// stage and are not applied here.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/pipeline"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// GLB writes one binary glTF file per LOD and, optionally, a combined
// file holding every level of a model.
type GLB struct {
	dir      string
	combined bool
}

// NewGLB creates an exporter writing into dir.
func NewGLB(dir string, combined bool) *GLB {
	return &GLB{dir: dir, combined: combined}
}

// Export writes the approved LOD set for one model.
func (g *GLB) Export(model string, lods []pipeline.LODResult) error {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", g.dir, err)
	}

	for _, lod := range lods {
		path := filepath.Join(g.dir, fmt.Sprintf("%s_%s.glb", model, lod.Label))
		doc := gltf.NewDocument()
		doc.Asset.Generator = "meshforge"
		if err := appendMeshNode(doc, fmt.Sprintf("%s_%s", model, lod.Label), lod.Mesh); err != nil {
			return fmt.Errorf("%s %s: %w", model, lod.Label, err)
		}
		if err := gltf.SaveBinary(doc, path); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		logger.Info("exported", zap.String("file", path), zap.Int("faces", lod.FaceCount))
	}

	if g.combined && len(lods) > 0 {
		path := filepath.Join(g.dir, fmt.Sprintf("%s_all_lods.glb", model))
		doc := gltf.NewDocument()
		doc.Asset.Generator = "meshforge"
		for _, lod := range lods {
			if err := appendMeshNode(doc, fmt.Sprintf("%s_%s", model, lod.Label), lod.Mesh); err != nil {
				return fmt.Errorf("%s %s: %w", model, lod.Label, err)
			}
		}
		if err := gltf.SaveBinary(doc, path); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		logger.Info("exported", zap.String("file", path))
	}
	return nil
}

// appendMeshNode triangulates the mesh and adds it to the document as
// one node with a single primitive.
func appendMeshNode(doc *gltf.Document, name string, m *mesh.Mesh) error {
	tri := m.Triangulate()
	if len(tri.Positions) == 0 || len(tri.Faces) == 0 {
		return fmt.Errorf("mesh %q has no geometry to export", name)
	}

	positions := make([][3]float32, len(tri.Positions))
	copy(positions, tri.Positions)

	indices := make([]uint32, 0, len(tri.Faces)*3)
	for _, f := range tri.Faces {
		indices = append(indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}

	posAccessor := modeler.WritePosition(doc, positions)
	indicesAccessor := modeler.WriteIndices(doc, indices)

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: uint32(posAccessor),
		},
		Indices: gltf.Index(uint32(indicesAccessor)),
	}

	if len(tri.Normals) == len(tri.Positions) && len(tri.Normals) > 0 {
		normals := make([][3]float32, len(tri.Normals))
		copy(normals, tri.Normals)
		prim.Attributes[gltf.NORMAL] = uint32(modeler.WriteNormal(doc, normals))
	}
	if len(tri.UVLayers) > 0 && len(tri.UVLayers[0].Coords) == len(tri.Positions) {
		coords := make([][2]float32, len(tri.UVLayers[0].Coords))
		copy(coords, tri.UVLayers[0].Coords)
		prim.Attributes[gltf.TEXCOORD_0] = uint32(modeler.WriteTextureCoord(doc, coords))
	}
	if len(tri.ColorLayers) > 0 && len(tri.ColorLayers[0].Colors) == len(tri.Positions) {
		colors := make([][4]float32, len(tri.ColorLayers[0].Colors))
		copy(colors, tri.ColorLayers[0].Colors)
		prim.Attributes[gltf.COLOR_0] = uint32(modeler.WriteColor(doc, colors))
	}

	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float32{1, 1, 1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:                 name,
		PBRMetallicRoughness: pbr,
		AlphaMode:            gltf.AlphaOpaque,
	})
	prim.Material = gltf.Index(uint32(len(doc.Materials) - 1))

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: name,
		Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	return nil
}
