package renderer

import (
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

const testMTL = `newmtl quad
Kd 1.0 1.0 1.0
`

const testOBJ = `mtllib quad.mtl
o quad
v -1.0 -1.0 0.0
v 1.0 -1.0 0.0
v 1.0 1.0 0.0
v -1.0 1.0 0.0
vt 0.0 0.0
vt 1.0 0.0
vt 1.0 1.0
vt 0.0 1.0
usemtl quad
f 1/1 2/2 3/3 4/4
`

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"meshes/quad.obj": {Data: []byte(testOBJ)},
		"meshes/quad.mtl": {Data: []byte(testMTL)},
	}
}

func TestMeshBuilderDeduplicates(t *testing.T) {
	builder := newMeshBuilder()

	a := Vertex{Position: mgl32.Vec3{0, 0, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{0, 0}}
	b := Vertex{Position: mgl32.Vec3{1, 0, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{1, 0}}

	builder.addVertex(a)
	builder.addVertex(b)
	builder.addVertex(a)

	require.Len(t, builder.vertices, 2)
	require.Equal(t, []uint32{0, 1, 0}, builder.indices)
}

func TestMeshBuilderDistinguishesAttributes(t *testing.T) {
	builder := newMeshBuilder()

	// Same position, different texture coordinate: two distinct vertices.
	builder.addVertex(Vertex{Position: mgl32.Vec3{0, 0, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{0, 0}})
	builder.addVertex(Vertex{Position: mgl32.Vec3{0, 0, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{1, 0}})

	require.Len(t, builder.vertices, 2)
}

func TestDecodeMeshTriangulatesQuad(t *testing.T) {
	mesh, err := decodeMesh(testAssets(), "meshes/quad.obj", "meshes/quad.mtl")
	require.NoError(t, err)

	// A quad fans into two triangles sharing two vertices.
	require.Len(t, mesh.Indices, 6)
	require.Len(t, mesh.Vertices, 4)

	require.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)
}

func TestDecodeMeshFlipsV(t *testing.T) {
	mesh, err := decodeMesh(testAssets(), "meshes/quad.obj", "meshes/quad.mtl")
	require.NoError(t, err)

	// The OBJ's vt origin is bottom-left; the texture's is top-left.
	first := mesh.Vertices[0]
	require.InDelta(t, 0.0, first.TexCoord.X(), 1e-6)
	require.InDelta(t, 1.0, first.TexCoord.Y(), 1e-6)
}

func TestDecodeMeshVertexColorIsWhite(t *testing.T) {
	mesh, err := decodeMesh(testAssets(), "meshes/quad.obj", "meshes/quad.mtl")
	require.NoError(t, err)

	for _, vert := range mesh.Vertices {
		require.Equal(t, mgl32.Vec3{1, 1, 1}, vert.Color)
	}
}

func TestDecodeMeshMissingFile(t *testing.T) {
	_, err := decodeMesh(testAssets(), "meshes/missing.obj", "meshes/quad.mtl")
	require.Error(t, err)
}

func TestDecodeMeshRejectsFaceWithoutTexCoords(t *testing.T) {
	assets := testAssets()
	assets["meshes/untextured.obj"] = &fstest.MapFile{Data: []byte(`mtllib quad.mtl
o tri
v -1.0 -1.0 0.0
v 1.0 -1.0 0.0
v 1.0 1.0 0.0
usemtl quad
f 1 2 3
`)}

	_, err := decodeMesh(assets, "meshes/untextured.obj", "meshes/quad.mtl")
	require.Error(t, err)
	require.Contains(t, err.Error(), "texture coordinates")
}
