package renderer

import (
	"encoding/binary"
	"io/fs"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Vertex layout shared between the vertex buffer and the pipeline's vertex
// input state.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

func getVertexBindingDescription() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func getVertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.TexCoord)),
		},
	}
}

// Mesh is a flattened vertex list plus a triangle index list, deduplicated by
// exact attribute match, with its device-local GPU buffers.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32

	vertexBuffer       core1_0.Buffer
	vertexBufferMemory core1_0.DeviceMemory
	indexBuffer        core1_0.Buffer
	indexBufferMemory  core1_0.DeviceMemory
}

// meshBuilder deduplicates vertices as faces are appended. Two indices
// referencing bit-identical position/color/texcoord tuples share one
// vertex-buffer entry.
type meshBuilder struct {
	vertices []Vertex
	indices  []uint32
	unique   map[Vertex]uint32
}

func newMeshBuilder() *meshBuilder {
	return &meshBuilder{unique: make(map[Vertex]uint32)}
}

func (b *meshBuilder) addVertex(vert Vertex) {
	index, exists := b.unique[vert]
	if !exists {
		index = uint32(len(b.vertices))
		b.vertices = append(b.vertices, vert)
		b.unique[vert] = index
	}

	b.indices = append(b.indices, index)
}

func faceVertex(decoder *obj.Decoder, face obj.Face, faceIndex int) (Vertex, error) {
	vertInd := face.Vertices[faceIndex]
	vert := Vertex{
		Position: mgl32.Vec3{
			decoder.Vertices[vertInd*3],
			decoder.Vertices[vertInd*3+1],
			decoder.Vertices[vertInd*3+2],
		},
		Color: mgl32.Vec3{1, 1, 1},
	}

	// Corners without a vt reference carry an out-of-range sentinel index.
	uvInd := face.Uvs[faceIndex]
	if uvInd < 0 || uvInd >= len(decoder.Uvs)/2 {
		return vert, errors.Errorf("mesh face references vertex %d without texture coordinates", vertInd)
	}
	vert.TexCoord = mgl32.Vec2{
		decoder.Uvs[uvInd*2],
		1.0 - decoder.Uvs[uvInd*2+1],
	}

	return vert, nil
}

// decodeMesh parses an OBJ/MTL pair, triangulating faces fan-wise.
func decodeMesh(assets fs.FS, meshPath, materialPath string) (*Mesh, error) {
	meshFile, err := assets.Open(meshPath)
	if err != nil {
		return nil, err
	}
	defer meshFile.Close()

	matFile, err := assets.Open(materialPath)
	if err != nil {
		return nil, err
	}
	defer matFile.Close()

	decoder, err := obj.DecodeReader(meshFile, matFile)
	if err != nil {
		return nil, err
	}

	builder := newMeshBuilder()

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range [3]int{0, i - 1, i} {
					vert, err := faceVertex(decoder, face, corner)
					if err != nil {
						return nil, err
					}
					builder.addVertex(vert)
				}
			}
		}
	}

	return &Mesh{
		Vertices: builder.vertices,
		Indices:  builder.indices,
	}, nil
}

// loadMesh decodes the model and uploads it into device-local vertex and
// index buffers via staging allocations.
func loadMesh(ctx *Context, transient *TransientExecutor, assets fs.FS, meshPath, materialPath string) (*Mesh, error) {
	mesh, err := decodeMesh(assets, meshPath, materialPath)
	if err != nil {
		return nil, err
	}

	mesh.vertexBuffer, mesh.vertexBufferMemory, err = uploadDeviceLocal(ctx, transient, mesh.Vertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return mesh, err
	}

	mesh.indexBuffer, mesh.indexBufferMemory, err = uploadDeviceLocal(ctx, transient, mesh.Indices, core1_0.BufferUsageIndexBuffer)
	return mesh, err
}

// uploadDeviceLocal writes data into a temporary host-visible staging buffer,
// copies it into a fresh device-local buffer, and frees the staging
// allocation immediately.
func uploadDeviceLocal(ctx *Context, transient *TransientExecutor, data any, usage core1_0.BufferUsageFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	bufferSize := binary.Size(data)

	stagingBuffer, stagingMemory, err := createBuffer(ctx, bufferSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if stagingBuffer.Initialized() {
		defer ctx.DeviceDriver.DestroyBuffer(stagingBuffer, nil)
	}
	if stagingMemory.Initialized() {
		defer ctx.DeviceDriver.FreeMemory(stagingMemory, nil)
	}
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	err = writeMapped(ctx.DeviceDriver, stagingMemory, 0, data)
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	buffer, memory, err := createBuffer(ctx, bufferSize, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return buffer, memory, err
	}

	err = transient.Run(ctx, func(cb core1_0.CommandBuffer) error {
		return ctx.DeviceDriver.CmdCopyBuffer(cb, stagingBuffer, buffer,
			core1_0.BufferCopy{
				SrcOffset: 0,
				DstOffset: 0,
				Size:      bufferSize,
			},
		)
	})
	return buffer, memory, err
}

func (m *Mesh) Destroy(ctx *Context) {
	if m.indexBuffer.Initialized() {
		ctx.DeviceDriver.DestroyBuffer(m.indexBuffer, nil)
		m.indexBuffer = core1_0.Buffer{}
	}
	if m.indexBufferMemory.Initialized() {
		ctx.DeviceDriver.FreeMemory(m.indexBufferMemory, nil)
		m.indexBufferMemory = core1_0.DeviceMemory{}
	}
	if m.vertexBuffer.Initialized() {
		ctx.DeviceDriver.DestroyBuffer(m.vertexBuffer, nil)
		m.vertexBuffer = core1_0.Buffer{}
	}
	if m.vertexBufferMemory.Initialized() {
		ctx.DeviceDriver.FreeMemory(m.vertexBufferMemory, nil)
		m.vertexBufferMemory = core1_0.DeviceMemory{}
	}
}
