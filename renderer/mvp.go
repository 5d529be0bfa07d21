package renderer

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
)

// defaultAngularVelocity spins the model a quarter turn per second.
const defaultAngularVelocity float32 = math.Pi / 2

// Push-constant wire layout: a 64-byte model matrix for the vertex stage
// immediately followed by a 4-byte opacity float for the fragment stage.
// This must stay byte-for-byte aligned with the pipeline layout's ranges.
const (
	ModelPushOffset   = 0
	ModelPushSize     = 64
	OpacityPushOffset = 64
	OpacityPushSize   = 4
)

// UniformPayload is the per-swapchain-image uniform buffer contents: view
// matrix then projection matrix, 128 bytes, refreshed every frame.
type UniformPayload struct {
	View mgl32.Mat4
	Proj mgl32.Mat4
}

// Transforms is the mutable model-view-projection state, advanced once per
// frame by elapsed wall-clock time.
type Transforms struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4

	// AngularVelocity is the model spin rate in radians per second.
	AngularVelocity float32
}

func NewTransforms(angularVelocity float32) Transforms {
	return Transforms{
		Model:           mgl32.Ident4(),
		View:            mgl32.Ident4(),
		Proj:            mgl32.Ident4(),
		AngularVelocity: angularVelocity,
	}
}

// AdvanceModel rotates the model about its Z axis by AngularVelocity·dt.
func (t *Transforms) AdvanceModel(dt float32) {
	t.Model = t.Model.Mul4(mgl32.HomogRotate3DZ(t.AngularVelocity * dt))
}

// SetLookAt positions and orients the camera.
func (t *Transforms) SetLookAt(eye, center, up mgl32.Vec3) {
	t.View = mgl32.LookAtV(eye, center, up)
}

// SetPerspective computes a right-handed perspective projection, then negates
// the Y scaling factor: the math library targets GL clip space, whose Y axis
// points the opposite way from Vulkan's.
func (t *Transforms) SetPerspective(fovy, aspect, near, far float32) {
	proj := mgl32.Perspective(fovy, aspect, near, far)
	proj[5] *= -1
	t.Proj = proj
}

// Uniforms returns the portion of the transforms sent through the uniform
// buffer. The model matrix travels separately, as a push constant.
func (t *Transforms) Uniforms() UniformPayload {
	return UniformPayload{
		View: t.View,
		Proj: t.Proj,
	}
}

// PushConstants is the per-draw payload: the instance's model matrix and its
// opacity.
type PushConstants struct {
	Model   mgl32.Mat4
	Opacity float32
}

// ModelBytes marshals the vertex-stage range of the push constants.
func (p *PushConstants) ModelBytes() []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, common.ByteOrder, p.Model)
	return buf.Bytes()
}

// OpacityBytes marshals the fragment-stage range of the push constants.
func (p *PushConstants) OpacityBytes() []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, common.ByteOrder, p.Opacity)
	return buf.Bytes()
}

// Bounds on how many model instances a frame may draw. The secondary
// command buffer table is sized for the maximum.
const (
	minModelInstances = 1
	maxModelInstances = 4
)

// clampModelCount forces a requested instance count into the drawable range.
func clampModelCount(count int) int {
	if count < minModelInstances {
		return minModelInstances
	}
	if count > maxModelInstances {
		return maxModelInstances
	}
	return count
}

// instanceTranslation places each model instance at a deterministic offset
// derived from its index: instances alternate across Y and step back in Z.
func instanceTranslation(instance int) mgl32.Vec3 {
	y := -1.25 + 2.5*float32(instance%2)
	z := 1.0 - 2.0*float32(instance/2)
	return mgl32.Vec3{0, y, z}
}

// instanceOpacity fades each successive instance in by a quarter step.
func instanceOpacity(instance int) float32 {
	return 0.25 * float32(instance+1)
}

// instancePushConstants combines the shared spin with the instance's
// placement and opacity.
func instancePushConstants(model mgl32.Mat4, instance int) PushConstants {
	offset := instanceTranslation(instance)
	return PushConstants{
		Model:   mgl32.Translate3D(offset.X(), offset.Y(), offset.Z()).Mul4(model),
		Opacity: instanceOpacity(instance),
	}
}
