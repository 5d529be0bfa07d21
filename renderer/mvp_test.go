package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestPushConstantLayout(t *testing.T) {
	push := PushConstants{
		Model:   mgl32.Ident4(),
		Opacity: 0.5,
	}

	modelBytes := push.ModelBytes()
	require.Len(t, modelBytes, ModelPushSize)

	opacityBytes := push.OpacityBytes()
	require.Len(t, opacityBytes, OpacityPushSize)

	require.Equal(t, ModelPushOffset+ModelPushSize, OpacityPushOffset)
}

func TestSetPerspectiveFlipsY(t *testing.T) {
	for _, fovy := range []float32{mgl32.DegToRad(30), mgl32.DegToRad(45), mgl32.DegToRad(90)} {
		for _, aspect := range []float32{4.0 / 3.0, 16.0 / 9.0, 1.0} {
			transforms := NewTransforms(defaultAngularVelocity)
			transforms.SetPerspective(fovy, aspect, 0.1, 10)

			raw := mgl32.Perspective(fovy, aspect, 0.1, 10)

			require.InDelta(t, -raw[5], transforms.Proj[5], 1e-6)

			// Every other entry is untouched.
			for i := 0; i < 16; i++ {
				if i == 5 {
					continue
				}
				require.InDelta(t, raw[i], transforms.Proj[i], 1e-6)
			}
		}
	}
}

func TestAdvanceModelAccumulates(t *testing.T) {
	a := NewTransforms(defaultAngularVelocity)
	a.AdvanceModel(0.25)
	a.AdvanceModel(0.25)

	b := NewTransforms(defaultAngularVelocity)
	b.AdvanceModel(0.5)

	for i := 0; i < 16; i++ {
		require.InDelta(t, b.Model[i], a.Model[i], 1e-5)
	}
}

func TestAdvanceModelZeroDtIsIdentityStep(t *testing.T) {
	transforms := NewTransforms(defaultAngularVelocity)
	before := transforms.Model
	transforms.AdvanceModel(0)

	for i := 0; i < 16; i++ {
		require.InDelta(t, before[i], transforms.Model[i], 1e-6)
	}
}

func TestUniformsExcludeModel(t *testing.T) {
	transforms := NewTransforms(defaultAngularVelocity)
	transforms.SetLookAt(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1})
	transforms.SetPerspective(mgl32.DegToRad(45), 1, 0.1, 10)
	transforms.AdvanceModel(1)

	uniforms := transforms.Uniforms()
	require.Equal(t, transforms.View, uniforms.View)
	require.Equal(t, transforms.Proj, uniforms.Proj)
}

func TestInstancePlacement(t *testing.T) {
	cases := []struct {
		instance int
		y, z     float32
		opacity  float32
	}{
		{instance: 0, y: -1.25, z: 1.0, opacity: 0.25},
		{instance: 1, y: 1.25, z: 1.0, opacity: 0.5},
		{instance: 2, y: -1.25, z: -1.0, opacity: 0.75},
		{instance: 3, y: 1.25, z: -1.0, opacity: 1.0},
	}

	for _, tc := range cases {
		offset := instanceTranslation(tc.instance)
		require.InDelta(t, 0, offset.X(), 1e-6)
		require.InDelta(t, tc.y, offset.Y(), 1e-6)
		require.InDelta(t, tc.z, offset.Z(), 1e-6)
		require.InDelta(t, tc.opacity, instanceOpacity(tc.instance), 1e-6)
	}
}

func TestInstancePushConstantsTranslateSharedSpin(t *testing.T) {
	model := mgl32.HomogRotate3DZ(mgl32.DegToRad(90))

	push := instancePushConstants(model, 2)

	// The translation applies after the spin: the instance's offset lands in
	// the matrix's fourth column untouched by the rotation.
	offset := instanceTranslation(2)
	require.InDelta(t, offset.X(), push.Model.At(0, 3), 1e-6)
	require.InDelta(t, offset.Y(), push.Model.At(1, 3), 1e-6)
	require.InDelta(t, offset.Z(), push.Model.At(2, 3), 1e-6)
	require.InDelta(t, instanceOpacity(2), push.Opacity, 1e-6)
}

func TestClampModelCount(t *testing.T) {
	require.Equal(t, minModelInstances, clampModelCount(-3))
	require.Equal(t, minModelInstances, clampModelCount(0))
	require.Equal(t, 2, clampModelCount(2))
	require.Equal(t, maxModelInstances, clampModelCount(4))
	require.Equal(t, maxModelInstances, clampModelCount(99))
}
