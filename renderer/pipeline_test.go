package renderer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestColorBlendAttachmentUsesAlphaBlending(t *testing.T) {
	att := colorBlendAttachment()

	require.True(t, att.BlendEnabled)
	require.Equal(t, core1_0.BlendFactorSrcAlpha, att.SrcColorBlendFactor)
	require.Equal(t, core1_0.BlendFactorOneMinusSrcAlpha, att.DstColorBlendFactor)
	require.Equal(t, core1_0.BlendOpAdd, att.ColorBlendOp)

	require.Equal(t, core1_0.BlendFactorOne, att.SrcAlphaBlendFactor)
	require.Equal(t, core1_0.BlendFactorZero, att.DstAlphaBlendFactor)
	require.Equal(t, core1_0.BlendOpAdd, att.AlphaBlendOp)

	mask := core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha
	require.Equal(t, mask, att.ColorWriteMask)
}

func TestPushConstantRangesCoverBothStages(t *testing.T) {
	ranges := pushConstantRanges()
	require.Len(t, ranges, 2)

	require.Equal(t, core1_0.StageVertex, ranges[0].StageFlags)
	require.Equal(t, ModelPushOffset, ranges[0].Offset)
	require.Equal(t, ModelPushSize, ranges[0].Size)

	require.Equal(t, core1_0.StageFragment, ranges[1].StageFlags)
	require.Equal(t, OpacityPushOffset, ranges[1].Offset)
	require.Equal(t, OpacityPushSize, ranges[1].Size)
}

func TestBytesToBytecodeLittleEndianWords(t *testing.T) {
	words := bytesToBytecode([]byte{
		0x03, 0x02, 0x23, 0x07,
		0x00, 0x00, 0x01, 0x00,
	})
	require.Equal(t, []uint32{0x07230203, 0x00010000}, words)
}
