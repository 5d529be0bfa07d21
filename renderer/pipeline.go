package renderer

import (
	"io/fs"

	"github.com/vkngwrapper/core/v3/core1_0"
)

// Pipeline bundles the descriptor set layout, pipeline layout, and graphics
// pipeline. It is extent-dependent and rebuilt with the swapchain.
type Pipeline struct {
	DescriptorSetLayout core1_0.DescriptorSetLayout
	Layout              core1_0.PipelineLayout
	Handle              core1_0.Pipeline
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

func createShaderModule(ctx *Context, assets fs.FS, path string) (core1_0.ShaderModule, error) {
	shaderBytes, err := fs.ReadFile(assets, path)
	if err != nil {
		return core1_0.ShaderModule{}, err
	}

	module, _, err := ctx.DeviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(shaderBytes),
	})
	return module, err
}

func createDescriptorSetLayout(ctx *Context) (core1_0.DescriptorSetLayout, error) {
	layout, _, err := ctx.DeviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,

				StageFlags: core1_0.StageVertex,
			},
			{
				Binding:         1,
				DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,

				StageFlags: core1_0.StageFragment,
			},
		},
	})
	return layout, err
}

// pushConstantRanges describes the two-stage push constant block: the model
// matrix for the vertex stage followed by the opacity scalar for the
// fragment stage.
func pushConstantRanges() []core1_0.PushConstantRange {
	return []core1_0.PushConstantRange{
		{
			StageFlags: core1_0.StageVertex,
			Offset:     ModelPushOffset,
			Size:       ModelPushSize,
		},
		{
			StageFlags: core1_0.StageFragment,
			Offset:     OpacityPushOffset,
			Size:       OpacityPushSize,
		},
	}
}

// colorBlendAttachment enables standard alpha blending on the color
// attachment so the per-instance opacity pushed to the fragment stage shows
// up in the composited image.
func colorBlendAttachment() core1_0.PipelineColorBlendAttachmentState {
	return core1_0.PipelineColorBlendAttachmentState{
		BlendEnabled: true,

		SrcColorBlendFactor: core1_0.BlendFactorSrcAlpha,
		DstColorBlendFactor: core1_0.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        core1_0.BlendOpAdd,

		SrcAlphaBlendFactor: core1_0.BlendFactorOne,
		DstAlphaBlendFactor: core1_0.BlendFactorZero,
		AlphaBlendOp:        core1_0.BlendOpAdd,

		ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
	}
}

func createPipeline(ctx *Context, cfg Config, renderPass core1_0.RenderPass, extent core1_0.Extent2D) (*Pipeline, error) {
	vertShader, err := createShaderModule(ctx, cfg.Assets, cfg.VertexShaderPath)
	if err != nil {
		return nil, err
	}
	defer ctx.DeviceDriver.DestroyShaderModule(vertShader, nil)

	fragShader, err := createShaderModule(ctx, cfg.Assets, cfg.FragmentShaderPath)
	if err != nil {
		return nil, err
	}
	defer ctx.DeviceDriver.DestroyShaderModule(fragShader, nil)

	pipeline := &Pipeline{}

	pipeline.DescriptorSetLayout, err = createDescriptorSetLayout(ctx)
	if err != nil {
		return pipeline, err
	}

	pipeline.Layout, _, err = ctx.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{
			pipeline.DescriptorSetLayout,
		},
		PushConstantRanges: pushConstantRanges(),
	})
	if err != nil {
		return pipeline, err
	}

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   getVertexBindingDescription(),
		VertexAttributeDescriptions: getVertexAttributeDescriptions(),
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent,
			},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceCounterClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: ctx.MsaaSamples,
		MinSampleShading:     1.0,
	}

	depthStencil := &core1_0.PipelineDepthStencilStateCreateInfo{
		DepthTestEnable:  true,
		DepthWriteEnable: true,
		DepthCompareOp:   core1_0.CompareOpLess,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			colorBlendAttachment(),
		},
	}

	pipelines, _, err := ctx.DeviceDriver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			DepthStencilState:  depthStencil,
			ColorBlendState:    colorBlend,
			Layout:             pipeline.Layout,
			RenderPass:         renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	)
	if err != nil {
		return pipeline, err
	}
	pipeline.Handle = pipelines[0]

	return pipeline, nil
}

func (p *Pipeline) Destroy(ctx *Context) {
	if p.Handle.Initialized() {
		ctx.DeviceDriver.DestroyPipeline(p.Handle, nil)
		p.Handle = core1_0.Pipeline{}
	}
	if p.Layout.Initialized() {
		ctx.DeviceDriver.DestroyPipelineLayout(p.Layout, nil)
		p.Layout = core1_0.PipelineLayout{}
	}
	if p.DescriptorSetLayout.Initialized() {
		ctx.DeviceDriver.DestroyDescriptorSetLayout(p.DescriptorSetLayout, nil)
		p.DescriptorSetLayout = core1_0.DescriptorSetLayout{}
	}
}
