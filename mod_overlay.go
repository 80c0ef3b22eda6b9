package molview

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// overlayRenderer draws the HUD text (molecule name plus rendered/total atom
// counts) in a second render pass over the finished frame.
type overlayRenderer struct {
	atlas    *textAtlas
	pipeline *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup

	vertexBuffer *wgpu.Buffer
	vertexCount  uint32
	lastText     string
}

func createOverlayRenderer(fontPath string, shaderListing string, gpuState *GpuState) (*overlayRenderer, error) {
	atlas, err := newTextAtlas(fontPath, 18)
	if err != nil {
		return nil, err
	}

	shader, err := gpuState.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "overlay",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderListing},
	})
	if err != nil {
		return nil, err
	}
	defer shader.Release()

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				createVertexBufferLayout(overlayVertex{}, wgpu.VertexStepModeVertex),
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format: gpuState.surfaceConfig.Format,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOne,
							Operation: wgpu.BlendOperationAdd,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, err
	}

	textureView := createAtlasTexture(atlas, gpuState)
	sampler, err := gpuState.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0.,
		LodMaxClamp:   1.,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}

	layout := pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	bindGroup, err := gpuState.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: textureView},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		return nil, err
	}

	return &overlayRenderer{
		atlas:     atlas,
		pipeline:  pipeline,
		bindGroup: bindGroup,
	}, nil
}

func createAtlasTexture(atlas *textAtlas, gpuState *GpuState) *wgpu.TextureView {
	extent := wgpu.Extent3D{
		Width:              atlasSize,
		Height:             atlasSize,
		DepthOrArrayLayers: 1,
	}
	texture, err := gpuState.device.CreateTexture(&wgpu.TextureDescriptor{
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	defer texture.Release()

	view, err := texture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	err = gpuState.queue.WriteTexture(
		texture.AsImageCopy(),
		atlas.image.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  atlasSize,
			RowsPerImage: atlasSize,
		},
		&extent,
	)
	if err != nil {
		panic(err)
	}
	return view
}

// updateOverlay rebuilds the text quads when the stats line changes. The
// vertex buffer is recreated rather than resized since HUD text is tiny.
func updateOverlay(rs *atomRenderState, stats *ViewerStats, windowState *WindowState, gpuState *GpuState) {
	ov := rs.overlay
	if ov == nil {
		return
	}

	text := fmt.Sprintf("%s\n%d / %d atoms", stats.MoleculeName, stats.RenderedAtoms, stats.TotalAtoms)
	if text == ov.lastText {
		return
	}
	ov.lastText = text

	vertices := ov.atlas.buildVertices(
		text, 12, 12, 1,
		[4]float32{1, 1, 1, 0.9},
		windowState.WindowWidth, windowState.WindowHeight,
	)
	ov.vertexCount = uint32(len(vertices))
	if len(vertices) == 0 {
		ov.vertexBuffer = nil
		return
	}

	buffer, err := gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Overlay Text",
		Contents: wgpu.ToBytes(vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}
	ov.vertexBuffer = buffer
}

// overlayPass draws the HUD over the already rendered frame.
func overlayPass(ov *overlayRenderer, view *wgpu.TextureView, encoder *wgpu.CommandEncoder) {
	if ov == nil || ov.vertexBuffer == nil || ov.vertexCount == 0 {
		return
	}

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    view,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	defer renderPass.Release()

	renderPass.SetPipeline(ov.pipeline)
	renderPass.SetVertexBuffer(0, ov.vertexBuffer, 0, wgpu.WholeSize)
	renderPass.SetBindGroup(0, ov.bindGroup, nil)
	renderPass.Draw(ov.vertexCount, 1, 0, 0)

	if err := renderPass.End(); err != nil {
		panic(err)
	}
}
