package molview

import (
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// InstancedRendererModule draws every molecule entity as one instanced draw
// call: a shared unit-sphere mesh plus a per-atom buffer of transforms and
// colors. Instance sets are rebuilt only when the molecule asset version
// moves, so a static molecule costs one DrawIndexed per frame.
type InstancedRendererModule struct {
	ShaderPath string

	// FontPath enables the HUD text overlay when non-empty.
	FontPath          string
	OverlayShaderPath string
}

type atomInstanceAttr struct {
	model0 [4]float32 `molview:"layout" location:"2" format:"float4"`
	model1 [4]float32 `molview:"layout" location:"3" format:"float4"`
	model2 [4]float32 `molview:"layout" location:"4" format:"float4"`
	model3 [4]float32 `molview:"layout" location:"5" format:"float4"`
	color  [4]float32 `molview:"layout" location:"6" format:"float4"`
}

type atomCameraUniform struct {
	ViewProjMx mgl32.Mat4
}

type atomModelUniform struct {
	ModelMx mgl32.Mat4
}

type moleculeRenderEntry struct {
	instanceBuffer  *wgpu.Buffer
	instanceCount   uint32
	modelBuffer     *wgpu.Buffer
	bindGroup       *wgpu.BindGroup
	moleculeVersion uint
	synced          bool
}

type atomRenderState struct {
	pipeline  *wgpu.RenderPipeline
	depthView *wgpu.TextureView

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   uint32

	cameraBuffer  *wgpu.Buffer
	cameraUniform atomCameraUniform

	entries map[EntityId]*moleculeRenderEntry

	overlay *overlayRenderer
}

// ViewerStats is updated by the renderer each time an instance set is
// rebuilt. The overlay reads it to show what fraction of atoms survived
// subsampling.
type ViewerStats struct {
	MoleculeName  string
	TotalAtoms    int
	RenderedAtoms int
}

func (mod InstancedRendererModule) Install(app *App, cmd *Commands) {
	windowState := app.windowState()
	gpuState := createGpuState(windowState)

	shaderPath := mod.ShaderPath
	if shaderPath == "" {
		shaderPath = "shaders/atoms.wgsl"
	}
	shaderData, err := os.ReadFile(shaderPath)
	if err != nil {
		panic(err)
	}

	pipeline := createRenderPipeline("atoms", string(shaderData), sphereVertex{}, gpuState, atomInstanceAttr{})

	rState := &atomRenderState{
		pipeline:  pipeline,
		depthView: createDepthTexture(gpuState),
		entries:   map[EntityId]*moleculeRenderEntry{},
	}

	if mod.FontPath != "" {
		overlayShaderPath := mod.OverlayShaderPath
		if overlayShaderPath == "" {
			overlayShaderPath = "shaders/overlay.wgsl"
		}
		overlayShader, err := os.ReadFile(overlayShaderPath)
		if err != nil {
			panic(err)
		}
		overlay, err := createOverlayRenderer(mod.FontPath, string(overlayShader), gpuState)
		if err != nil {
			app.Logger().Warnf("overlay disabled: %v", err)
		} else {
			rState.overlay = overlay
			app.UseSystem(
				System(updateOverlay).
					InStage(PreRender).
					RunAlways(),
			)
		}
	}

	app.UseSystem(
		System(handleResize).
			InStage(PreRender).
			RunAlways(),
	)
	app.UseSystem(
		System(createSphereBuffers).
			InStage(PreRender).
			RunAlways(),
	)
	app.UseSystem(
		System(updateCameraUniform).
			InStage(PreRender).
			RunAlways(),
	)
	app.UseSystem(
		System(syncMoleculeInstances).
			InStage(PreRender).
			RunAlways(),
	)
	app.UseSystem(
		System(atomRendering).
			InStage(Render).
			RunAlways(),
	)

	cmd.AddResources(
		gpuState,
		rState,
		&ViewerStats{},
	)
}

// windowState returns the shared window resource, creating a default-sized
// one when no WindowModule ran first.
func (app *App) windowState() *WindowState {
	for _, res := range app.resources {
		if ws, ok := res.(*WindowState); ok {
			return ws
		}
	}
	ws := createWindowState(1280, 720, "molview")
	app.addResources(ws)
	return ws
}

// handleResize reconfigures the swapchain and depth texture after the
// framebuffer size changed.
func handleResize(windowState *WindowState, rs *atomRenderState, gpuState *GpuState) {
	if !windowState.resized {
		return
	}
	windowState.resized = false

	gpuState.surfaceConfig.Width = uint32(windowState.WindowWidth)
	gpuState.surfaceConfig.Height = uint32(windowState.WindowHeight)
	gpuState.surface.Configure(gpuState.adapter, gpuState.device, gpuState.surfaceConfig)

	if rs.depthView != nil {
		rs.depthView.Release()
	}
	rs.depthView = createDepthTexture(gpuState)
}

func createSphereBuffers(assets *AssetServer, rs *atomRenderState, gpuState *GpuState) {
	if rs.vertexBuffer != nil {
		return
	}
	mesh := assets.CreateSphereMesh(16, 24)
	meshAsset := assets.meshes[mesh.assetId]
	rs.vertexBuffer, rs.indexBuffer = createVertexIndexBuffers(meshAsset.vertices, meshAsset.indices, gpuState.device)
	rs.indexCount = uint32(len(meshAsset.indices))
}

func updateCameraUniform(cmd *Commands, windowState *WindowState, rs *atomRenderState) {
	MakeQuery1[CameraComponent](cmd).Map(
		func(entityId EntityId, camera *CameraComponent) bool {
			if windowState.WindowHeight > 0 {
				camera.Aspect = float32(windowState.WindowWidth) / float32(windowState.WindowHeight)
			}
			rs.cameraUniform.ViewProjMx = buildCameraMatrix(camera)
			return false
		},
	)
}

// syncMoleculeInstances keeps one GPU entry per molecule entity. An entry is
// (re)built when it is new or its molecule asset reloaded; the model matrix
// is rewritten every frame so spin stays cheap.
func syncMoleculeInstances(cmd *Commands, assets *AssetServer, rs *atomRenderState, gpuState *GpuState, stats *ViewerStats) {
	if rs.cameraBuffer == nil {
		rs.cameraBuffer = createBuffer("camera", rs.cameraUniform, gpuState, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	}

	seen := map[EntityId]bool{}
	MakeQuery2[TransformComponent, MoleculeComponent](cmd).Map(
		func(entityId EntityId, transform *TransformComponent, mol *MoleculeComponent) bool {
			seen[entityId] = true

			asset, ok := assets.Molecule(mol.Molecule)
			if !ok {
				return true
			}

			entry := rs.entries[entityId]
			if entry == nil {
				entry = &moleculeRenderEntry{}
				rs.entries[entityId] = entry
			}
			if !entry.synced || entry.moleculeVersion != asset.version {
				rebuildEntry(entry, asset, mol.Options, rs, gpuState, stats)
			}
			if entry.modelBuffer != nil {
				modelUniform := atomModelUniform{ModelMx: buildModelMatrix(transform)}
				if err := gpuState.queue.WriteBuffer(entry.modelBuffer, 0, toBufferBytes(modelUniform)); err != nil {
					panic(err)
				}
			}
			return true
		},
	)

	for entityId := range rs.entries {
		if !seen[entityId] {
			delete(rs.entries, entityId)
		}
	}

	if err := gpuState.queue.WriteBuffer(rs.cameraBuffer, 0, toBufferBytes(rs.cameraUniform)); err != nil {
		panic(err)
	}
}

func rebuildEntry(entry *moleculeRenderEntry, asset *MoleculeAsset, options InstanceOptions, rs *atomRenderState, gpuState *GpuState, stats *ViewerStats) {
	instances := BuildInstances(asset.molecule.Atoms, options)

	stats.MoleculeName = asset.molecule.Name
	stats.TotalAtoms = len(asset.molecule.Atoms)
	stats.RenderedAtoms = len(instances)

	entry.moleculeVersion = asset.version
	entry.synced = true
	entry.instanceCount = uint32(len(instances))
	if len(instances) == 0 {
		entry.instanceBuffer = nil
		return
	}

	attrs := make([]atomInstanceAttr, len(instances))
	for i, inst := range instances {
		attrs[i] = atomInstanceAttr{
			model0: [4]float32(inst.Transform.Col(0)),
			model1: [4]float32(inst.Transform.Col(1)),
			model2: [4]float32(inst.Transform.Col(2)),
			model3: [4]float32(inst.Transform.Col(3)),
			color:  [4]float32{inst.Color[0], inst.Color[1], inst.Color[2], 1},
		}
	}

	instanceBuffer, err := gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Atom Instances",
		Contents: wgpu.ToBytes(attrs),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}
	entry.instanceBuffer = instanceBuffer

	if entry.modelBuffer == nil {
		entry.modelBuffer = createBuffer("model", atomModelUniform{ModelMx: mgl32.Ident4()}, gpuState, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

		layout := rs.pipeline.GetBindGroupLayout(0)
		defer layout.Release()
		bindGroup, err := gpuState.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: rs.cameraBuffer, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: entry.modelBuffer, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			panic(err)
		}
		entry.bindGroup = bindGroup
	}
}

// renders a single frame
func atomRendering(rs *atomRenderState, gpuState *GpuState) {
	if rs.vertexBuffer == nil || len(rs.entries) == 0 {
		return
	}
	nextTexture, err := gpuState.surface.GetCurrentTexture()
	if err != nil {
		panic(err)
	}
	view, err := nextTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	defer view.Release()
	encoder, err := gpuState.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.02, G: 0.02, B: 0.04, A: 1.0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            rs.depthView,
			DepthClearValue: 1.0,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
		},
	})
	defer renderPass.Release()

	renderPass.SetPipeline(rs.pipeline)
	renderPass.SetIndexBuffer(rs.indexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	renderPass.SetVertexBuffer(0, rs.vertexBuffer, 0, wgpu.WholeSize)

	for _, entry := range rs.entries {
		if entry.instanceBuffer == nil || entry.instanceCount == 0 {
			continue
		}
		renderPass.SetVertexBuffer(1, entry.instanceBuffer, 0, wgpu.WholeSize)
		renderPass.SetBindGroup(0, entry.bindGroup, nil)
		renderPass.DrawIndexed(rs.indexCount, entry.instanceCount, 0, 0, 0)
	}

	if err := renderPass.End(); err != nil {
		panic(err)
	}

	overlayPass(rs.overlay, view, encoder)

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	defer cmdBuffer.Release()

	gpuState.queue.Submit(cmdBuffer)
	gpuState.surface.Present()
}
