package renderer

import (
	"log"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	// uniformAlignment is the dynamic offset alignment of the uniform ring
	// (minUniformBufferOffsetAlignment in the default limits).
	uniformAlignment = 256

	// maxTextureUnits bounds the texture units a program may declare.
	maxTextureUnits = 16

	screenDepthFormat = wgpu.TextureFormatDepth24Plus
	shadowDepthFormat = wgpu.TextureFormatDepth32Float
)

// targetKind selects the attachment formats a pipeline is built for.
type targetKind int

const (
	targetScreen targetKind = iota
	targetShadow
)

type pipelineKey struct {
	kind      targetKind
	depthTest bool
}

type wgpuProgram struct {
	layout         shader.Program
	block          *uniformBlock
	blockSize      uint64
	module         *wgpu.ShaderModule
	uniformLayout  *wgpu.BindGroupLayout
	textureLayout  *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	uniformGroup   *wgpu.BindGroup
	pipelines      map[pipelineKey]*wgpu.RenderPipeline
}

func (p *wgpuProgram) Name() string           { return p.layout.Name() }
func (p *wgpuProgram) Layout() shader.Program { return p.layout }

func (p *wgpuProgram) release() {
	for _, rp := range p.pipelines {
		rp.Release()
	}
	p.pipelines = nil
	if p.uniformGroup != nil {
		p.uniformGroup.Release()
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
	}
	if p.textureLayout != nil {
		p.textureLayout.Release()
	}
	p.uniformLayout.Release()
	p.module.Release()
}

type wgpuTarget struct {
	label string
	size  int
	view  *wgpu.TextureView
}

func (t *wgpuTarget) Label() string { return t.label }
func (t *wgpuTarget) Size() int     { return t.size }

type wgpuShadowMap struct {
	device  *wgpuDevice
	label   string
	cube    bool
	texture *wgpu.Texture
	sample  *wgpu.TextureView
	faces   []*wgpuTarget
}

func (m *wgpuShadowMap) Label() string     { return m.label }
func (m *wgpuShadowMap) Cube() bool        { return m.cube }
func (m *wgpuShadowMap) Faces() int        { return len(m.faces) }
func (m *wgpuShadowMap) Face(i int) Target { return m.faces[i] }

func (m *wgpuShadowMap) Release() {
	m.device.forgetViews()
	for _, f := range m.faces {
		f.view.Release()
	}
	m.sample.Release()
	m.texture.Release()
}

type wgpuTexture struct {
	device  *wgpuDevice
	label   string
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *wgpuTexture) Label() string { return t.label }

func (t *wgpuTexture) Release() {
	t.device.forgetViews()
	t.view.Release()
	t.texture.Release()
}

type wgpuMesh struct {
	device     *wgpuDevice
	label      string
	vertices   *wgpu.Buffer
	indices    *wgpu.Buffer
	indexCount int
	hasUV      bool
}

func (m *wgpuMesh) Label() string          { return m.label }
func (m *wgpuMesh) Draw()                  { m.device.draw(m) }
func (m *wgpuMesh) HasTextureCoords() bool { return m.hasUV }
func (m *wgpuMesh) IndexCount() int        { return m.indexCount }

func (m *wgpuMesh) Release() {
	m.vertices.Release()
	m.indices.Release()
}

// boundUnit is a texture view bound to a unit together with the kind it can serve.
type boundUnit struct {
	view *wgpu.TextureView
	kind shader.TextureKind
}

// textureGroupKey identifies a texture bind group by program and the views bound to its units.
type textureGroupKey struct {
	program *wgpuProgram
	views   [maxTextureUnits]*wgpu.TextureView
}

type placeholder struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// wgpuDevice implements Device on WebGPU. Render passes open lazily on the first draw or
// clear into a target and close when the target changes, at a Barrier or at EndFrame.
// Uniform blocks are appended to a ring buffer per draw and bound with a dynamic offset;
// the ring is uploaded right before each queue submission.
type wgpuDevice struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	clearColor    wgpu.Color
	width         int
	height        int
	depthTexture  *wgpu.Texture
	depthView     *wgpu.TextureView

	colorSampler  *wgpu.Sampler
	shadowSampler *wgpu.Sampler
	placeholders  map[shader.TextureKind]placeholder

	ring       *wgpu.Buffer
	ringData   []byte
	ringOffset uint64

	// Frame state
	encoder       *wgpu.CommandEncoder
	pass          *wgpu.RenderPassEncoder
	passTarget    *wgpuTarget
	passScreen    bool
	frameSurface  *wgpu.Texture
	frameView     *wgpu.TextureView
	screenStarted bool

	// Bound state
	program      *wgpuProgram
	target       *wgpuTarget
	viewport     [2]int
	depthTest    bool
	pendingClear bool
	clearValue   float32
	units        map[int]boundUnit

	programs      []*wgpuProgram
	textureGroups map[textureGroupKey]*wgpu.BindGroup
}

var _ Device = &wgpuDevice{}

func newWGPUDevice(cfg *deviceConfig) (*wgpuDevice, error) {
	runtime.LockOSThread()
	d := &wgpuDevice{
		mu:            &sync.Mutex{},
		instance:      wgpu.CreateInstance(nil),
		presentMode:   cfg.presentMode.wgpu(),
		clearColor:    cfg.clearColor,
		units:         map[int]boundUnit{},
		textureGroups: map[textureGroupKey]*wgpu.BindGroup{},
		placeholders:  map[shader.TextureKind]placeholder{},
	}
	d.surface = d.instance.CreateSurface(cfg.surfaceDescriptor)

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return nil, errors.Wrap(err, "request adapter")
	}
	d.adapter = a

	limits := wgpu.DefaultLimits()
	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "request device")
	}
	d.device = dev
	d.queue = dev.GetQueue()

	ringSize := common.Coalesce(cfg.uniformRingSize, defaultUniformRingSize)
	d.ring, err = dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Uniform Ring",
		Size:  ringSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create uniform ring")
	}
	d.ringData = make([]byte, ringSize)

	if err := d.createSamplers(); err != nil {
		return nil, err
	}
	if err := d.createPlaceholders(); err != nil {
		return nil, err
	}

	d.configureSurface(cfg.width, cfg.height)
	return d, nil
}

func (d *wgpuDevice) createSamplers() error {
	var err error
	d.colorSampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Color Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return errors.Wrap(err, "create color sampler")
	}

	d.shadowSampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32.0,
		Compare:       wgpu.CompareFunctionLess,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return errors.Wrap(err, "create comparison sampler")
	}
	return nil
}

// createPlaceholders creates the 1x1 textures bound to declared units nothing was bound to.
// Depth placeholders are cleared to 1 so comparisons against them pass.
func (d *wgpuDevice) createPlaceholders() error {
	color, err := d.createColorTexture("Placeholder Color", common.TextureStagingData{
		Pixels: []byte{255, 255, 255, 255},
		Width:  1,
		Height: 1,
	})
	if err != nil {
		return err
	}
	d.placeholders[shader.TextureColor2D] = placeholder{texture: color.texture, view: color.view}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return errors.Wrap(err, "create placeholder encoder")
	}
	defer encoder.Release()

	for _, cube := range []bool{false, true} {
		tex, sample, faces, err := d.createDepthTexture("Placeholder Depth", 1, cube)
		if err != nil {
			return err
		}
		for _, face := range faces {
			pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
				DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
					View:            face,
					DepthLoadOp:     wgpu.LoadOpClear,
					DepthStoreOp:    wgpu.StoreOpStore,
					DepthClearValue: 1.0,
				},
			})
			pass.End()
			pass.Release()
			face.Release()
		}
		kind := shader.TextureDepth2D
		if cube {
			kind = shader.TextureDepthCube
		}
		d.placeholders[kind] = placeholder{texture: tex, view: sample}
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return errors.Wrap(err, "finish placeholder encoder")
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

// configureSurface configures the swapchain and recreates the screen depth texture.
func (d *wgpuDevice) configureSurface(width, height int) {
	d.width, d.height = max(1, width), max(1, height)

	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surfaceFormat = capabilities.Formats[0]

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(d.width),
		Height:      uint32(d.height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if d.depthView != nil {
		d.depthView.Release()
		d.depthTexture.Release()
	}
	depthTexture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(d.width),
			Height:             uint32(d.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        screenDepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	d.depthTexture = depthTexture
	d.depthView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
}

func (d *wgpuDevice) CompileProgram(p shader.Program) (Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(p.Textures()) > 0 && p.Textures()[len(p.Textures())-1].Unit >= maxTextureUnits {
		return nil, errors.Errorf("program %s: texture units must be below %d", p.Name(), maxTextureUnits)
	}

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.Name(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Source(),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "program %s: create shader module", p.Name())
	}

	prog := &wgpuProgram{
		layout:    p,
		block:     newUniformBlock(p),
		blockSize: uint64(max(16, p.UniformSize())),
		module:    module,
		pipelines: map[pipelineKey]*wgpu.RenderPipeline{},
	}

	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	uniformEntry := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: visibility}
	uniformEntry.Buffer.Type = wgpu.BufferBindingTypeUniform
	uniformEntry.Buffer.HasDynamicOffset = true
	uniformEntry.Buffer.MinBindingSize = prog.blockSize
	prog.uniformLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   p.Name() + " Uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{uniformEntry},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "program %s: create uniform layout", p.Name())
	}
	layouts := []*wgpu.BindGroupLayout{prog.uniformLayout}

	if len(p.Textures()) > 0 {
		prog.textureLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   p.Name() + " Textures",
			Entries: textureLayoutEntries(p.Textures(), visibility),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "program %s: create texture layout", p.Name())
		}
		layouts = append(layouts, prog.textureLayout)
	}

	prog.pipelineLayout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Name(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "program %s: create pipeline layout", p.Name())
	}

	prog.uniformGroup, err = d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  p.Name() + " Uniform Group",
		Layout: prog.uniformLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  d.ring,
			Offset:  0,
			Size:    prog.blockSize,
		}},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "program %s: create uniform group", p.Name())
	}

	d.programs = append(d.programs, prog)
	return prog, nil
}

// textureLayoutEntries lays out the two samplers followed by the program's texture units.
func textureLayoutEntries(textures []shader.TextureBinding, visibility wgpu.ShaderStage) []wgpu.BindGroupLayoutEntry {
	colorSampler := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: visibility}
	colorSampler.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	shadowSampler := wgpu.BindGroupLayoutEntry{Binding: 1, Visibility: visibility}
	shadowSampler.Sampler.Type = wgpu.SamplerBindingTypeComparison

	entries := []wgpu.BindGroupLayoutEntry{colorSampler, shadowSampler}
	for _, t := range textures {
		entry := wgpu.BindGroupLayoutEntry{Binding: uint32(t.Binding()), Visibility: visibility}
		switch t.Kind {
		case shader.TextureColor2D:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		case shader.TextureDepth2D:
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		case shader.TextureDepthCube:
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
			entry.Texture.ViewDimension = wgpu.TextureViewDimensionCube
		}
		entries = append(entries, entry)
	}
	return entries
}

// pipeline returns the program's render pipeline for the given attachments, creating it on first use.
func (d *wgpuDevice) pipeline(p *wgpuProgram, key pipelineKey) (*wgpu.RenderPipeline, error) {
	if rp, ok := p.pipelines[key]; ok {
		return rp, nil
	}

	depthCompare := wgpu.CompareFunctionAlways
	if key.depthTest {
		depthCompare = wgpu.CompareFunctionLess
	}
	depthState := &wgpu.DepthStencilState{
		Format:            screenDepthFormat,
		DepthWriteEnabled: key.depthTest,
		DepthCompare:      depthCompare,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
	primitive := wgpu.PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  wgpu.CullModeBack,
	}

	var fragment *wgpu.FragmentState
	if p.layout.FragmentEntry() != "" {
		fragment = &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: p.layout.FragmentEntry(),
		}
	}

	switch key.kind {
	case targetShadow:
		// Flat casters such as planes must still write depth from behind.
		depthState.Format = shadowDepthFormat
		primitive.CullMode = wgpu.CullModeNone
	case targetScreen:
		writeMask := wgpu.ColorWriteMaskAll
		if p.layout.DepthOnly() {
			writeMask = wgpu.ColorWriteMaskNone
		}
		if fragment != nil {
			fragment.Targets = []wgpu.ColorTargetState{{
				Format:    d.surfaceFormat,
				WriteMask: writeMask,
			}}
		}
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Name() + " Render Pipeline",
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: p.layout.VertexEntry(),
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment:     fragment,
		Primitive:    primitive,
		DepthStencil: depthState,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "program %s: create pipeline", p.Name())
	}
	p.pipelines[key] = created
	return created, nil
}

// vertexLayout matches loader.Vertex.
var vertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: loader.VertexStride,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	},
}

// createDepthTexture creates a sampleable depth texture with one render view per face.
func (d *wgpuDevice) createDepthTexture(label string, size int, cube bool) (*wgpu.Texture, *wgpu.TextureView, []*wgpu.TextureView, error) {
	layers := uint32(1)
	dimension := wgpu.TextureViewDimension2D
	if cube {
		layers = 6
		dimension = wgpu.TextureViewDimensionCube
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(size),
			Height:             uint32(size),
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        shadowDepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "create depth texture %s", label)
	}

	sample, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label + " Sample View",
		Format:          shadowDepthFormat,
		Dimension:       dimension,
		MipLevelCount:   1,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectDepthOnly,
	})
	if err != nil {
		tex.Release()
		return nil, nil, nil, errors.Wrapf(err, "create depth sample view %s", label)
	}

	faces := make([]*wgpu.TextureView, layers)
	for i := range faces {
		faces[i], err = tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           label + " Face",
			Format:          shadowDepthFormat,
			Dimension:       wgpu.TextureViewDimension2D,
			MipLevelCount:   1,
			BaseArrayLayer:  uint32(i),
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "create depth face view %s", label)
		}
	}
	return tex, sample, faces, nil
}

func (d *wgpuDevice) CreateShadowMap(label string, size int, cube bool) (ShadowMap, error) {
	if size <= 0 {
		return nil, errors.Errorf("renderer: shadow map %s: invalid size %d", label, size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, sample, faceViews, err := d.createDepthTexture(label, size, cube)
	if err != nil {
		return nil, err
	}
	m := &wgpuShadowMap{device: d, label: label, cube: cube, texture: tex, sample: sample}
	for i, view := range faceViews {
		faceLabel := label
		if cube {
			faceLabel = label + "/" + cubeFaceNames[i]
		}
		m.faces = append(m.faces, &wgpuTarget{label: faceLabel, size: size, view: view})
	}
	return m, nil
}

func (d *wgpuDevice) UploadMesh(label string, raw loader.RawMesh) (Mesh, error) {
	if len(raw.Vertices) == 0 || len(raw.Indices) == 0 {
		return nil, errors.Errorf("renderer: mesh %s has no geometry", label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	vertexData := common.SliceToBytes(raw.Vertices)
	vertices, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Vertex Buffer",
		Size:             uint64(len(vertexData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %s: create vertex buffer", label)
	}
	d.queue.WriteBuffer(vertices, 0, vertexData)

	indexData := common.SliceToBytes(raw.Indices)
	indices, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Index Buffer",
		Size:             uint64(len(indexData)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		vertices.Release()
		return nil, errors.Wrapf(err, "mesh %s: create index buffer", label)
	}
	d.queue.WriteBuffer(indices, 0, indexData)

	return &wgpuMesh{
		device:     d,
		label:      label,
		vertices:   vertices,
		indices:    indices,
		indexCount: len(raw.Indices),
		hasUV:      raw.HasTexCoords,
	}, nil
}

func (d *wgpuDevice) UploadTexture(label string, data common.TextureStagingData) (Texture, error) {
	if int(data.Width*data.Height*4) != len(data.Pixels) {
		return nil, errors.Errorf("renderer: texture %s: %d bytes for %dx%d", label, len(data.Pixels), data.Width, data.Height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createColorTexture(label, data)
}

func (d *wgpuDevice) createColorTexture(label string, data common.TextureStagingData) (*wgpuTexture, error) {
	size := wgpu.Extent3D{
		Width:              data.Width,
		Height:             data.Height,
		DepthOrArrayLayers: 1,
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "texture %s: create", label)
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, errors.Wrapf(err, "texture %s: create view", label)
	}
	return &wgpuTexture{device: d, label: label, texture: tex, view: view}, nil
}

func (d *wgpuDevice) BeginFrame() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameSurface != nil {
		return errors.New("renderer: previous frame surface not yet presented")
	}

	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return errors.Wrap(err, "acquire surface texture")
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return errors.Wrap(err, "create surface view")
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return errors.Wrap(err, "create command encoder")
	}

	d.frameSurface = surfaceTexture
	d.frameView = view
	d.encoder = encoder
	d.screenStarted = false
	d.ringOffset = 0
	return nil
}

func (d *wgpuDevice) EndFrame() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.encoder == nil {
		return
	}
	d.flushClear()
	if !d.screenStarted {
		// Nothing was drawn to the screen; still clear it before presenting.
		d.target = nil
		d.beginPass()
	}
	d.endPass()
	d.submit(false)

	d.surface.Present()
	d.frameView.Release()
	d.frameSurface.Release()
	d.frameView = nil
	d.frameSurface = nil
}

func (d *wgpuDevice) Barrier() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.encoder == nil {
		return
	}
	d.flushClear()
	d.endPass()
	d.submit(true)
}

// submit uploads the uniform ring and submits the recorded commands, optionally
// starting a new encoder for the rest of the frame.
func (d *wgpuDevice) submit(reopen bool) {
	if d.ringOffset > 0 {
		d.queue.WriteBuffer(d.ring, 0, d.ringData[:d.ringOffset])
		d.ringOffset = 0
	}

	commandBuffer, err := d.encoder.Finish(nil)
	if err != nil {
		log.Printf("[Renderer] finish encoder: %v", err)
	} else {
		d.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	d.encoder.Release()
	d.encoder = nil

	if !reopen {
		return
	}
	d.encoder, err = d.device.CreateCommandEncoder(nil)
	if err != nil {
		log.Printf("[Renderer] create command encoder: %v", err)
	}
}

// flushClear runs an empty pass for a clear that no draw consumed.
func (d *wgpuDevice) flushClear() {
	if d.pendingClear && d.pass == nil {
		d.beginPass()
	}
}

// beginPass opens a render pass on the bound target.
func (d *wgpuDevice) beginPass() {
	depthLoad := wgpu.LoadOpLoad
	if d.pendingClear {
		depthLoad = wgpu.LoadOpClear
	}

	desc := &wgpu.RenderPassDescriptor{}
	if d.target != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            d.target.view,
			DepthLoadOp:     depthLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: d.clearValue,
		}
	} else {
		colorLoad := wgpu.LoadOpLoad
		if !d.screenStarted {
			colorLoad = wgpu.LoadOpClear
			depthLoad = wgpu.LoadOpClear
		}
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{{
			View:       d.frameView,
			LoadOp:     colorLoad,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: d.clearColor,
		}}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            d.depthView,
			DepthLoadOp:     depthLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: common.Coalesce(d.clearValue, 1.0),
		}
		d.screenStarted = true
	}

	d.pass = d.encoder.BeginRenderPass(desc)
	d.passTarget = d.target
	d.passScreen = d.target == nil
	d.pendingClear = false
}

func (d *wgpuDevice) endPass() {
	if d.pass == nil {
		return
	}
	d.pass.End()
	d.pass.Release()
	d.pass = nil
	d.passTarget = nil
	d.passScreen = false
}

func (d *wgpuDevice) passMatchesTarget() bool {
	if d.pass == nil {
		return false
	}
	if d.target == nil {
		return d.passScreen
	}
	return d.passTarget == d.target
}

func (d *wgpuDevice) BindProgram(p Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	wp, ok := p.(*wgpuProgram)
	if !ok {
		d.program = nil
		return
	}
	d.program = wp
}

func (d *wgpuDevice) BindTarget(t Target) {
	d.mu.Lock()
	defer d.mu.Unlock()

	wt, _ := t.(*wgpuTarget)
	if wt == d.target {
		return
	}
	if d.encoder != nil {
		d.flushClear()
		d.endPass()
	}
	d.pendingClear = false
	d.target = wt
}

func (d *wgpuDevice) SetViewport(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = [2]int{width, height}
}

func (d *wgpuDevice) ClearDepth(depth float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A clear mid-pass restarts the pass with a clear load op.
	d.endPass()
	d.pendingClear = true
	d.clearValue = depth
}

func (d *wgpuDevice) EnableDepthTest() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.depthTest = true
}

func (d *wgpuDevice) SetUniformMat4(slot int, m mgl32.Mat4) {
	d.withProgram(func(b *uniformBlock) { b.setMat4(slot, m) })
}

func (d *wgpuDevice) SetUniformMat3(slot int, m mgl32.Mat3) {
	d.withProgram(func(b *uniformBlock) { b.setMat3(slot, m) })
}

func (d *wgpuDevice) SetUniformVec3(slot int, v mgl32.Vec3) {
	d.withProgram(func(b *uniformBlock) { b.setVec3(slot, v) })
}

func (d *wgpuDevice) SetUniformFloat(slot int, v float32) {
	d.withProgram(func(b *uniformBlock) { b.setFloat(slot, v) })
}

func (d *wgpuDevice) SetUniformInt(slot int, v int32) {
	d.withProgram(func(b *uniformBlock) { b.setInt(slot, v) })
}

func (d *wgpuDevice) SetUniformBool(slot int, v bool) {
	d.withProgram(func(b *uniformBlock) { b.setBool(slot, v) })
}

func (d *wgpuDevice) SetUniformVec3Array(slot int, v []mgl32.Vec3) {
	d.withProgram(func(b *uniformBlock) { b.setVec3Array(slot, v) })
}

func (d *wgpuDevice) SetUniformMat4Array(slot int, v []mgl32.Mat4) {
	d.withProgram(func(b *uniformBlock) { b.setMat4Array(slot, v) })
}

func (d *wgpuDevice) withProgram(set func(*uniformBlock)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.program == nil {
		log.Printf("[Renderer] uniform set with no program bound")
		return
	}
	set(d.program.block)
}

func (d *wgpuDevice) BindTexture(unit int, t Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	wt, ok := t.(*wgpuTexture)
	if !ok {
		delete(d.units, unit)
		return
	}
	d.units[unit] = boundUnit{view: wt.view, kind: shader.TextureColor2D}
}

func (d *wgpuDevice) BindShadowMap(unit int, m ShadowMap) {
	d.mu.Lock()
	defer d.mu.Unlock()
	wm, ok := m.(*wgpuShadowMap)
	if !ok {
		delete(d.units, unit)
		return
	}
	kind := shader.TextureDepth2D
	if wm.cube {
		kind = shader.TextureDepthCube
	}
	d.units[unit] = boundUnit{view: wm.sample, kind: kind}
}

// textureGroup returns the bind group for the program's texture units, substituting
// placeholders for units that are unbound or bound to the wrong kind.
func (d *wgpuDevice) textureGroup(p *wgpuProgram) (*wgpu.BindGroup, error) {
	key := textureGroupKey{program: p}
	for _, t := range p.layout.Textures() {
		view := d.placeholders[t.Kind].view
		if bound, ok := d.units[t.Unit]; ok && bound.kind == t.Kind {
			view = bound.view
		}
		key.views[t.Unit] = view
	}
	if bg, ok := d.textureGroups[key]; ok {
		return bg, nil
	}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Sampler: d.colorSampler},
		{Binding: 1, Sampler: d.shadowSampler},
	}
	for _, t := range p.layout.Textures() {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(t.Binding()),
			TextureView: key.views[t.Unit],
		})
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.Name() + " Texture Group",
		Layout:  p.textureLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "program %s: create texture group", p.Name())
	}
	d.textureGroups[key] = bg
	return bg, nil
}

// forgetViews drops cached texture groups, which may reference a view about to be released.
func (d *wgpuDevice) forgetViews() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, bg := range d.textureGroups {
		bg.Release()
		delete(d.textureGroups, key)
	}
	clear(d.units)
}

// pushUniforms appends the program's current block to the ring and returns its offset.
// A full ring submits the work so far and starts over.
func (d *wgpuDevice) pushUniforms(p *wgpuProgram) uint32 {
	if d.ringOffset+p.blockSize > uint64(len(d.ringData)) {
		d.endPass()
		d.submit(true)
	}
	offset := d.ringOffset
	copy(d.ringData[offset:], p.block.data)
	d.ringOffset += (p.blockSize + uniformAlignment - 1) / uniformAlignment * uniformAlignment
	return uint32(offset)
}

func (d *wgpuDevice) draw(m *wgpuMesh) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.program == nil {
		log.Printf("[Renderer] draw %s: %v", m.label, ErrNoProgram)
		return
	}
	if d.encoder == nil {
		log.Printf("[Renderer] draw %s outside of a frame", m.label)
		return
	}

	key := pipelineKey{kind: targetScreen, depthTest: d.depthTest}
	if d.target != nil {
		key.kind = targetShadow
	}
	rp, err := d.pipeline(d.program, key)
	if err != nil {
		log.Printf("[Renderer] draw %s: %v", m.label, err)
		return
	}
	var textures *wgpu.BindGroup
	if d.program.textureLayout != nil {
		if textures, err = d.textureGroup(d.program); err != nil {
			log.Printf("[Renderer] draw %s: %v", m.label, err)
			return
		}
	}

	offset := d.pushUniforms(d.program)
	if !d.passMatchesTarget() {
		d.endPass()
		d.beginPass()
	}

	width, height := d.viewport[0], d.viewport[1]
	if width <= 0 || height <= 0 {
		width, height = d.width, d.height
	}
	d.pass.SetPipeline(rp)
	d.pass.SetViewport(0, 0, float32(width), float32(height), 0, 1)
	d.pass.SetBindGroup(shader.UniformGroup, d.program.uniformGroup, []uint32{offset})
	if textures != nil {
		d.pass.SetBindGroup(shader.TextureGroup, textures, nil)
	}
	d.pass.SetVertexBuffer(0, m.vertices, 0, wgpu.WholeSize)
	d.pass.SetIndexBuffer(m.indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	d.pass.DrawIndexed(uint32(m.indexCount), 1, 0, 0, 0)
}

func (d *wgpuDevice) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

func (d *wgpuDevice) Resize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	d.configureSurface(width, height)
}

func (d *wgpuDevice) Release() {
	d.forgetViews()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.programs {
		p.release()
	}
	d.programs = nil
	for _, ph := range d.placeholders {
		ph.view.Release()
		ph.texture.Release()
	}
	d.colorSampler.Release()
	d.shadowSampler.Release()
	d.ring.Release()
	d.depthView.Release()
	d.depthTexture.Release()
	d.queue.Release()
	d.device.Release()
	d.surface.Release()
	d.adapter.Release()
	d.instance.Release()
}
