package renderer

import (
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device is the native capability surface the binding backend needs: object creation,
// queue writes and release.
type Device interface {
	CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error)
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)
	CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)
	CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error)
	CreateTextureView(texture *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error)
	WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error
	Release(obj bind_group_provider.Releasable)
}

type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice wraps a WebGPU device and its queue.
//
// Parameters:
//   - device: the device native objects are created on
//   - queue: the queue buffer writes are issued on
//
// Returns:
//   - Device: the wrapped device
func NewWGPUDevice(device *wgpu.Device, queue *wgpu.Queue) Device {
	return &wgpuDevice{device: device, queue: queue}
}

func (d *wgpuDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	return d.device.CreateBuffer(desc)
}

func (d *wgpuDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	return d.device.CreateBindGroupLayout(desc)
}

func (d *wgpuDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	return d.device.CreateBindGroup(desc)
}

func (d *wgpuDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	return d.device.CreateSampler(desc)
}

func (d *wgpuDevice) CreateTextureView(texture *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error) {
	return texture.CreateView(desc)
}

func (d *wgpuDevice) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	return d.queue.WriteBuffer(buffer, offset, data)
}

func (d *wgpuDevice) Release(obj bind_group_provider.Releasable) {
	obj.Release()
}
