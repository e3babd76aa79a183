package binding

import (
	"bytes"
	"fmt"

	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// UniformBuffer is a uniform binding backed by its own byte buffer.
// Writes mark the buffer dirty; Update consumes the dirty state once.
type UniformBuffer struct {
	Header

	// Data holds the CPU-side contents uploaded to the GPU buffer.
	Data []byte

	version  uint64
	uploaded uint64
}

// NewUniformBuffer creates a UniformBuffer with size zeroed bytes. A new buffer starts dirty.
//
// Parameters:
//   - name: the shader-facing name
//   - visibility: the stages that read the buffer
//   - size: the byte length of the buffer
//
// Returns:
//   - *UniformBuffer: the created binding
func NewUniformBuffer(name string, visibility wgpu.ShaderStage, size int) *UniformBuffer {
	return &UniformBuffer{
		Header:  Header{Name: name, Visibility: visibility},
		Data:    make([]byte, size),
		version: 1,
	}
}

// ByteLength returns the size of the buffer in bytes.
func (u *UniformBuffer) ByteLength() uint64 {
	return uint64(len(u.Data))
}

// Write copies p into the buffer at offset and marks the buffer dirty.
// Writes that do not change any byte leave the dirty state untouched.
//
// Parameters:
//   - offset: the destination byte offset
//   - p: the bytes to copy
//
// Returns:
//   - error: an error if the write would overrun the buffer
func (u *UniformBuffer) Write(offset int, p []byte) error {
	if offset < 0 || offset+len(p) > len(u.Data) {
		return fmt.Errorf("uniform %q: write of %d bytes at offset %d overruns %d byte buffer", u.Name, len(p), offset, len(u.Data))
	}
	dst := u.Data[offset : offset+len(p)]
	if bytes.Equal(dst, p) {
		return nil
	}
	copy(dst, p)
	u.version++
	return nil
}

// WriteFloats writes float32 values at offset. See Write.
func (u *UniformBuffer) WriteFloats(offset int, values ...float32) error {
	return u.Write(offset, common.SliceToBytes(values))
}

// MarkDirty forces the next Update to report a change.
func (u *UniformBuffer) MarkDirty() {
	u.version++
}

// Update reports whether the contents changed since the previous call.
//
// Returns:
//   - bool: true if the buffer must be uploaded
func (u *UniformBuffer) Update() bool {
	if u.uploaded == u.version {
		return false
	}
	u.uploaded = u.version
	return true
}

// UniformsGroup is a uniform buffer assembled from a node material's uniform group.
// The owning node system decides whether any member changed; when the group is allocated
// inside a CommonUniformBuffer its Data is a window into the shared pool.
type UniformsGroup struct {
	UniformBuffer

	// Shared names the node-level uniform group, e.g. "object" or "render".
	Shared string

	common *CommonUniformBuffer
	offset uint64
}

// NewUniformsGroup creates a UniformsGroup with its own storage.
//
// Parameters:
//   - name: the shader-facing name
//   - visibility: the stages that read the group
//   - size: the byte length of the group
//
// Returns:
//   - *UniformsGroup: the created binding
func NewUniformsGroup(name string, visibility wgpu.ShaderStage, size int) *UniformsGroup {
	return &UniformsGroup{
		UniformBuffer: *NewUniformBuffer(name, visibility, size),
	}
}

// AllocateCommon reports whether the group lives inside a shared CommonUniformBuffer.
func (g *UniformsGroup) AllocateCommon() bool {
	return g.common != nil
}

// CommonBuffer returns the shared pool the group lives in, or nil.
func (g *UniformsGroup) CommonBuffer() *CommonUniformBuffer {
	return g.common
}

// ByteOffset returns the group's offset inside its shared pool, or 0 when it is not pooled.
func (g *UniformsGroup) ByteOffset() uint64 {
	return g.offset
}

// CommonUniformBuffer is one CPU-side byte pool subdivided among many small uniform groups
// so they share a single native buffer.
type CommonUniformBuffer struct {
	// Data is the full pool contents.
	Data []byte
	// Alignment is the offset alignment of every allocation.
	Alignment uint64

	next uint64
}

// DefaultUniformOffsetAlignment matches the WebGPU default minUniformBufferOffsetAlignment.
const DefaultUniformOffsetAlignment = 256

// NewCommonUniformBuffer creates a pool of size bytes.
//
// Parameters:
//   - size: the byte length of the pool
//   - alignment: the offset alignment of allocations, or 0 for DefaultUniformOffsetAlignment
//
// Returns:
//   - *CommonUniformBuffer: the created pool
func NewCommonUniformBuffer(size int, alignment uint64) *CommonUniformBuffer {
	return &CommonUniformBuffer{
		Data:      make([]byte, size),
		Alignment: common.Coalesce(alignment, DefaultUniformOffsetAlignment),
	}
}

// ByteLength returns the pool size in bytes.
func (c *CommonUniformBuffer) ByteLength() uint64 {
	return uint64(len(c.Data))
}

// Allocate moves g into the pool. The group's current contents are copied into its slot
// and the group is marked dirty.
//
// Parameters:
//   - g: the group to place in the pool
//
// Returns:
//   - error: an error if the group is already pooled or the pool is exhausted
func (c *CommonUniformBuffer) Allocate(g *UniformsGroup) error {
	if g.common != nil {
		return fmt.Errorf("uniforms group %q is already allocated in a common buffer", g.Name)
	}
	offset := common.AlignUp(c.next, c.Alignment)
	size := g.ByteLength()
	if offset+size > c.ByteLength() {
		return fmt.Errorf("common uniform buffer exhausted: need %d bytes at offset %d, have %d", size, offset, c.ByteLength())
	}

	slot := c.Data[offset : offset+size : offset+size]
	copy(slot, g.Data)
	g.Data = slot
	g.common = c
	g.offset = offset
	g.MarkDirty()
	c.next = offset + size
	return nil
}

// Attribute is a buffer attribute provisioned by the attribute-upload subsystem.
type Attribute struct {
	// Name labels the attribute's native buffer.
	Name string
	// Data holds the attribute contents.
	Data []byte
	// Indirect marks attributes holding indirect draw or dispatch arguments.
	Indirect bool
}

// StorageBuffer binds an attribute's native buffer as a storage buffer.
type StorageBuffer struct {
	Header

	// Attribute is the attribute whose native buffer is bound.
	Attribute *Attribute
	// Access is BufferBindingTypeStorage or BufferBindingTypeReadOnlyStorage.
	Access wgpu.BufferBindingType
}

// NewStorageBuffer creates a StorageBuffer. An undefined access defaults to read-write storage.
//
// Parameters:
//   - name: the shader-facing name
//   - visibility: the stages that read the buffer
//   - attribute: the attribute providing the native buffer
//   - access: the buffer binding type
//
// Returns:
//   - *StorageBuffer: the created binding
func NewStorageBuffer(name string, visibility wgpu.ShaderStage, attribute *Attribute, access wgpu.BufferBindingType) *StorageBuffer {
	return &StorageBuffer{
		Header:    Header{Name: name, Visibility: visibility},
		Attribute: attribute,
		Access:    common.Coalesce(access, wgpu.BufferBindingTypeStorage),
	}
}
