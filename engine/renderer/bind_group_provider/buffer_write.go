package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BufferWrite describes a single GPU queue write of Data into Buffer at Offset.
type BufferWrite struct {
	Label  string
	Buffer *wgpu.Buffer
	Offset uint64
	Data   []byte
}

// Size returns the number of bytes written.
func (w BufferWrite) Size() uint64 {
	return uint64(len(w.Data))
}
