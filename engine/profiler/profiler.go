package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-bind/common"
)

// Counters is a snapshot of binding activity.
type Counters struct {
	// Layouts is the number of bind group layouts created.
	Layouts uint64
	// BindGroups is the number of bind groups created, including regenerations.
	BindGroups uint64
	// Regenerations is the number of bind groups recreated against a cached layout.
	Regenerations uint64
	// Buffers is the number of dedicated GPU buffers created.
	Buffers uint64
	// Writes is the number of queue writes issued.
	Writes uint64
	// BytesWritten is the total size of all queue writes.
	BytesWritten uint64
	// Repairs is the number of bindings found referring to a texture that was not resident.
	Repairs uint64
}

// Profiler tracks binding statistics and frame rate for performance monitoring.
// Outputs stats to the shared logger at a configurable interval.
type Profiler struct {
	total    Counters
	interval Counters

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	now            func() time.Time
	memStats       runtime.MemStats
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: a variadic list of options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// RecordLayout counts a created bind group layout.
func (p *Profiler) RecordLayout() {
	p.total.Layouts++
	p.interval.Layouts++
}

// RecordBindGroup counts a created bind group. Regenerated groups are also counted separately.
//
// Parameters:
//   - regenerated: true if the group replaced an existing one
func (p *Profiler) RecordBindGroup(regenerated bool) {
	p.total.BindGroups++
	p.interval.BindGroups++
	if regenerated {
		p.total.Regenerations++
		p.interval.Regenerations++
	}
}

// RecordBuffer counts a created dedicated buffer.
func (p *Profiler) RecordBuffer() {
	p.total.Buffers++
	p.interval.Buffers++
}

// RecordWrite counts a queue write of size bytes.
func (p *Profiler) RecordWrite(size uint64) {
	p.total.Writes++
	p.interval.Writes++
	p.total.BytesWritten += size
	p.interval.BytesWritten += size
}

// RecordRepair counts a binding repaired because its texture was not resident.
func (p *Profiler) RecordRepair() {
	p.total.Repairs++
	p.interval.Repairs++
}

// Totals returns the counters accumulated since creation.
func (p *Profiler) Totals() Counters {
	return p.total
}

// Interval returns the counters accumulated since the last logged Tick.
func (p *Profiler) Interval() Counters {
	return p.interval
}

// Tick should be called once per frame. When the update interval has elapsed it logs frame
// rate, heap usage and the binding activity since the previous log, then resets the interval counters.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	runtime.ReadMemStats(&p.memStats)

	common.Logger().Info("binding stats",
		slog.Float64("fps", fps),
		slog.Float64("heapMB", float64(p.memStats.Alloc)/1024/1024),
		slog.Uint64("layouts", p.interval.Layouts),
		slog.Uint64("bindGroups", p.interval.BindGroups),
		slog.Uint64("regenerations", p.interval.Regenerations),
		slog.Uint64("buffers", p.interval.Buffers),
		slog.Uint64("writes", p.interval.Writes),
		slog.Uint64("bytesWritten", p.interval.BytesWritten),
		slog.Uint64("repairs", p.interval.Repairs),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.interval = Counters{}
	return true
}
