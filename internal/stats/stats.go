// Package stats collects runtime counters and process resource usage.
package stats

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/TFMV/flash/internal/console"
	"github.com/shirou/gopsutil/v3/process"
)

// Sampler reads the resource usage of a process.
type Sampler interface {
	Sample() (memoryKB uint64, cpuPercent float64, err error)
}

// Snapshot is a point-in-time copy of the collector state.
type Snapshot struct {
	Uptime       time.Duration
	FileChanges  uint64
	WatcherCalls uint64
	MemoryKB     uint64
	CPUPercent   float64
}

// Collector is shared between the watch callback, the dispatch loop and the
// stats ticker. Every field is guarded by mu.
type Collector struct {
	mu           sync.Mutex
	start        time.Time
	fileChanges  uint64
	watcherCalls uint64
	memoryKB     uint64
	cpuPercent   float64

	sampler Sampler
}

// NewCollector creates a collector sampling the current process.
func NewCollector() *Collector {
	return NewCollectorWithSampler(newProcessSampler(os.Getpid()))
}

// NewCollectorWithSampler creates a collector with a custom sampler.
func NewCollectorWithSampler(s Sampler) *Collector {
	return &Collector{
		start:   time.Now(),
		sampler: s,
	}
}

// RecordFileChange counts a dispatched change.
func (c *Collector) RecordFileChange() {
	c.mu.Lock()
	c.fileChanges++
	c.mu.Unlock()
}

// RecordWatcherCall counts a callback from the watch subsystem.
func (c *Collector) RecordWatcherCall() {
	c.mu.Lock()
	c.watcherCalls++
	c.mu.Unlock()
}

// UpdateResourceUsage refreshes memory and CPU figures. When sampling fails
// the previous values are kept.
func (c *Collector) UpdateResourceUsage() {
	if c.sampler == nil {
		return
	}
	mem, cpu, err := c.sampler.Sample()
	if err != nil {
		return
	}
	c.mu.Lock()
	c.memoryKB = mem
	c.cpuPercent = cpu
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Uptime:       time.Since(c.start),
		FileChanges:  c.fileChanges,
		WatcherCalls: c.watcherCalls,
		MemoryKB:     c.memoryKB,
		CPUPercent:   c.cpuPercent,
	}
}

// Display prints the current snapshot.
func (c *Collector) Display(out *console.Console) {
	s := c.Snapshot()
	out.Block("Flash Performance Stats", [][2]string{
		{"Time:", time.Now().Format("15:04:05")},
		{"Uptime:", FormatDuration(s.Uptime)},
		{"File changes:", fmt.Sprintf("%d", s.FileChanges)},
		{"Watcher calls:", fmt.Sprintf("%d", s.WatcherCalls)},
		{"Memory usage:", fmt.Sprintf("%d KB", s.MemoryKB)},
		{"CPU usage:", fmt.Sprintf("%.1f%%", s.CPUPercent)},
	})
}

// Run refreshes and prints the stats every interval until ctx is done.
func (c *Collector) Run(ctx context.Context, interval time.Duration, out *console.Console) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.UpdateResourceUsage()
			c.Display(out)
		}
	}
}

// FormatDuration renders whole seconds as "5s", "2m 5s" or "1h 2m 5s".
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
	}
}

// processSampler reads RSS and CPU percentage from the OS process table.
type processSampler struct {
	pid  int32
	proc *process.Process
}

func newProcessSampler(pid int) *processSampler {
	return &processSampler{pid: int32(pid)}
}

func (s *processSampler) Sample() (uint64, float64, error) {
	if s.proc == nil {
		p, err := process.NewProcess(s.pid)
		if err != nil {
			return 0, 0, err
		}
		s.proc = p
	}
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpu, err := s.proc.Percent(0)
	if err != nil {
		return 0, 0, err
	}
	return mem.RSS / 1024, cpu, nil
}
