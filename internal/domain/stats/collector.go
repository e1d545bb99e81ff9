// Package stats samples host metrics on tiered intervals and fans the
// merged snapshot out to SSE subscribers.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/docker"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"lobsterboard-server-go/internal/platform/logging"
)

// TopicSnapshot carries each new Snapshot across the event bus.
const TopicSnapshot = "stats:snapshot"

// Fields start as JSON null until their first sample lands, so the
// browser can distinguish "not collected yet" from a zero reading.
type CPUStats struct {
	CurrentLoad float64   `json:"currentLoad"`
	CPUs        []float64 `json:"cpus"`
}

type MemoryStats struct {
	Total  uint64 `json:"total"`
	Used   uint64 `json:"used"`
	Free   uint64 `json:"free"`
	Active uint64 `json:"active"`
}

type DiskStats struct {
	FS        string  `json:"fs"`
	Mount     string  `json:"mount"`
	Size      uint64  `json:"size"`
	Used      uint64  `json:"used"`
	Available uint64  `json:"available"`
	Use       float64 `json:"use"`
}

type NetworkStats struct {
	Iface   string  `json:"iface"`
	RxSec   float64 `json:"rx_sec"`
	TxSec   float64 `json:"tx_sec"`
	RxBytes uint64  `json:"rx_bytes"`
	TxBytes uint64  `json:"tx_bytes"`
}

type Container struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	Running bool   `json:"running"`
}

type Snapshot struct {
	CPU       *CPUStats      `json:"cpu"`
	Memory    *MemoryStats   `json:"memory"`
	Disk      []DiskStats    `json:"disk"`
	Network   []NetworkStats `json:"network"`
	Docker    []Container    `json:"docker"`
	Uptime    *uint64        `json:"uptime"`
	Timestamp *int64         `json:"timestamp"`
}

// Intervals are the sampling periods per metric tier.
type Intervals struct {
	CPUNet time.Duration
	Memory time.Duration
	Disk   time.Duration
	Docker time.Duration
	Uptime time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		CPUNet: 2 * time.Second,
		Memory: 5 * time.Second,
		Disk:   30 * time.Second,
		Docker: 5 * time.Second,
		Uptime: 60 * time.Second,
	}
}

// Collector owns the cached snapshot. The cheap samples (cpu, net)
// drive the broadcast cadence; slower tiers only refresh their slice
// of the snapshot. Docker failures are expected on hosts without a
// daemon and degrade to an empty list.
type Collector struct {
	logger    *logging.Logger
	bus       EventBus.Bus
	intervals Intervals

	mu   sync.RWMutex
	snap Snapshot

	prevNet   map[string]net.IOCountersStat
	prevNetAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCollector(logger *logging.Logger, bus EventBus.Bus, intervals Intervals) *Collector {
	return &Collector{
		logger:    logger,
		bus:       bus,
		intervals: intervals,
		prevNet:   map[string]net.IOCountersStat{},
	}
}

// Snapshot returns the current merged stats.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Start primes every tier once and launches the sampling loop. It
// returns immediately; Stop tears the loop down.
func (c *Collector) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	c.sampleCPUNet(ctx)
	c.sampleMemory(ctx)
	c.sampleDisk(ctx)
	c.sampleDocker(ctx)
	c.sampleUptime(ctx)
	c.publish()

	go c.run(ctx)
}

func (c *Collector) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	cpuNet := time.NewTicker(c.intervals.CPUNet)
	memory := time.NewTicker(c.intervals.Memory)
	diskT := time.NewTicker(c.intervals.Disk)
	dockerT := time.NewTicker(c.intervals.Docker)
	uptime := time.NewTicker(c.intervals.Uptime)
	defer cpuNet.Stop()
	defer memory.Stop()
	defer diskT.Stop()
	defer dockerT.Stop()
	defer uptime.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cpuNet.C:
			c.sampleCPUNet(ctx)
			c.publish()
		case <-memory.C:
			c.sampleMemory(ctx)
		case <-diskT.C:
			c.sampleDisk(ctx)
		case <-dockerT.C:
			c.sampleDocker(ctx)
		case <-uptime.C:
			c.sampleUptime(ctx)
		}
	}
}

func (c *Collector) publish() {
	if c.bus != nil {
		c.bus.Publish(TopicSnapshot, c.Snapshot())
	}
}

func (c *Collector) sampleCPUNet(ctx context.Context) {
	perCPU, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		c.logger.WarnTag("STATS", "cpu sample failed: %v", err)
		return
	}
	var total float64
	for _, v := range perCPU {
		total += v
	}
	if len(perCPU) > 0 {
		total /= float64(len(perCPU))
	}

	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		c.logger.WarnTag("STATS", "net sample failed: %v", err)
		counters = nil
	}
	now := time.Now()
	rates := netRates(c.prevNet, counters, now.Sub(c.prevNetAt))
	c.prevNet = map[string]net.IOCountersStat{}
	for _, n := range counters {
		c.prevNet[n.Name] = n
	}
	c.prevNetAt = now

	ts := now.UnixMilli()
	c.mu.Lock()
	c.snap.CPU = &CPUStats{CurrentLoad: total, CPUs: perCPU}
	if counters != nil {
		c.snap.Network = rates
	}
	c.snap.Timestamp = &ts
	c.mu.Unlock()
}

// netRates turns cumulative interface counters into per-second rates.
// Interfaces without a previous sample (or after a counter reset)
// report zero rates for one cycle.
func netRates(prev map[string]net.IOCountersStat, cur []net.IOCountersStat, elapsed time.Duration) []NetworkStats {
	out := make([]NetworkStats, 0, len(cur))
	secs := elapsed.Seconds()
	for _, n := range cur {
		s := NetworkStats{Iface: n.Name, RxBytes: n.BytesRecv, TxBytes: n.BytesSent}
		if p, ok := prev[n.Name]; ok && secs > 0 && n.BytesRecv >= p.BytesRecv && n.BytesSent >= p.BytesSent {
			s.RxSec = float64(n.BytesRecv-p.BytesRecv) / secs
			s.TxSec = float64(n.BytesSent-p.BytesSent) / secs
		}
		out = append(out, s)
	}
	return out
}

func (c *Collector) sampleMemory(ctx context.Context) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		c.logger.WarnTag("STATS", "memory sample failed: %v", err)
		return
	}
	c.mu.Lock()
	c.snap.Memory = &MemoryStats{Total: vm.Total, Used: vm.Used, Free: vm.Free, Active: vm.Active}
	c.mu.Unlock()
}

func (c *Collector) sampleDisk(ctx context.Context) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		c.logger.WarnTag("STATS", "disk sample failed: %v", err)
		return
	}
	out := make([]DiskStats, 0, len(parts))
	for _, p := range parts {
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		out = append(out, DiskStats{
			FS:        p.Device,
			Mount:     p.Mountpoint,
			Size:      u.Total,
			Used:      u.Used,
			Available: u.Free,
			Use:       u.UsedPercent,
		})
	}
	c.mu.Lock()
	c.snap.Disk = out
	c.mu.Unlock()
}

func (c *Collector) sampleDocker(ctx context.Context) {
	list, err := docker.GetDockerStatWithContext(ctx)
	if err != nil {
		// No docker daemon is a normal condition.
		list = nil
	}
	out := make([]Container, 0, len(list))
	for _, d := range list {
		out = append(out, Container{ID: d.ContainerID, Name: d.Name, Image: d.Image, Running: d.Running})
	}
	c.mu.Lock()
	c.snap.Docker = out
	c.mu.Unlock()
}

func (c *Collector) sampleUptime(ctx context.Context) {
	up, err := host.UptimeWithContext(ctx)
	if err != nil {
		c.logger.WarnTag("STATS", "uptime sample failed: %v", err)
		return
	}
	c.mu.Lock()
	c.snap.Uptime = &up
	c.mu.Unlock()
}
