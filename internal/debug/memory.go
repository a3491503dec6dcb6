// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package debug provides background diagnostics for the relay process. A
// long-lived multi-tenant relay leaks goroutines (one read pump per
// connection, one keepalive loop per active room) far more easily than it
// leaks heap, and a goroutine leak is invisible in a bare heap-size log line
// unless it's read alongside how many rooms and peer connections are
// actually supposed to be driving that goroutine count. This monitor reads
// both together.
package debug

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"
)

// RoomStats is the narrow view of the live room registry the monitor needs.
// Defined here rather than imported from internal/room so this package
// never depends on the room package — cmd/server wires a *room.Manager in
// at startup, satisfying this interface implicitly.
type RoomStats interface {
	// AggregateStats reports the number of live rooms and the total number
	// of admitted peer connections (browser + local + agents) across all
	// of them.
	AggregateStats() (rooms, connections int)
}

// MemoryMonitor periodically logs memory, goroutine, and room/connection
// counts together, and can dump full goroutine stacks on demand (wired to
// SIGQUIT in cmd/server/main.go).
type MemoryMonitor struct {
	interval          time.Duration
	warningThreshold  uint64
	criticalThreshold uint64
	stats             RoomStats

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	prevNumGC     uint32
	prevAlloc     uint64
	peakConns     int
	peakGoroutine int
}

// MemoryMonitorConfig tunes the monitor's cadence and alert thresholds.
type MemoryMonitorConfig struct {
	Interval          time.Duration
	WarningThreshold  uint64
	CriticalThreshold uint64
}

// DefaultConfig returns thresholds sized for a relay process, which holds
// only in-memory room state (no workspace files, no VM-sized buffers) and
// so runs far cooler than the sandbox VM this monitor was adapted from.
func DefaultConfig() MemoryMonitorConfig {
	return MemoryMonitorConfig{
		Interval:          30 * time.Second,
		WarningThreshold:  128 * 1024 * 1024,
		CriticalThreshold: 512 * 1024 * 1024,
	}
}

// NewMemoryMonitor builds a monitor against cfg. stats may be nil, in which
// case room/connection counts are simply omitted from the log line (useful
// for standalone tests of this package that don't want a room.Manager).
func NewMemoryMonitor(cfg MemoryMonitorConfig, stats RoomStats) *MemoryMonitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.WarningThreshold == 0 {
		cfg.WarningThreshold = 128 * 1024 * 1024
	}
	if cfg.CriticalThreshold == 0 {
		cfg.CriticalThreshold = 512 * 1024 * 1024
	}
	return &MemoryMonitor{
		interval:          cfg.Interval,
		warningThreshold:  cfg.WarningThreshold,
		criticalThreshold: cfg.CriticalThreshold,
		stats:             stats,
		stopCh:            make(chan struct{}),
	}
}

// Start begins periodic diagnostics logging in a background goroutine.
func (m *MemoryMonitor) Start() {
	m.wg.Add(1)
	go m.monitorLoop()
	log.Printf("INFO memory monitor started interval=%v warn=%dMB crit=%dMB",
		m.interval, m.warningThreshold/(1024*1024), m.criticalThreshold/(1024*1024))
}

// Stop halts the monitor and blocks until its goroutine exits.
func (m *MemoryMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	log.Println("INFO memory monitor stopped")
}

func (m *MemoryMonitor) monitorLoop() {
	defer m.wg.Done()
	m.report("startup")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			m.report("shutdown")
			return
		case <-ticker.C:
			m.report("periodic")
		}
	}
}

// snapshot is the set of numbers a single report line is built from.
type snapshot struct {
	heapAlloc    uint64
	heapMB       float64
	sysMB        float64
	goroutines   int
	gcRuns       uint32
	allocDeltaMB float64
	heapObjects  uint64
	rooms        int
	connections  int
	haveStats    bool
}

func (m *MemoryMonitor) takeSnapshot() snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := snapshot{
		heapAlloc:    ms.HeapAlloc,
		heapMB:       float64(ms.HeapAlloc) / (1024 * 1024),
		sysMB:        float64(ms.Sys) / (1024 * 1024),
		goroutines:   runtime.NumGoroutine(),
		gcRuns:       ms.NumGC - m.prevNumGC,
		allocDeltaMB: float64(ms.TotalAlloc-m.prevAlloc) / (1024 * 1024),
		heapObjects:  ms.HeapObjects,
	}
	m.prevNumGC = ms.NumGC
	m.prevAlloc = ms.TotalAlloc

	if m.stats != nil {
		s.rooms, s.connections = m.stats.AggregateStats()
		s.haveStats = true
		if s.connections > m.peakConns {
			m.peakConns = s.connections
		}
	}
	if s.goroutines > m.peakGoroutine {
		m.peakGoroutine = s.goroutines
	}
	return s
}

func (m *MemoryMonitor) levelFor(s snapshot) string {
	switch {
	case s.heapAlloc >= m.criticalThreshold:
		return "CRITICAL"
	case s.heapAlloc >= m.warningThreshold:
		return "WARNING"
	default:
		return "INFO"
	}
}

// report logs one line combining runtime memory stats with the live
// room/connection census, plus the high-watermark for connections and
// goroutines seen since the monitor started — the number that actually
// distinguishes "this relay is busy" from "this relay is leaking."
func (m *MemoryMonitor) report(reason string) {
	s := m.takeSnapshot()
	level := m.levelFor(s)

	if s.haveStats {
		log.Printf("%s [memory:%s] heap=%.1fMB sys=%.1fMB goroutines=%d(peak=%d) gc_runs=%d alloc_delta=%.1fMB heap_objects=%d rooms=%d connections=%d(peak=%d)",
			level, reason, s.heapMB, s.sysMB, s.goroutines, m.peakGoroutine, s.gcRuns, s.allocDeltaMB, s.heapObjects,
			s.rooms, s.connections, m.peakConns)
	} else {
		log.Printf("%s [memory:%s] heap=%.1fMB sys=%.1fMB goroutines=%d(peak=%d) gc_runs=%d alloc_delta=%.1fMB heap_objects=%d",
			level, reason, s.heapMB, s.sysMB, s.goroutines, m.peakGoroutine, s.gcRuns, s.allocDeltaMB, s.heapObjects)
	}

	if s.haveStats && s.rooms > 0 && s.connections == 0 {
		log.Printf("WARNING [memory:%s] %d room(s) tracked with zero admitted connections — likely orphaned by a missed ScheduleCleanupIfEmpty sweep", reason, s.rooms)
	}

	if level == "CRITICAL" {
		m.logGoroutineSummary()
	}
}

// DumpGoroutineStacks writes every goroutine's stack to stderr, used from
// the SIGQUIT handler in cmd/server/main.go when a room appears wedged.
func (m *MemoryMonitor) DumpGoroutineStacks() {
	log.Println("INFO [memory:dump] dumping all goroutine stacks")
	m.report("dump")

	buf := make([]byte, 1024*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE DUMP ===\n%s\n=== END GOROUTINE DUMP ===\n", buf[:n])
			break
		}
		buf = make([]byte, len(buf)*2)
		if len(buf) > 64*1024*1024 {
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE DUMP (truncated) ===\n%s\n=== END GOROUTINE DUMP ===\n", buf)
			break
		}
	}
	log.Printf("INFO [memory:dump] goroutine dump complete count=%d", runtime.NumGoroutine())
}

func (m *MemoryMonitor) logGoroutineSummary() {
	p := pprof.Lookup("goroutine")
	if p == nil {
		return
	}
	log.Printf("CRITICAL [memory:goroutines] total_goroutines=%d (dumping summary to stderr)", p.Count())
	p.WriteTo(os.Stderr, 1)
}
