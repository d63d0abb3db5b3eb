package merkle

import (
	"math"
	"time"

	"github.com/mambisi/actions-tool/pkg/kv"
)

// OperationLatencies tracks cumulative, min and max execution time (in
// nanoseconds) for one operation name.
type OperationLatencies struct {
	cumulExecTime float64
	ExecCount     uint64
	AvgExecTime   float64
	MinExecTime   float64
	MaxExecTime   float64
}

func newOperationLatencies() *OperationLatencies {
	return &OperationLatencies{MinExecTime: math.MaxFloat64, MaxExecTime: -math.MaxFloat64}
}

func (o *OperationLatencies) record(execNanos float64) {
	o.cumulExecTime += execNanos
	o.ExecCount++
	if execNanos < o.MinExecTime {
		o.MinExecTime = execNanos
	}
	if execNanos > o.MaxExecTime {
		o.MaxExecTime = execNanos
	}
}

func (o *OperationLatencies) finalizeAverage() {
	if o.ExecCount > 0 {
		o.AvgExecTime = o.cumulExecTime / float64(o.ExecCount)
	}
}

// OperationLatencyStats indexes OperationLatencies by operation name.
type OperationLatencyStats map[string]*OperationLatencies

// PerPathOperationStats indexes OperationLatencyStats by the first path
// segment under "data", matching the engine's convention of only tracking
// per-path cost for keys under that namespace.
type PerPathOperationStats map[string]OperationLatencyStats

// PerfStats aggregates global and per-path operation latencies.
type PerfStats struct {
	Global  OperationLatencyStats
	PerPath PerPathOperationStats
}

func newPerfStats() *PerfStats {
	return &PerfStats{Global: make(OperationLatencyStats), PerPath: make(PerPathOperationStats)}
}

// StorageStats bundles backing-store statistics with perf stats for
// GetMerkleStats callers.
type StorageStats struct {
	DB   kv.Stats
	Perf PerfStats
}

func (e *Engine) updateExecutionStats(op string, path ContextKey, start time.Time) {
	execNanos := float64(time.Since(start).Nanoseconds())

	g, ok := e.perf.Global[op]
	if !ok {
		g = newOperationLatencies()
		e.perf.Global[op] = g
	}
	g.record(execNanos)

	if len(path) > 1 && path[0] == "data" {
		node := path[1]
		perPath, ok := e.perf.PerPath[node]
		if !ok {
			perPath = make(OperationLatencyStats)
			e.perf.PerPath[node] = perPath
		}
		entry, ok := perPath[op]
		if !ok {
			entry = newOperationLatencies()
			perPath[op] = entry
		}
		entry.record(execNanos)
	}
}

// GetMerkleStats reports backing-store statistics alongside averaged
// operation latencies.
func (e *Engine) GetMerkleStats() (StorageStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	dbStats, err := e.db.Stats()
	if err != nil {
		return StorageStats{}, errDB(err)
	}

	out := PerfStats{Global: make(OperationLatencyStats), PerPath: make(PerPathOperationStats)}
	for op, stat := range e.perf.Global {
		copyStat := *stat
		copyStat.finalizeAverage()
		out.Global[op] = &copyStat
	}
	for node, ops := range e.perf.PerPath {
		copied := make(OperationLatencyStats, len(ops))
		for op, stat := range ops {
			copyStat := *stat
			copyStat.finalizeAverage()
			copied[op] = &copyStat
		}
		out.PerPath[node] = copied
	}

	return StorageStats{DB: dbStats, Perf: out}, nil
}
