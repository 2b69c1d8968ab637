package procwatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/procfs"
)

// ErrNotFound is returned by a Prober when the PID no longer exists.
var ErrNotFound = errors.New("process not found")

// Usage is a point-in-time resource reading for one process.
type Usage struct {
	CPUPercent float64
	RAMPercent float64
	RAMMB      float64
}

// Prober samples process resource usage.
type Prober interface {
	Sample(pid int) (Usage, error)
}

// ProcfsProber reads usage from /proc. CPUPercent is the lifetime average
// (total CPU time over wall time since process start), the same figure ps
// reports in %cpu.
type ProcfsProber struct{}

// Sample implements Prober.
func (ProcfsProber) Sample(pid int) (Usage, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return Usage{}, fmt.Errorf("open procfs: %w", err)
	}

	proc, err := fs.Proc(pid)
	if err != nil {
		return Usage{}, fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	}
	stat, err := proc.Stat()
	if err != nil {
		return Usage{}, fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	}

	var u Usage

	if start, err := stat.StartTime(); err == nil {
		elapsed := time.Since(time.Unix(int64(start), 0)).Seconds()
		if elapsed > 0 {
			u.CPUPercent = stat.CPUTime() / elapsed * 100
		}
	}

	rss := float64(stat.ResidentMemory())
	u.RAMMB = rss / (1024 * 1024)

	if mi, err := fs.Meminfo(); err == nil && mi.MemTotal != nil && *mi.MemTotal > 0 {
		// MemTotal is reported in kB.
		u.RAMPercent = rss / 1024 / float64(*mi.MemTotal) * 100
	}

	return u, nil
}
