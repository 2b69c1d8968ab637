// Package procwatch locates the game server process and samples its
// resource usage from /proc.
package procwatch

import (
	"context"
	"log/slog"
	"strings"

	sdbus "github.com/coreos/go-systemd/v22/dbus"
	"github.com/prometheus/procfs"
)

// Resolver finds the PID of the server's java process. ok=false means no
// matching process exists right now; that is not an error.
type Resolver interface {
	Resolve(ctx context.Context) (pid int, ok bool)
}

// SystemdResolver resolves the server PID in three steps: the unit's
// MainPID over D-Bus, then the java child of that wrapper process, then a
// command-line search as a last resort. The wrapper script forks the JVM,
// so MainPID alone usually points at the wrong process.
type SystemdResolver struct {
	Unit         string // systemd unit name, e.g. "hytale.service"
	ProcessMatch string // command-line substring for the fallback search
	Logger       *slog.Logger
}

// Resolve implements Resolver. Lookup failures at any step degrade to the
// next step; if everything fails the result is simply "not found".
func (r *SystemdResolver) Resolve(ctx context.Context) (int, bool) {
	if main, err := r.mainPID(ctx); err != nil {
		r.logger().Debug("systemd MainPID lookup failed", "unit", r.Unit, "error", err)
	} else if main > 0 {
		if pid, ok := childByComm(main, "java"); ok {
			return pid, true
		}
		// The unit may run the JVM directly, without a wrapper.
		if matchesCmdline(main, r.ProcessMatch) {
			return main, true
		}
	}

	if pid, ok := searchCmdline(r.ProcessMatch); ok {
		return pid, true
	}
	return 0, false
}

func (r *SystemdResolver) mainPID(ctx context.Context) (int, error) {
	conn, err := sdbus.NewWithContext(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	props, err := conn.GetUnitTypePropertiesContext(ctx, r.Unit, "Service")
	if err != nil {
		return 0, err
	}
	if pid, ok := props["MainPID"].(uint32); ok {
		return int(pid), nil
	}
	return 0, nil
}

func (r *SystemdResolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// childByComm returns the first direct child of ppid whose comm matches.
func childByComm(ppid int, comm string) (int, bool) {
	procs, err := procfs.AllProcs()
	if err != nil {
		return 0, false
	}
	for _, p := range procs {
		stat, err := p.Stat()
		if err != nil {
			continue
		}
		if stat.PPID == ppid && stat.Comm == comm {
			return p.PID, true
		}
	}
	return 0, false
}

// searchCmdline returns the first process whose command line contains
// match.
func searchCmdline(match string) (int, bool) {
	if match == "" {
		return 0, false
	}
	procs, err := procfs.AllProcs()
	if err != nil {
		return 0, false
	}
	for _, p := range procs {
		if matchesCmdline(p.PID, match) {
			return p.PID, true
		}
	}
	return 0, false
}

func matchesCmdline(pid int, match string) bool {
	if match == "" {
		return false
	}
	p, err := procfs.NewProc(pid)
	if err != nil {
		return false
	}
	args, err := p.CmdLine()
	if err != nil {
		return false
	}
	return strings.Contains(strings.Join(args, " "), match)
}
