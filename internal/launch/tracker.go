package launch

import (
	"fmt"
	"os/exec"
	"sync"
)

// Tracker is the parent-side table of running execution processes. Reaping
// policy belongs to the scheduler; the tracker only keeps the handles it
// needs for that.
type Tracker struct {
	mu    sync.Mutex
	procs map[int]*exec.Cmd
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{procs: make(map[int]*exec.Cmd)}
}

// Add records a started command under its PID.
func (t *Tracker) Add(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs[cmd.Process.Pid] = cmd
}

// Wait reaps the process with the given PID and forgets it.
func (t *Tracker) Wait(pid int) error {
	t.mu.Lock()
	cmd, ok := t.procs[pid]
	delete(t.procs, pid)
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("no tracked process with pid %d", pid)
	}
	return cmd.Wait()
}

// PIDs returns the tracked process IDs.
func (t *Tracker) PIDs() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	pids := make([]int, 0, len(t.procs))
	for pid := range t.procs {
		pids = append(pids, pid)
	}
	return pids
}

// Reset discards all tracked handles without reaping. Called inside a spawned
// execution process so it does not see the parent's bookkeeping.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs = make(map[int]*exec.Cmd)
}
