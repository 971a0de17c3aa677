package executor

import (
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// termGrace is how long the process group gets to exit after SIGTERM
// before SIGKILL follows.
const termGrace = 100 * time.Millisecond

// procGroup ties a started command to cancellation: when the cancel channel
// fires, the whole process tree dies, not just the direct child. pytest
// spawns browser processes that would otherwise outlive an interrupted run.
type procGroup struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
	err  error
}

// setupProcessGroup puts the command in its own process group so all
// descendants can be signaled together.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// newProcessGroupCleanup watches cancelCh for the already-started cmd.
// caller must call Wait exactly once.
func newProcessGroupCleanup(cmd *exec.Cmd, cancelCh <-chan struct{}) *procGroup {
	pg := &procGroup{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go pg.watch(cancelCh)
	return pg
}

func (pg *procGroup) watch(cancelCh <-chan struct{}) {
	select {
	case <-cancelCh:
		pg.kill()
	case <-pg.done:
		// process completed on its own
	}
}

// kill signals the process group: SIGTERM first, SIGKILL after the grace
// period if anything is still alive.
func (pg *procGroup) kill() {
	if pg.cmd.Process == nil {
		return
	}

	pgid := -pg.cmd.Process.Pid

	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		// ESRCH means the group already exited
		if err != syscall.ESRCH {
			fmt.Printf("[executor] SIGTERM failed for pgid %d: %v\n", pgid, err)
		}
		return
	}

	time.Sleep(termGrace)

	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil {
		if err != syscall.ESRCH {
			fmt.Printf("[executor] SIGKILL failed for pgid %d: %v\n", pgid, err)
		}
	}
}

// Wait waits for the command and releases the watcher. repeated calls are
// safe and return the first result.
func (pg *procGroup) Wait() error {
	pg.once.Do(func() {
		pg.err = pg.cmd.Wait()
		close(pg.done)
		if pg.err != nil {
			pg.err = fmt.Errorf("command wait: %w", pg.err)
		}
	})
	return pg.err
}
