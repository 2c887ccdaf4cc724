package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal owns the host terminal: raw mode, the alternate screen, and
// resize signals. Open it once per process; Close restores the terminal
// even after a panic if deferred.
type Terminal struct {
	mu sync.Mutex

	caps *Caps
	out  *bufio.Writer
	ops  *Writer

	oldState *term.State
	done     chan struct{}

	cols, rows int
	onResize   func(cols, rows int)
}

// Open detects capabilities, switches the host terminal to raw mode and the
// alternate screen, and starts watching for resizes.
func Open(caps *Caps) (*Terminal, error) {
	if caps == nil {
		caps = Detect("")
	}
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("cli: raw mode: %w", err)
	}
	t := &Terminal{
		caps:     caps,
		out:      bufio.NewWriter(os.Stdout),
		oldState: oldState,
		done:     make(chan struct{}),
	}
	t.ops = NewWriter(t.out, caps)
	t.cols, t.rows = hostSize()

	ti := caps.ti
	t.out.WriteString(ti.EnterCA)
	t.out.WriteString(ti.HideCursor)
	t.out.WriteString(ti.Clear)
	if err := t.out.Flush(); err != nil {
		term.Restore(int(os.Stdin.Fd()), oldState)
		return nil, err
	}

	go t.watchResize()
	return t, nil
}

// Close leaves the alternate screen and restores the terminal state.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.done:
		return nil
	default:
		close(t.done)
	}
	ti := t.caps.ti
	t.out.WriteString(ti.AttrOff)
	t.out.WriteString(ti.Clear)
	t.out.WriteString(ti.ShowCursor)
	t.out.WriteString(ti.ExitCA)
	t.out.Flush()
	return term.Restore(int(os.Stdin.Fd()), t.oldState)
}

// Caps returns the resolved terminal capabilities.
func (t *Terminal) Caps() *Caps { return t.caps }

// Ops returns the operation writer bound to the host terminal. Callers must
// Flush after a render pass.
func (t *Terminal) Ops() *Writer { return t.ops }

// Flush pushes buffered output to the terminal.
func (t *Terminal) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.Flush()
}

// Size returns the host terminal dimensions as last observed.
func (t *Terminal) Size() (cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows
}

// OnResize registers a callback invoked from the resize watcher whenever
// the host terminal changes size.
func (t *Terminal) OnResize(fn func(cols, rows int)) {
	t.mu.Lock()
	t.onResize = fn
	t.mu.Unlock()
}

func (t *Terminal) watchResize() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGWINCH)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			cols, rows := hostSize()
			t.mu.Lock()
			changed := cols != t.cols || rows != t.rows
			t.cols, t.rows = cols, rows
			fn := t.onResize
			t.mu.Unlock()
			if changed && fn != nil {
				fn(cols, rows)
			}
		case <-t.done:
			return
		}
	}
}

// hostSize queries the controlling terminal, falling back to a TIOCGWINSZ
// ioctl on the tty and then to 80x24 when everything fails (output
// redirected, no controlling tty).
func hostSize() (cols, rows int) {
	if c, r, err := term.GetSize(int(os.Stdout.Fd())); err == nil && c > 0 && r > 0 {
		return c, r
	}
	if tty, err := os.Open("/dev/tty"); err == nil {
		defer tty.Close()
		if ws, err := unix.IoctlGetWinsize(int(tty.Fd()), unix.TIOCGWINSZ); err == nil && ws.Col > 0 {
			return int(ws.Col), int(ws.Row)
		}
	}
	return 80, 24
}
