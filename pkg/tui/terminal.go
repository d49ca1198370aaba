package tui

import (
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/vt"
	"github.com/creack/pty"
)

// terminalFrame is how often the embedded terminal is redrawn.
const terminalFrame = 33 * time.Millisecond

type (
	terminalTickMsg struct{}
	terminalExitMsg struct{ err error }
)

func terminalTick() tea.Cmd {
	return tea.Tick(terminalFrame, func(time.Time) tea.Msg {
		return terminalTickMsg{}
	})
}

// Terminal runs a command on a PTY and mirrors its screen through a vt
// emulator, so a full-screen program like $EDITOR can live inside the TUI.
type Terminal struct {
	em   *vt.Emulator
	ptmx *os.File
	cmd  *exec.Cmd

	// done is closed once the process has exited; err is set before.
	done chan struct{}
	err  error
}

// StartTerminal starts cmd on a w x h PTY.
func StartTerminal(cmd *exec.Cmd, w, h int) (*Terminal, tea.Cmd, error) {
	ptmx, err := pty.StartWithSize(cmd, winsize(w, h))
	if err != nil {
		return nil, nil, err
	}
	t := &Terminal{
		em:   vt.NewEmulator(w, h),
		ptmx: ptmx,
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		_, _ = io.Copy(t.em, ptmx)
		t.err = cmd.Wait()
		close(t.done)
	}()
	return t, terminalTick(), nil
}

func winsize(w, h int) *pty.Winsize {
	return &pty.Winsize{Rows: uint16(h), Cols: uint16(w)}
}

// Update forwards keys to the process and keeps the redraw loop going
// until the process exits.
func (t *Terminal) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if b := encodeKey(msg); len(b) > 0 {
			_, _ = t.ptmx.Write(b)
		}
	case terminalTickMsg:
		select {
		case <-t.done:
			return func() tea.Msg { return terminalExitMsg{err: t.err} }
		default:
			return terminalTick()
		}
	}
	return nil
}

// View renders the emulator screen.
func (t *Terminal) View() string { return t.em.Render() }

// Resize resizes both the emulator and the PTY.
func (t *Terminal) Resize(w, h int) {
	t.em.Resize(w, h)
	_ = pty.Setsize(t.ptmx, winsize(w, h))
}

// Close kills the process if it is still running and releases the PTY.
func (t *Terminal) Close() {
	select {
	case <-t.done:
	default:
		if t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
		}
	}
	_ = t.ptmx.Close()
}

// editorCommand opens path in $EDITOR through a login shell so the user's
// editor configuration is loaded.
func editorCommand(path string) *exec.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	c := exec.Command(shell, "-l", "-c", editor+" "+shellQuote(path))
	c.Env = append(os.Environ(), "TERM=xterm-256color")
	return c
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// xtermKeys maps named keys to the bytes an xterm would send.
var xtermKeys = map[string]string{
	"enter":     "\r",
	"backspace": "\x7f",
	"tab":       "\t",
	"shift+tab": "\x1b[Z",
	" ":         " ",
	"space":     " ",
	"esc":       "\x1b",
	"up":        "\x1b[A",
	"down":      "\x1b[B",
	"right":     "\x1b[C",
	"left":      "\x1b[D",
	"home":      "\x1b[H",
	"end":       "\x1b[F",
	"pgup":      "\x1b[5~",
	"pgdown":    "\x1b[6~",
	"insert":    "\x1b[2~",
	"delete":    "\x1b[3~",
	"f1":        "\x1bOP",
	"f2":        "\x1bOQ",
	"f3":        "\x1bOR",
	"f4":        "\x1bOS",
	"f5":        "\x1b[15~",
	"f6":        "\x1b[17~",
	"f7":        "\x1b[18~",
	"f8":        "\x1b[19~",
	"f9":        "\x1b[20~",
	"f10":       "\x1b[21~",
	"f11":       "\x1b[23~",
	"f12":       "\x1b[24~",
}

// encodeKey converts a key press into the bytes written to the PTY.
func encodeKey(msg tea.KeyMsg) []byte {
	if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
		return []byte(string(msg.Runes))
	}
	name := msg.String()
	if seq, ok := xtermKeys[name]; ok {
		return []byte(seq)
	}
	// ctrl+a through ctrl+z are 0x01 through 0x1a.
	if c, ok := strings.CutPrefix(name, "ctrl+"); ok && len(c) == 1 && c[0] >= 'a' && c[0] <= 'z' {
		return []byte{c[0] - 'a' + 1}
	}
	return nil
}
