//go:build unix

// drv_stty creates a console input-driver which uses the `stty`
// binary to control echo, and select() to poll for pending input.
//
// This is obviously not portable outwith Unix-like systems, but it
// has the virtue of leaving the terminal alone between reads, which
// matters when the emulated firmware is chatty.

package console

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/term"
)

// STTYInput is an input-driver that executes the 'stty' binary to
// disable echoing of character input.
//
// This is slow, as you can imagine, so we keep track of whether we
// already disabled the echo to minimise the executions.
type STTYInput struct {

	// noEcho records whether we've already disabled echoing.
	noEcho bool
}

// Setup is a NOP.
func (si *STTYInput) Setup() error {
	return nil
}

// TearDown re-enables the echo we disabled.
func (si *STTYInput) TearDown() error {
	if si.noEcho {
		_ = exec.Command("stty", "-F", "/dev/tty", "echo").Run()
		si.noEcho = false
	}
	return nil
}

// Pending returns true if there is pending input from STDIN.
//
// Note that we have to set RAW mode, without this input is laggy.
func (si *STTYInput) Pending() bool {

	// switch stdin into 'raw' mode
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return false
	}

	// Can we read from STDIN?
	res := canSelect()

	// restore the state of the terminal to avoid mixing RAW/Cooked
	err = term.Restore(int(os.Stdin.Fd()), oldState)
	if err != nil {
		return false
	}

	return res
}

// ReadByte returns the next character from the console, blocking
// until one is available.
func (si *STTYInput) ReadByte() (byte, error) {

	if !si.noEcho {
		_ = exec.Command("stty", "-F", "/dev/tty", "-echo").Run()
		si.noEcho = true
	}

	// switch stdin into 'raw' mode
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return 0x00, fmt.Errorf("error making raw terminal %s", err)
	}

	// read only a single byte
	b := make([]byte, 1)
	_, err = os.Stdin.Read(b)
	if err != nil {
		return 0x00, fmt.Errorf("error reading a byte from stdin %s", err)
	}

	// restore the state of the terminal to avoid mixing RAW/Cooked
	err = term.Restore(int(os.Stdin.Fd()), oldState)
	if err != nil {
		return 0x00, fmt.Errorf("error restoring terminal state %s", err)
	}

	return b[0], nil
}

// Name is part of the module API, and returns the name of this driver.
func (si *STTYInput) Name() string {
	return "stty"
}

// init registers our driver, by name.
func init() {
	Register("stty", func() Driver {
		return new(STTYInput)
	})
}
