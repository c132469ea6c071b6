// drv_term.go uses the Termbox library to handle console-based input.
//
// A goroutine is launched which collects any keyboard input and
// delivers it over a channel, where it can be peeled off on-demand.
// This is the default driver for interactive use.

package console

import (
	"context"
	"fmt"
	"os"

	"github.com/nsf/termbox-go"
	"golang.org/x/term"
)

// TermInput is our interactive input-driver, using termbox.
type TermInput struct {

	// oldState contains the state of the terminal, before
	// switching to RAW mode.
	oldState *term.State

	// cancel stops our polling goroutine.
	cancel context.CancelFunc

	// keys carries bytes from the polling goroutine to the
	// emulation loop.
	keys chan byte

	// next holds a byte already taken off the channel by Pending,
	// waiting for the ReadByte which follows.
	next *byte
}

// Setup switches the terminal into RAW mode, initializes termbox, and
// starts collecting keyboard input in the background.
func (ti *TermInput) Setup() error {

	var err error

	// switch STDIN into 'raw' mode - we must do this before we
	// setup termbox.
	ti.oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("error making raw terminal %s", err)
	}

	err = termbox.Init()
	if err != nil {
		return fmt.Errorf("error initializing termbox %s", err)
	}

	// This is "Show Cursor" which termbox hides by default.
	fmt.Printf("\x1b[?25h")

	ti.keys = make(chan byte, 64)

	ctx, cancel := context.WithCancel(context.Background())
	ti.cancel = cancel

	go ti.pollKeyboard(ctx)

	return nil
}

// pollKeyboard runs in a goroutine and forwards keyboard input to the
// keys channel, where it will be read from in the future.
func (ti *TermInput) pollKeyboard(ctx context.Context) {
	for {
		// Are we done?
		select {
		case <-ctx.Done():
			return
		default:
			// NOP
		}

		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			if ev.Ch != 0 {
				ti.keys <- byte(ev.Ch)
			} else {
				ti.keys <- byte(ev.Key)
			}
		}
	}
}

// TearDown resets the state of the terminal, and stops the background
// polling of characters.
func (ti *TermInput) TearDown() error {

	if ti.cancel != nil {
		ti.cancel()
	}

	termbox.Close()

	if ti.oldState != nil {
		return term.Restore(int(os.Stdin.Fd()), ti.oldState)
	}
	return nil
}

// Pending returns true if there is input waiting to be read.
func (ti *TermInput) Pending() bool {

	if ti.next != nil {
		return true
	}

	select {
	case b := <-ti.keys:
		ti.next = &b
		return true
	default:
		return false
	}
}

// ReadByte returns the next character from the console, blocking
// until one is available.
func (ti *TermInput) ReadByte() (byte, error) {

	if ti.next != nil {
		b := *ti.next
		ti.next = nil
		return b, nil
	}

	return <-ti.keys, nil
}

// Name is part of the module API, and returns the name of this driver.
func (ti *TermInput) Name() string {
	return "term"
}

// init registers our driver, by name.
func init() {
	Register("term", func() Driver {
		return new(TermInput)
	})
}
