// drv_tty creates a console driver which is connected to a real
// serial device, rather than the local terminal.
//
// The RetroShield is, at heart, an Arduino shield, so it is natural
// to want to talk to firmware running on the real hardware: with this
// driver the emulated ACIA/USART becomes a passthrough for a physical
// serial port.  Input is read from the device, and - uniquely among
// our drivers - output can be routed back to the same device.

package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.bug.st/serial"
)

// TTYInput is an input-driver connected to a physical serial device.
//
// The device name is taken from the environmental variable
// $RSHIELD_TTY, and the baud-rate from $RSHIELD_BAUD which defaults
// to 115200.
type TTYInput struct {

	// port is the open serial device.
	port serial.Port

	// cancel stops our reading goroutine.
	cancel context.CancelFunc

	// bytes carries input from the reading goroutine to the
	// emulation loop.
	bytes chan byte

	// next holds a byte already taken off the channel by Pending,
	// waiting for the ReadByte which follows.
	next *byte
}

// Setup opens the serial device and starts reading from it in the
// background.
func (ty *TTYInput) Setup() error {

	dev := os.Getenv("RSHIELD_TTY")
	if dev == "" {
		return fmt.Errorf("no serial device - set RSHIELD_TTY to use the tty driver")
	}

	baud := 115200
	if b := os.Getenv("RSHIELD_BAUD"); b != "" {
		n, err := strconv.Atoi(b)
		if err != nil {
			return fmt.Errorf("failed to parse RSHIELD_BAUD '%s': %s", b, err)
		}
		baud = n
	}

	port, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return fmt.Errorf("failed to open serial device %s: %s", dev, err)
	}
	ty.port = port

	ty.bytes = make(chan byte, 256)

	ctx, cancel := context.WithCancel(context.Background())
	ty.cancel = cancel

	go ty.pollDevice(ctx)

	return nil
}

// pollDevice runs in a goroutine and forwards bytes arriving on the
// serial device to our channel.
func (ty *TTYInput) pollDevice(ctx context.Context) {

	buf := make([]byte, 1)

	for {
		// Are we done?
		select {
		case <-ctx.Done():
			return
		default:
			// NOP
		}

		n, err := ty.port.Read(buf)
		if err != nil {
			return
		}
		if n == 1 {
			ty.bytes <- buf[0]
		}
	}
}

// TearDown stops the reader and closes the device.
func (ty *TTYInput) TearDown() error {

	if ty.cancel != nil {
		ty.cancel()
	}

	if ty.port != nil {
		return ty.port.Close()
	}
	return nil
}

// Pending returns true if a byte has arrived from the device.
func (ty *TTYInput) Pending() bool {

	if ty.next != nil {
		return true
	}

	select {
	case b := <-ty.bytes:
		ty.next = &b
		return true
	default:
		return false
	}
}

// ReadByte returns the next byte from the device, blocking until one
// arrives.
func (ty *TTYInput) ReadByte() (byte, error) {

	if ty.next != nil {
		b := *ty.next
		ty.next = nil
		return b, nil
	}

	return <-ty.bytes, nil
}

// Writer routes the machine's serial output back over the same
// device, satisfying the optional OutputSink interface.
func (ty *TTYInput) Writer() io.Writer {
	return ty.port
}

// Name is part of the module API, and returns the name of this driver.
func (ty *TTYInput) Name() string {
	return "tty"
}

// init registers our driver, by name.
func init() {
	Register("tty", func() Driver {
		return new(TTYInput)
	})
}
