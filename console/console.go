// Package console handles the reading of console input for the
// serial chips of our emulator.
//
// The emulated ACIA/USART only ever ask two questions - "is a byte
// waiting?" and "give me the next byte" - so that is the whole driver
// surface.  Several drivers exist, covering interactive use, scripted
// automation, and a passthrough to a real serial device, and a factory
// can instantiate any of them given just a name.
package console

import (
	"fmt"
	"io"
	"strings"
)

// Driver is the interface that must be implemented by anything that
// wishes to act as a source of console input.
//
// Once implemented an object may register itself, by name, via the
// Register function.
type Driver interface {

	// Setup performs any one-time initialization, such as
	// switching the terminal into raw mode.
	Setup() error

	// TearDown undoes whatever Setup did.
	TearDown() error

	// Pending returns true if a byte of input is waiting.
	Pending() bool

	// ReadByte returns the next byte of input, blocking until one
	// is available.
	ReadByte() (byte, error)

	// Name returns the name of the driver.
	Name() string
}

// OutputSink is an optional interface a driver may implement when it
// can also carry the emulated machine's output - for example the tty
// driver, where input and output share one physical serial device.
type OutputSink interface {

	// Writer returns the destination the machine's serial output
	// should be sent to.
	Writer() io.Writer
}

// This is a map of known-drivers.
var handlers = struct {
	m map[string]Constructor
}{m: make(map[string]Constructor)}

// Constructor is the signature of a constructor-function which is
// used to instantiate an instance of a driver.
type Constructor func() Driver

// Register makes a console driver available, by name.
func Register(name string, obj Constructor) {
	// Downcase for consistency.
	name = strings.ToLower(name)

	handlers.m[name] = obj
}

// Console owns the selected input driver, plus a buffer of "stuffed"
// input which tests use to fake keyboard traffic.
type Console struct {

	// driver is the thing that actually reads our input.
	driver Driver

	// stuffed holds fake input which is drained before the driver
	// is consulted.
	stuffed []byte
}

// New creates a console using the driver with the given name.
func New(name string) (*Console, error) {
	// Downcase for consistency.
	name = strings.ToLower(name)

	// Do we have a constructor with the given name?
	ctor, ok := handlers.m[name]
	if !ok {
		return nil, fmt.Errorf("failed to lookup console driver by name '%s'", name)
	}

	return &Console{
		driver: ctor(),
	}, nil
}

// Setup initializes the underlying driver.
func (c *Console) Setup() error {
	return c.driver.Setup()
}

// TearDown restores whatever the underlying driver changed.
func (c *Console) TearDown() error {
	return c.driver.TearDown()
}

// Name returns the name of the active driver.
func (c *Console) Name() string {
	return c.driver.Name()
}

// GetDriver allows getting our driver at runtime.
func (c *Console) GetDriver() Driver {
	return c.driver
}

// Stuff inserts fake bytes into our input-buffer, ahead of anything
// the driver produces.
func (c *Console) Stuff(input string) {
	c.stuffed = append(c.stuffed, input...)
}

// Pending returns true if a byte of input is waiting.
func (c *Console) Pending() bool {
	if len(c.stuffed) > 0 {
		return true
	}
	return c.driver.Pending()
}

// ReadByte returns the next byte of input, blocking until one is
// available.
func (c *Console) ReadByte() (byte, error) {
	if len(c.stuffed) > 0 {
		b := c.stuffed[0]
		c.stuffed = c.stuffed[1:]
		return b, nil
	}
	return c.driver.ReadByte()
}

// OutputWriter returns the output destination the active driver
// carries, if it carries one at all.
func (c *Console) OutputWriter() (io.Writer, bool) {
	sink, ok := c.driver.(OutputSink)
	if !ok {
		return nil, false
	}
	return sink.Writer(), true
}
