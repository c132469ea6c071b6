// drv_error is a console input-driver which only returns errors.
//
// This driver is only used for testing purposes.

package console

import "fmt"

var (
	// ErrorInputName contains the name of this driver.
	ErrorInputName = "error"
)

// ErrorInput is an input-driver that only returns errors, and is used
// for testing.
type ErrorInput struct {
}

// Setup is a NOP.
func (ei *ErrorInput) Setup() error {
	return nil
}

// TearDown is a NOP.
func (ei *ErrorInput) TearDown() error {
	return nil
}

// Pending always pretends input is pending.
//
// However when input is polled for, via ReadByte, an error will
// always be returned.
func (ei *ErrorInput) Pending() bool {
	return true
}

// ReadByte always returns an error when invoked to read pending
// input.
func (ei *ErrorInput) ReadByte() (byte, error) {
	return 0x00, fmt.Errorf("DRV_ERROR")
}

// Name returns the name of this driver, "error".
func (ei *ErrorInput) Name() string {
	return ErrorInputName
}

// init registers our driver, by name.
func init() {
	Register(ErrorInputName, func() Driver {
		return new(ErrorInput)
	})
}
