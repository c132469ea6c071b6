// Package serial emulates the two serial chips a RetroShield ROM may
// talk to - the MC6850 ACIA and the Intel 8251 USART.
//
// Both are deliberately shallow: a status register advertising
// "always ready to transmit" plus "receive full" when console input
// is waiting, a data register which moves single bytes, and nothing
// else.  No baud rates, no interrupts.  That matches what the real
// shield firmware relies upon.
package serial

import (
	"io"
)

// Input is the source of received bytes - in practice a console
// driver, but the chips only need these two questions answered.
type Input interface {

	// Pending returns true if a byte is waiting.
	Pending() bool

	// ReadByte returns the next byte, blocking until one arrives.
	ReadByte() (byte, error)
}

// MC6850 status register bits.
const (
	// ACIARDRF is set when the receive data register is full.
	ACIARDRF uint8 = 0x01

	// ACIATDRE is set when the transmit data register is empty,
	// which for us is always.
	ACIATDRE uint8 = 0x02
)

// MC6850 is the ACIA emulation.
type MC6850 struct {

	// input supplies received bytes.
	input Input

	// output receives transmitted bytes.
	output io.Writer

	// control stores the last control-register write, which we
	// accept and otherwise ignore.
	control uint8
}

// NewMC6850 creates an ACIA connected to the given input source and
// output destination.
func NewMC6850(input Input, output io.Writer) *MC6850 {
	return &MC6850{
		input:  input,
		output: output,
	}
}

// ReadStatus returns the status register.
func (m *MC6850) ReadStatus() uint8 {
	status := ACIATDRE // Always ready to transmit.

	if m.input != nil && m.input.Pending() {
		status |= ACIARDRF
	}

	return status
}

// ReadData returns the next received byte, or zero if none is
// waiting.
func (m *MC6850) ReadData() uint8 {
	if m.input == nil || !m.input.Pending() {
		return 0x00
	}

	b, err := m.input.ReadByte()
	if err != nil {
		return 0x00
	}
	return b
}

// WriteData transmits one byte.
func (m *MC6850) WriteData(val uint8) {
	if m.output != nil {
		_, _ = m.output.Write([]byte{val})
	}
}

// WriteControl stores a control-register write.
func (m *MC6850) WriteControl(val uint8) {
	m.control = val
}

// Intel 8251 status register bits.
const (
	// USARTTxRDY is set when the transmitter can accept a byte.
	USARTTxRDY uint8 = 0x01

	// USARTRxRDY is set when a received byte is waiting.
	USARTRxRDY uint8 = 0x02

	// USARTTxE is set when the transmitter is empty.
	USARTTxE uint8 = 0x04

	// USARTDSR is the data-set-ready line, wired high.
	USARTDSR uint8 = 0x80
)

// Intel8251 is the USART emulation.
type Intel8251 struct {

	// input supplies received bytes.
	input Input

	// output receives transmitted bytes.
	output io.Writer

	// mode stores the last mode/command write, which we accept
	// and otherwise ignore.
	mode uint8
}

// NewIntel8251 creates a USART connected to the given input source
// and output destination.
func NewIntel8251(input Input, output io.Writer) *Intel8251 {
	return &Intel8251{
		input:  input,
		output: output,
	}
}

// ReadStatus returns the status register.
func (u *Intel8251) ReadStatus() uint8 {
	status := USARTTxRDY | USARTTxE | USARTDSR

	if u.input != nil && u.input.Pending() {
		status |= USARTRxRDY
	}

	return status
}

// ReadData returns the next received byte, or zero if none is
// waiting.
//
// Lowercase letters are folded to uppercase, matching the behaviour
// of the Arduino firmware the shield ROMs were written against.
func (u *Intel8251) ReadData() uint8 {
	if u.input == nil || !u.input.Pending() {
		return 0x00
	}

	b, err := u.input.ReadByte()
	if err != nil {
		return 0x00
	}

	if b >= 'a' && b <= 'z' {
		b = b - 'a' + 'A'
	}
	return b
}

// WriteData transmits one byte.
func (u *Intel8251) WriteData(val uint8) {
	if u.output != nil {
		_, _ = u.output.Write([]byte{val})
	}
}

// WriteControl stores a mode/command write.
func (u *Intel8251) WriteControl(val uint8) {
	u.mode = val
}
