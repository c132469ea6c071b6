// Package machine wires the pieces of the RetroShield together: 64k
// of RAM, the Z80 CPU, the pair of serial chips, and the SD-card
// storage peripheral.
//
// The machine implements the CPU's I/O bus: every IN/OUT instruction
// the guest executes arrives here, one synchronous call at a time,
// and is routed to whichever peripheral claims the port.
package machine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/koron-go/z80"

	"github.com/retrosys/rshield/memory"
	"github.com/retrosys/rshield/sdcard"
	"github.com/retrosys/rshield/serial"
)

// Serial chip I/O ports.
//
// The USART sits at the bottom of the port space and the ACIA at
// 0x80/0x81, matching the port maps the shield ROMs were built for.
const (
	// PortUSARTData is the Intel 8251 data register.
	PortUSARTData uint8 = 0x00

	// PortUSARTStatus is the Intel 8251 status/control register.
	PortUSARTStatus uint8 = 0x01

	// PortACIAStatus is the MC6850 status/control register.
	PortACIAStatus uint8 = 0x80

	// PortACIAData is the MC6850 data register.
	PortACIAData uint8 = 0x81
)

// Machine is the whole emulated system.
type Machine struct {

	// Memory contains the RAM the system runs with.
	Memory *memory.Memory

	// SD is the storage peripheral.
	SD *sdcard.SDCard

	// ACIA is the MC6850 serial chip.
	ACIA *serial.MC6850

	// USART is the Intel 8251 serial chip.
	USART *serial.Intel8251

	// CPU contains the virtual Z80 we use to execute code.
	CPU z80.CPU

	// Logger is used for tracing.
	Logger *slog.Logger
}

// New constructs a machine whose SD card stores its files beneath the
// given directory, with serial input arriving from the given source
// and serial output going to the given writer.
//
// Either of input/output may be nil, leaving the matching side of the
// serial chips disconnected.
func New(storage string, input serial.Input, output io.Writer, logger *slog.Logger) *Machine {

	if logger == nil {
		logger = slog.Default()
	}

	mem := new(memory.Memory)

	sd := sdcard.New(storage, logger)

	// The card reaches guest RAM only through this accessor.
	sd.AttachMemory(mem)

	return &Machine{
		Memory: mem,
		SD:     sd,
		ACIA:   serial.NewMC6850(input, output),
		USART:  serial.NewIntel8251(input, output),
		Logger: logger,
	}
}

// LoadROM loads a flat binary image at the Z80 reset vector.
func (m *Machine) LoadROM(path string) error {
	err := m.Memory.LoadROM(path)
	if err != nil {
		return fmt.Errorf("failed to load ROM: %s", err)
	}

	fi, _ := os.Stat(path)
	if fi != nil {
		m.Logger.Debug("machine: ROM loaded",
			slog.String("path", path),
			slog.Int64("size", fi.Size()))
	}
	return nil
}

// Run executes the loaded ROM from address 0x0000 until the CPU
// halts, or the context is cancelled.
//
// A HALT instruction is the clean way for a guest to stop, and is not
// reported as an error.
func (m *Machine) Run(ctx context.Context) error {

	m.CPU = z80.CPU{
		States: z80.States{
			SPR: z80.SPR{
				PC: 0x0000,
			},
		},
		Memory: m.Memory,
		IO:     m,
	}

	err := m.CPU.Run(ctx)
	if err != nil {
		return fmt.Errorf("unexpected error running CPU %s", err)
	}

	m.Logger.Debug("machine: CPU halted",
		slog.Int("pc", int(m.CPU.States.SPR.PC)))
	return nil
}

// In is called to handle the I/O reading of a Z80 port.
//
// This is called by our embedded Z80 emulator.
func (m *Machine) In(addr uint8) uint8 {

	var val uint8

	switch {
	case m.SD.Handles(addr):
		val = m.SD.In(addr)

	case addr == PortACIAStatus:
		val = m.ACIA.ReadStatus()

	case addr == PortACIAData:
		val = m.ACIA.ReadData()

	case addr == PortUSARTStatus:
		val = m.USART.ReadStatus()

	case addr == PortUSARTData:
		val = m.USART.ReadData()

	default:
		// An empty bus floats high.
		val = 0xFF
	}

	m.Logger.Debug("machine: I/O IN",
		slog.Int("port", int(addr)),
		slog.Int("value", int(val)))

	return val
}

// Out is called to handle the I/O writing to a Z80 port.
//
// This is called by our embedded Z80 emulator.
func (m *Machine) Out(addr uint8, val uint8) {

	m.Logger.Debug("machine: I/O OUT",
		slog.Int("port", int(addr)),
		slog.Int("value", int(val)))

	switch {
	case m.SD.Handles(addr):
		m.SD.Out(addr, val)

	case addr == PortACIAStatus:
		m.ACIA.WriteControl(val)

	case addr == PortACIAData:
		m.ACIA.WriteData(val)

	case addr == PortUSARTStatus:
		m.USART.WriteControl(val)

	case addr == PortUSARTData:
		m.USART.WriteData(val)
	}

	// Writes to unclaimed ports are discarded.
}
