// Package memory provides the 64k of RAM within which the emulator
// executes its programs.
//
// The RetroShield hardware has no banking, so this really is just a
// flat 64k array.  The same object doubles as the guest-memory
// accessor which the SD-card peripheral uses for its block transfers,
// which is why the single-byte Get/Set methods are the primary
// interface.
package memory

import (
	"fmt"
	"os"
)

// Memory provides 64K bytes array memory.
type Memory struct {
	buf [65536]uint8
}

// Set sets a byte at addr of memory.
func (m *Memory) Set(addr uint16, value uint8) {
	m.buf[addr] = value
}

// Get returns a byte at addr of memory.
func (m *Memory) Get(addr uint16) uint8 {
	return m.buf[addr]
}

// GetU16 returns a word from the given address of memory.
func (m *Memory) GetU16(addr uint16) uint16 {
	l := m.Get(addr)
	h := m.Get(addr + 1)
	return (uint16(h) << 8) | uint16(l)
}

// SetRange copies bytes from the given data to the specified
// starting address in RAM.
func (m *Memory) SetRange(addr uint16, data ...uint8) {
	copy(m.buf[int(addr):int(addr)+len(data)], data)
}

// FillRange fills an area of memory with the given byte
func (m *Memory) FillRange(addr uint16, size int, char uint8) {
	for size > 0 {
		m.buf[addr] = char
		addr++
		size--
	}
}

// GetRange returns the contents of a given range
func (m *Memory) GetRange(addr uint16, size int) []uint8 {
	var ret []uint8
	for size > 0 {
		ret = append(ret, m.buf[addr])
		addr++
		size--
	}
	return ret
}

// LoadROM loads a flat binary ROM image at address 0x0000, which is
// where the Z80 begins execution after reset.
//
// The rest of RAM is zeroed, so an image shorter than 64k leaves NOPs
// beyond its end.
func (m *Memory) LoadROM(name string) error {

	// Zero the whole 64k.
	for i := range m.buf {
		m.buf[i] = 0x00
	}

	rom, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read ROM %s: %s", name, err)
	}

	if len(rom) > len(m.buf) {
		return fmt.Errorf("ROM %s is %d bytes, larger than the 64k address space", name, len(rom))
	}

	m.SetRange(0x0000, rom...)
	return nil
}
