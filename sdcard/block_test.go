package sdcard

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/retrosys/rshield/memory"
)

// TestBlockReadNoFile ensures a block-read with no file open fails,
// and leaves guest memory untouched.
func TestBlockReadNoFile(t *testing.T) {

	sd := New(t.TempDir(), nil)

	mem := new(memory.Memory)
	mem.FillRange(0x0000, 0xFFFF, 0xEE)
	sd.AttachMemory(mem)

	sd.Out(PortBlock, 0x00)

	if sd.In(PortBlock) != BlockError {
		t.Fatalf("expected BlockError with no file open")
	}

	for i := 0; i < BlockSize; i++ {
		if mem.Get(uint16(0x0080+i)) != 0xEE {
			t.Fatalf("guest memory was touched at 0x%04X", 0x0080+i)
		}
	}
}

// TestBlockReadNoMemory ensures a block-read with no accessor bound
// fails, and does not move the file position.
func TestBlockReadNoMemory(t *testing.T) {

	dir := t.TempDir()
	sd := New(dir, nil)

	err := os.WriteFile(filepath.Join(dir, "data.bin"), []byte("hello"), 0644)
	if err != nil {
		t.Fatalf("failed to populate storage: %s", err)
	}

	sendName(sd, "data.bin")
	sd.Out(PortCommand, CmdOpenRead)

	sd.Out(PortBlock, 0x00)
	if sd.In(PortBlock) != BlockError {
		t.Fatalf("expected BlockError with no memory attached")
	}

	// The file was not consumed.
	if sd.In(PortData) != 'h' {
		t.Fatalf("the failed transfer moved the file position")
	}
}

// TestBlockReadShortFile ensures a 50-byte file fills the window with
// 50 content bytes and 78 zeros, and still counts as a success.
func TestBlockReadShortFile(t *testing.T) {

	dir := t.TempDir()
	sd := New(dir, nil)

	content := bytes.Repeat([]byte{0xAB}, 50)
	err := os.WriteFile(filepath.Join(dir, "short.bin"), content, 0644)
	if err != nil {
		t.Fatalf("failed to populate storage: %s", err)
	}

	mem := new(memory.Memory)
	mem.FillRange(0x0000, 0xFFFF, 0xEE)
	sd.AttachMemory(mem)

	sendName(sd, "short.bin")
	sd.Out(PortCommand, CmdOpenRead)

	// Default DMA window is 0x0080.
	sd.Out(PortBlock, 0x00)

	if sd.In(PortBlock) != BlockOK {
		t.Fatalf("a short read is still a successful transfer")
	}

	for i := 0; i < 50; i++ {
		if mem.Get(uint16(0x0080+i)) != 0xAB {
			t.Fatalf("content byte %d wrong", i)
		}
	}
	for i := 50; i < BlockSize; i++ {
		if mem.Get(uint16(0x0080+i)) != 0x00 {
			t.Fatalf("shortfall byte %d was not zero-padded", i)
		}
	}

	// One byte past the window is untouched.
	if mem.Get(0x0080+BlockSize) != 0xEE {
		t.Fatalf("the transfer overran the 128-byte window")
	}
}

// TestBlockReadAtEOF ensures a transfer which moves zero bytes is
// still recorded as a success - reaching the end of the file is not
// an error.
func TestBlockReadAtEOF(t *testing.T) {

	dir := t.TempDir()
	sd := New(dir, nil)

	err := os.WriteFile(filepath.Join(dir, "empty.bin"), nil, 0644)
	if err != nil {
		t.Fatalf("failed to populate storage: %s", err)
	}

	mem := new(memory.Memory)
	mem.FillRange(0x0000, 0xFFFF, 0xEE)
	sd.AttachMemory(mem)

	sendName(sd, "empty.bin")
	sd.Out(PortCommand, CmdOpenRead)

	sd.Out(PortBlock, 0x00)

	if sd.In(PortBlock) != BlockOK {
		t.Fatalf("a fully-short read must still be a success")
	}

	// The whole window is the zero padding.
	for i := 0; i < BlockSize; i++ {
		if mem.Get(uint16(0x0080+i)) != 0x00 {
			t.Fatalf("window byte %d was not zeroed", i)
		}
	}
}

// TestBlockReadMovableWindow ensures the DMA-address ports move the
// destination window.
func TestBlockReadMovableWindow(t *testing.T) {

	dir := t.TempDir()
	sd := New(dir, nil)

	content := []byte("windowed")
	err := os.WriteFile(filepath.Join(dir, "win.bin"), content, 0644)
	if err != nil {
		t.Fatalf("failed to populate storage: %s", err)
	}

	mem := new(memory.Memory)
	sd.AttachMemory(mem)

	sendName(sd, "win.bin")
	sd.Out(PortCommand, CmdOpenRead)

	// Point the window at 0x4000.
	sd.Out(PortDMALow, 0x00)
	sd.Out(PortDMAHigh, 0x40)

	sd.Out(PortBlock, 0x00)

	if sd.In(PortBlock) != BlockOK {
		t.Fatalf("transfer failed")
	}

	got := mem.GetRange(0x4000, len(content))
	if string(got) != string(content) {
		t.Fatalf("window content wrong: %q", got)
	}
}

// TestBlockReadClipped ensures addresses beyond the 64k space are
// skipped, not wrapped around to 0x0000.
func TestBlockReadClipped(t *testing.T) {

	dir := t.TempDir()
	sd := New(dir, nil)

	content := make([]byte, BlockSize)
	for i := range content {
		content[i] = byte(i + 1)
	}
	err := os.WriteFile(filepath.Join(dir, "clip.bin"), content, 0644)
	if err != nil {
		t.Fatalf("failed to populate storage: %s", err)
	}

	mem := new(memory.Memory)
	mem.FillRange(0x0000, 0xFFFF, 0xEE)
	mem.Set(0xFFFF, 0xEE)
	sd.AttachMemory(mem)

	sendName(sd, "clip.bin")
	sd.Out(PortCommand, CmdOpenRead)

	// A window whose tail falls off the end of the address space:
	// 0xFFC0 + 127 > 0xFFFF.
	sd.Out(PortDMALow, 0xC0)
	sd.Out(PortDMAHigh, 0xFF)

	sd.Out(PortBlock, 0x00)

	if sd.In(PortBlock) != BlockOK {
		t.Fatalf("transfer failed")
	}

	// The in-range part arrived...
	if mem.Get(0xFFC0) != content[0] {
		t.Fatalf("window head wrong")
	}
	if mem.Get(0xFFFF) != content[63] {
		t.Fatalf("last in-range byte wrong")
	}

	// ...and nothing wrapped to the bottom of RAM.
	if mem.Get(0x0000) != 0xEE {
		t.Fatalf("the transfer wrapped around the address space")
	}
}

// TestBlockWrite ensures a full 128-byte block reaches the file.
func TestBlockWrite(t *testing.T) {

	dir := t.TempDir()
	sd := New(dir, nil)

	mem := new(memory.Memory)
	sd.AttachMemory(mem)

	// The guest only fills part of the window; the transfer still
	// writes exactly one whole block.
	mem.SetRange(0x0080, []byte("partial")...)

	sendName(sd, "block.bin")
	sd.Out(PortCommand, CmdCreate)

	sd.Out(PortBlock, 0x01)

	if sd.In(PortBlock) != BlockOK {
		t.Fatalf("block write failed")
	}

	sd.Out(PortCommand, CmdClose)

	data, err := os.ReadFile(filepath.Join(dir, "block.bin"))
	if err != nil {
		t.Fatalf("failed to read back: %s", err)
	}
	if len(data) != BlockSize {
		t.Fatalf("expected exactly %d bytes, got %d", BlockSize, len(data))
	}
	if string(data[:7]) != "partial" {
		t.Fatalf("window head did not arrive: %q", data[:7])
	}
	for i := 7; i < BlockSize; i++ {
		if data[i] != 0x00 {
			t.Fatalf("unwritten window byte %d should be zero", i)
		}
	}
}

// TestBlockWriteNoFile ensures a block-write with nothing open fails.
func TestBlockWriteNoFile(t *testing.T) {

	sd := New(t.TempDir(), nil)
	sd.AttachMemory(new(memory.Memory))

	sd.Out(PortBlock, 0x01)

	if sd.In(PortBlock) != BlockError {
		t.Fatalf("expected BlockError with no file open")
	}
}

// TestBlockWriteReadOnly ensures writing a block to a read-only
// handle reports an error through the block status.
func TestBlockWriteReadOnly(t *testing.T) {

	dir := t.TempDir()
	sd := New(dir, nil)

	err := os.WriteFile(filepath.Join(dir, "ro.bin"), []byte("ro"), 0644)
	if err != nil {
		t.Fatalf("failed to populate storage: %s", err)
	}

	sd.AttachMemory(new(memory.Memory))

	sendName(sd, "ro.bin")
	sd.Out(PortCommand, CmdOpenRead)

	sd.Out(PortBlock, 0x01)

	if sd.In(PortBlock) != BlockError {
		t.Fatalf("expected BlockError writing to a read-only handle")
	}
}

// TestBlockRoundTrip moves a sector out and back again.
func TestBlockRoundTrip(t *testing.T) {

	dir := t.TempDir()
	sd := New(dir, nil)

	mem := new(memory.Memory)
	sd.AttachMemory(mem)

	// Fill the window with a recognisable pattern.
	block := make([]byte, BlockSize)
	for i := range block {
		block[i] = byte(255 - i)
	}
	mem.SetRange(0x0080, block...)

	// Write it out.
	sendName(sd, "sector.bin")
	sd.Out(PortCommand, CmdCreate)
	sd.Out(PortBlock, 0x01)
	sd.Out(PortCommand, CmdClose)

	// Clobber the window, then read it back.
	mem.FillRange(0x0080, BlockSize, 0x00)

	sendName(sd, "sector.bin")
	sd.Out(PortCommand, CmdOpenRead)
	sd.Out(PortBlock, 0x00)

	if sd.In(PortBlock) != BlockOK {
		t.Fatalf("block read failed")
	}

	got := mem.GetRange(0x0080, BlockSize)
	if !bytes.Equal(got, block) {
		t.Fatalf("round-trip corrupted the sector")
	}
}
