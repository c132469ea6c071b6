package memory

import (
	"os"
	"path/filepath"
	"testing"
)

// TestMemoryTrivial just does basic get/set tests
func TestMemoryTrivial(t *testing.T) {

	mem := new(Memory)

	// Set
	mem.Set(0x00, 0x01)
	mem.Set(0x01, 0x02)

	// Get
	if mem.Get(0x00) != 0x01 {
		t.Fatalf("failed to get expected result")
	}
	if mem.Get(0x01) != 0x02 {
		t.Fatalf("failed to get expected result")
	}
	// GetU16
	if mem.GetU16(0x00) != 0x0201 {
		t.Fatalf("failed to get expected result")
	}

	// Fill with 0xCD
	mem.FillRange(0x00, 0xFFFF, 0xCD)

	if mem.Get(0xFFFE) != 0xCD {
		t.Fatalf("failed to get expected result")
	}
	// GetU16
	if mem.GetU16(0x0100) != 0xCDCD {
		t.Fatalf("failed to get expected result")
	}

	// Get a random range
	out := mem.GetRange(0x300, 0x00FF)
	for _, d := range out {
		if d != 0xCD {
			t.Fatalf("wrong result in GetRange")
		}
	}

	// Put a (small) range
	out = []uint8{0x01, 0x02, 0x03}
	mem.SetRange(0x0000, out[:]...)

	if mem.Get(0x00) != 0x01 {
		t.Fatalf("failed to get expected result")
	}
	if mem.Get(0x01) != 0x02 {
		t.Fatalf("failed to get expected result")
	}
	// GetU16
	if mem.GetU16(0x00) != 0x0201 {
		t.Fatalf("failed to get expected result")
	}
	if mem.GetU16(0x02) != 0xCD03 {
		t.Fatalf("failed to get expected result")
	}
}

// TestLoadROM ensures we can load a ROM image at the reset vector.
func TestLoadROM(t *testing.T) {

	// Create memory
	mem := new(Memory)

	err := mem.LoadROM("/this/file-does/not/exist")
	if err == nil {
		t.Fatalf("expected error, got none")
	}

	// Now write out a temporary ROM, with static contents.
	path := filepath.Join(t.TempDir(), "test.rom")

	// NOP, NOP, HALT
	err = os.WriteFile(path, []byte{0x00, 0x00, 0x76}, 0644)
	if err != nil {
		t.Fatalf("failed to write ROM to temporary file")
	}

	// Dirty the RAM first, so we can confirm the load zeroes it.
	mem.FillRange(0x0000, 0xFFFF, 0xCD)

	// Load the ROM
	err = mem.LoadROM(path)
	if err != nil {
		t.Errorf("failed to load ROM")
	}

	// Confirm the contents are OK
	if mem.Get(0x0000) != 0x00 || mem.Get(0x0001) != 0x00 {
		t.Fatalf("ROM contents not loaded at 0x0000")
	}
	if mem.Get(0x0002) != 0x76 {
		t.Fatalf("ROM contents wrong at 0x0002")
	}

	// Beyond the image the RAM must be zeroed, not stale.
	if mem.Get(0x0003) != 0x00 {
		t.Fatalf("RAM beyond the ROM image should be zero")
	}
	if mem.Get(0xFFFF) != 0x00 {
		t.Fatalf("RAM beyond the ROM image should be zero")
	}
}

// TestLoadROMTooBig ensures an oversized image is refused.
func TestLoadROMTooBig(t *testing.T) {

	mem := new(Memory)

	path := filepath.Join(t.TempDir(), "huge.rom")

	big := make([]byte, 65537)
	err := os.WriteFile(path, big, 0644)
	if err != nil {
		t.Fatalf("failed to write ROM to temporary file")
	}

	err = mem.LoadROM(path)
	if err == nil {
		t.Fatalf("expected an error loading a >64k image, got none")
	}
}
