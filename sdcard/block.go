// This file implements the 128-byte block transfers between the open
// file and guest memory, used for sector-oriented bulk I/O.

package sdcard

import (
	"errors"
	"io"
	"log/slog"
)

// blockRead copies one block from the open file into guest memory at
// the DMA address.
//
// A short read is zero-padded so the guest always receives a full,
// deterministic block; running into end-of-file - even immediately -
// still counts as a successful transfer.  Guest addresses beyond the
// 64k range are skipped, never wrapped.
func (sd *SDCard) blockRead() {

	if sd.mem == nil || sd.target.kind != targetFile {
		sd.blockStatus = BlockError
		return
	}

	buf := make([]byte, BlockSize)

	n, err := io.ReadFull(sd.target.file, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		sd.Logger.Debug("sdcard: block read failed",
			slog.String("error", err.Error()))
		sd.blockStatus = BlockError
		return
	}

	for i := 0; i < BlockSize; i++ {
		addr := uint32(sd.dma) + uint32(i)
		if addr > 0xFFFF {
			continue
		}
		sd.mem.Set(uint16(addr), buf[i])
	}

	sd.blockStatus = BlockOK

	sd.Logger.Debug("sdcard: block read",
		slog.Int("dma", int(sd.dma)),
		slog.Int("bytes", n))
}

// blockWrite copies one block from guest memory at the DMA address to
// the open file at its current position.
//
// Exactly BlockSize bytes are always written; guest addresses beyond
// the 64k range contribute zero bytes rather than faulting.
func (sd *SDCard) blockWrite() {

	if sd.mem == nil || sd.target.kind != targetFile {
		sd.blockStatus = BlockError
		return
	}

	buf := make([]byte, BlockSize)

	for i := 0; i < BlockSize; i++ {
		addr := uint32(sd.dma) + uint32(i)
		if addr > 0xFFFF {
			continue
		}
		buf[i] = sd.mem.Get(uint16(addr))
	}

	_, err := sd.target.file.Write(buf)
	if err != nil {
		sd.Logger.Debug("sdcard: block write failed",
			slog.String("error", err.Error()))
		sd.blockStatus = BlockError
		return
	}

	sd.blockStatus = BlockOK

	sd.Logger.Debug("sdcard: block write",
		slog.Int("dma", int(sd.dma)))
}
