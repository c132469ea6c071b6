// Package sdcard implements the SD-card storage peripheral of the
// RetroShield, as seen by the Z80 through a set of I/O ports.
//
// The "card" is a pass-through to a directory upon the host: the guest
// builds up a filename one byte at a time, issues a command, and then
// streams bytes through the data port, or moves whole 128-byte blocks
// between the open file and its own RAM via the DMA ports.
//
// The peripheral holds a single active session - a file, a directory
// listing, or nothing - and opening a new one always retires the old.
// All operations are synchronous; the caller is the CPU-stepping loop
// and nothing here runs in the background.
package sdcard

import (
	"log/slog"
	"os"
	"path/filepath"
)

// SD Card I/O ports.
const (
	// PortCommand receives one of the Cmd* opcodes.
	PortCommand uint8 = 0x10

	// PortStatus returns the status byte on read.
	PortStatus uint8 = 0x11

	// PortData streams file/directory bytes on read, and writes
	// a byte to the open file on write.
	PortData uint8 = 0x12

	// PortFilename accumulates filename bytes, zero terminates.
	PortFilename uint8 = 0x13

	// PortSeekLow, PortSeekHigh and PortSeekExtended are the three
	// byte-lanes of the 24-bit seek cursor.
	PortSeekLow      uint8 = 0x14
	PortSeekHigh     uint8 = 0x15
	PortSeekExtended uint8 = 0x16

	// PortDMALow and PortDMAHigh set the guest address used by
	// block transfers.
	PortDMALow  uint8 = 0x17
	PortDMAHigh uint8 = 0x18

	// PortBlock triggers a block transfer on write - zero means
	// block-read, anything else block-write - and returns the
	// status of the most recent transfer on read.
	PortBlock uint8 = 0x19
)

// SD Card commands, written to PortCommand.
const (
	// CmdOpenRead opens the pending filename for reading.
	CmdOpenRead uint8 = 0x01

	// CmdCreate creates/truncates the pending filename.
	CmdCreate uint8 = 0x02

	// CmdOpenAppend opens the pending filename and seeks to the end.
	CmdOpenAppend uint8 = 0x03

	// CmdSeekStart rewinds the open file to offset zero.
	CmdSeekStart uint8 = 0x04

	// CmdClose retires the current session, file or directory.
	CmdClose uint8 = 0x05

	// CmdDir begins streaming the names within the storage directory.
	CmdDir uint8 = 0x06

	// CmdOpenReadWrite opens the pending filename for update-in-place.
	CmdOpenReadWrite uint8 = 0x07

	// CmdSeek positions the open file at the seek cursor.
	CmdSeek uint8 = 0x08

	// CmdSeekAlias is a second opcode for the same seek operation.
	//
	// Real firmware uses both numbers interchangeably, so we keep
	// both as exact aliases.
	CmdSeekAlias uint8 = 0x09
)

// SD status bits, returned from PortStatus.
const (
	// StatusReady means the card is idle and can accept a command.
	StatusReady uint8 = 0x01

	// StatusError means the previous command failed.
	StatusError uint8 = 0x02

	// StatusData means a file or directory session is open.
	StatusData uint8 = 0x80
)

// Block transfer constants.
const (
	// BlockSize is the number of bytes moved by one block transfer,
	// matching the sector-size the guest firmware expects.
	BlockSize = 128

	// BlockOK is returned from PortBlock after a successful transfer.
	BlockOK uint8 = 0x00

	// BlockError is returned from PortBlock after a failed transfer.
	BlockError uint8 = 0x01
)

// BusMemory is the view of guest RAM the card is handed for its block
// transfers.
//
// The card only ever touches the 128-byte window starting at the DMA
// address; it never assumes anything else about the address space.
type BusMemory interface {

	// Get returns a byte of guest memory.
	Get(addr uint16) uint8

	// Set stores a byte of guest memory.
	Set(addr uint16, value uint8)
}

// commandHandler contains details of a specific command we implement.
//
// Having a name alongside the handler is useful for the logs we
// produce.
type commandHandler struct {
	// desc contains the human-readable name of the command.
	desc string

	// handler contains the function invoked for the command.
	handler func(sd *SDCard)
}

// SDCard is the peripheral itself.
//
// It is driven one port-access at a time by the CPU loop and must not
// be shared between goroutines.
type SDCard struct {

	// storage is the host directory all filenames resolve against.
	storage string

	// mem is the guest-memory accessor used by block transfers,
	// which may be nil if no memory was attached.
	mem BusMemory

	// commands maps the command opcodes to their handlers.
	commands map[uint8]commandHandler

	// filename accumulates bytes written to the filename port.
	filename []byte

	// seek is the 24-bit cursor assembled from the three seek lanes.
	seek uint32

	// dma is the guest address used by block transfers.
	dma uint16

	// status holds the READY/ERROR bits.  The DATA bit is never
	// stored here; it is composed on each status read from the
	// session state.
	status uint8

	// blockStatus records the outcome of the last block transfer.
	blockStatus uint8

	// target is the single active session.
	target target

	// Logger is used for tracing port traffic and command outcomes.
	Logger *slog.Logger
}

// targetKind enumerates the session variants.
type targetKind int

const (
	// targetClosed means no session is active.
	targetClosed targetKind = iota

	// targetFile means a host file is open.
	targetFile

	// targetDir means a directory listing is being streamed.
	targetDir
)

// target is the single active session of the card.
//
// Exactly one variant is live at a time, selected by kind; modelling
// this as one tagged value keeps the file-XOR-directory invariant
// structural rather than a convention.
type target struct {
	kind targetKind

	// file is valid when kind is targetFile.
	file *os.File

	// dir is valid when kind is targetDir.
	dir *os.File

	// entry holds the pending directory line, and entryPos the
	// offset of the next byte to emit from it.
	entry    []byte
	entryPos int
}

// New returns a new SD-card peripheral which resolves all guest
// filenames beneath the given storage directory.
//
// The directory is not created here; commands which write to it, or
// list it, create it on demand.
func New(storage string, logger *slog.Logger) *SDCard {

	if logger == nil {
		logger = slog.Default()
	}

	sd := &SDCard{
		storage: storage,
		dma:     0x0080,
		status:  StatusReady,
		Logger:  logger,
	}

	//
	// Create and populate our command table.
	//
	cmds := make(map[uint8]commandHandler)
	cmds[CmdOpenRead] = commandHandler{
		desc:    "OPEN_READ",
		handler: (*SDCard).cmdOpenRead,
	}
	cmds[CmdCreate] = commandHandler{
		desc:    "CREATE",
		handler: (*SDCard).cmdCreate,
	}
	cmds[CmdOpenAppend] = commandHandler{
		desc:    "OPEN_APPEND",
		handler: (*SDCard).cmdOpenAppend,
	}
	cmds[CmdSeekStart] = commandHandler{
		desc:    "SEEK_START",
		handler: (*SDCard).cmdSeekStart,
	}
	cmds[CmdClose] = commandHandler{
		desc:    "CLOSE",
		handler: (*SDCard).cmdClose,
	}
	cmds[CmdDir] = commandHandler{
		desc:    "DIR",
		handler: (*SDCard).cmdDir,
	}
	cmds[CmdOpenReadWrite] = commandHandler{
		desc:    "OPEN_RW",
		handler: (*SDCard).cmdOpenReadWrite,
	}
	cmds[CmdSeek] = commandHandler{
		desc:    "SEEK",
		handler: (*SDCard).cmdSeek,
	}
	cmds[CmdSeekAlias] = commandHandler{
		desc:    "SEEK",
		handler: (*SDCard).cmdSeek,
	}
	sd.commands = cmds

	return sd
}

// AttachMemory hands the card the guest-memory accessor it needs for
// block transfers.
//
// Until this is called any block transfer fails with BlockError.
func (sd *SDCard) AttachMemory(mem BusMemory) {
	sd.mem = mem
}

// Handles reports whether the given port belongs to the SD card.
func (sd *SDCard) Handles(port uint8) bool {
	return port >= PortCommand && port <= PortBlock
}

// In handles a read of one of our ports.
func (sd *SDCard) In(port uint8) uint8 {

	switch port {
	case PortStatus:
		status := sd.status
		if sd.target.kind != targetClosed {
			status |= StatusData
		}
		return status

	case PortData:
		return sd.readData()

	case PortBlock:
		return sd.blockStatus
	}

	// Reads of write-only ports float high.
	return 0xFF
}

// Out handles a write to one of our ports.
func (sd *SDCard) Out(port uint8, val uint8) {

	switch port {
	case PortCommand:
		sd.command(val)

	case PortData:
		sd.writeData(val)

	case PortFilename:
		if val == 0x00 {
			// Terminator - the filename is complete.
			sd.Logger.Debug("sdcard: filename terminated",
				slog.String("filename", string(sd.filename)))
		} else {
			sd.filename = append(sd.filename, val)
		}

	case PortSeekLow:
		sd.seek = (sd.seek &^ 0x0000FF) | uint32(val)

	case PortSeekHigh:
		sd.seek = (sd.seek &^ 0x00FF00) | (uint32(val) << 8)

	case PortSeekExtended:
		sd.seek = (sd.seek &^ 0xFF0000) | (uint32(val) << 16)

	case PortDMALow:
		sd.dma = (sd.dma & 0xFF00) | uint16(val)

	case PortDMAHigh:
		sd.dma = (sd.dma & 0x00FF) | (uint16(val) << 8)

	case PortBlock:
		if val == 0x00 {
			sd.blockRead()
		} else {
			sd.blockWrite()
		}
	}
}

// command dispatches one command opcode via our table.
//
// Unknown opcodes are deliberately a no-op: state, status and the
// pending filename are all left untouched.
func (sd *SDCard) command(op uint8) {

	cmd, ok := sd.commands[op]
	if !ok {
		sd.Logger.Debug("sdcard: unknown command",
			slog.Int("command", int(op)))
		return
	}

	sd.Logger.Debug("sdcard: command",
		slog.String("name", cmd.desc),
		slog.Int("command", int(op)))

	cmd.handler(sd)
}

// consumeFilename takes the pending filename, leaving a fresh empty
// one behind, and resolves it beneath the storage directory.
func (sd *SDCard) consumeFilename() string {
	name := string(sd.filename)
	sd.filename = nil
	return filepath.Join(sd.storage, name)
}

// retire releases whatever session is active and leaves the card
// closed.  It is safe to call with nothing open.
func (sd *SDCard) retire() {
	switch sd.target.kind {
	case targetFile:
		sd.target.file.Close()
	case targetDir:
		sd.target.dir.Close()
	}
	sd.target = target{kind: targetClosed}
}
