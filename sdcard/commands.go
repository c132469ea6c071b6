// This file implements the command opcodes the guest writes to the
// command port.
//
// Guest-visible failures never surface as Go errors; they set the
// ERROR bit alongside READY and the guest polls for them.  Every
// command leaves READY set so the guest can always issue another.

package sdcard

import (
	"io"
	"log/slog"
	"os"
)

// cmdOpenRead opens the pending filename for read-only streaming.
func (sd *SDCard) cmdOpenRead() {
	path := sd.consumeFilename()
	sd.retire()

	file, err := os.Open(path)
	if err != nil {
		sd.Logger.Debug("sdcard: open for read failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		sd.status = StatusError | StatusReady
		return
	}

	sd.target = target{kind: targetFile, file: file}
	sd.status = StatusReady

	sd.Logger.Debug("sdcard: opened for read",
		slog.String("path", path))
}

// cmdCreate creates, or truncates, the pending filename and leaves it
// open for read/write.
//
// The storage directory is created on demand, so the very first write
// a guest makes works against an empty host.
func (sd *SDCard) cmdCreate() {
	path := sd.consumeFilename()
	sd.retire()

	// Create the storage directory if needed.
	_ = os.MkdirAll(sd.storage, 0755)

	file, err := os.Create(path)
	if err != nil {
		sd.Logger.Debug("sdcard: create failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		sd.status = StatusError | StatusReady
		return
	}

	sd.target = target{kind: targetFile, file: file}
	sd.status = StatusReady

	sd.Logger.Debug("sdcard: created",
		slog.String("path", path))
}

// cmdOpenAppend opens the pending filename read/write with the cursor
// positioned at the end of the file.
func (sd *SDCard) cmdOpenAppend() {
	path := sd.consumeFilename()
	sd.retire()

	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		sd.Logger.Debug("sdcard: open for append failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		sd.status = StatusError | StatusReady
		return
	}

	_, err = file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		sd.status = StatusError | StatusReady
		return
	}

	sd.target = target{kind: targetFile, file: file}
	sd.status = StatusReady

	sd.Logger.Debug("sdcard: opened for append",
		slog.String("path", path))
}

// cmdOpenReadWrite opens the pending filename read/write with the
// cursor at the start.
func (sd *SDCard) cmdOpenReadWrite() {
	path := sd.consumeFilename()
	sd.retire()

	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		sd.Logger.Debug("sdcard: open for read/write failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		sd.status = StatusError | StatusReady
		return
	}

	sd.target = target{kind: targetFile, file: file}
	sd.status = StatusReady

	sd.Logger.Debug("sdcard: opened for read/write",
		slog.String("path", path))
}

// cmdSeekStart rewinds the open file to offset zero.
//
// With no file open this is an error; the seek cursor is not involved
// and is not changed.
func (sd *SDCard) cmdSeekStart() {
	if sd.target.kind != targetFile {
		sd.status = StatusError | StatusReady
		return
	}

	_, err := sd.target.file.Seek(0, io.SeekStart)
	if err != nil {
		sd.status = StatusError | StatusReady
		return
	}

	sd.status = StatusReady
	sd.Logger.Debug("sdcard: seeked to start")
}

// cmdSeek positions the open file at the 24-bit seek cursor.
//
// Seeking beyond the end of the file is not an error here; the guest
// sees end-of-stream behaviour on the next read instead.
func (sd *SDCard) cmdSeek() {
	if sd.target.kind != targetFile {
		sd.status = StatusError | StatusReady
		return
	}

	_, err := sd.target.file.Seek(int64(sd.seek), io.SeekStart)
	if err != nil {
		sd.status = StatusError | StatusReady
		return
	}

	sd.status = StatusReady
	sd.Logger.Debug("sdcard: seeked",
		slog.Int("offset", int(sd.seek)))
}

// cmdClose retires the current session, file or directory.
//
// Closing with nothing open is fine, and never raises an error.
func (sd *SDCard) cmdClose() {
	sd.retire()
	sd.status = StatusReady

	sd.Logger.Debug("sdcard: closed")
}

// cmdDir begins enumerating the storage directory, retiring any
// session that was active.
func (sd *SDCard) cmdDir() {
	sd.retire()

	// Ensure the directory exists, so an empty listing is not an
	// error on a fresh host.
	_ = os.MkdirAll(sd.storage, 0755)

	dir, err := os.Open(sd.storage)
	if err != nil {
		sd.Logger.Debug("sdcard: dir failed",
			slog.String("path", sd.storage),
			slog.String("error", err.Error()))
		sd.status = StatusError | StatusReady
		return
	}

	sd.target = target{kind: targetDir, dir: dir}
	sd.status = StatusReady

	sd.Logger.Debug("sdcard: dir",
		slog.String("path", sd.storage))
}
