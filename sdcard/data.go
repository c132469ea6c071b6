// This file implements the data port: byte-at-a-time streaming of
// file contents and directory listings.

package sdcard

// readData returns the next byte of the current session.
//
// End-of-stream is not an error: the session is silently retired, the
// card goes back to READY, and a zero byte is returned.  With nothing
// open the port simply reads zero.
func (sd *SDCard) readData() uint8 {

	switch sd.target.kind {

	case targetFile:
		buf := make([]byte, 1)
		n, _ := sd.target.file.Read(buf)
		if n != 1 {
			// Exhausted, or unreadable - either way the
			// session is over.
			sd.retire()
			sd.status = StatusReady
			return 0x00
		}
		return buf[0]

	case targetDir:
		return sd.readDirectory()
	}

	return 0x00
}

// writeData writes one byte to the open file at its current position.
//
// Writes with no file open are discarded, and writes never change the
// status byte.
func (sd *SDCard) writeData(val uint8) {
	if sd.target.kind != targetFile {
		return
	}

	_, _ = sd.target.file.Write([]byte{val})
}

// readDirectory returns the next byte of the directory listing.
//
// Each entry is rendered as its name followed by CR LF, and a fresh
// entry is fetched lazily whenever the current line is exhausted.
// The "." and ".." pseudo-entries are never emitted.  When the
// enumeration ends the session retires and the read returns zero.
func (sd *SDCard) readDirectory() uint8 {

	// Need the next entry?
	for sd.target.entryPos >= len(sd.target.entry) {

		entries, err := sd.target.dir.ReadDir(1)
		if err != nil || len(entries) == 0 {
			// End of the directory.
			sd.retire()
			sd.status = StatusReady
			return 0x00
		}

		name := entries[0].Name()
		if name == "." || name == ".." {
			continue
		}

		sd.target.entry = []byte(name + "\r\n")
		sd.target.entryPos = 0
	}

	// Return the next character of the current line.
	c := sd.target.entry[sd.target.entryPos]
	sd.target.entryPos++
	return c
}
