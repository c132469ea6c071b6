// drv_file creates a console input-driver which reads and returns
// fake console input from a file named "input.txt".
//
// The intent is that this driver will be useful for scripted
// automation: a ROM which expects keyboard input can be driven from a
// canned script instead.

package console

import (
	"io"
	"os"
)

// FileInput is an input-driver that returns fake "console input" by
// reading the content of a file.
//
// The filename is taken from the environmental variable $INPUT_FILE,
// defaulting to "input.txt".
type FileInput struct {

	// offset shows the offset into the buffer we're at.
	offset int

	// content contains the content of the input file.
	content []byte
}

// Setup reads the contents of the input-file, and saves it away as a
// source of fake console input.
func (fi *FileInput) Setup() error {

	fileName := os.Getenv("INPUT_FILE")
	if fileName == "" {
		fileName = "input.txt"
	}

	dat, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}

	fi.offset = 0
	fi.content = dat
	return nil
}

// TearDown is a NOP.
func (fi *FileInput) TearDown() error {
	return nil
}

// Pending returns true until the content of our input-file has been
// exhausted.
func (fi *FileInput) Pending() bool {
	return fi.offset < len(fi.content)
}

// ReadByte returns the next character from the file we use to fake
// our input.
func (fi *FileInput) ReadByte() (byte, error) {

	if fi.offset < len(fi.content) {
		x := fi.content[fi.offset]
		fi.offset++
		return x, nil
	}

	// Input is over.
	return 0x00, io.EOF
}

// Name is part of the module API, and returns the name of this driver.
func (fi *FileInput) Name() string {
	return "file"
}

// init registers our driver, by name.
func init() {
	Register("file", func() Driver {
		return new(FileInput)
	})
}
