// Entry point: parse our flags, build the machine, and run the ROM.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/retrosys/rshield/console"
	"github.com/retrosys/rshield/machine"
	"github.com/retrosys/rshield/version"
)

func main() {

	// Parse the command-line flags.
	storage := flag.String("storage", "storage", "the directory the SD card stores its files beneath")
	input := flag.String("input", "term", "the console input driver to use (term, stty, file, tty)")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "report our version, and exit")
	flag.Parse()

	if *showVersion {
		fmt.Print(version.GetVersionBanner())
		return
	}

	// Ensure we've been given the name of a ROM to run.
	if len(flag.Args()) < 1 {
		fmt.Printf("Usage: rshield [flags] path/to/rom.bin\n")
		os.Exit(1)
	}

	// Setup our logging level - default to warnings or higher.
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)

	// But show "everything" if we're debugging, or $DEBUG is non-empty.
	if *debug || os.Getenv("DEBUG") != "" {
		lvl.Set(slog.LevelDebug)
	}

	// Create our logging handler, using the level we've just setup.
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(log)

	// Create the console input driver.
	con, err := console.New(*input)
	if err != nil {
		fmt.Printf("Error creating console driver %s: %s\n", *input, err)
		os.Exit(1)
	}

	err = con.Setup()
	if err != nil {
		fmt.Printf("Error initializing console driver %s: %s\n", *input, err)
		os.Exit(1)
	}

	// Serial output goes to STDOUT, unless the input driver
	// carries its own destination - e.g. a physical serial device.
	var output io.Writer = os.Stdout
	if w, ok := con.OutputWriter(); ok {
		output = w
	}

	// Create the machine.
	m := machine.New(*storage, con, output, log)

	// Load the ROM we've been given.
	err = m.LoadROM(flag.Arg(0))
	if err != nil {
		_ = con.TearDown()
		fmt.Printf("Error loading %s: %s\n", flag.Arg(0), err)
		os.Exit(1)
	}

	// Run until the guest halts.
	err = m.Run(context.Background())

	// Restore the terminal before reporting anything.
	_ = con.TearDown()

	if err != nil {
		fmt.Printf("Error running %s: %s\n", flag.Arg(0), err)
		os.Exit(1)
	}
}
