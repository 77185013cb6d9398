package main

import (
	"flag"
	"io"
	"os"
)

func writeCommand(args []string) {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	var (
		mcsFile  string
		mcsFileB string
	)
	fs.StringVar(&mcsFile, "f", "", "mcs input file (flash 0, or the only flash on single-flash cards)")
	fs.StringVar(&mcsFileB, "f2", "", "second mcs input file, required for dual-flash cards")
	fs.Parse(args)

	if mcsFile == "" {
		fatalUsage("-f is required")
	}

	dev, err := common.open()
	if err != nil {
		fatalf("%v", err)
	}
	defer dev.Close()

	if dev.Dual() && mcsFileB == "" {
		fatalUsage("this card is dual-flash; -f2 is required")
	}
	if !dev.Dual() && mcsFileB != "" {
		fatalUsage("this card is single-flash; -f2 is not accepted")
	}

	streams := make([]io.ReadSeeker, 0, 2)
	for _, name := range []string{mcsFile, mcsFileB} {
		if name == "" {
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			fatalf("open %s: %v", name, err)
		}
		defer f.Close()
		streams = append(streams, f)
	}

	p := qflashProgrammer(dev, &common)
	if err := p.Program(streams...); err != nil {
		fatalf("write failed: %v", err)
	}
}
