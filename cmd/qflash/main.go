// Command qflash programs a QSPI NOR flash on a PCIe accelerator card from
// an Intel-HEX (MCS) firmware image.
package main

import (
	"flag"
	"fmt"
	"os"
)

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func fatalUsage(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
	qflash <command> [arguments]

Commands:
	write     program flash from one or two MCS files
	read      read a page of flash back to stdout or a file
	erase     full-chip erase, sector by sector
	selftest  hardware bring-up self-test (no MCS file required)
	device    print PCIe identity and topology
`)
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	switch cmd := flag.Arg(0); cmd {
	case "write":
		writeCommand(flag.Args()[1:])
	case "read":
		readCommand(flag.Args()[1:])
	case "erase":
		eraseCommand(flag.Args()[1:])
	case "selftest":
		selftestCommand(flag.Args()[1:])
	case "device":
		deviceCommand(flag.Args()[1:])
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", cmd)
		usage()
	}
}
