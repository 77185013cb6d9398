package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
)

func readCommand(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	var (
		slave   uint
		addr    uint
		outFile string
	)
	fs.UintVar(&slave, "slave", 0, "flash chip to read from (0 or 1 on dual-flash cards)")
	fs.UintVar(&addr, "addr", 0, "byte address to read a 128-byte page from")
	fs.StringVar(&outFile, "o", "", "output file (default: hexdump to stdout)")
	fs.Parse(args)

	dev, err := common.open()
	if err != nil {
		fatalf("%v", err)
	}
	defer dev.Close()

	if err := dev.Prepare(int(slave)); err != nil {
		fatalf("prepare failed: %v", err)
	}

	data, err := dev.Commands(int(slave)).ReadPage(uint32(addr))
	if err != nil {
		fatalf("read page failed: %v", err)
	}

	if outFile == "" {
		fmt.Println(hex.Dump(data))
		return
	}
	if err := os.WriteFile(outFile, data, 0644); err != nil {
		fatalf("write file failed: %v", err)
	}
}
