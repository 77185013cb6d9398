package main

import "flag"

func eraseCommand(args []string) {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	fs.Parse(args)

	dev, err := common.open()
	if err != nil {
		fatalf("%v", err)
	}
	defer dev.Close()

	p := qflashProgrammer(dev, &common)

	if err := p.FullErase(0); err != nil {
		fatalf("erase flash 0 failed: %v", err)
	}
	if dev.Dual() {
		if err := p.FullErase(1); err != nil {
			fatalf("erase flash 1 failed: %v", err)
		}
	}
}
