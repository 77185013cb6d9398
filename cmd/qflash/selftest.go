package main

import (
	"flag"
	"fmt"

	"github.com/gentam/qflash/internal/selftest"
)

func selftestCommand(args []string) {
	fs := flag.NewFlagSet("selftest", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	fs.Parse(args)

	dev, err := common.open()
	if err != nil {
		fatalf("%v", err)
	}
	defer dev.Close()

	slaves := []int{0}
	if dev.Dual() {
		slaves = append(slaves, 1)
	}

	for _, slave := range slaves {
		if err := dev.Prepare(slave); err != nil {
			fatalf("prepare flash %d failed: %v", slave, err)
		}
		report, err := selftest.Run(dev.Commands(slave))
		for _, line := range report.Lines {
			fmt.Printf("flash %d: %s\n", slave, line)
		}
		if err != nil {
			fatalf("self-test on flash %d failed: %v", slave, err)
		}
	}
}
