package main

import (
	"fmt"
	"os"

	"github.com/mezzolang/mezzo/internal/config"
	"github.com/mezzolang/mezzo/pkg/cli"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: mezzo check <file> [-I dir]... [--no-auto-include] [--debug N] [--explain-html] [--config mezzo.yaml]\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(config.ExitFileNotFound)
	}

	switch os.Args[1] {
	case "check":
		opts, err := cli.ParseArgs(os.Args[2:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			usage()
			os.Exit(config.ExitFileNotFound)
		}
		os.Exit(cli.Check(opts, os.Stderr))
	case "-help", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(config.ExitFileNotFound)
	}
}
