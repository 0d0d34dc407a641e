package main

import (
	"bufio"
	"io"
	"os"

	"github.com/shipq/semsql/cli"
	"github.com/shipq/semsql/sketch"
)

// estimateCmd prints the approximate number of distinct lines in a file (or
// stdin), the same estimate hll-compute yields in a warehouse.
func estimateCmd(args []string, stdin io.Reader, out *cli.Output) int {
	if len(args) > 1 {
		return out.Error("usage: semsql estimate [file]")
	}

	r := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return out.ErrorErr("failed to open input", err)
		}
		defer f.Close()
		r = f
	}

	s := sketch.Init()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.Add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return out.ErrorErr("failed to read input", err)
	}

	out.Infof("%d", s.Compute())
	return 0
}
