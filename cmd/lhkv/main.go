package main

import (
	"fmt"
	"os"

	"github.com/mapworks/lhmap/pkg/cli"
)

// version is overridden through ldflags at release build time.
var version = "dev"

func main() {
	w := os.Stdout
	switch c := cli.Parse(w, os.Args).(type) {
	case cli.CommandServe:
		serve(w, c)
	case cli.CommandVersion:
		fmt.Fprintf(w, "lhkv %s\n", version)
	default:
		if c != nil {
			panic(fmt.Errorf("unexpected command: %#v", c))
		}
	}
}
