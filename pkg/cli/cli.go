// Package cli provides command line parsing for the lhkv executable.
package cli

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
)

const DefaultConfigPath = "/etc/lhkv/config.yaml"

// Command can be any of:
//
//	CommandServe
//	CommandVersion
type Command any

type CommandServe struct {
	ConfigPath string
}

type CommandVersion struct{}

func Parse(w io.Writer, args []string) (cmd Command) {
	fm := fmt.Sprintf

	executableName := "lhkv"
	if len(args) > 0 {
		executableName = filepath.Base(args[0])
	}

	flags := flag.NewFlagSet("lhkv", flag.ContinueOnError)
	flags.SetOutput(w)
	flags.Usage = func() {
		writeLines(w,
			fm("usage: %s <command> [flags]", executableName),
			"",
			"commands available:",
			" serve - starts the key-value server",
			" version - prints the version and exits",
		)
	}

	parseFlags := func() (ok bool) {
		err := flags.Parse(args[2:])
		// flags will automatically call .Usage()
		return err == nil
	}

	if len(args) < 2 {
		flags.Usage()
		return nil
	}

	switch args[1] {
	case "serve":
		c := CommandServe{}

		flags.Usage = func() {
			writeLines(w,
				"",
				fm("usage: %s serve [-config <path>]", executableName),
				"",
				"flags:",
				"-config <path>: defines the configuration file path "+
					fm("(default: %s)", DefaultConfigPath),
				"",
				"environment variables:",
				"LHKV_LISTEN: overrides the listen address",
				"LHKV_READ_TIMEOUT: overrides the request read timeout",
				"LHKV_WRITE_TIMEOUT: overrides the response write timeout",
				"LHKV_EXPECTED_KEYS: overrides the expected number of keys",
				"LHKV_MAX_VALUE_SIZE: overrides the maximum value size in bytes",
				"LHKV_PROTECTED_KEYS: overrides the delete-protected keys",
				"LHKV_AUTH_SECRET: overrides the API token signing secret",
			)
		}

		flags.StringVar(&c.ConfigPath, "config", DefaultConfigPath, "")
		if !parseFlags() {
			return nil
		}

		cmd = c

	case "version":
		if !parseFlags() {
			return nil
		}
		cmd = CommandVersion{}

	case "help":
		flags.Usage()
		return nil

	default:
		flags.Usage()
		return nil
	}
	return cmd
}

func writeLines(w io.Writer, lines ...string) {
	for i := range lines {
		_, _ = w.Write([]byte(lines[i]))
		_, _ = w.Write([]byte("\n"))
	}
}
