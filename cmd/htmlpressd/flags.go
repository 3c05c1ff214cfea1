package main

import (
	flag "github.com/spf13/pflag"
)

// cliFlags holds command-line options. Flags override the config file.
type cliFlags struct {
	config   string
	addr     string
	strategy string
	verbose  bool
}

// parseFlags parses args (including the program name at args[0]).
func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("htmlpressd", flag.ContinueOnError)

	f := &cliFlags{}
	fs.StringVarP(&f.config, "config", "c", "", "path to YAML config file")
	fs.StringVar(&f.addr, "addr", "", "listen address (host:port), overrides config")
	fs.StringVar(&f.strategy, "strategy", "", "browser lifecycle strategy: shared or fresh")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	return f, nil
}
