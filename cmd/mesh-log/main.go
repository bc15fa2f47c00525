// Command mesh-log views and analyzes protocol capture files written by
// mesh-node and mesh-gateway with the -protocol-log flag.
//
// Usage:
//
//	mesh-log <command> [flags] <file.mlog>
//
// Examples:
//
//	# View only sensor status messages
//	mesh-log view -opcode 0x52 proxy.mlog
//
//	# View traffic to or from one address
//	mesh-log view -address 0xC001 proxy.mlog
//
//	# Keep the light's state changes
//	mesh-log filter -role light -category state -o light.mlog all.mlog
//
//	# Export to JSONL
//	mesh-log export -format jsonl proxy.mlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lucamoroz/mesh-go/cmd/mesh-log/commands"
)

const usage = `mesh-log - Mesh Protocol Log Analyzer

Usage:
  mesh-log <command> [flags] <file.mlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "mesh-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "mesh-log %s - %s\n\nUsage:\n  mesh-log %s [flags] <file.mlog>\n\nFlags:\n", name, synopsis, name)
		fs.PrintDefaults()
	}
	return fs
}

func filterFlags(fs *flag.FlagSet) *commands.ViewOptions {
	var o commands.ViewOptions
	fs.StringVar(&o.Layer, "layer", "", "Filter by layer (access, model, node)")
	fs.StringVar(&o.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&o.Category, "category", "", "Filter by category (message, state, error)")
	fs.StringVar(&o.Role, "role", "", "Filter by node role (light, switch, sensor, proxy, gateway)")
	fs.StringVar(&o.Opcode, "opcode", "", "Filter by opcode (e.g. 0x8202)")
	fs.StringVar(&o.Address, "address", "", "Filter by message source or destination")
	fs.StringVar(&o.Session, "session", "", "Filter by session ID")
	fs.StringVar(&o.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&o.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return &o
}

func parse(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format")
	opts := filterFlags(fs)
	path := parse(fs, args)

	if err := commands.RunView(path, *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export log file to JSONL or CSV format")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parse(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter log file and write to new file")
	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)
	path := parse(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, *output, *opts)
	if err != nil {
		fail(err)
	}
	fmt.Fprintf(os.Stderr, "Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file")
	path := parse(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
