// Command gcode-lint runs the offline preflight diagnostics (structural
// stats + soft-limit sweep) over a G-code file without executing
// anything. Adapted from the teacher's cmd/gcode-optimizer/main.go:
// same flag-based CLI shape, same "read whole file, report a summary,
// exit nonzero on problems" structure, repointed at internal/preflight
// instead of internal/optimizer.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chrisns/cnc-motion-core/internal/config"
	"github.com/chrisns/cnc-motion-core/internal/preflight"
	"github.com/chrisns/cnc-motion-core/internal/softlimits"
)

var (
	configPath = flag.String("config", "", "path to machine config YAML (for soft limits)")
	version    = flag.Bool("version", false, "Show version information")
	help       = flag.Bool("help", false, "Show help message")
)

const versionString = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("gcode-lint version %s\n", versionString)
		os.Exit(0)
	}
	if *help {
		printHelp()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		printHelp()
		os.Exit(1)
	}

	os.Exit(run(args[0]))
}

func printHelp() {
	fmt.Println("Usage: gcode-lint [--config machine.yaml] <file.gcode>")
	fmt.Println()
	fmt.Println("Runs whole-file structural stats and a soft-limit sweep over a")
	fmt.Println("G-code file without executing it.")
	flag.PrintDefaults()
}

func run(path string) int {
	machine, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	limits := softlimits.New()
	for axis, bound := range machine.SoftLimits {
		limits.WithAxis(axis, bound[0], bound[1])
	}

	statsFile, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", path, err)
		return 1
	}
	stats, err := preflight.ScanStats(statsFile)
	statsFile.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to scan %s: %v\n", path, err)
		return 1
	}

	lines, err := readLines(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
		return 1
	}

	scanner := preflight.NewScanner(limits)
	violations, err := scanner.Scan(lines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan aborted: %v\n", err)
		return 1
	}

	printSummary(path, stats, violations)
	if len(violations) > 0 {
		return 1
	}
	return 0
}

func printSummary(path string, stats *preflight.FileStats, violations []preflight.Violation) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(path)
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRow(table.Row{"total lines", stats.TotalLines})
	t.AppendRow(table.Row{"motion lines", stats.MotionLines})
	t.AppendRow(table.Row{"axes seen", axesList(stats.AxesSeen)})
	t.AppendRow(table.Row{"soft-limit violations", len(violations)})
	t.Render()

	if len(violations) == 0 {
		return
	}

	vt := table.NewWriter()
	vt.SetOutputMirror(os.Stdout)
	vt.AppendHeader(table.Row{"line", "classification", "axis"})
	for _, v := range violations {
		vt.AppendRow(table.Row{v.Line, v.Classification.String(), v.Axis})
	}
	vt.Render()
}

func axesList(seen map[string]bool) string {
	out := ""
	for _, axis := range []string{"X", "Y", "Z"} {
		if seen[axis] {
			out += axis
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := []string{}
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines, nil
}
