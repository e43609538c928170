// Package preflight runs whole-file diagnostics before a job starts: a
// quick structural scan (line and motion-line counts, detected axes,
// G/M code histogram) and an axis-sweep soft-limit check. Both are explicitly
// offline — the streaming core's own soft-limit check stays
// endpoint-only (spec §9); preflight exists to catch what that leaves
// on the table, without changing the core's runtime behavior.
package preflight

import (
	"fmt"
	"io"

	"github.com/256dpi/gcode"
)

// FileStats is a quick structural summary of a whole G-code file,
// grounded on the teacher's internal/gcode/metadata.go header scan, but
// generalized from Snapmaker-header parsing to a direct word/code
// histogram computed from every line.
type FileStats struct {
	TotalLines   int
	MotionLines  int
	AxesSeen     map[string]bool
	GCodeCounts  map[int]int
	MCodeCounts  map[int]int
}

// ScanStats reads the whole file with github.com/256dpi/gcode and
// tallies structural stats independent of the streaming parser.
func ScanStats(r io.Reader) (*FileStats, error) {
	file, err := gcode.ParseFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gcode file for stats: %w", err)
	}

	stats := &FileStats{
		AxesSeen:    map[string]bool{},
		GCodeCounts: map[int]int{},
		MCodeCounts: map[int]int{},
	}

	for _, line := range file.Lines {
		if len(line.Codes) == 0 {
			continue
		}
		stats.TotalLines++

		hasMotion := false
		for _, code := range line.Codes {
			switch code.Letter {
			case "G":
				stats.GCodeCounts[int(code.Value)]++
				if v := int(code.Value); v == 0 || v == 1 || v == 2 || v == 3 {
					hasMotion = true
				}
			case "M":
				stats.MCodeCounts[int(code.Value)]++
			case "X", "Y", "Z":
				stats.AxesSeen[code.Letter] = true
			}
		}
		if hasMotion {
			stats.MotionLines++
		}
	}

	return stats, nil
}
