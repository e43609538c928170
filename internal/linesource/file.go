package linesource

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// FileSource reads a text file a line at a time, skipping blanks and
// comment-only lines ("; ..." or "(...)" at the start of the line),
// grounded on the teacher's internal/gcode/file.go bufio.Scanner
// approach and original_source streamer.py's skip/line-count behavior.
type FileSource struct {
	path       string
	file       *os.File
	scanner    *bufio.Scanner
	lineNumber int
	eof        bool
}

// NewFile builds a FileSource for path. Call Open before NextLine.
func NewFile(path string) *FileSource {
	return &FileSource{path: path}
}

// Open opens the underlying file, sized for large single lines (matching
// the teacher's 1MB scanner buffer).
func (f *FileSource) Open() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("failed to open gcode file: %w", err)
	}
	f.file = file

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	f.scanner = scanner

	return nil
}

// NextLine returns the next non-blank, non-comment-only line.
func (f *FileSource) NextLine() (string, bool, error) {
	if f.eof || f.scanner == nil {
		return "", false, nil
	}

	for f.scanner.Scan() {
		f.lineNumber++
		line := strings.TrimSpace(f.scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "(") {
			continue
		}
		return line, true, nil
	}

	if err := f.scanner.Err(); err != nil {
		return "", false, fmt.Errorf("error reading gcode file: %w", err)
	}

	f.eof = true
	return "", false, nil
}

// Close releases the underlying file handle.
func (f *FileSource) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// LineNumber returns the 1-based line number most recently read.
func (f *FileSource) LineNumber() int {
	return f.lineNumber
}
