package chapter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/wavedeck/wavedeck/internal/timecode"
)

// fieldSep splits a chapter line into its time and title cells. Only the
// first whitespace run separates fields, so titles keep internal spacing.
var fieldSep = regexp.MustCompile(`\s+`)

// Read parses the chapter text format: one "TIME TITLE" pair per line.
// Blank lines are skipped. A line whose time cell does not parse fails the
// whole read with its line number. Titles may be empty.
func Read(r io.Reader) ([]Chapter, error) {
	var chapters []Chapter

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := fieldSep.Split(line, 2)
		at, err := timecode.Parse(parts[0])
		if err != nil {
			return nil, fmt.Errorf("chapter file line %d: %w", lineNo, err)
		}

		c := Chapter{At: at}
		if len(parts) > 1 {
			c.Title = parts[1]
		}
		chapters = append(chapters, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chapter file: %w", err)
	}

	return chapters, nil
}

// Write emits chapters in the text format, one per line, with millisecond
// precision timecodes.
func Write(w io.Writer, chapters []Chapter) error {
	for _, c := range chapters {
		if _, err := fmt.Fprintf(w, "%s %s\n", timecode.FormatMillis(c.At), c.Title); err != nil {
			return fmt.Errorf("writing chapter file: %w", err)
		}
	}
	return nil
}

// Load reads a chapter file from disk.
func Load(path string) ([]Chapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chapter file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Save writes a chapter file to disk, replacing any existing file.
func Save(path string, chapters []Chapter) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chapter file: %w", err)
	}

	if err := Write(f, chapters); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing chapter file: %w", err)
	}
	return nil
}
