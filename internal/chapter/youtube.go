package chapter

import (
	"regexp"
	"strings"
	"time"

	"github.com/wavedeck/wavedeck/internal/timecode"
)

var (
	// timeToken matches the clock forms YouTube descriptions use:
	// H:MM:SS.mmm, M:SS.mmm, H:MM:SS and M:SS. Longer alternatives come
	// first so the fractional forms win.
	timeToken = regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}\.\d{3}|\d{1,2}:\d{2}\.\d{3}|\d{1,2}:\d{2}:\d{2}|\d{1,2}:\d{2}`)

	// leadingSeparators strips the "- " style joiners between a timestamp
	// and its title.
	leadingSeparators = regexp.MustCompile(`^[-\s]+`)
)

// ParseYouTube extracts chapters from pasted YouTube description text.
// A single line holding several timestamps is split on the timestamps
// themselves; otherwise every line contributes the chapters it contains,
// titled by the text following (or, failing that, preceding) each
// timestamp. Lines without a timestamp and entries without a title are
// skipped.
func ParseYouTube(text string) []Chapter {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	if len(lines) == 1 && lines[0] != "" {
		if chapters := parseInline(lines[0]); chapters != nil {
			return chapters
		}
	}

	var chapters []Chapter
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		locs := timeToken.FindAllStringIndex(line, -1)
		for i, loc := range locs {
			var before string
			if i == 0 {
				before = strings.TrimSpace(line[:loc[0]])
			} else {
				before = strings.TrimSpace(line[locs[i-1][1]:loc[0]])
			}

			var after string
			if i+1 < len(locs) {
				after = strings.TrimSpace(line[loc[1]:locs[i+1][0]])
			} else {
				after = strings.TrimSpace(line[loc[1]:])
			}

			title := after
			if title == "" {
				title = before
			}
			title = leadingSeparators.ReplaceAllString(title, "")
			if title == "" {
				continue
			}

			if at, ok := parseToken(line[loc[0]:loc[1]]); ok {
				chapters = append(chapters, Chapter{At: at, Title: title})
			}
		}
	}

	return chapters
}

// parseInline handles a one-line paste where timestamps separate the
// chapters. It reports nil when the line does not hold at least two
// timestamps, deferring to the per-line pass.
func parseInline(line string) []Chapter {
	locs := timeToken.FindAllStringIndex(line, -1)
	if len(locs) < 2 {
		return nil
	}

	var chapters []Chapter
	for i, loc := range locs {
		var title string
		if i+1 < len(locs) {
			title = strings.TrimSpace(line[loc[1]:locs[i+1][0]])
		} else {
			title = strings.TrimSpace(line[loc[1]:])
		}
		title = leadingSeparators.ReplaceAllString(title, "")
		if title == "" {
			continue
		}

		if at, ok := parseToken(line[loc[0]:loc[1]]); ok {
			chapters = append(chapters, Chapter{At: at, Title: title})
		}
	}

	return chapters
}

func parseToken(token string) (at time.Duration, ok bool) {
	norm, err := timecode.Normalize(token)
	if err != nil {
		return 0, false
	}
	at, err = timecode.Parse(norm)
	if err != nil {
		return 0, false
	}
	return at, true
}
