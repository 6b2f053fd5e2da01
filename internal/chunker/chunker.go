package chunker

import (
	"strings"
)

// Options controls how article text is split into context windows.
type Options struct {
	MaxWords int
	Overlap  int
}

// Window is one model-sized slice of the article text.
type Window struct {
	Index     int
	Text      string
	WordCount int
}

// Split cuts text into overlapping word windows so a long article can be
// processed in full instead of truncated. Words are whitespace-delimited;
// the overlap keeps definitions that straddle a boundary visible in both
// windows.
func Split(text string, opts Options) []Window {
	if opts.MaxWords <= 0 {
		opts.MaxWords = 1500
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}

	words := strings.Fields(text)
	var windows []Window
	if len(words) == 0 {
		return windows
	}

	step := opts.MaxWords - opts.Overlap
	if step <= 0 {
		step = opts.MaxWords
	}

	for start := 0; start < len(words); start += step {
		end := start + opts.MaxWords
		if end > len(words) {
			end = len(words)
		}
		segment := strings.Join(words[start:end], " ")
		windows = append(windows, Window{
			Index:     len(windows),
			Text:      segment,
			WordCount: end - start,
		})
		if end == len(words) {
			break
		}
	}
	return windows
}
