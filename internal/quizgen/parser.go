package quizgen

import (
	"strings"
)

// rawQuestion accumulates one question block while the reply is scanned.
type rawQuestion struct {
	text    string
	options [4]string
	correct string
}

// complete reports whether the accumulator may be committed. Options are
// reset to empty strings when a block starts, so they are always present;
// empty option text is let through.
func (r *rawQuestion) complete() bool {
	return r.text != "" && r.correct != ""
}

// parseResponse scans the model reply line by line and returns at most limit
// complete question blocks in reply order. Unknown lines are ignored.
func parseResponse(reply string, limit int) []rawQuestion {
	var (
		out     []rawQuestion
		current *rawQuestion
	)
	commit := func() {
		if current != nil && current.complete() {
			out = append(out, *current)
		}
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)

		if rest, ok := strings.CutPrefix(line, questionMarker); ok {
			commit()
			current = &rawQuestion{text: strings.TrimSpace(rest)}
			continue
		}
		if current == nil {
			continue
		}
		if rest, ok := strings.CutPrefix(line, correctMarker); ok {
			if letter := strings.TrimSpace(rest); letterIndex(letter) >= 0 {
				current.correct = letter
			}
			continue
		}
		for i, m := range optionMarkers {
			if rest, ok := strings.CutPrefix(line, m); ok {
				current.options[i] = strings.TrimSpace(rest)
				break
			}
		}
	}
	commit()

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
