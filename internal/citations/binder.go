// Package citations post-processes generated answers. The upstream
// model is not contractually bound to emit only valid ids, so every
// marker is unverified until it resolves against the source list;
// anything that does not resolve is passed through verbatim.
package citations

import (
	"regexp"
	"strconv"

	"github.com/ecosearch/backend/internal/models"
)

var (
	citationPattern  = regexp.MustCompile(`\[(\d+)\]`)
	highlightPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// Bind turns raw answer text into renderable segments. Citation
// markers [n] that match a source id become link segments; **spans**
// become highlight segments whose children are themselves bound, so a
// marker inside an emphasized span still resolves. Unresolved markers
// and unmatched delimiters stay literal text.
func Bind(answer string, srcs []models.Source) []models.Segment {
	index := make(map[int]models.Source, len(srcs))
	for _, s := range srcs {
		index[s.ID] = s
	}

	segments := []models.Segment{}
	rest := answer
	for {
		loc := highlightPattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		segments = appendBound(segments, rest[:loc[0]], index)

		inner := rest[loc[2]:loc[3]]
		segments = append(segments, models.Segment{
			Kind:     models.SegmentHighlight,
			Text:     inner,
			Children: appendBound(nil, inner, index),
		})
		rest = rest[loc[1]:]
	}
	return appendBound(segments, rest, index)
}

// appendBound splits text on citation markers and appends the
// resulting text/link segments, coalescing adjacent text.
func appendBound(segments []models.Segment, text string, index map[int]models.Source) []models.Segment {
	rest := text
	for {
		loc := citationPattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}

		marker := rest[loc[0]:loc[1]]
		id, err := strconv.Atoi(rest[loc[2]:loc[3]])
		src, known := index[id]
		if err != nil || !known {
			// Dangling citation: model error, not ours to hide.
			segments = appendText(segments, rest[:loc[1]])
			rest = rest[loc[1]:]
			continue
		}

		segments = appendText(segments, rest[:loc[0]])
		segments = append(segments, models.Segment{
			Kind:     models.SegmentLink,
			Text:     marker,
			SourceID: src.ID,
			URL:      src.URL,
			Title:    src.Title,
		})
		rest = rest[loc[1]:]
	}
	return appendText(segments, rest)
}

func appendText(segments []models.Segment, text string) []models.Segment {
	if text == "" {
		return segments
	}
	if n := len(segments); n > 0 && segments[n-1].Kind == models.SegmentText {
		segments[n-1].Text += text
		return segments
	}
	return append(segments, models.Segment{Kind: models.SegmentText, Text: text})
}
