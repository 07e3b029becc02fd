package catalog

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
)

// verseMaxLen is the length (in characters) under which a line without a period is a verse.
const verseMaxLen = 50

var headingPattern = regexp.MustCompile(`(?m)^# `)

// ParseMarkdown builds a catalog from "# Title" sections.
//
// Within a section, blank lines are dropped, lines containing a period become paragraphs,
// and short lines without a period become verses. Long lines without a period are ignored.
// Track n gets image assets/img/NN.jpg and audio "assets/music/NN Title.m4a".
func ParseMarkdown(text string) (*models.Catalog, error) {
	var tracks []models.Track
	for _, section := range headingPattern.Split(text, -1) {
		if strings.TrimSpace(section) == "" {
			continue
		}

		header, body, _ := strings.Cut(section, "\n")
		title := strings.TrimSpace(header)
		index := len(tracks) + 1

		var content models.TrackContent
		for line := range strings.SplitSeq(body, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			switch {
			case strings.Contains(line, "."):
				content.Paragraphs = append(content.Paragraphs, trimmed)
			case utf8.RuneCountInString(line) < verseMaxLen:
				content.Verses = append(content.Verses, trimmed)
			}
		}

		tracks = append(tracks, models.Track{
			Index:   index,
			Title:   title,
			Key:     title,
			Image:   fmt.Sprintf("assets/img/%s.jpg", shared.PadIndex(index)),
			Audio:   fmt.Sprintf("assets/music/%s %s.m4a", shared.PadIndex(index), title),
			Content: content,
		})
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no \"# \" sections found", shared.ErrInvalidCatalog)
	}
	return models.NewCatalog(tracks)
}
