// Package extract finds date and time mentions in note text.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// patterns are applied to each line in this order.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
	regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{4}`),
	regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`),
	regexp.MustCompile(`(?i)(today|tomorrow|next week|next month)`),
	regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s?(AM|PM)`),
}

// Item is one date or time mention and the line it came from.
type Item struct {
	Match string
	Line  string
}

// Calendar returns one item per pattern match, ordered by line and then by pattern.
func Calendar(content string) []Item {
	var items []Item
	for _, line := range strings.Split(content, "\n") {
		for _, p := range patterns {
			for _, m := range p.FindAllString(line, -1) {
				items = append(items, Item{Match: m, Line: strings.TrimSpace(line)})
			}
		}
	}
	return items
}

// Summary renders the calendar note written for the document named source.
func Summary(source string, items []Item, now time.Time) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("- %s: %s", it.Match, it.Line))
	}
	return fmt.Sprintf("# Calendar Items from %s\n\n%s\n\nExtracted on: %s",
		source, strings.Join(lines, "\n"), now.Format("2006-01-02 15:04"))
}
