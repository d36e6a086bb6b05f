package format

import (
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len returns the length of s in UTF-16 code units, which is what
// Telegram entity offsets are measured in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

var markupRe = regexp.MustCompile("\\*\\*(.+?)\\*\\*|`([^`]+?)`")

// ParseMarkdown strips **bold** and `code` markers and returns the matching
// Telegram entities, ordered by offset.
func ParseMarkdown(text string) ParseResult {
	var (
		sb       strings.Builder
		entities []tgbotapi.MessageEntity
		last     int
	)

	for _, m := range markupRe.FindAllStringSubmatchIndex(text, -1) {
		sb.WriteString(text[last:m[0]])

		kind, inner := "bold", ""
		if m[2] != -1 {
			inner = text[m[2]:m[3]]
		} else {
			kind, inner = "code", text[m[4]:m[5]]
		}

		entities = append(entities, tgbotapi.MessageEntity{
			Type:   kind,
			Offset: UTF16Len(sb.String()),
			Length: UTF16Len(inner),
		})
		sb.WriteString(inner)
		last = m[1]
	}
	sb.WriteString(text[last:])

	return ParseResult{
		Text:     strings.TrimRight(sb.String(), " \n"),
		Entities: entities,
	}
}

// ProgressBar renders intake against goal as a fixed-width bar of drops.
func ProgressBar(intake, goal, width int) string {
	if goal <= 0 || width <= 0 {
		return ""
	}
	filled := min(intake*width/goal, width)
	return strings.Repeat("💧", filled) + strings.Repeat("▫️", width-filled)
}

// Percent formats intake/goal as a whole percentage capped at 100.
func Percent(intake, goal int) string {
	if goal <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", min(intake*100/goal, 100))
}

// IntervalLabel names a reminder interval the way the settings menu shows it.
func IntervalLabel(minutes int) string {
	switch {
	case minutes == 1:
		return "1 minute (testing)"
	case minutes == 5:
		return "5 minutes (testing)"
	case minutes == 60:
		return "1 hour"
	case minutes == 90:
		return "1.5 hours"
	case minutes > 60 && minutes%60 == 0:
		return fmt.Sprintf("%d hours", minutes/60)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}

// GoalLabel names a daily goal.
func GoalLabel(glasses int) string {
	if glasses == 1 {
		return "1 glass"
	}
	return fmt.Sprintf("%d glasses", glasses)
}
