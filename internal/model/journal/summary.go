package journal

import (
	"strings"

	"github.com/harulog/backend/internal/analysis/emotion"
)

const (
	summaryTitleRunes   = 18
	summaryPreviewRunes = 38
	untitledEntry       = "새로운 일기"
)

// Summary is the list-view projection of an entry.
type Summary struct {
	ID      string        `json:"id"`
	Date    string        `json:"date"`
	Title   string        `json:"title"`
	Emotion emotion.Label `json:"emotion"`
	Preview string        `json:"preview"`
	Time    string        `json:"time"`
}

// Summarize builds the list card for e.
func Summarize(e Entry) Summary {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = truncateRunes(firstText(e.Messages, RoleUser), summaryTitleRunes)
	}
	if title == "" {
		title = untitledEntry
	}

	preview := firstText(e.Messages, RoleAssistant)
	if len([]rune(preview)) > summaryPreviewRunes {
		preview = truncateRunes(preview, summaryPreviewRunes) + "…"
	}

	label := e.Emotion
	if label == "" {
		label = emotion.Neutral
	}

	var firstTime string
	if len(e.Messages) > 0 {
		firstTime = e.Messages[0].Time
	}

	return Summary{
		ID:      e.ID,
		Date:    strings.ReplaceAll(e.CreatedAtLabel, "/", "."),
		Title:   title,
		Emotion: label,
		Preview: preview,
		Time:    firstTime,
	}
}

func firstText(messages []Message, role Role) string {
	for _, m := range messages {
		if m.Role == role {
			return m.Text
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
