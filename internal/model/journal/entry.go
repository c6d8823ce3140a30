package journal

import (
	"fmt"
	"time"

	"github.com/harulog/backend/internal/analysis/emotion"
)

// Role identifies the author of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a journal conversation.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// Entry 是一篇日记，即一次完整的对话记录。
type Entry struct {
	ID             string        `json:"id"`
	CreatedAtISO   string        `json:"createdAtISO"`
	CreatedAtLabel string        `json:"createdAtLabel"`
	Title          string        `json:"title"`
	Emotion        emotion.Label `json:"emotion"`
	Messages       []Message     `json:"messages"`
}

// CreatedAt parses CreatedAtISO.
func (e Entry) CreatedAt() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.CreatedAtISO)
}

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatISO renders t the way entries store it: UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// FormatDateLabel 生成韩语区域格式的日期，例如 "2026. 10. 19."。
func FormatDateLabel(t time.Time) string {
	return fmt.Sprintf("%d. %d. %d.", t.Year(), int(t.Month()), t.Day())
}

// FormatTimeLabel 生成韩语区域格式的时间，例如 "오후 03:04"。
func FormatTimeLabel(t time.Time) string {
	period := "오전"
	hour := t.Hour()
	if hour >= 12 {
		period = "오후"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s %02d:%02d", period, hour, t.Minute())
}

func cloneMessages(messages []Message) []Message {
	copied := make([]Message, len(messages))
	copy(copied, messages)
	return copied
}

func (e Entry) clone() Entry {
	e.Messages = cloneMessages(e.Messages)
	return e
}
