package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harulog/backend/internal/analysis/emotion"
	"github.com/harulog/backend/internal/model/journal"
)

var ErrEmptyMessage = errors.New("message is empty")

const (
	introFirstEntry = "새 일기를 시작했어요. 오늘의 전반적인 기분을 한 문장으로 적어볼까요?"
	introNoRecent   = "최근 한 달 기록이 없어요. 오늘의 전반적인 감정 상태를 간단히 알려주세요 :)"
	introSummary    = "최근 한 달 동안 가장 자주 기록된 감정은 ‘%s’(%d/%d)였어요. 오늘은 지금 기분을 한 문장으로 적어볼까요?"

	connectionHint = "서버 연결에 문제가 있어요. 같은 네트워크인지, 방화벽/포트(4000) 허용인지 확인해 주세요."
)

// Completer produces the assistant reply for one user message.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// Kind is how a restored message is rendered.
type Kind string

const (
	KindUser   Kind = "user"
	KindSystem Kind = "system"
)

// DisplayMessage is a restored conversation bubble. ID is its 1-based
// position and stays stable for the lifetime of the Session.
type DisplayMessage struct {
	ID   int    `json:"id"`
	Kind Kind   `json:"type"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// Session is the active conversation bound to one journal entry.
type Session struct {
	LogID    string           `json:"logId"`
	Created  bool             `json:"created"`
	Messages []DisplayMessage `json:"messages"`
}

func (s *Session) push(kind Kind, text, at string) DisplayMessage {
	msg := DisplayMessage{ID: len(s.Messages) + 1, Kind: kind, Text: text, Time: at}
	s.Messages = append(s.Messages, msg)
	return msg
}

// Option customises the Service.
type Option func(*Service)

// WithClock overrides the wall clock used for intro cutoffs and bubble times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service reconciles navigation intents with the journal store.
type Service struct {
	store     journal.Store
	completer Completer
	now       func() time.Time
}

// NewService wires the reconciler. completer may be nil for read-only use.
func NewService(store journal.Store, completer Completer, opts ...Option) *Service {
	s := &Service{store: store, completer: completer, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IntroMessage derives the opening prompt from the last month of entries.
func (s *Service) IntroMessage(ctx context.Context) (string, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return "", err
	}
	return buildIntro(entries, s.now()), nil
}

func buildIntro(entries []journal.Entry, now time.Time) string {
	if len(entries) == 0 {
		return introFirstEntry
	}

	recent := RecentEntries(entries, now)
	if len(recent) == 0 {
		return introNoRecent
	}

	counts := make(map[emotion.Label]int, len(emotion.Labels))
	for _, e := range recent {
		counts[e.Emotion]++
	}

	top := emotion.Labels[0]
	for _, label := range emotion.Labels[1:] {
		if counts[label] > counts[top] {
			top = label
		}
	}

	return fmt.Sprintf(introSummary, top, counts[top], len(recent))
}

// RecentEntries keeps entries created on or after one calendar month before now.
// Entries with unparsable timestamps are skipped.
func RecentEntries(entries []journal.Entry, now time.Time) []journal.Entry {
	cutoff := now.AddDate(0, -1, 0)
	recent := make([]journal.Entry, 0, len(entries))
	for _, e := range entries {
		created, err := e.CreatedAt()
		if err != nil {
			continue
		}
		if !created.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	return recent
}

// Open resumes logID, or starts a new entry when logID is empty. A resumed
// entry without messages gets an intro appended so it is never shown empty.
func (s *Service) Open(ctx context.Context, logID string) (*Session, error) {
	created := false
	if strings.TrimSpace(logID) == "" {
		id, err := s.createWithIntro(ctx)
		if err != nil {
			return nil, err
		}
		logID = id
		created = true
	}

	entry, err := s.store.Get(ctx, logID)
	if err != nil {
		return nil, fmt.Errorf("load journal entry %s: %w", logID, err)
	}

	if len(entry.Messages) == 0 {
		intro, err := s.introMessage(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.store.Append(ctx, logID, []journal.Message{intro}, journal.AppendOptions{}); err != nil {
			return nil, fmt.Errorf("seed journal entry %s: %w", logID, err)
		}
		entry.Messages = []journal.Message{intro}
	}

	return &Session{LogID: logID, Created: created, Messages: Restore(entry.Messages)}, nil
}

// NewEntry creates an entry seeded with the intro message and returns its id.
func (s *Service) NewEntry(ctx context.Context) (string, error) {
	return s.createWithIntro(ctx)
}

func (s *Service) createWithIntro(ctx context.Context) (string, error) {
	intro, err := s.introMessage(ctx)
	if err != nil {
		return "", err
	}
	id, err := s.store.Create(ctx, journal.NewEntry{
		Emotion:  emotion.Neutral,
		Messages: []journal.Message{intro},
	})
	if err != nil {
		return "", fmt.Errorf("create journal entry: %w", err)
	}
	return id, nil
}

func (s *Service) introMessage(ctx context.Context) (journal.Message, error) {
	text, err := s.IntroMessage(ctx)
	if err != nil {
		return journal.Message{}, err
	}
	return journal.Message{Role: journal.RoleAssistant, Text: text, Time: journal.FormatTimeLabel(s.now())}, nil
}

// Restore maps stored messages 1:1, in order, to display records.
func Restore(messages []journal.Message) []DisplayMessage {
	restored := make([]DisplayMessage, 0, len(messages))
	for i, m := range messages {
		kind := KindSystem
		if m.Role == journal.RoleUser {
			kind = KindUser
		}
		restored = append(restored, DisplayMessage{ID: i + 1, Kind: kind, Text: m.Text, Time: m.Time})
	}
	return restored
}

// Send runs one exchange: the user bubble, the completion, and on success the
// persisted append with a reclassified emotion. A failed completion becomes
// a system bubble and nothing is persisted.
func (s *Service) Send(ctx context.Context, session *Session, text string) ([]DisplayMessage, error) {
	userText := strings.TrimSpace(text)
	if userText == "" {
		return nil, ErrEmptyMessage
	}
	if session == nil || session.LogID == "" {
		return nil, journal.ErrNotFound
	}
	if s.completer == nil {
		return nil, errors.New("no completer configured")
	}

	added := make([]DisplayMessage, 0, 2)
	userMsg := session.push(KindUser, userText, journal.FormatTimeLabel(s.now()))
	added = append(added, userMsg)

	reply, err := s.completer.Complete(ctx, userText)
	if err != nil {
		errMsg := session.push(KindSystem, fmt.Sprintf("%s\n(%v)", connectionHint, err), journal.FormatTimeLabel(s.now()))
		return append(added, errMsg), nil
	}

	aiMsg := session.push(KindSystem, reply, journal.FormatTimeLabel(s.now()))
	added = append(added, aiMsg)

	label := emotion.Classify(userText + " " + reply)
	err = s.store.Append(ctx, session.LogID, []journal.Message{
		{Role: journal.RoleUser, Text: userText, Time: userMsg.Time},
		{Role: journal.RoleAssistant, Text: reply, Time: aiMsg.Time},
	}, journal.AppendOptions{UpdateEmotion: label})
	if err != nil {
		return added, fmt.Errorf("persist exchange: %w", err)
	}
	return added, nil
}
