package insight

import (
	"context"
	"math"
	"time"

	"github.com/harulog/backend/internal/analysis/emotion"
	"github.com/harulog/backend/internal/model/journal"
	"github.com/harulog/backend/internal/service/chat"
)

// chartOrder is the axis order of the monthly distribution.
var chartOrder = []emotion.Label{
	emotion.Joy, emotion.Anger, emotion.Sadness, emotion.Bored,
	emotion.Refreshed, emotion.Tension, emotion.Neutral,
}

const week = 7 * 24 * time.Hour

// Bucket is one point of the emotion distribution.
type Bucket struct {
	Label emotion.Label `json:"label"`
	Count int           `json:"count"`
}

// Report summarises the last calendar month of journaling.
type Report struct {
	Total        int           `json:"total"`
	Average      *float64      `json:"average,omitempty"`
	Frequent     emotion.Label `json:"frequent"`
	Improvement  int           `json:"improvement"`
	Distribution []Bucket      `json:"distribution"`
}

// Summarize computes the monthly report for entries as of now.
func Summarize(entries []journal.Entry, now time.Time) Report {
	recent := chat.RecentEntries(entries, now)

	counts := make(map[emotion.Label]int, len(emotion.Labels))
	scoreSum := 0
	for _, e := range recent {
		counts[e.Emotion]++
		scoreSum += emotion.Score(e.Emotion)
	}

	report := Report{
		Total:        len(recent),
		Frequent:     emotion.Neutral,
		Distribution: make([]Bucket, 0, len(chartOrder)),
	}
	for _, label := range chartOrder {
		report.Distribution = append(report.Distribution, Bucket{Label: label, Count: counts[label]})
	}

	if report.Total == 0 {
		return report
	}

	avg := math.Round(float64(scoreSum)/float64(report.Total)*10) / 10
	report.Average = &avg

	top := emotion.Labels[0]
	for _, label := range emotion.Labels[1:] {
		if counts[label] > counts[top] {
			top = label
		}
	}
	report.Frequent = top
	report.Improvement = weekOverWeek(recent, now)
	return report
}

// weekOverWeek compares entries of the last 7 days against the 7 days before.
func weekOverWeek(recent []journal.Entry, now time.Time) int {
	thisWeek, lastWeek := 0, 0
	for _, e := range recent {
		created, err := e.CreatedAt()
		if err != nil {
			continue
		}
		age := now.Sub(created)
		switch {
		case age <= week:
			thisWeek++
		case age <= 2*week:
			lastWeek++
		}
	}
	if thisWeek == 0 && lastWeek == 0 {
		return 0
	}
	return int(math.Round(float64(thisWeek-lastWeek) / float64(max(lastWeek, 1)) * 100))
}

// Service reads the store and builds reports against the wall clock.
type Service struct {
	store journal.Store
	now   func() time.Time
}

// NewService returns a report service over store.
func NewService(store journal.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Monthly builds the report for the current store contents.
func (s *Service) Monthly(ctx context.Context) (Report, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return Report{}, err
	}
	return Summarize(entries, s.now()), nil
}
