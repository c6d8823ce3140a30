package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harulog/backend/internal/analysis/emotion"
	"github.com/harulog/backend/internal/model/journal"
)

type ListCmd struct {
	JSON bool `help:"Print summaries as JSON."`
}

func (c *ListCmd) Run(ctx *Context) error {
	entries, err := ctx.Store.List(context.Background())
	if err != nil {
		return err
	}

	summaries := make([]journal.Summary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, journal.Summarize(e))
	}

	if c.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(ctx.Out, "No journals yet")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(ctx.Out, "%s  %s 일기  [%s]  %s\n", s.ID, s.Date, s.Emotion, s.Title)
		if s.Preview != "" {
			fmt.Fprintf(ctx.Out, "    %s\n", s.Preview)
		}
	}
	return nil
}

type TitleCmd struct {
	ID    string `arg:"" help:"Journal id."`
	Title string `arg:"" help:"New title."`
}

func (c *TitleCmd) Run(ctx *Context) error {
	title := c.Title
	return ctx.Store.UpdateMeta(context.Background(), c.ID, journal.MetaPatch{Title: &title})
}

type TagCmd struct {
	ID      string `arg:"" help:"Journal id."`
	Emotion string `arg:"" help:"Emotion label (기쁨, 분노, 슬픔, 긴장, 상쾌, 무료, 기본)."`
}

func (c *TagCmd) Run(ctx *Context) error {
	label, ok := emotion.ParseLabel(c.Emotion)
	if !ok {
		return fmt.Errorf("unknown emotion %q", c.Emotion)
	}
	return ctx.Store.UpdateMeta(context.Background(), c.ID, journal.MetaPatch{Emotion: &label})
}

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *Context) error {
	report, err := ctx.Insight.Monthly(context.Background())
	if err != nil {
		return err
	}

	avg := "-"
	if report.Average != nil {
		avg = fmt.Sprintf("%.1f", *report.Average)
	}
	fmt.Fprintf(ctx.Out, "일기 작성 %d  평균 기분 %s/10  주요 감정 %s  개선도 %d%%\n",
		report.Total, avg, report.Frequent, report.Improvement)
	for _, b := range report.Distribution {
		fmt.Fprintf(ctx.Out, "  %s %d\n", b.Label, b.Count)
	}
	return nil
}

var errClearNotConfirmed = errors.New("refusing to clear journals without --yes")

type ClearCmd struct {
	Yes bool `help:"Confirm deleting every journal."`
}

func (c *ClearCmd) Run(ctx *Context) error {
	if !c.Yes {
		return errClearNotConfirmed
	}
	if err := ctx.Store.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "All journals cleared")
	return nil
}
