package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harulog/backend/internal/service/chat"
)

type NewCmd struct{}

func (c *NewCmd) Run(ctx *Context) error {
	session, err := ctx.Sessions.Open(context.Background(), "")
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Created journal %s\n\n", session.LogID)
	printMessages(ctx.Out, session.Messages)
	return nil
}

type OpenCmd struct {
	ID string `arg:"" help:"Journal id to resume."`
}

func (c *OpenCmd) Run(ctx *Context) error {
	session, err := ctx.Sessions.Open(context.Background(), c.ID)
	if err != nil {
		return err
	}
	printMessages(ctx.Out, session.Messages)
	return nil
}

type SendCmd struct {
	ID      string   `arg:"" help:"Journal id to write to."`
	Message []string `arg:"" help:"Message text."`
}

func (c *SendCmd) Run(ctx *Context) error {
	bg := context.Background()
	session, err := ctx.Sessions.Open(bg, c.ID)
	if err != nil {
		return err
	}

	added, err := ctx.Sessions.Send(bg, session, strings.Join(c.Message, " "))
	if err != nil {
		return err
	}
	printMessages(ctx.Out, added)
	return nil
}

type ChatCmd struct {
	ID string `arg:"" optional:"" help:"Journal id to resume; starts a new journal when omitted."`
}

func (c *ChatCmd) Run(ctx *Context) error {
	bg := context.Background()
	session, err := ctx.Sessions.Open(bg, c.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Journal %s (empty line or /quit to exit)\n\n", session.LogID)
	printMessages(ctx.Out, session.Messages)

	scanner := bufio.NewScanner(ctx.In)
	for {
		fmt.Fprint(ctx.Out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "/quit" {
			break
		}

		added, err := ctx.Sessions.Send(bg, session, line)
		if errors.Is(err, chat.ErrEmptyMessage) {
			continue
		}
		if len(added) > 1 {
			printMessages(ctx.Out, added[1:])
		}
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}
