package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/harulog/backend/internal/cli"
	"github.com/harulog/backend/internal/client/chatapi"
	"github.com/harulog/backend/internal/config"
	"github.com/harulog/backend/internal/model/journal"
	"github.com/harulog/backend/internal/service/ai"
	"github.com/harulog/backend/internal/service/chat"
	"github.com/harulog/backend/internal/service/insight"
)

var CLI struct {
	Version kong.VersionFlag
	Dir     string `help:"Journal directory." type:"path" env:"DIARY_LOG_DIR"`
	File    string `help:"Journal filename." env:"DIARY_LOG_FILE" default:"chat_logs.json"`
	APIBase string `help:"Chat proxy base URL." name:"api-base"`
	Direct  bool   `help:"Call the llama-server directly instead of the proxy."`

	New   cli.NewCmd   `cmd:"" help:"Start a new journal."`
	Open  cli.OpenCmd  `cmd:"" help:"Show a journal conversation."`
	Chat  cli.ChatCmd  `cmd:"" help:"Converse interactively." default:"withargs"`
	Send  cli.SendCmd  `cmd:"" help:"Send one message to a journal."`
	List  cli.ListCmd  `cmd:"" help:"List journals, most recent first."`
	Title cli.TitleCmd `cmd:"" help:"Set a journal title."`
	Tag   cli.TagCmd   `cmd:"" help:"Override a journal's emotion."`
	Stats cli.StatsCmd `cmd:"" help:"Show the last month's mood report."`
	Clear cli.ClearCmd `cmd:"" help:"Delete every journal."`
}

func main() {
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name("diary"),
		kong.Description("Emotion journal with an empathetic assistant"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	dir := CLI.Dir
	if dir == "" {
		var err error
		dir, err = config.DefaultStorageDir()
		if err != nil {
			fail(err)
		}
	}
	file := CLI.File
	if file == "" {
		file = config.DefaultStorageFile()
	}

	store, err := journal.NewFileStore(journal.StorageConfig{Dir: dir, Filename: file})
	if err != nil {
		fail(err)
	}

	completer, err := newCompleter()
	if err != nil {
		fail(err)
	}

	appCtx := &cli.Context{
		Store:    store,
		Sessions: chat.NewService(store, completer),
		Insight:  insight.NewService(store),
		In:       os.Stdin,
		Out:      os.Stdout,
	}

	if err := kctx.Run(appCtx); err != nil {
		fail(err)
	}
}

func newCompleter() (chat.Completer, error) {
	if CLI.Direct {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return ai.NewService(context.Background(), cfg.Upstream, nil)
	}

	base, source := config.ResolveBaseURL(config.DefaultAPISources(CLI.APIBase)...)
	log.Printf("[diary] chat proxy %s (from %s)", base, source)
	return chatapi.New(base), nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
