package cli

import (
	"fmt"
	"io"

	"github.com/harulog/backend/internal/model/journal"
	"github.com/harulog/backend/internal/service/chat"
	"github.com/harulog/backend/internal/service/insight"
)

// Context is handed to every command's Run method.
type Context struct {
	Store    journal.Store
	Sessions *chat.Service
	Insight  *insight.Service
	In       io.Reader
	Out      io.Writer
}

func printMessages(w io.Writer, messages []chat.DisplayMessage) {
	for _, m := range messages {
		speaker := "도우미"
		if m.Kind == chat.KindUser {
			speaker = "나"
		}
		fmt.Fprintf(w, "[%d] %s (%s)\n    %s\n", m.ID, speaker, m.Time, m.Text)
	}
}
