package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Submit(ctx context.Context) error
	Analyze(ctx context.Context) error
	Story(ctx context.Context) error
	Preview(ctx context.Context) error
	History(ctx context.Context, reload bool) error
	Show(ctx context.Context, id int64) error
	Edit(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Insights(ctx context.Context) error
	Dashboard(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: signup, login, whoami, exit"
	helpLoggedIn  = "Available commands: submit, analyze, story, preview, history [reload], show <id>, edit <id>, delete <id>, insights, dashboard, whoami, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the FeedPulse CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Prompts and REPL messages go to out, which
// must be the same writer the commands and background goroutines use. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "feedpulse%s> \n", prefixed(statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, helpLoggedIn)
			} else {
				fmt.Fprintln(out, helpAnonymous)
			}

		case "signup", "register":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "submit":
			_ = a.Submit(ctx)

		case "analyze":
			_ = a.Analyze(ctx)

		case "story":
			_ = a.Story(ctx)

		case "preview":
			_ = a.Preview(ctx)

		case "h", "history":
			_ = a.History(ctx, len(args) > 0 && args[0] == "reload")

		case "show", "edit", "delete":
			id, ok := parseID(args)
			if !ok {
				fmt.Fprintf(out, "Usage: %s <id>\n", cmd)
				continue
			}
			switch cmd {
			case "show":
				_ = a.Show(ctx, id)
			case "edit":
				_ = a.Edit(ctx, id)
			case "delete":
				_ = a.Delete(ctx, id)
			}

		case "insights":
			_ = a.Insights(ctx)

		case "dashboard":
			_ = a.Dashboard(ctx)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

func prefixed(status string) string {
	if status == "" {
		return ""
	}
	return " " + status
}

func parseID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
