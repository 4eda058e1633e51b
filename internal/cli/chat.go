package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/chatkit/chat"
	"github.com/randalmurphal/chatkit/config"
)

const chatHelp = `Commands:
  /models        list models
  /model [id]    show or change the model
  /history       show the conversation
  /usage         show token usage and estimated cost
  /reset         start a new conversation
  /quit          exit`

var (
	userColor      = color.New(color.FgCyan, color.Bold)
	assistantColor = color.New(color.FgGreen, color.Bold)
	errorColor     = color.New(color.FgRed)
	dimColor       = color.New(color.Faint)
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var stream, watch bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation. Type a message and press enter;
lines starting with / are commands (/help lists them).

With --watch, edits to the config file's model take effect without
restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			client, session, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			stop, err := startMetrics(opts)
			if err != nil {
				return err
			}
			defer stop()
			if err := ensureModel(ctx, session); err != nil {
				return err
			}
			if watch && path != "" {
				if err := followConfig(ctx, path, session, opts.model != ""); err != nil {
					slog.Warn("config watch disabled", slog.Any("error", err))
				}
			}

			r := &repl{
				session: session,
				in:      cmd.InOrStdin(),
				out:     cmd.OutOrStdout(),
				stream:  stream,
			}
			return r.run(ctx)
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", true, "print replies as they are generated")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the model from the config file when it changes")
	return cmd
}

// followConfig applies model changes from path to session until ctx ends.
// When pinned, the model came from --model and file changes are ignored.
func followConfig(ctx context.Context, path string, session *chat.Session, pinned bool) error {
	events, err := config.Watch(ctx, path)
	if err != nil {
		return err
	}
	go func() {
		for ev := range events {
			if ev.Err != nil || ev.File.Model == "" {
				continue
			}
			if pinned {
				slog.Debug("config model ignored, --model was given", slog.String("model", ev.File.Model))
				continue
			}
			if ev.File.Model != session.SelectedModelID() {
				session.SetSelectedModelID(ev.File.Model)
				slog.Info("model changed by config", slog.String("model", ev.File.Model))
			}
		}
	}()
	return nil
}

// repl is the interactive chat loop.
type repl struct {
	session *chat.Session
	in      io.Reader
	out     io.Writer
	stream  bool
}

func (r *repl) run(ctx context.Context) error {
	dimColor.Fprintf(r.out, "model: %s (/help for commands)\n", r.session.SelectedModelID())

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		userColor.Fprint(r.out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if quit := r.command(ctx, line); quit {
				return nil
			}
		default:
			r.send(ctx, line)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) send(ctx context.Context, text string) {
	assistantColor.Fprint(r.out, "assistant> ")

	var (
		reply *chat.Message
		err   error
	)
	if r.stream {
		reply, err = r.session.SendStream(ctx, text, func(delta string) {
			fmt.Fprint(r.out, delta)
		})
	} else {
		reply, err = r.session.Send(ctx, text)
	}
	if err != nil {
		errorColor.Fprintf(r.out, "error: %s\n", errorMessage(err))
		return
	}
	if !r.stream {
		fmt.Fprint(r.out, reply.Content)
	}
	fmt.Fprintln(r.out)
}

// command runs a slash command and reports whether the loop should exit.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Fprintln(r.out, chatHelp)

	case "/models":
		models, err := r.session.Models(ctx)
		if err != nil {
			errorColor.Fprintf(r.out, "error: %s\n", errorMessage(err))
			return false
		}
		selected := r.session.SelectedModelID()
		for _, m := range models {
			mark := " "
			if m.ID == selected {
				mark = "*"
			}
			fmt.Fprintf(r.out, "%s %s\n", mark, m.ID)
		}

	case "/model":
		if arg != "" {
			r.session.SetSelectedModelID(arg)
		}
		fmt.Fprintf(r.out, "model: %s\n", r.session.SelectedModelID())

	case "/history":
		for _, m := range r.session.History() {
			if m.IsError() {
				errorColor.Fprintf(r.out, "[error] %s\n", m.Content)
				continue
			}
			fmt.Fprintf(r.out, "[%s] %s\n", m.Role, m.Content)
		}

	case "/usage":
		u := r.session.Usage()
		fmt.Fprintf(r.out, "tokens: %d in, %d out, %d total | est. cost: $%.6f\n",
			u.InputTokens, u.OutputTokens, u.TotalTokens, r.session.Costs().EstimatedCost())

	case "/reset":
		r.session.Reset()
		dimColor.Fprintln(r.out, "conversation cleared")

	default:
		errorColor.Fprintf(r.out, "unknown command %s (/help lists commands)\n", name)
	}
	return false
}
