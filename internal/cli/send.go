package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/chatkit/chat"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send one message and print the reply",
		Long: `Send one message and print the reply. Without arguments the message is
read from stdin.

  chatkit send "Explain channels in one sentence"
  git diff | chatkit send -m gpt-4o --stream`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("nothing to send")
			}

			cfg, _, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			client, session, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			stop, err := startMetrics(opts)
			if err != nil {
				return err
			}
			defer stop()

			ctx := cmd.Context()
			if err := ensureModel(ctx, session); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var reply *chat.Message
			if stream {
				reply, err = session.SendStream(ctx, text, func(delta string) {
					fmt.Fprint(out, delta)
				})
			} else {
				reply, err = session.Send(ctx, text)
			}
			if err != nil {
				return errors.New(errorMessage(err))
			}

			if !stream {
				fmt.Fprint(out, reply.Content)
			}
			fmt.Fprintln(out)

			if opts.verbose {
				usage := session.Usage()
				fmt.Fprintf(cmd.ErrOrStderr(), "model: %s | tokens: %d in, %d out | est. cost: $%.6f\n",
					reply.Model, usage.InputTokens, usage.OutputTokens, session.Costs().EstimatedCost())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "print the reply as it is generated")
	return cmd
}
