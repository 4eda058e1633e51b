package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/chatkit/model"
	"github.com/randalmurphal/chatkit/provider"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List chat models",
		Long: `List the models whose id starts with the configured prefix (default "gpt-"),
sorted by id. The selected model is marked with *.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			models, err := session.Models(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %s", errorMessage(err))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(models)
			}
			renderModels(cmd.OutOrStdout(), models, session.SelectedModelID())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// renderModels prints models as a table, with known context and pricing.
func renderModels(w io.Writer, models []provider.ModelInfo, selected string) {
	if len(models) == 0 {
		fmt.Fprintln(w, "No models found.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"", "Model", "Owner", "Created", "Context", "Input $/1M", "Output $/1M"})

	for _, m := range models {
		mark := ""
		if m.ID == selected {
			mark = "*"
		}
		created := "-"
		if m.Created > 0 {
			created = time.Unix(m.Created, 0).UTC().Format("2006-01-02")
		}
		window, in, out := "-", "-", "-"
		if info, ok := model.Lookup(m.ID); ok {
			window = strconv.Itoa(info.ContextWindow)
			in = fmt.Sprintf("%.2f", info.InputPerMillion)
			out = fmt.Sprintf("%.2f", info.OutputPerMillion)
		}
		table.Append([]string{mark, m.ID, m.OwnedBy, created, window, in, out})
	}

	table.Render()
}
