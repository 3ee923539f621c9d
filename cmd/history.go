package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/freestyler/internal/history"
	"github.com/ziadkadry99/freestyler/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded freestyles",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		personaName, _ := cmd.Flags().GetString("persona")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		return withHistory(func(ctx context.Context, store *history.Store) error {
			gens, err := store.List(ctx, history.ListFilter{
				Persona: personaName,
				Status:  history.Status(status),
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if len(gens) == 0 {
				fmt.Println("No generations recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPERSONA\tTOPIC\tBARS\tSTATUS")
			for _, g := range gens {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					g.ID, g.CreatedAt.Local().Format(time.DateTime), g.Persona,
					truncate(g.Topic, 40), len(g.Bars), g.Status)
			}
			return w.Flush()
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a generation and its bars",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store) error {
			g, err := store.GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := render.Markdown(history.Markdown(g), 100)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a generation as Markdown or HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		return withHistory(func(ctx context.Context, store *history.Store) error {
			g, err := store.GetByID(ctx, args[0])
			if err != nil {
				return err
			}

			var out string
			switch format {
			case "md", "markdown":
				out = history.Markdown(g)
			case "html":
				if out, err = history.HTML(g); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (use md or html)", format)
			}

			if output == "" || output == "-" {
				fmt.Print(out)
				return nil
			}
			if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(os.Stderr, "Exported %s to %s\n", g.ID, output)
			return nil
		})
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete generations older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		return withHistory(func(ctx context.Context, store *history.Store) error {
			n, err := store.DeleteBefore(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d generation(s).\n", n)
			return nil
		})
	},
}

// withHistory opens the history store for the duration of fn.
func withHistory(fn func(ctx context.Context, store *history.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(context.Background(), store)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func init() {
	historyListCmd.Flags().String("persona", "", "only show this persona")
	historyListCmd.Flags().String("status", "", "only show completed or failed generations")
	historyListCmd.Flags().Int("limit", 20, "max rows to show")

	historyExportCmd.Flags().String("format", "md", "export format: md or html")
	historyExportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")

	historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "delete generations older than this")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
