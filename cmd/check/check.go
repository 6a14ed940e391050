// Package check implements a one-off backlink check from the command line.
package check

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/madx/backlinkd/internal/config"
	"github.com/madx/backlinkd/internal/engine"
	"github.com/madx/backlinkd/internal/fetch"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/rating"
	"github.com/madx/backlinkd/internal/store"
)

// detailsColumnWidth caps the match details column so long anchor text does
// not blow up the table.
const detailsColumnWidth = 80

var cmd = &cobra.Command{
	Use:   "check",
	Short: "Check a single backlink claim",
	Long: `Check fetches one source page and reports whether it links to the
target URL with the given anchor text.

Examples:
  # Verify that blog.example.com links to mysite.com
  backlinkd check -f https://blog.example.com/post -t https://mysite.com

  # Require matching anchor text
  backlinkd check -f https://blog.example.com/post -t https://mysite.com -a "my site"
`,
	RunE: runCheck,
}

// Command returns the check command for use in the root command.
func Command() *cobra.Command {
	cmd.Flags().StringP("url-from", "f", "", "Source page URL to fetch")
	cmd.Flags().StringP("url-to", "t", "", "Target URL the link should point to")
	cmd.Flags().StringP("anchor-text", "a", "", "Expected anchor text (optional)")

	for _, flag := range []string{"url-from", "url-to"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			fmt.Fprintf(os.Stderr, "Error marking %s flag as required: %v\n", flag, err)
			os.Exit(1)
		}
	}

	return cmd
}

// runCheck executes the check and renders the outcome as a table.
func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	claim := store.Claim{
		URLFrom:    cmd.Flag("url-from").Value.String(),
		URLTo:      cmd.Flag("url-to").Value.String(),
		AnchorText: cmd.Flag("anchor-text").Value.String(),
	}

	// Keep the terminal output clean; the table is the result.
	log := logger.NewNop()

	fetchCfg := cfg.Fetch
	fetchCfg.Timeout = config.OnDemandFetchTimeout
	eng := engine.New(fetch.New(fetchCfg), log)

	ctx := cmd.Context()
	outcome := eng.Check(ctx, claim)

	renderOutcome(claim, outcome, lookupRating(ctx, cfg, claim))

	return nil
}

// lookupRating fetches the source domain's rating, returning "" when
// enrichment is disabled or fails.
func lookupRating(ctx context.Context, cfg *config.Config, claim store.Claim) string {
	if cfg.Ahrefs.APIKey == "" {
		return ""
	}

	client := rating.NewClient(cfg.Ahrefs, logger.NewNop())
	dr, err := client.DomainRating(ctx, rating.CleanDomain(claim.URLFrom))
	if err != nil {
		return fmt.Sprintf("unavailable (%v)", err)
	}
	return fmt.Sprintf("%d", dr)
}

// renderOutcome prints the check result as a field/value table.
func renderOutcome(claim store.Claim, outcome engine.Outcome, domainRating string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: detailsColumnWidth},
	})

	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"URL From", claim.URLFrom})
	t.AppendRow(table.Row{"URL To", claim.URLTo})
	if claim.AnchorText != "" {
		t.AppendRow(table.Row{"Anchor Text", claim.AnchorText})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Status", string(outcome.Status)})
	t.AppendRow(table.Row{"Found", outcome.Found})
	if outcome.StatusCode != nil {
		t.AppendRow(table.Row{"HTTP Status", *outcome.StatusCode})
	}
	if outcome.MatchDetails != nil {
		t.AppendRow(table.Row{"Match Details", *outcome.MatchDetails})
	}
	if outcome.Error != nil {
		t.AppendRow(table.Row{"Error", *outcome.Error})
	}
	if domainRating != "" {
		t.AppendRow(table.Row{"Domain Rating", domainRating})
	}

	t.Render()
}
