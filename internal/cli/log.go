package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/cursor"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/events"
	"github.com/lherron/caseq/internal/render"
	"github.com/lherron/caseq/internal/store"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <project|case>",
	Short: "Show change history for a project or test case",
	Long: `Shows events from the event log, newest first. A project's history holds
its creation and one import.completed entry per committed import; a case's
history holds its creation and every overwrite.

Examples:
  caseq log checkout                # Project history
  caseq log checkout --imports      # Only completed imports
  caseq log C-00042 --limit 5
  caseq log checkout --cursor <next_cursor>   # Continue a limited listing

When a listing is cut off by --limit, next_cursor=<token> is written to
stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runLog),
}

var (
	logImports bool
	logLimit   int
	logJSON    bool
	logCursor  string
)

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().BoolVar(&logImports, "imports", false, "Only show completed imports")
	logCmd.Flags().IntVar(&logLimit, "limit", 50, "Limit number of events (0 = unlimited)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "Output as JSON")
	logCmd.Flags().StringVar(&logCursor, "cursor", "", "Pagination cursor from a previous listing")
}

func runLog(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := appctx.Context(cmd)
	cat := app.Store.Catalog()

	resourceUUID, err := resolveResource(app, cmd, args[0])
	if err != nil {
		return err
	}

	filter := store.EventFilter{ResourceUUID: resourceUUID, Limit: logLimit}
	if logImports {
		filter.EventType = events.ImportCompleted
	}
	scope := resourceUUID + "|" + filter.EventType
	if logCursor != "" {
		c, err := cursor.Decode(logCursor, scope)
		if err != nil {
			return exitError(ExitUsage, fmt.Errorf("invalid --cursor: %w", err))
		}
		filter.BeforeID = c.LastID
	}
	evts, err := cat.ListEvents(ctx, filter)
	if err != nil {
		return err
	}

	ids := make([]int64, len(evts))
	for i, e := range evts {
		ids[i] = e.ID
	}
	next, err := cursor.Next(scope, logLimit, ids)
	if err != nil {
		return err
	}
	if next != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "next_cursor=%s\n", next)
	}

	actors, err := app.Store.Actors.List(ctx)
	if err != nil {
		return err
	}
	actorIDs := make(map[string]string, len(actors))
	for _, a := range actors {
		actorIDs[a.UUID] = a.ID
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}

	t := render.Table{Headers: []string{"#", "Time", "Actor", "Event", "ETag", "Payload"}, RightAlign: []int{1, 5}}
	for _, e := range evts {
		actor := ""
		if e.ActorUUID != nil {
			actor = actorIDs[*e.ActorUUID]
		}
		etag := ""
		if e.ETag != nil {
			etag = strconv.FormatInt(*e.ETag, 10)
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.Local().Format(time.DateTime),
			actor,
			e.EventType,
			etag,
			stringOrEmpty(e.Payload),
		})
	}
	if evts == nil {
		evts = []*domain.Event{}
	}
	return r.Render(evts, t)
}

// resolveResource accepts a project reference or a test case ID or UUID.
func resolveResource(app *appctx.App, cmd *cobra.Command, ref string) (string, error) {
	ctx := appctx.Context(cmd)
	p, err := app.Store.Projects.Resolve(ctx, ref)
	if err == nil {
		return p.UUID, nil
	}
	if !errors.Is(err, domain.ErrProjectNotFound) {
		return "", err
	}

	tc, caseErr := app.Store.Catalog().GetCase(ctx, ref)
	if caseErr != nil {
		return "", fmt.Errorf("%w (and no test case matches)", err)
	}
	return tc.UUID, nil
}
