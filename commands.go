package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Black-And-White-Club/judge-standings/app"
	"github.com/Black-And-White-Club/judge-standings/app/eventbus"
	"github.com/Black-And-White-Club/judge-standings/app/modules/standings"
	standingsservice "github.com/Black-And-White-Club/judge-standings/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	standingsevents "github.com/Black-And-White-Club/judge-standings/app/modules/standings/events"
	standingshttp "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/httpapi"
	"github.com/Black-And-White-Club/judge-standings/app/observability"
	standingsmetrics "github.com/Black-And-White-Club/judge-standings/app/observability/metrics/standings"
	"github.com/Black-And-White-Club/judge-standings/config"
	"github.com/Black-And-White-Club/judge-standings/db/bundb"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/trace/noop"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API, event consumers and background workers",
		Action: func(c *cli.Context) error {
			application, err := app.Initialize(c.Context, c.String("config"))
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Run(c.Context)
		},
	}
}

func rankCommand() *cli.Command {
	return &cli.Command{
		Name:      "rank",
		Usage:     "print the rank list of a contest",
		ArgsUsage: "<contest-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "judge", Usage: "show the unfrozen judge view"},
			&cli.Int64Flag{Name: "role", Usage: "only rank members of this role"},
			&cli.StringFlag{Name: "as-of", Usage: `rank as of an instant, e.g. "2026-03-14T12:00:00Z" or "2 hours ago"`},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		},
		Action: func(c *cli.Context) error {
			contestID, err := contestArg(c)
			if err != nil {
				return err
			}
			req := standingsservice.RankListRequest{ContestID: contestID}
			if c.Bool("judge") {
				req.View = standingsdomain.ViewJudge
			}
			if c.IsSet("role") {
				role := c.Int64("role")
				req.RoleID = &role
			}
			if raw := c.String("as-of"); raw != "" {
				if req.AsOf, err = parseAsOf(raw, time.Now()); err != nil {
					return err
				}
			}

			service, closeFn, err := localService(c)
			if err != nil {
				return err
			}
			defer closeFn()

			list, err := service.GetRankList(c.Context, req)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printRankList(c.App.Writer, list)
		},
	}
}

func invalidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "invalidate",
		Usage:     "ask running instances to drop the cached standings of a contest",
		ArgsUsage: "<contest-id>",
		Action: func(c *cli.Context) error {
			contestID, err := contestArg(c)
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if cfg.NATS.URL == "" {
				return cli.Exit("NATS_URL is not configured", 1)
			}
			logger := observability.NewLogger(c.App.ErrWriter, cfg.Observability.Environment, cfg.Observability.LogLevel)

			bus, err := eventbus.NewEventBus(c.Context, cfg.NATS.URL, "judge-standings-cli", logger)
			if err != nil {
				return err
			}
			defer bus.Close()

			payload, err := json.Marshal(standingsevents.SubmissionEventPayloadV1{
				ContestID:  contestID,
				OccurredAt: time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			msg := message.NewMessage(uuid.NewString(), payload)
			if err := bus.Publish(standingsevents.SubmissionRejudgedV1, msg); err != nil {
				return fmt.Errorf("failed to publish invalidation: %w", err)
			}
			fmt.Fprintf(c.App.Writer, "%s contest %d (message %s)\n", color.GreenString("invalidated"), contestID, msg.UUID)
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a judge token signed with the configured secret",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Value: "judge"},
			&cli.DurationFlag{Name: "ttl", Value: 12 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return cli.Exit("JWT_SECRET is not configured", 1)
			}
			token, err := standingshttp.NewAuthenticator(cfg.JWT.Secret).IssueToken(c.String("subject"), standingshttp.RoleJudge, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

func contestArg(c *cli.Context) (int64, error) {
	var id int64
	if _, err := fmt.Sscan(c.Args().First(), &id); err != nil || id <= 0 {
		return 0, cli.Exit("a positive contest id is required", 2)
	}
	return id, nil
}

// parseAsOf accepts RFC3339 or an English expression relative to now.
func parseAsOf(raw string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(raw, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", raw, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: no time expression found", raw)
	}
	return r.Time, nil
}

// localService builds a standings service straight on the database, without
// messaging or the HTTP surface.
func localService(c *cli.Context) (standingsservice.Service, func(), error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	logger := observability.NewLogger(c.App.ErrWriter, cfg.Observability.Environment, cfg.Observability.LogLevel)

	db, err := bundb.NewBunDBService(c.Context, cfg.Postgres, logger)
	if err != nil {
		return nil, nil, err
	}
	policy, err := standings.PolicyFromConfig(cfg.Standings)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	service, err := standingsservice.NewStandingsService(db.Feed, db.Catalog, db.Directory,
		standingsservice.Options{Policy: policy, PageSize: cfg.Standings.FeedPageSize},
		logger, &standingsmetrics.NoOpMetrics{}, noop.NewTracerProvider().Tracer("cli"))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return service, func() { _ = db.Close() }, nil
}

type styledCell struct {
	text  string
	paint func(a ...any) string
}

func printRankList(w io.Writer, list *standingsservice.RankList) error {
	bold := color.New(color.Bold).SprintFunc()
	solved := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()
	frozen := color.New(color.FgYellow).SprintFunc()
	plain := fmt.Sprint

	fmt.Fprintf(w, "%s  (%s view", bold(list.Contest.Title), list.View)
	if !list.FreezeAt.IsZero() {
		fmt.Fprintf(w, ", frozen at %s", list.FreezeAt.Format(time.RFC3339))
	}
	if !list.AsOf.IsZero() {
		fmt.Fprintf(w, ", as of %s", list.AsOf.Format(time.RFC3339))
	}
	fmt.Fprintln(w, ")")

	header := []styledCell{{"Rank", bold}, {"User", bold}, {"Solved", bold}}
	if list.Mode == standingsdomain.ModeContest {
		header = append(header, styledCell{"Penalty", bold})
	} else {
		header = append(header, styledCell{"Attempts", bold})
	}
	for _, p := range list.Contest.Problems {
		header = append(header, styledCell{p.Code, bold})
	}

	rows := [][]styledCell{header}
	for _, e := range list.Entries {
		row := []styledCell{{fmt.Sprint(e.Rank), plain}, {fmt.Sprint(e.UserID), plain}, {fmt.Sprint(e.Solved), plain}}
		if list.Mode == standingsdomain.ModeContest {
			row = append(row, styledCell{fmt.Sprint(int64(e.Penalty / time.Minute)), plain})
		} else {
			row = append(row, styledCell{fmt.Sprint(e.SolvedAttempts), plain})
		}
		for _, cell := range e.Cells {
			paint := plain
			switch {
			case cell.FrozenAttempts > 0:
				paint = frozen
			case cell.Solved:
				paint = solved
			case cell.Attempts > 0:
				paint = failed
			}
			row = append(row, styledCell{standingsservice.FormatCell(cell, list.Mode), paint})
		}
		rows = append(rows, row)
	}

	// Pad before painting so escape codes do not skew the columns.
	widths := make([]int, len(header))
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], len(c.text))
		}
	}
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, c := range row {
			parts[i] = c.paint(fmt.Sprintf("%-*s", widths[i], c.text))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}
