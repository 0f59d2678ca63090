// Command ccquery runs one search, browse or separation lookup against a local data directory
// and prints the ranked cards.
//
// Usage:
//
//	ccquery --root ./site search "trench backfill compaction"
//	ccquery --root ./site browse --corpus DCS --category cat-05
//	ccquery --root ./site separation --new GAS --existing WATER --orientation V
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/civiccompass/internal/domain/search/mode"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/request"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/civiccompass/internal/logger"
	"github.com/kailas-cloud/civiccompass/internal/repository/chunkcache"
	corpusrepo "github.com/kailas-cloud/civiccompass/internal/repository/corpus"
	"github.com/kailas-cloud/civiccompass/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/civiccompass/internal/usecase/search"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ccquery",
		Usage: "Query the civic code corpus from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Site root that chunk paths resolve against",
				Value:   ".",
				EnvVars: []string{"CIVICCOMPASS_ROOT"},
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory of the index documents inside the site root",
				Value: "data",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Rank records for a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					corpusFlag(),
					categoryFlag(),
					jsonFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results to print",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "min-hit",
						Usage: "Minimum evidence policy (all, any)",
						Value: string(mode.All),
					},
					&cli.BoolFlag{
						Name:  "grouped",
						Usage: "Group results by category",
					},
				},
			},
			{
				Name:   "browse",
				Usage:  "List records by category in workflow order",
				Action: browseCommand,
				Flags:  []cli.Flag{corpusFlag(), categoryFlag(), jsonFlag()},
			},
			{
				Name:   "separation",
				Usage:  "Find the required separation between two utilities",
				Action: separationCommand,
				Flags: []cli.Flag{
					corpusFlag(),
					jsonFlag(),
					&cli.StringFlag{
						Name:     "new",
						Usage:    "Utility being installed (GAS, WATER, SANITARY, STORM, ELECTRIC, TELECOM)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "existing",
						Usage:    "Utility already in place",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "orientation",
						Usage: "H (horizontal) or V (vertical)",
						Value: "H",
					},
				},
			},
		},
	}
}

func corpusFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "corpus",
		Usage: "Restrict to one corpus (DCS, BRC, TITLE9, ALL)",
		Value: "ALL",
	}
}

func categoryFlag() cli.Flag {
	return &cli.StringFlag{Name: "category", Usage: "Restrict to one category id"}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Print results as JSON"}
}

// openService loads the dataset named by the global flags into a fresh search service.
func openService(c *cli.Context) (*searchuc.Service, func(), error) {
	logger, err := logpkg.NewLogger("cli", "ccquery", c.String("log-level"))
	if err != nil {
		return nil, nil, err
	}

	site, err := corpusrepo.OpenFS(c.String("root"))
	if err != nil {
		return nil, nil, fmt.Errorf("open site root: %w", err)
	}
	cleanup := func() {
		_ = site.Close()
		_ = logger.Sync()
	}

	loader := corpusrepo.NewLoader(site, c.String("dir"), corpusrepo.DefaultFiles(), logger)
	chunks := chunkcache.New(site, nil, 0, nil, logger)
	svc := searchuc.New(loader, chunks, nil, nil, searchuc.Options{}, logger)
	if err := svc.Reload(c.Context); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load corpus: %w", err)
	}
	logger.Debug("Corpus loaded", zap.String("root", c.String("root")))
	return svc, cleanup, nil
}

func searchCommand(c *cli.Context) error {
	q := strings.Join(c.Args().Slice(), " ")
	req, err := request.New(q, c.String("corpus"), c.String("category"), c.Int("limit"), mode.Mode(c.String("min-hit")))
	if err != nil {
		return err
	}

	svc, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.Search(c.Context, &req)
	if err != nil {
		return err
	}
	w := c.App.Writer

	if resp.Browse {
		return printBuckets(w, resp.Buckets, c.Bool("json"))
	}
	if c.Bool("grouped") {
		buckets, err := svc.Group(resp.Hits)
		if err != nil {
			return err
		}
		return printBuckets(w, buckets, c.Bool("json"))
	}
	if c.Bool("json") {
		return printJSON(w, resp.Hits)
	}

	fmt.Fprintf(w, "%d results for %q\n", resp.Total, resp.Query)
	for i, h := range resp.Hits {
		printHit(w, i+1, h)
	}
	return nil
}

func browseCommand(c *cli.Context) error {
	svc, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	buckets, err := svc.Browse(c.Context, c.String("corpus"), c.String("category"))
	if err != nil {
		return err
	}
	return printBuckets(c.App.Writer, buckets, c.Bool("json"))
}

func separationCommand(c *cli.Context) error {
	svc, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.Separation(c.Context, c.String("new"), c.String("existing"), c.String("orientation"), c.String("corpus"))
	if err != nil {
		return err
	}
	w := c.App.Writer
	if c.Bool("json") {
		return printJSON(w, resp.Hits)
	}

	fmt.Fprintf(w, "%s vs %s (%s)\n", resp.Lookup.New.Label, resp.Lookup.Existing.Label, resp.Lookup.Orientation)
	if len(resp.Hits) == 0 {
		fmt.Fprintln(w, "No separation requirements found.")
	}
	for i, h := range resp.Hits {
		printHit(w, i+1, h)
	}
	return nil
}

func printHit(w io.Writer, n int, h searchuc.Hit) {
	rec := h.Record
	fmt.Fprintf(w, "%2d. [%s] %s %s (score %.0f)\n", n, rec.Location(), rec.Anchor, rec.Heading, h.Score)
	if len(h.Tags) > 0 {
		fmt.Fprintf(w, "    tags: %s\n", strings.Join(h.Tags, ", "))
	}
	if why := h.RationaleText(); why != "" {
		fmt.Fprintf(w, "    why:  %s\n", why)
	}
	if h.Snippet != "" {
		fmt.Fprintf(w, "    %s\n", h.Snippet)
	}
}

func printCard(w io.Writer, c *result.Card) {
	fmt.Fprintf(w, "  - [%s] %s %s\n", c.Record.Location(), c.Record.Anchor, c.Record.Heading)
}

func printBuckets(w io.Writer, buckets []rank.Bucket, asJSON bool) error {
	if asJSON {
		type bucket struct {
			CategoryID string   `json:"category_id"`
			Label      string   `json:"label"`
			Total      int      `json:"total"`
			Anchors    []string `json:"anchors"`
		}
		out := make([]bucket, len(buckets))
		for i, b := range buckets {
			out[i] = bucket{CategoryID: b.CategoryID, Label: b.Label, Total: b.Total}
			for _, c := range b.Cards {
				out[i].Anchors = append(out[i].Anchors, string(c.Record.Corpus)+" "+c.Record.Anchor)
			}
		}
		return printJSON(w, out)
	}
	for _, b := range buckets {
		fmt.Fprintf(w, "%s (%d)\n", b.Label, b.Total)
		for _, c := range b.Cards {
			printCard(w, c)
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
