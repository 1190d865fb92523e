// Command lectio resolves reading-plan passages into verse text and manages
// the chapter cache behind them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/lectio/core/canon"
	"github.com/FocuswithJustin/lectio/core/passage"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/api"
	"github.com/FocuswithJustin/lectio/internal/app"
	"github.com/FocuswithJustin/lectio/internal/config"
	"github.com/FocuswithJustin/lectio/internal/logging"
	"github.com/FocuswithJustin/lectio/internal/plan"
	"github.com/FocuswithJustin/lectio/internal/snapshot"
)

const appVersion = "0.1.0"

// stdout receives command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// CLI defines the command-line interface for lectio.
var CLI struct {
	Globals

	Parse    ParseCmd    `cmd:"" help:"Parse a passage reference"`
	Chapter  ChapterCmd  `cmd:"" help:"Resolve one chapter"`
	Passage  PassageCmd  `cmd:"" help:"Resolve a passage reference"`
	Versions VersionsCmd `cmd:"" help:"List supported versions"`
	Plan     PlanGroup   `cmd:"" help:"Reading plan lookups"`
	Warm     WarmCmd     `cmd:"" help:"Fill the cache with the reading plan's chapters"`
	Cache    CacheGroup  `cmd:"" help:"Persistent cache maintenance"`
	Serve    ServeCmd    `cmd:"" help:"Start the REST API server"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// Globals are flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"Path to lectio.yaml" type:"path" env:"LECTIO_CONFIG"`
	LogLevel  string `name:"log-level" help:"Override log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Override log format (json, text)"`
}

// loadConfig reads the configuration and initializes logging from it.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	logging.InitLogger(os.Stderr, logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format))
	return cfg, nil
}

// open loads the configuration and assembles the components.
func (g *Globals) open() (*app.App, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

// ParseCmd parses a reference without resolving it.
type ParseCmd struct {
	Ref    []string `arg:"" help:"Reference, e.g. \"Gênesis 1-3\""`
	Strict bool     `help:"Fail on unknown books instead of guessing"`
}

func (c *ParseCmd) Run() error {
	raw := strings.Join(c.Ref, " ")
	ref := passage.Parse(raw)
	if c.Strict {
		var err error
		if ref, err = passage.ParseStrict(raw); err != nil {
			return err
		}
	}
	return printJSON(ref)
}

// ChapterCmd resolves one chapter.
type ChapterCmd struct {
	Book    string `arg:"" help:"Book code (gn, sl, jo, ...)"`
	Number  int    `arg:"" name:"chapter" help:"Chapter number"`
	Version string `short:"v" help:"Version code; empty uses the default"`
	Name    string `help:"Book display name, used to tell jo/ez apart"`
	JSON    bool   `name:"json" help:"Print the full resolution as JSON"`
}

func (c *ChapterCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok := canon.Disambiguate(c.Book, c.Name); !ok {
		return fmt.Errorf("unknown book code %q", c.Book)
	}
	res := a.Resolver.Lookup(context.Background(), c.Book, c.Number, c.Version, c.Name)
	if c.JSON {
		return printJSON(res)
	}
	if !res.Available() {
		return fmt.Errorf("%s %d (%s) is unavailable", c.Book, c.Number, res.Version)
	}
	fmt.Fprintf(stdout, "%s %d (%s, from %s)\n", res.Book, res.Chapter, res.Version, res.Source)
	printVerses(res.Verses)
	return nil
}

// PassageCmd resolves a passage reference.
type PassageCmd struct {
	Ref     []string `arg:"" help:"Reference, e.g. \"Salmos 23\""`
	Version string   `short:"v" help:"Version code; empty uses the default"`
	JSON    bool     `name:"json" help:"Print the full resolution as JSON"`
}

func (c *PassageCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Resolver.LookupPassage(context.Background(), strings.Join(c.Ref, " "), c.Version)
	if c.JSON {
		return printJSON(res)
	}
	if len(res.Verses) == 0 {
		return fmt.Errorf("%s is unavailable", res.Reference)
	}
	for _, ch := range res.Chapters {
		fmt.Fprintf(stdout, "%s %d (%s, from %s)\n", res.Reference.BookName, ch.Chapter, ch.Version, ch.Source)
		printVerses(ch.Verses)
	}
	return nil
}

// VersionsCmd lists supported versions.
type VersionsCmd struct{}

func (c *VersionsCmd) Run() error {
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tLANGUAGE\tNAME")
	for _, info := range version.Supported() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Code, info.Language, info.Name)
	}
	return w.Flush()
}

// PlanGroup contains reading plan lookups.
type PlanGroup struct {
	Today PlanTodayCmd `cmd:"" help:"Show today's reading"`
	Day   PlanDayCmd   `cmd:"" help:"Show the reading for a day of the year"`
}

// PlanTodayCmd shows today's reading.
type PlanTodayCmd struct {
	Resolve bool   `help:"Resolve the passage text"`
	Version string `short:"v" help:"Version code for --resolve"`
}

func (c *PlanTodayCmd) Run(g *Globals) error {
	return showDay(g, plan.DayOfYear(time.Now()), c.Resolve, c.Version)
}

// PlanDayCmd shows one day's reading.
type PlanDayCmd struct {
	Day     int    `arg:"" help:"Day of the year (1-365)"`
	Resolve bool   `help:"Resolve the passage text"`
	Version string `short:"v" help:"Version code for --resolve"`
}

func (c *PlanDayCmd) Run(g *Globals) error {
	return showDay(g, c.Day, c.Resolve, c.Version)
}

func showDay(g *Globals, n int, resolve bool, v string) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Plan == nil {
		return fmt.Errorf("no plan_file configured")
	}
	day, ok := a.Plan.Day(n)
	if !ok {
		return fmt.Errorf("day %d is not in the plan", n)
	}

	fmt.Fprintf(stdout, "Day %d: %s\n", day.Day, day.Passage)
	if day.Theme != "" {
		fmt.Fprintf(stdout, "Theme: %s\n", day.Theme)
	}
	if !resolve {
		return nil
	}
	res := a.Resolver.LookupPassage(context.Background(), day.Passage, v)
	if len(res.Verses) == 0 {
		return fmt.Errorf("%s is unavailable", day.Passage)
	}
	printVerses(res.Verses)
	return nil
}

// WarmCmd resolves every plan day so the cache is filled ahead of time.
type WarmCmd struct {
	Version string `short:"v" help:"Version code; empty uses the default"`
	From    int    `help:"First day" default:"1"`
	To      int    `help:"Last day" default:"365"`
	Quiet   bool   `short:"q" help:"Only print the summary"`
}

func (c *WarmCmd) Run(g *Globals) error {
	if c.From < 1 || c.To < c.From {
		return fmt.Errorf("invalid day range %d..%d", c.From, c.To)
	}
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Plan == nil {
		return fmt.Errorf("no plan_file configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := a.WarmOptions(c.Version)
	if !c.Quiet {
		opts.Progress = func(p plan.Progress) {
			mark := "ok"
			if !p.OK {
				mark = "FAILED"
			}
			fmt.Fprintf(stdout, "[%d/%d] day %d %s: %s\n", p.Done, p.Total, p.Day, p.Passage, mark)
		}
	}

	report, err := plan.Warm(ctx, a.Resolver, a.Plan.Range(c.From, c.To), opts)
	a.Resolver.Flush()
	fmt.Fprintf(stdout, "%d succeeded, %d failed in %s\n", report.Succeeded, report.Failed, report.Duration.Round(time.Millisecond))
	if len(report.FailedDays) > 0 {
		fmt.Fprintf(stdout, "failed days: %v\n", report.FailedDays)
	}
	return err
}

// CacheGroup contains persistent cache maintenance commands.
type CacheGroup struct {
	Export CacheExportCmd `cmd:"" help:"Write the persistent cache to a tar.xz snapshot"`
	Import CacheImportCmd `cmd:"" help:"Load a tar.xz snapshot into the persistent cache"`
	Stats  CacheStatsCmd  `cmd:"" help:"Show persistent cache statistics"`
}

// CacheExportCmd writes a snapshot.
type CacheExportCmd struct {
	Out string `arg:"" help:"Snapshot path (.tar.xz)" type:"path"`
}

func (c *CacheExportCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := snapshot.ExportFile(context.Background(), a.Store, c.Out, a.SnapshotOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported %d chapters (%s) to %s\n", m.Entries, humanize.IBytes(uint64(m.Bytes)), c.Out)
	return nil
}

// CacheImportCmd loads a snapshot.
type CacheImportCmd struct {
	In string `arg:"" help:"Snapshot path (.tar.xz)" type:"existingfile"`
}

func (c *CacheImportCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := snapshot.ImportFile(context.Background(), c.In, a.Store, a.SnapshotOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported %d chapters, skipped %d (snapshot from %s, %s)\n",
		rep.Imported, rep.Skipped, rep.Manifest.Backend, humanize.Time(rep.Manifest.CreatedAt))
	return nil
}

// CacheStatsCmd prints store statistics.
type CacheStatsCmd struct{}

func (c *CacheStatsCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Store.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "backend:   %s\n", a.Store.Name())
	if a.Config.Cache.Path != "" {
		fmt.Fprintf(stdout, "path:      %s\n", a.Config.Cache.Path)
		if fi, err := os.Stat(a.Config.Cache.Path); err == nil && !fi.IsDir() {
			fmt.Fprintf(stdout, "size:      %s\n", humanize.IBytes(uint64(fi.Size())))
		}
	}
	fmt.Fprintf(stdout, "chapters:  %s\n", humanize.Comma(int64(n)))
	return nil
}

// ServeCmd runs the REST API until interrupted.
type ServeCmd struct {
	Port int `help:"HTTP server port; overrides the configuration"`
}

func (c *ServeCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := api.ConfigFrom(a.Config.Server)
	if c.Port > 0 {
		cfg.Port = c.Port
	}
	srv, err := api.New(api.Options{
		Config:      cfg,
		Resolver:    a.Resolver,
		Plan:        a.Plan,
		Metrics:     a.Metrics,
		WarmOptions: a.WarmOptions,
		Version:     appVersion,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "lectio version %s\n", appVersion)
	return nil
}

// Helper functions

func printVerses(verses []string) {
	for i, v := range verses {
		fmt.Fprintf(stdout, "%3d  %s\n", i+1, v)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lectio"),
		kong.Description("Reading-plan passage resolver and chapter cache"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&CLI.Globals),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
