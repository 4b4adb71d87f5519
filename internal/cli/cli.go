// Package cli is the kgclient command tree. Command output goes to stdout and
// logs go to stderr.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/samvad-hq/triage-kg-client/internal/app"
	"github.com/samvad-hq/triage-kg-client/internal/config"
	"github.com/samvad-hq/triage-kg-client/internal/logger"
	"github.com/samvad-hq/triage-kg-client/internal/transcript"
	"github.com/samvad-hq/triage-kg-client/pkg/kgapi"
	"github.com/spf13/cobra"
)

// Version information
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Runtime is the set of backend operations the commands drive.
type Runtime interface {
	Profile() kgapi.Profile
	Chat(ctx context.Context, message string) (json.RawMessage, error)
	Health(ctx context.Context) (json.RawMessage, error)
	Graph(ctx context.Context) (json.RawMessage, error)
	Search(ctx context.Context, keyword string) (json.RawMessage, error)
	Neo4jStatus(ctx context.Context) (json.RawMessage, error)
	Status(ctx context.Context) app.StatusReport
	History(limit int) ([]transcript.Entry, error)
	ExportGraph(ctx context.Context) (int, error)
	Close() error
}

// RuntimeFactory builds the runtime once flags and config are resolved.
type RuntimeFactory func(ctx context.Context, cfg *config.Config, log logger.Logger) (Runtime, error)

type globalFlags struct {
	output     string
	selectPath string
	profile    string
	baseURL    string
	timeout    time.Duration
}

type cli struct {
	flags   globalFlags
	factory RuntimeFactory
	out     io.Writer
	rt      Runtime
}

// NewCLI returns the root command wired to the real console runtime.
func NewCLI() *cobra.Command {
	return newCLI(consoleRuntime, os.Stdout)
}

func consoleRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (Runtime, error) {
	console, err := app.NewConsole(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return console, nil
}

func newCLI(factory RuntimeFactory, out io.Writer) *cobra.Command {
	c := &cli{factory: factory, out: out}

	rootCmd := &cobra.Command{
		Use:               "kgclient",
		Short:             "Query the triage knowledge-graph backend",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	rootCmd.SetOut(out)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.flags.output, "output", "o", outputJSON, "Output format (json, table)")
	pf.StringVar(&c.flags.selectPath, "select", "", "gjson path applied to the response body")
	pf.StringVar(&c.flags.profile, "profile", "", "Route profile (api, blueprint or one from the profiles file)")
	pf.StringVar(&c.flags.baseURL, "base-url", "", "Override the backend base URL")
	pf.DurationVar(&c.flags.timeout, "timeout", 0, "Override the request timeout (e.g. 10s)")

	chatCmd := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Ask the triage assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.closing(c.ChatHandler),
	}
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check backend health",
		Args:  cobra.NoArgs,
		RunE:  c.closing(c.HealthHandler),
	}
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Fetch the knowledge graph",
		Args:  cobra.NoArgs,
		RunE:  c.closing(c.GraphHandler),
	}
	searchCmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE:  c.closing(c.SearchHandler),
	}
	neo4jCmd := &cobra.Command{
		Use:   "neo4j",
		Short: "Show the graph database status",
		Args:  cobra.NoArgs,
		RunE:  c.closing(c.Neo4jHandler),
	}
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Probe health, neo4j and the graph concurrently",
		Args:  cobra.NoArgs,
		RunE:  c.closing(c.StatusHandler),
	}
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent chat exchanges",
		Args:  cobra.NoArgs,
		RunE:  c.closing(c.HistoryHandler),
	}
	historyCmd.Flags().IntP("limit", "n", 20, "Number of exchanges to show")
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a knowledge graph snapshot to the configured exporters",
		Args:  cobra.NoArgs,
		RunE:  c.closing(c.ExportHandler),
	}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kgclient",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.out, "kgclient version %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		},
	}

	rootCmd.AddCommand(chatCmd, healthCmd, graphCmd, searchCmd, neo4jCmd, statusCmd, historyCmd, exportCmd, versionCmd)
	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	switch c.flags.output {
	case outputJSON, outputTable:
	default:
		return fmt.Errorf("unsupported output %q (expected json or table)", c.flags.output)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.flags.profile != "" {
		cfg.APIProfile = strings.ToLower(strings.TrimSpace(c.flags.profile))
	}
	if c.flags.baseURL != "" {
		cfg.APIBaseURL = strings.TrimSpace(c.flags.baseURL)
	}
	if c.flags.timeout > 0 {
		cfg.APITimeout = c.flags.timeout
		cfg.APITimeoutMs = c.flags.timeout.Milliseconds()
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.DebugObj("kgclient starting", "config", cfg)

	rt, err := c.factory(cmd.Context(), cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize console", "error", err.Error())
		return err
	}
	c.rt = rt
	return nil
}

// closing runs handler and then releases the runtime, whatever the outcome.
func (c *cli) closing(handler func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := handler(cmd, args)
		return errors.Join(err, c.teardown())
	}
}

func (c *cli) teardown() error {
	if c.rt == nil {
		return nil
	}
	defer logger.Close()
	err := c.rt.Close()
	c.rt = nil
	if err != nil {
		return fmt.Errorf("close console: %w", err)
	}
	return nil
}

func (c *cli) HealthHandler(cmd *cobra.Command, _ []string) error {
	body, err := c.rt.Health(cmd.Context())
	if err != nil {
		return err
	}
	return c.renderBody(body, renderKeyValues)
}

func (c *cli) Neo4jHandler(cmd *cobra.Command, _ []string) error {
	body, err := c.rt.Neo4jStatus(cmd.Context())
	if err != nil {
		return err
	}
	return c.renderBody(body, renderKeyValues)
}

func (c *cli) ChatHandler(cmd *cobra.Command, args []string) error {
	body, err := c.rt.Chat(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	return c.renderBody(body, renderKeyValues)
}

func (c *cli) GraphHandler(cmd *cobra.Command, _ []string) error {
	body, err := c.rt.Graph(cmd.Context())
	if err != nil {
		return err
	}
	return c.renderBody(body, renderGraph)
}

func (c *cli) SearchHandler(cmd *cobra.Command, args []string) error {
	body, err := c.rt.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return c.renderBody(body, renderSearch)
}

func (c *cli) StatusHandler(cmd *cobra.Command, _ []string) error {
	report := c.rt.Status(cmd.Context())
	if err := c.renderStatus(report); err != nil {
		return err
	}

	failed := 0
	for _, r := range []app.Result{report.Health, report.Neo4j, report.Graph} {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of 3 status probes failed", failed)
	}
	return nil
}

func (c *cli) HistoryHandler(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	entries, err := c.rt.History(limit)
	if err != nil {
		return err
	}
	return c.renderHistory(entries)
}

func (c *cli) ExportHandler(cmd *cobra.Command, _ []string) error {
	delivered, err := c.rt.ExportGraph(cmd.Context())
	if delivered == 0 && err != nil {
		return err
	}
	if rerr := c.renderExport(delivered, err); rerr != nil {
		return rerr
	}
	return err
}
