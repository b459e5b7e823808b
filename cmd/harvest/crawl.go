package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/use-agent/harvester/config"
	"github.com/use-agent/harvester/crawler"
	"github.com/use-agent/harvester/models"
	"github.com/use-agent/harvester/store"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	defaults := config.Load()

	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Harvest a site starting from a seed URL",
		Long: `Crawl fetches the seed URL, follows eligible links depth-first and prints
every collected page as a "=== Title ===" block.

Examples:
  # Seed page plus everything two links away, at most 10 pages
  harvest crawl https://docs.example.com

  # Follow links into sibling subdomains, skip changelog pages
  harvest crawl --allowed-domains example.com --exclude '/changelog/' docs.example.com

  # Persist the record and print it as JSON
  harvest crawl --db harvest.db --json https://docs.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().IntP("depth", "d", defaults.Crawler.DefaultMaxDepth, "Maximum number of link hops from the seed")
	cmd.Flags().IntP("pages", "p", defaults.Crawler.DefaultMaxPages, "Maximum number of pages to collect")
	cmd.Flags().StringSlice("allowed-domains", nil, "Domains (and their subdomains) links may point to; default is the seed host only")
	cmd.Flags().StringSlice("exclude", nil, "Regular expressions for URLs to skip; replaces the built-in list")
	cmd.Flags().Duration("delay", defaults.Crawler.Delay, "Minimum spacing between request starts")
	cmd.Flags().Duration("timeout", defaults.Crawler.MaxTimeout, "Time limit for the whole crawl (0 disables)")
	cmd.Flags().Int("concurrency", defaults.Crawler.Concurrency, "Parallel fetch workers; above 1 crawls level by level")
	cmd.Flags().String("format", defaults.Crawler.Format, "Content format: text or markdown")
	cmd.Flags().String("mode", defaults.Crawler.ExtractMode, "Extraction mode: selector or readability")
	cmd.Flags().Bool("respect-robots", defaults.Robots.Respect, "Honour robots.txt rules and Crawl-delay")
	cmd.Flags().BoolP("json", "j", false, "Print the record as JSON")
	cmd.Flags().String("db", defaults.Store.Path, "SQLite file to save the record in")

	return cmd
}

type crawlFlags struct {
	cfg  *config.Config
	opts models.CrawlOptions
	json bool
	db   string
}

// buildCrawlFlags overlays the command flags on the environment config.
func buildCrawlFlags(cmd *cobra.Command) (*crawlFlags, error) {
	cf := &crawlFlags{cfg: config.Load()}
	c := &cf.cfg.Crawler

	var err error

	cf.opts.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cf.opts.MaxPages, err = cmd.Flags().GetInt("pages")
	if err != nil {
		return nil, err
	}
	if c.PageLimit > 0 && cf.opts.MaxPages > c.PageLimit {
		return nil, fmt.Errorf("--pages must not exceed %d", c.PageLimit)
	}

	cf.opts.AllowedDomains, err = cmd.Flags().GetStringSlice("allowed-domains")
	if err != nil {
		return nil, err
	}

	// An explicit --exclude replaces the built-in patterns, even when empty.
	if cmd.Flags().Changed("exclude") {
		cf.opts.ExcludePatterns, err = cmd.Flags().GetStringSlice("exclude")
		if err != nil {
			return nil, err
		}
		if cf.opts.ExcludePatterns == nil {
			cf.opts.ExcludePatterns = []string{}
		}
	}

	c.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	c.MaxTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	c.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	c.Format, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	c.ExtractMode, err = cmd.Flags().GetString("mode")
	if err != nil {
		return nil, err
	}

	cf.cfg.Robots.Respect, err = cmd.Flags().GetBool("respect-robots")
	if err != nil {
		return nil, err
	}

	cf.json, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cf.db, err = cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}

	return cf, nil
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cf, err := buildCrawlFlags(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cmd.ErrOrStderr())

	cr, err := crawler.NewFromConfig(cf.cfg.Crawler, cf.cfg.Robots, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cf.cfg.Crawler.MaxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cf.cfg.Crawler.MaxTimeout)
		defer cancel()
	}

	rec, err := cr.Harvest(ctx, args[0], cf.opts)
	if rec == nil {
		return err
	}
	if err != nil {
		logger.Warn("crawl interrupted, printing partial record", "pages", rec.PageCount, "error", err)
	}

	var id int64
	if cf.db != "" {
		id, err = saveRecord(context.WithoutCancel(ctx), cf.db, rec)
		if err != nil {
			return err
		}
		logger.Info("record saved", "id", id, "db", cf.db)
	}

	return printRecord(cmd, rec, id, cf.json)
}

func saveRecord(ctx context.Context, path string, rec *crawler.Record) (int64, error) {
	st, err := store.Open(path)
	if err != nil {
		return 0, err
	}
	defer st.Close()
	return st.Save(ctx, rec)
}

func printRecord(cmd *cobra.Command, rec *crawler.Record, id int64, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			ID int64 `json:"id,omitempty"`
			*crawler.Record
		}{id, rec})
	}

	if _, err := fmt.Fprintln(out, rec.Content); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "\n%d pages, %s, ~%d tokens\n", rec.PageCount, rec.Size, rec.Tokens)
	return nil
}
