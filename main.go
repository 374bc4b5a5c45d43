package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"keyword-intel/internal/app"
	"keyword-intel/internal/config"
	"keyword-intel/pkg/aggregator"
	"keyword-intel/pkg/logger"
	"keyword-intel/pkg/model"
)

var version = "dev"

type queryOptions struct {
	configPath   string
	sources      string
	serp         bool
	locationCode int
	languageCode string
	debug        bool
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: application panic recovered: %v\n", r)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keyword-intel",
		Short:         "Keyword intelligence across Google, Bing and YouTube",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newQueryCmd())
	return rootCmd
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <keyword>",
		Short: "Fetch aggregated metrics for a keyword",
		Long: `Fetch search volume, competition, difficulty, intent, trend and SERP
insights for a keyword and print the merged result as JSON.

Credentials come from the config file or KWI_UPSTREAM_LOGIN and
KWI_UPSTREAM_PASSWORD (a .env file in the working directory is honoured).

Examples:
  keyword-intel query "digital marketing"
  keyword-intel query "digital marketing" --source google,bing --serp
  keyword-intel query "seo" --source all --location 2826`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Configuration file path")
	cmd.Flags().StringVar(&opts.sources, "source", "google", "Comma-separated sources: google, bing, youtube or all")
	cmd.Flags().BoolVar(&opts.serp, "serp", false, "Include SERP feature and paid competition analysis")
	cmd.Flags().IntVar(&opts.locationCode, "location", 0, "Location code (default from config)")
	cmd.Flags().StringVar(&opts.languageCode, "language", "", "Language code (default from config)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	return cmd
}

func runQuery(ctx context.Context, opts *queryOptions, keyword string) error {
	cfg, err := config.NewManager().Load(opts.configPath)
	if err != nil {
		return reportError(err)
	}

	cfg.Logger.Output = "stderr"
	if opts.debug {
		cfg.Logger.Level = "debug"
	}
	log := logger.New(cfg.Logger)
	logger.SetLogger(log)

	secureLog := logger.NewSecurityLogger(log)
	secureLog.SafeInfo("Configuration loaded", map[string]interface{}{
		"base_url":      cfg.Upstream.BaseURL,
		"login":         cfg.Upstream.Login,
		"cache_backend": cfg.Cache.Backend,
	})

	sources, err := model.ParseSources(opts.sources)
	if err != nil {
		return reportError(err)
	}

	req, err := model.NewMetricRequest(model.RequestParams{
		Keyword:      keyword,
		LocationCode: opts.locationCode,
		LanguageCode: opts.languageCode,
		Sources:      sources,
		IncludeSERP:  opts.serp || cfg.Aggregation.IncludeSERP,
	}, cfg.Defaults)
	if err != nil {
		return reportError(err)
	}

	engine, err := app.Build(ctx, cfg, log, nil)
	if err != nil {
		return reportError(err)
	}
	defer engine.Close()

	start := time.Now()
	result, err := engine.Service.GetKeywordIntelligence(ctx, req)
	if err != nil {
		return reportError(err)
	}

	log.WithFields(map[string]interface{}{
		"sources_queried": result.SourcesQueried,
		"partial_errors":  len(result.PartialErrors),
		"total_cost":      result.TotalCost,
		"duration":        time.Since(start).String(),
	}).Info("Query completed")

	return printJSON(os.Stdout, result)
}

// reportError prints err as JSON on stderr, with cost and retryability when
// the engine supplied them, and returns it so the process exits non-zero.
func reportError(err error) error {
	body := map[string]interface{}{"error": err.Error()}

	var ae *aggregator.AggregationError
	if errors.As(err, &ae) {
		body = map[string]interface{}{
			"error":     ae.Message,
			"kind":      ae.Kind,
			"source":    ae.Source,
			"status":    ae.StatusCode,
			"retryable": ae.Retryable,
			"cost":      ae.Cost,
		}
		if len(ae.PartialErrors) > 0 {
			body["partial_errors"] = ae.PartialErrors
		}
	}

	_ = printJSON(os.Stderr, body)
	return err
}

func printJSON(w *os.File, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
