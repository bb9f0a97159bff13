package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/opengov-br/transparencia-contratos/internal/config"
	"github.com/opengov-br/transparencia-contratos/pkg/client"
	"github.com/opengov-br/transparencia-contratos/pkg/contratos"
	"github.com/opengov-br/transparencia-contratos/pkg/export"
	"github.com/opengov-br/transparencia-contratos/pkg/logging"
	"github.com/opengov-br/transparencia-contratos/pkg/store"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch, flatten and export contracts for one organization",
		Long: `Fetch pages through the /contratos endpoint for one organization code,
starting at the configured page and stopping at the first empty page.
Fetched records are flattened (nested fields hoisted into flat columns),
the currency columns are rewritten in Brazilian notation, and the table is
written to CSV. A partial fetch still writes everything accumulated and
exits non-zero.

Examples:
  # Default organization (20701), api_key.txt, contratos_FULL.csv
  contratos fetch

  # Different organization and output path
  contratos fetch --orgao 26246 --output /data/contratos.csv

  # Mirror results into SQLite and expose metrics while running
  contratos fetch --db contratos.db --metrics-addr :9090

Configuration file (YAML) example:
  api:
    key_file: api_key.txt
  fetch:
    orgao: "20701"
    start_page: 1
  output:
    csv: contratos_FULL.csv
    sqlite: contratos.db`,
		Args: cobra.NoArgs,
		RunE: runFetchCmd,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file path (YAML)")
	cmd.Flags().String("orgao", "", "Organization code to query")
	cmd.Flags().Int("page", 0, "Starting page number")
	cmd.Flags().StringP("api-key-file", "k", "", "Credential file (key=value on line 1)")
	cmd.Flags().StringP("output", "o", "", "CSV output path")
	cmd.Flags().String("db", "", "SQLite database path (optional)")
	cmd.Flags().Bool("restricted", false, "Use the most conservative rate limit tier")
	cmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address while fetching (e.g. :9090)")
	cmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.Flags().Bool("pretty", false, "Human-readable console logs")

	return cmd
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadFetchConfig(cmd)
	if err != nil {
		return err
	}

	level := logging.LogLevel(cfg.Logging.Level)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logging.LevelDebug
	}
	logging.Setup(logging.Config{
		Level:  level,
		Pretty: cfg.Logging.Pretty,
	})
	logger := logging.NewLogger("contratos")

	token, err := client.LoadAPIKey(cfg.API.KeyFile)
	if err != nil {
		return fmt.Errorf("load api key: %w", err)
	}

	api, err := client.New(client.Config{
		BaseURL:   cfg.API.BaseURL,
		APIKey:    token,
		UserAgent: "transparencia-contratos/" + getVersion(),
		Timeout:   cfg.API.Timeout,
	})
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Warn().Err(err).Str("addr", cfg.Metrics.Addr).Msg("Metrics listener stopped")
			}
		}()
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("Serving Prometheus metrics")
	}

	fetcher, err := contratos.NewFetcher(api, contratos.FetcherConfig{
		Orgao:      cfg.Fetch.Orgao,
		StartPage:  cfg.Fetch.StartPage,
		Restricted: cfg.Fetch.Restricted,
	}, logging.NewLogger("fetcher"))
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	startedAt := time.Now()
	logger.Info().Str("orgao", cfg.Fetch.Orgao).Int("start_page", cfg.Fetch.StartPage).Msg("Starting contract fetch")

	records, fetchErr := fetcher.FetchAll(ctx)
	finishedAt := time.Now()

	if fetchErr != nil && len(records) == 0 {
		return fetchErr
	}
	if fetchErr != nil {
		logger.Warn().
			Err(fetchErr).
			Int("records", len(records)).
			Msg("Fetch incomplete - exporting records accumulated so far")
	}
	if len(records) == 0 {
		logger.Warn().Str("orgao", cfg.Fetch.Orgao).Msg("No contracts found")
		return nil
	}

	flatLogger := logging.NewLogger("flattener")
	schema := contratos.DefaultSchema()
	schema.Flatten(records, flatLogger)
	contratos.FormatCurrencyColumns(records, flatLogger)

	columns := export.Columns(records, schema)
	if err := export.WriteCSV(cfg.Output.CSV, columns, records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	logger.Info().
		Str("path", cfg.Output.CSV).
		Int("records", len(records)).
		Int("columns", len(columns)).
		Msg("CSV written")

	if cfg.Output.SQLite != "" {
		if err := persistRun(cfg, fetcher, records, startedAt, finishedAt, fetchErr); err != nil {
			return fmt.Errorf("persist to sqlite: %w", err)
		}
		logger.Info().Str("path", cfg.Output.SQLite).Msg("Run persisted to SQLite")
	}

	if fetchErr != nil {
		return fmt.Errorf("fetch incomplete (%d records exported): %w", len(records), fetchErr)
	}
	return nil
}

// loadFetchConfig loads the YAML configuration (or defaults) and applies
// flag overrides on top.
func loadFetchConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if cmd.Flags().Changed("orgao") {
		cfg.Fetch.Orgao, _ = cmd.Flags().GetString("orgao")
	}
	if cmd.Flags().Changed("page") {
		cfg.Fetch.StartPage, _ = cmd.Flags().GetInt("page")
	}
	if cmd.Flags().Changed("restricted") {
		cfg.Fetch.Restricted, _ = cmd.Flags().GetBool("restricted")
	}
	if cmd.Flags().Changed("api-key-file") {
		cfg.API.KeyFile, _ = cmd.Flags().GetString("api-key-file")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.CSV, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("db") {
		cfg.Output.SQLite, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Logging.Pretty, _ = cmd.Flags().GetBool("pretty")
	}

	return cfg, nil
}

// persistRun mirrors the flattened table into the configured SQLite
// database alongside run metadata.
func persistRun(cfg *config.Config, fetcher *contratos.Fetcher, records []contratos.Record, startedAt, finishedAt time.Time, fetchErr error) error {
	db, err := store.Open(cfg.Output.SQLite)
	if err != nil {
		return err
	}
	defer db.Close()

	run := store.Run{
		Orgao:      cfg.Fetch.Orgao,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Pages:      fetcher.PagesFetched(),
		Records:    len(records),
		Status:     store.StatusComplete,
	}
	if fetchErr != nil {
		run.Status = store.StatusPartial
		run.Error = fetchErr.Error()
	}

	runID, err := db.SaveRun(run)
	if err != nil {
		return err
	}

	return db.SaveRecords(runID, records)
}
