package contratos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for fetch progress.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transparencia_pages_fetched_total",
		Help: "Total non-empty pages fetched",
	})

	recordsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transparencia_records_fetched_total",
		Help: "Total contract records fetched",
	})
)

// Endpoint is the contracts listing endpoint.
const Endpoint = "/contratos"

// PageGetter is the API client surface the fetcher needs.
type PageGetter interface {
	Get(ctx context.Context, endpoint string, params url.Values, restricted bool) ([]byte, error)
}

// FetcherConfig holds fetcher configuration.
type FetcherConfig struct {
	// Orgao is the organization code scoping the contracts query.
	Orgao string

	// StartPage is the first page requested (1-based).
	StartPage int

	// Restricted forces the most conservative rate limit tier.
	Restricted bool
}

// Fetcher drives sequential pagination of the contracts endpoint.
type Fetcher struct {
	client    PageGetter
	config    FetcherConfig
	logger    zerolog.Logger
	lastPages int
}

// NewFetcher creates a fetcher for one organization.
func NewFetcher(client PageGetter, cfg FetcherConfig, logger zerolog.Logger) (*Fetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if cfg.Orgao == "" {
		return nil, fmt.Errorf("organization code is required")
	}
	if cfg.StartPage < 1 {
		cfg.StartPage = 1
	}

	return &Fetcher{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// FetchAll pages through the contracts endpoint starting at StartPage.
// Pagination is strictly sequential and monotonic: page N+1 is requested
// only after page N returned at least one record, and the loop terminates
// with a nil error on the first empty page. A request or decode failure
// aborts the loop and returns the records accumulated so far together
// with the error, so callers can tell a truncated run from a complete one.
func (f *Fetcher) FetchAll(ctx context.Context) ([]Record, error) {
	start := time.Now()

	var all []Record
	page := f.config.StartPage
	f.lastPages = 0

	for {
		params := url.Values{}
		params.Set("codigoOrgao", f.config.Orgao)
		params.Set("pagina", strconv.Itoa(page))

		body, err := f.client.Get(ctx, Endpoint, params, f.config.Restricted)
		if err != nil {
			f.logger.Error().
				Err(err).
				Str("orgao", f.config.Orgao).
				Int("pagina", page).
				Int("records", len(all)).
				Msg("Page fetch failed - aborting pagination")
			return all, fmt.Errorf("fetch page %d: %w", page, err)
		}

		var records []Record
		if err := json.Unmarshal(body, &records); err != nil {
			f.logger.Error().
				Err(err).
				Int("pagina", page).
				Msg("Page decode failed - aborting pagination")
			return all, fmt.Errorf("decode page %d: %w", page, err)
		}

		if len(records) == 0 {
			break
		}

		all = append(all, records...)
		f.lastPages++
		pagesFetchedTotal.Inc()
		recordsFetchedTotal.Add(float64(len(records)))

		f.logger.Debug().
			Int("pagina", page).
			Int("records", len(records)).
			Msg("Page fetched")

		page++
	}

	f.logger.Info().
		Str("orgao", f.config.Orgao).
		Int("pages", f.lastPages).
		Int("records", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return all, nil
}

// PagesFetched reports how many non-empty pages the most recent FetchAll
// consumed.
func (f *Fetcher) PagesFetched() int {
	return f.lastPages
}
