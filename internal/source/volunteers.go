package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/observability"
)

// Volunteers fetches live volunteer pings: the JSON API first, then a
// secondary CSV URL, then a local CSV snapshot, and finally an empty set.
// Only context cancellation escapes as an error; an exhausted chain is an
// empty result, which lets the refresh cycle keep running unattended.
type Volunteers struct {
	apiURL    string
	csvURL    string
	localPath string
	client    *http.Client
	timeout   time.Duration
	clock     clockwork.Clock
	log       *slog.Logger
	metrics   *observability.Metrics
}

func NewVolunteers(apiURL, csvURL, localPath string, clock clockwork.Clock, log *slog.Logger, metrics *observability.Metrics) *Volunteers {
	return &Volunteers{
		apiURL:    apiURL,
		csvURL:    csvURL,
		localPath: localPath,
		client:    &http.Client{Timeout: defaultTimeout},
		timeout:   defaultTimeout,
		clock:     clock,
		log:       log,
		metrics:   metrics,
	}
}

// FetchPings walks the fallback chain and returns tolerantly parsed pings.
// Rows without usable coordinates are dropped during parsing.
func (v *Volunteers) FetchPings(ctx context.Context) ([]domain.Ping, error) {
	now := v.clock.Now()

	rows, err := v.fetchJSON(ctx)
	if err == nil {
		return v.parseRows(rows, now), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	v.log.Warn("volunteer api failed, falling back to csv", "error", err)
	v.metrics.SourceFallbacks.WithLabelValues("volunteers", "csv").Inc()

	rows, err = v.fetchCSVRows(ctx)
	if err == nil {
		return v.parseRows(rows, now), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	v.log.Warn("volunteer csv failed, falling back to local snapshot", "error", err)
	v.metrics.SourceFallbacks.WithLabelValues("volunteers", "local").Inc()

	rows, err = v.readLocalCSV()
	if err == nil {
		return v.parseRows(rows, now), nil
	}
	v.log.Warn("volunteer local snapshot failed, using empty set", "error", err)
	v.metrics.SourceFallbacks.WithLabelValues("volunteers", "empty").Inc()
	return []domain.Ping{}, nil
}

func (v *Volunteers) parseRows(rows []map[string]any, now time.Time) []domain.Ping {
	pings := make([]domain.Ping, 0, len(rows))
	for _, row := range rows {
		ping, ok := domain.ParsePing(row, now)
		if !ok {
			v.metrics.VolunteerPingsDiscarded.Inc()
			continue
		}
		pings = append(pings, ping)
	}
	return pings
}

func (v *Volunteers) fetchJSON(ctx context.Context) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", v.apiURL, resp.StatusCode)
	}
	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode volunteer json: %w", err)
	}
	return rows, nil
}

func (v *Volunteers) fetchCSVRows(ctx context.Context) ([]map[string]any, error) {
	headers, rows, err := fetchCSVWith(ctx, freshClient(v.timeout), v.csvURL)
	if err != nil {
		return nil, err
	}
	return csvToRows(headers, rows), nil
}

func (v *Volunteers) readLocalCSV() ([]map[string]any, error) {
	f, err := os.Open(v.localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	headers, rows, err := readCSV(f)
	if err != nil {
		return nil, err
	}
	return csvToRows(headers, rows), nil
}

func csvToRows(headers []string, rows [][]string) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]any, len(headers))
		for i, h := range headers {
			if i < len(row) {
				m[h] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}
