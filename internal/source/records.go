package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/observability"
)

// Records fetches the need-report sheet and the village coordinate lookup.
type Records struct {
	sheetURL    string
	villagesURL string
	client      *http.Client
	timeout     time.Duration
	log         *slog.Logger
	metrics     *observability.Metrics
}

func NewRecords(sheetURL, villagesURL string, log *slog.Logger, metrics *observability.Metrics) *Records {
	return &Records{
		sheetURL:    sheetURL,
		villagesURL: villagesURL,
		client:      &http.Client{Timeout: defaultTimeout},
		timeout:     defaultTimeout,
		log:         log,
		metrics:     metrics,
	}
}

// FetchRecords loads the record sheet CSV. A failed primary attempt is
// retried once on a fresh transport; if both fail the error propagates,
// since the dashboard has nothing to show without records.
func (r *Records) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	headers, rows, err := r.fetchCSV(ctx, r.sheetURL)
	if err != nil {
		r.log.Warn("record sheet fetch failed, retrying on fresh transport", "error", err)
		r.metrics.SourceFallbacks.WithLabelValues("records", "retry").Inc()
		headers, rows, err = r.fetchCSVFresh(ctx, r.sheetURL)
		if err != nil {
			return nil, fmt.Errorf("fetch records: %w", err)
		}
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.NewRecord(headers, row))
	}
	r.log.Info("records loaded", "count", len(records))
	return records, nil
}

// FetchVillages loads the coordinate lookup. Both transports failing
// degrades to an empty lookup rather than an error; records then simply
// keep whatever coordinates they came with.
func (r *Records) FetchVillages(ctx context.Context) []domain.Village {
	headers, rows, err := r.fetchCSV(ctx, r.villagesURL)
	if err != nil {
		r.log.Warn("villages fetch failed, retrying on fresh transport", "error", err)
		r.metrics.SourceFallbacks.WithLabelValues("villages", "retry").Inc()
		headers, rows, err = r.fetchCSVFresh(ctx, r.villagesURL)
	}
	if err != nil {
		r.log.Warn("villages unavailable, continuing without backfill", "error", err)
		r.metrics.SourceFallbacks.WithLabelValues("villages", "empty").Inc()
		return nil
	}
	return parseVillages(headers, rows)
}

func (r *Records) fetchCSV(ctx context.Context, url string) ([]string, [][]string, error) {
	return fetchCSVWith(ctx, r.client, url)
}

func (r *Records) fetchCSVFresh(ctx context.Context, url string) ([]string, [][]string, error) {
	return fetchCSVWith(ctx, freshClient(r.timeout), url)
}

func fetchCSVWith(ctx context.Context, client *http.Client, url string) ([]string, [][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	return readCSV(resp.Body)
}

func parseVillages(headers []string, rows [][]string) []domain.Village {
	villages := make([]domain.Village, 0, len(rows))
	for _, row := range rows {
		rec := domain.NewRecord(headers, row)
		name := rec.Village
		if name == "" {
			name = rec.Get("name")
		}
		if name == "" || rec.Lat == 0 || rec.Lon == 0 {
			continue
		}
		villages = append(villages, domain.Village{Name: name, Lat: rec.Lat, Lon: rec.Lon})
	}
	return villages
}
