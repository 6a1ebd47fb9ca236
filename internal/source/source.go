// Package source fetches the remote data the dashboard renders: the need
// record sheet, the village coordinate lookup, and live volunteer pings.
// Every fetcher carries an explicit fallback chain; transient failures walk
// the chain instead of surfacing, and only the primary record sheet is
// allowed to fail all the way out to the caller.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// freshClient builds a client with a brand-new transport. The retry leg of
// each chain uses one so a wedged keep-alive connection or poisoned
// transport state cannot fail both attempts the same way.
func freshClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body) //nolint:errcheck
	body.Close()
}

// readCSV parses a header row plus data rows, tolerating ragged rows.
func readCSV(r io.Reader) (headers []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
