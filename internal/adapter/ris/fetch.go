package ris

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchResult is the concatenation of every page read, in request order.
type FetchResult struct {
	Stations []json.RawMessage
	Pages    int
	// Truncated is set when pagination stopped on a response of unexpected
	// shape rather than on a short page.
	Truncated bool
}

// FetchAll pages through the station directory from offset 0, one request at
// a time. It stops after the first page shorter than pageSize, or at the first
// response of unexpected shape, which is logged and treated as the end of the
// directory. Any fatal error discards everything accumulated so far.
func (c *Client) FetchAll(ctx context.Context, pageSize int) (FetchResult, error) {
	if pageSize <= 0 {
		return FetchResult{}, fmt.Errorf("invalid page size %d", pageSize)
	}

	var res FetchResult
	for offset := 0; ; offset += pageSize {
		page, err := c.FetchPage(ctx, pageSize, offset)
		if err != nil {
			return FetchResult{}, fmt.Errorf("fetch stations at offset %d: %w", offset, err)
		}

		if page.Unexpected {
			c.logger.Warn("unexpected response structure, stopping pagination",
				"offset", offset,
				"total", len(res.Stations),
				"body", snippet(page.Raw),
			)
			res.Truncated = true
			return res, nil
		}

		res.Stations = append(res.Stations, page.Stations...)
		res.Pages++
		c.metrics.PagesFetched.Inc()
		c.metrics.StationsFetched.Add(float64(len(page.Stations)))

		c.logger.Info("fetched station page",
			"total", len(res.Stations),
			"page_size", len(page.Stations),
			"offset", offset,
		)

		if len(page.Stations) < pageSize {
			return res, nil
		}
	}
}
