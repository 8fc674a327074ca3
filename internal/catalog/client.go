package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dom/tcg-collection/internal/config"
	"go.uber.org/zap"
)

// Client reads expansions and cards from the upstream catalog. Failures never
// escape: they are logged and the caller gets an empty or partial result.
type Client struct {
	cfg        config.CatalogConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.CatalogConfig, logger *zap.Logger) *Client {
	cfg.PageSize = config.ClampPageSize(cfg.PageSize)
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger.Named("catalog"),
	}
}

// FetchExpansions returns every expansion the catalog lists, or an empty slice
// if the request fails.
func (c *Client) FetchExpansions(ctx context.Context) []ExpansionRecord {
	var resp setsResponse
	if err := c.getJSON(ctx, c.cfg.ListTimeout, "/sets", nil, &resp); err != nil {
		c.logger.Error("failed to fetch expansions", zap.Error(err))
		return []ExpansionRecord{}
	}

	records := decodeRecords[ExpansionRecord](resp.Data, c.logger, "expansion")
	c.logger.Info("fetched expansions", zap.Int("count", len(records)))
	return records
}

// FetchCards pages through every card of one expansion. Paging stops once the
// accumulated count reaches the server's totalCount, when a page comes back
// empty, or when a request fails; in the last case the cards gathered so far
// are still returned.
func (c *Client) FetchCards(ctx context.Context, expansionExternalID string) []CardRecord {
	all := make([]CardRecord, 0)

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("q", "set.id:"+expansionExternalID)
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(c.cfg.PageSize))

		var resp cardsResponse
		if err := c.getJSON(ctx, c.cfg.CardsTimeout, "/cards", query, &resp); err != nil {
			c.logger.Error("failed to fetch cards page",
				zap.String("expansion", expansionExternalID),
				zap.Int("page", page),
				zap.Int("accumulated", len(all)),
				zap.Error(err))
			break
		}

		all = append(all, decodeRecords[CardRecord](resp.Data, c.logger, "card")...)

		if len(all) >= resp.TotalCount {
			break
		}
		if len(resp.Data) == 0 {
			c.logger.Warn("catalog returned an empty page before reaching totalCount",
				zap.String("expansion", expansionExternalID),
				zap.Int("page", page),
				zap.Int("accumulated", len(all)),
				zap.Int("totalCount", resp.TotalCount))
			break
		}
	}

	c.logger.Info("fetched cards",
		zap.String("expansion", expansionExternalID),
		zap.Int("count", len(all)))
	return all
}

func (c *Client) getJSON(ctx context.Context, timeout time.Duration, path string, query url.Values, out interface{}) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: unexpected status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
