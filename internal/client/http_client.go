package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"callops-api/internal/config"
	"callops-api/internal/models"
)

// CallListClient fetches the raw call collection from the upstream source.
// It is the only component that can produce a reportable error; everything
// downstream of it is total by contract.
type CallListClient struct {
	client          *http.Client
	baseURL         string
	retryMaxElapsed time.Duration
	logger          *logrus.Logger
}

func NewCallListClient(cfg *config.Config, logger *logrus.Logger) *CallListClient {
	return &CallListClient{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		baseURL:         cfg.UpstreamAPIURL,
		retryMaxElapsed: cfg.RetryMaxElapsed,
		logger:          logger,
	}
}

// FetchCallList retrieves raw records plus the upstream aggregate counts.
// A date range, when present, is delegated upstream as two inclusive
// epoch-millisecond bounds. Server errors are retried with exponential
// backoff; client errors are not.
func (c *CallListClient) FetchCallList(ctx context.Context, from, to time.Time) (*models.CallListResponse, error) {
	u, err := url.Parse(c.baseURL + "/get-call-list")
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	q := u.Query()
	if !from.IsZero() {
		q.Set("from", strconv.FormatInt(from.UnixMilli(), 10))
	}
	if !to.IsZero() {
		q.Set("to", strconv.FormatInt(to.UnixMilli(), 10))
	}
	u.RawQuery = q.Encode()

	var result models.CallListResponse
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			c.logger.WithError(err).WithField("attempt", attempt).Warn("Call list request failed")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			c.logger.WithFields(logrus.Fields{
				"attempt":     attempt,
				"status_code": resp.StatusCode,
			}).Warn("Upstream server error, will retry")
			return fmt.Errorf("server error: %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("client error: %d", resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return backoff.Permanent(fmt.Errorf("decode call list: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.retryMaxElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("fetch call list: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"records":  len(result.Data),
		"attempts": attempt,
	}).Info("Fetched call list")
	return &result, nil
}
