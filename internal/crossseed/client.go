// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package crossseed implements a client for the cross-seed daemon's webhook
// endpoint. The daemon accepts one info hash per request, so a batch is
// issued as sequential POSTs with one SearchResult reported per hash.
package crossseed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qbitseed/qbitseed/internal/buildinfo"
	"github.com/qbitseed/qbitseed/internal/domain"
)

const maxErrorBodyBytes int64 = 4 << 10 // error body snippet limit for messages

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

func NewClient(cfg domain.Config) *Client {
	return NewClientWithTimeout(cfg, 30*time.Second)
}

func NewClientWithTimeout(cfg domain.Config, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", cfg.CrossSeedHost, cfg.CrossSeedPort),
		apiKey:     cfg.CrossSeedAPIKey,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// NewClientForURL is used by tests to point the client at an arbitrary base URL.
func NewClientForURL(baseURL, apiKey string, timeout time.Duration) *Client {
	c := NewClientWithTimeout(domain.Config{CrossSeedAPIKey: apiKey}, timeout)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Search triggers one webhook call per hash and returns a result per hash in
// request order. A transport-level failure aborts the run: the failing hash
// and everything after it are reported as skipped and a domain.TransportError
// is returned alongside the partial results.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	if len(req.InfoHashes) == 0 {
		return nil, fmt.Errorf("search request contains no info hashes")
	}

	results := make([]domain.SearchResult, 0, len(req.InfoHashes))
	for i, hash := range req.InfoHashes {
		result, err := c.trigger(ctx, hash, req.IncludeSingleEpisodes)
		if err != nil {
			results = append(results, domain.SearchResult{
				InfoHash: hash,
				Status:   domain.SearchStatusSkipped,
				Message:  "not attempted: cross-seed unreachable",
			})
			for _, remaining := range req.InfoHashes[i+1:] {
				results = append(results, domain.SearchResult{
					InfoHash: remaining,
					Status:   domain.SearchStatusSkipped,
					Message:  "not attempted: cross-seed unreachable",
				})
			}
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (c *Client) trigger(ctx context.Context, infoHash string, includeSingleEpisodes bool) (domain.SearchResult, error) {
	endpoint := c.baseURL + "/api/webhook"

	form := url.Values{}
	form.Set("infoHash", infoHash)
	form.Set("includeSingleEpisodes", strconv.FormatBool(includeSingleEpisodes))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	query := req.URL.Query()
	query.Set("apikey", c.apiKey)
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SearchResult{}, &domain.TransportError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := fmt.Sprintf("webhook returned status %d", resp.StatusCode)
		if body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)); readErr == nil {
			if snippet := strings.TrimSpace(string(body)); snippet != "" {
				message = fmt.Sprintf("%s: %s", message, snippet)
			}
		}

		log.Warn().Str("hash", infoHash).Int("status", resp.StatusCode).Msg("Cross-seed search rejected")

		return domain.SearchResult{
			InfoHash: infoHash,
			Status:   domain.SearchStatusFailed,
			Message:  message,
		}, nil
	}

	log.Info().Str("hash", infoHash).Bool("includeSingleEpisodes", includeSingleEpisodes).Msg("Cross-seed search queued")

	return domain.SearchResult{
		InfoHash: infoHash,
		Status:   domain.SearchStatusQueued,
	}, nil
}
