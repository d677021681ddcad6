// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package qbittorrent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/qbitseed/qbitseed/internal/domain"
)

// Client wraps the go-qbittorrent client with login state and the mapping
// to domain.TorrentSummary.
type Client struct {
	*qbt.Client
	host     string
	loggedIn bool
}

func NewClient(cfg domain.Config) *Client {
	return NewClientWithTimeout(cfg, 60*time.Second)
}

func NewClientWithTimeout(cfg domain.Config, timeout time.Duration) *Client {
	host := fmt.Sprintf("http://%s:%d", cfg.QbitHost, cfg.QbitPort)

	qbtClient := qbt.NewClient(qbt.Config{
		Host:     host,
		Username: cfg.QbitUsername,
		Password: cfg.QbitPassword,
		Timeout:  int(timeout.Seconds()),
	})

	return &Client{
		Client: qbtClient,
		host:   host,
	}
}

// Host returns the base URL the client talks to.
func (c *Client) Host() string {
	return c.host
}

// Login authenticates against the WebUI. Invalid credentials and an
// unreachable host both surface as domain.AuthError.
func (c *Client) Login(ctx context.Context) error {
	if err := c.Client.LoginCtx(ctx); err != nil {
		return &domain.AuthError{Host: c.host, Err: err}
	}
	c.loggedIn = true

	if version, err := c.Client.GetAppVersionCtx(ctx); err != nil {
		log.Debug().Err(err).Str("host", c.host).Msg("Failed to read qBittorrent version after login")
	} else {
		log.Info().Str("host", c.host).Str("version", version).Msg("Connected to qBittorrent")
	}

	return nil
}

// ListTorrents fetches the full torrent list in one call and maps it to
// summaries: hashes lowercased, tags split, duplicates dropped, sorted by
// name case-insensitively.
func (c *Client) ListTorrents(ctx context.Context) ([]domain.TorrentSummary, error) {
	if !c.loggedIn {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	torrents, err := c.Client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{})
	if err != nil {
		return nil, &domain.APIError{Endpoint: c.host + "/api/v2/torrents/info", Err: errors.Wrap(err, "failed to list torrents")}
	}

	seen := make(map[string]struct{}, len(torrents))
	summaries := make([]domain.TorrentSummary, 0, len(torrents))
	for _, torrent := range torrents {
		hash := domain.NormalizeInfoHash(torrent.Hash)
		if hash == "" {
			continue
		}
		if _, ok := seen[hash]; ok {
			log.Warn().Str("hash", hash).Str("name", torrent.Name).Msg("Duplicate hash in torrent list, skipping")
			continue
		}
		seen[hash] = struct{}{}

		summaries = append(summaries, domain.TorrentSummary{
			InfoHash: hash,
			Name:     torrent.Name,
			Category: torrent.Category,
			Tags:     domain.SplitTags(torrent.Tags),
			SavePath: torrent.SavePath,
			Size:     torrent.Size,
			Tracker:  torrent.Tracker,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return strings.ToLower(summaries[i].Name) < strings.ToLower(summaries[j].Name)
	})

	log.Debug().Int("count", len(summaries)).Str("host", c.host).Msg("Fetched torrent list")

	return summaries, nil
}
