// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package app drives a single run: either the direct-hash path or the
// interactive list-and-pick path, followed by the webhook calls and the
// per-hash report.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/qbitseed/qbitseed/internal/domain"
)

// TorrentLister is the slice of the qBittorrent client the run needs.
type TorrentLister interface {
	Login(ctx context.Context) error
	ListTorrents(ctx context.Context) ([]domain.TorrentSummary, error)
}

// Searcher is the slice of the cross-seed client the run needs.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)
}

// Selector blocks on the terminal and returns the chosen subset. An empty
// result means the user cancelled or picked nothing.
type Selector func(torrents []domain.TorrentSummary) ([]domain.TorrentSummary, error)

// Options are the per-invocation flags.
type Options struct {
	// InfoHashes switches to direct-hash mode when non-empty.
	InfoHashes            []string
	IncludeSingleEpisodes bool
}

type App struct {
	lister   TorrentLister
	searcher Searcher
	selector Selector
	out      io.Writer
}

func New(lister TorrentLister, searcher Searcher, selector Selector) *App {
	return &App{
		lister:   lister,
		searcher: searcher,
		selector: selector,
		out:      os.Stdout,
	}
}

// SetOutput redirects the report writer, used by tests.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// Run executes one invocation end to end. A non-nil error means the process
// should exit non-zero.
func (a *App) Run(ctx context.Context, opts Options) error {
	var (
		hashes       []string
		invalidCount int
	)

	if len(opts.InfoHashes) > 0 {
		hashes, invalidCount = a.validateHashes(opts.InfoHashes)
		if len(hashes) == 0 {
			return fmt.Errorf("no valid info hashes to search")
		}
	} else {
		selected, err := a.runInteractive(ctx)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			// Nothing picked is a clean no-op
			return nil
		}
		for _, torrent := range selected {
			hashes = append(hashes, torrent.InfoHash)
		}
	}

	log.Info().Int("count", len(hashes)).Msg("Triggering cross-seed searches")
	fmt.Fprintf(a.out, "Processing %d torrent(s)...\n", len(hashes))

	results, searchErr := a.searcher.Search(ctx, domain.SearchRequest{
		InfoHashes:            hashes,
		IncludeSingleEpisodes: opts.IncludeSingleEpisodes,
	})

	failed := a.report(results)

	if searchErr != nil {
		return searchErr
	}
	if invalidCount > 0 {
		return fmt.Errorf("%d invalid info hash(es) rejected", invalidCount)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d searches failed", failed, len(results))
	}

	return nil
}

// validateHashes normalizes the input, reports malformed hashes without
// aborting the rest and drops duplicates while preserving order.
func (a *App) validateHashes(input []string) ([]string, int) {
	seen := make(map[string]struct{}, len(input))
	valid := make([]string, 0, len(input))
	invalid := 0

	for _, raw := range input {
		hash := domain.NormalizeInfoHash(raw)
		if err := domain.ValidateInfoHash(hash); err != nil {
			invalid++
			log.Error().Err(err).Str("input", raw).Msg("Rejected info hash")
			fmt.Fprintf(a.out, "  %s: %v\n", raw, err)
			continue
		}
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		valid = append(valid, hash)
	}

	return valid, invalid
}

func (a *App) runInteractive(ctx context.Context) ([]domain.TorrentSummary, error) {
	if err := a.lister.Login(ctx); err != nil {
		return nil, err
	}

	torrents, err := a.lister.ListTorrents(ctx)
	if err != nil {
		return nil, err
	}

	if len(torrents) == 0 {
		fmt.Fprintln(a.out, "No torrents found in qBittorrent")
		return nil, nil
	}

	fmt.Fprintf(a.out, "Found %d torrents. Launching selector...\n", len(torrents))

	selected, err := a.selector(torrents)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		fmt.Fprintln(a.out, "No torrents selected")
		return nil, nil
	}

	return selected, nil
}

// report prints one line per result plus the summary and returns the number
// of failures.
func (a *App) report(results []domain.SearchResult) int {
	queued, failed, skipped := 0, 0, 0

	for _, result := range results {
		switch result.Status {
		case domain.SearchStatusQueued:
			queued++
			fmt.Fprintf(a.out, "  %s: queued\n", result.InfoHash)
		case domain.SearchStatusFailed:
			failed++
			fmt.Fprintf(a.out, "  %s: failed: %s\n", result.InfoHash, result.Message)
			log.Error().Str("hash", result.InfoHash).Str("message", result.Message).Msg("Cross-seed search failed")
		case domain.SearchStatusSkipped:
			skipped++
			fmt.Fprintf(a.out, "  %s: skipped: %s\n", result.InfoHash, result.Message)
		}
	}

	if len(results) > 0 {
		fmt.Fprintf(a.out, "Summary: %d queued, %d failed, %d skipped\n", queued, failed, skipped)
		log.Info().Int("queued", queued).Int("failed", failed).Int("skipped", skipped).Msg("Run complete")
	}

	return failed
}
