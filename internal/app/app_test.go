// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbitseed/qbitseed/internal/domain"
)

type mockLister struct {
	loginCalls int
	listCalls  int
	loginErr   error
	torrents   []domain.TorrentSummary
	listErr    error
}

func (m *mockLister) Login(ctx context.Context) error {
	m.loginCalls++
	return m.loginErr
}

func (m *mockLister) ListTorrents(ctx context.Context) ([]domain.TorrentSummary, error) {
	m.listCalls++
	return m.torrents, m.listErr
}

type mockSearcher struct {
	calls    int
	requests []domain.SearchRequest
	results  []domain.SearchResult
	err      error
}

func (m *mockSearcher) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	m.calls++
	m.requests = append(m.requests, req)
	if m.results == nil && m.err == nil {
		results := make([]domain.SearchResult, 0, len(req.InfoHashes))
		for _, hash := range req.InfoHashes {
			results = append(results, domain.SearchResult{InfoHash: hash, Status: domain.SearchStatusQueued})
		}
		return results, nil
	}
	return m.results, m.err
}

func selectorReturning(selected []domain.TorrentSummary) (Selector, *int) {
	calls := new(int)
	return func(torrents []domain.TorrentSummary) ([]domain.TorrentSummary, error) {
		*calls++
		return selected, nil
	}, calls
}

func newTestApp(lister *mockLister, searcher *mockSearcher, selector Selector) *App {
	a := New(lister, searcher, selector)
	a.SetOutput(&bytes.Buffer{})
	return a
}

func TestRunDirectMode(t *testing.T) {
	tests := []struct {
		name           string
		hashes         []string
		wantErr        bool
		wantSearches   int
		wantRequested  []string
	}{
		{
			name:          "single_valid_hash",
			hashes:        []string{"aaaa567890abcdef1234567890abcdef12345678"},
			wantSearches:  1,
			wantRequested: []string{"aaaa567890abcdef1234567890abcdef12345678"},
		},
		{
			name:          "mixed_case_normalized",
			hashes:        []string{"AAAA567890ABCDEF1234567890ABCDEF12345678"},
			wantSearches:  1,
			wantRequested: []string{"aaaa567890abcdef1234567890abcdef12345678"},
		},
		{
			name:          "duplicates_collapse",
			hashes:        []string{"aaaa1111", "AAAA1111", "bbbb2222"},
			wantSearches:  1,
			wantRequested: []string{"aaaa1111", "bbbb2222"},
		},
		{
			name:          "invalid_excluded_valid_still_searched",
			hashes:        []string{"not-hex!", "bbbb2222"},
			wantErr:       true,
			wantSearches:  1,
			wantRequested: []string{"bbbb2222"},
		},
		{
			name:         "all_invalid_no_search",
			hashes:       []string{"zzzz", ""},
			wantErr:      true,
			wantSearches: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			lister := &mockLister{}
			searcher := &mockSearcher{}
			selector, selectorCalls := selectorReturning(nil)

			a := newTestApp(lister, searcher, selector)
			err := a.Run(context.Background(), Options{InfoHashes: tt.hashes})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantSearches, searcher.calls)
			if tt.wantSearches > 0 {
				require.Len(t, searcher.requests, 1)
				assert.Equal(t, tt.wantRequested, searcher.requests[0].InfoHashes)
			}

			// Direct mode never touches qBittorrent or the selector.
			assert.Zero(t, lister.loginCalls)
			assert.Zero(t, lister.listCalls)
			assert.Zero(t, *selectorCalls)
		})
	}
}

func TestRunDirectModePassesIncludeSingleEpisodes(t *testing.T) {
	searcher := &mockSearcher{}
	a := newTestApp(&mockLister{}, searcher, nil)

	err := a.Run(context.Background(), Options{
		InfoHashes:            []string{"aaaa1111"},
		IncludeSingleEpisodes: true,
	})
	require.NoError(t, err)

	require.Len(t, searcher.requests, 1)
	assert.True(t, searcher.requests[0].IncludeSingleEpisodes)
}

func TestRunInteractiveMode(t *testing.T) {
	torrents := []domain.TorrentSummary{
		{InfoHash: "aaaa1111", Name: "alpha"},
		{InfoHash: "bbbb2222", Name: "beta"},
	}

	lister := &mockLister{torrents: torrents}
	searcher := &mockSearcher{}
	selector, selectorCalls := selectorReturning(torrents[:1])

	a := newTestApp(lister, searcher, selector)
	err := a.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, lister.loginCalls)
	assert.Equal(t, 1, lister.listCalls)
	assert.Equal(t, 1, *selectorCalls)
	require.Equal(t, 1, searcher.calls)
	assert.Equal(t, []string{"aaaa1111"}, searcher.requests[0].InfoHashes)
}

func TestRunInteractiveEmptySelectionIsNoOp(t *testing.T) {
	lister := &mockLister{torrents: []domain.TorrentSummary{{InfoHash: "aaaa1111", Name: "alpha"}}}
	searcher := &mockSearcher{}
	selector, _ := selectorReturning(nil)

	a := newTestApp(lister, searcher, selector)
	err := a.Run(context.Background(), Options{})

	assert.NoError(t, err)
	assert.Zero(t, searcher.calls)
}

func TestRunInteractiveEmptyTorrentListIsNoOp(t *testing.T) {
	lister := &mockLister{}
	searcher := &mockSearcher{}
	selector, selectorCalls := selectorReturning(nil)

	a := newTestApp(lister, searcher, selector)
	err := a.Run(context.Background(), Options{})

	assert.NoError(t, err)
	assert.Zero(t, *selectorCalls)
	assert.Zero(t, searcher.calls)
}

func TestRunInteractiveLoginFailure(t *testing.T) {
	loginErr := &domain.AuthError{Host: "http://127.0.0.1:8080"}
	lister := &mockLister{loginErr: loginErr}
	searcher := &mockSearcher{}
	selector, selectorCalls := selectorReturning(nil)

	a := newTestApp(lister, searcher, selector)
	err := a.Run(context.Background(), Options{})

	require.Error(t, err)
	assert.ErrorAs(t, err, new(*domain.AuthError))

	// A failed login never reaches the selector or the webhook.
	assert.Zero(t, lister.listCalls)
	assert.Zero(t, *selectorCalls)
	assert.Zero(t, searcher.calls)
}

func TestRunReportsFailedSearches(t *testing.T) {
	searcher := &mockSearcher{
		results: []domain.SearchResult{
			{InfoHash: "aaaa1111", Status: domain.SearchStatusQueued},
			{InfoHash: "bbbb2222", Status: domain.SearchStatusFailed, Message: "webhook returned status 500"},
		},
	}

	a := newTestApp(&mockLister{}, searcher, nil)
	out := &bytes.Buffer{}
	a.SetOutput(out)

	err := a.Run(context.Background(), Options{InfoHashes: []string{"aaaa1111", "bbbb2222"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 searches failed")
	assert.Contains(t, out.String(), "Summary: 1 queued, 1 failed, 0 skipped")
}

func TestRunPropagatesTransportError(t *testing.T) {
	transportErr := &domain.TransportError{URL: "http://127.0.0.1:2468/api/webhook"}
	searcher := &mockSearcher{
		results: []domain.SearchResult{
			{InfoHash: "aaaa1111", Status: domain.SearchStatusSkipped, Message: "not attempted: cross-seed unreachable"},
		},
		err: transportErr,
	}

	a := newTestApp(&mockLister{}, searcher, nil)
	out := &bytes.Buffer{}
	a.SetOutput(out)

	err := a.Run(context.Background(), Options{InfoHashes: []string{"aaaa1111"}})

	require.Error(t, err)
	assert.ErrorAs(t, err, new(*domain.TransportError))
	assert.Contains(t, out.String(), "skipped")
}
