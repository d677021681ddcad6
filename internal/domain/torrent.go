// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "strings"

// TorrentSummary is an immutable snapshot of a torrent as reported by the
// qBittorrent WebUI, reduced to the fields the picker and the webhook need.
type TorrentSummary struct {
	InfoHash string
	Name     string
	Category string
	Tags     []string
	SavePath string
	Size     int64
	Tracker  string
}

// SearchRequest describes one cross-seed invocation. InfoHashes is never
// empty when a request is submitted.
type SearchRequest struct {
	InfoHashes            []string
	IncludeSingleEpisodes bool
}

// SearchStatus is the per-hash outcome of a webhook call.
type SearchStatus string

const (
	SearchStatusQueued  SearchStatus = "queued"
	SearchStatusSkipped SearchStatus = "skipped"
	SearchStatusFailed  SearchStatus = "failed"
)

// SearchResult is produced once per requested hash, in request order.
type SearchResult struct {
	InfoHash string
	Status   SearchStatus
	Message  string
}

// NormalizeInfoHash lowercases and trims a hash so the v1/v2 hex forms
// compare and dedupe consistently everywhere.
func NormalizeInfoHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

// ValidateInfoHash checks that a hash is a non-empty lowercase hex string.
// Full hashes are 40 (v1) or 64 (v2) characters, but the webhook also
// accepts prefixes, so only the format is enforced here. Input is expected
// to be normalized first.
func ValidateInfoHash(hash string) error {
	if hash == "" {
		return &ValidationError{InfoHash: hash, Reason: "must not be empty"}
	}
	for _, r := range hash {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return &ValidationError{InfoHash: hash, Reason: "must be lowercase hexadecimal"}
		}
	}
	return nil
}

// SplitTags turns qBittorrent's comma separated tag string into a clean
// ordered slice.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		return nil
	}
	return tags
}
