// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config holds every setting for a single run. It is built once at startup
// and passed by value to the components that need it; nothing reads the
// environment after construction.
type Config struct {
	CrossSeedHost   string `mapstructure:"crossSeedHost"`
	CrossSeedPort   int    `mapstructure:"crossSeedPort"`
	CrossSeedAPIKey string `mapstructure:"crossSeedApiKey"`

	QbitHost     string `mapstructure:"qbitHost"`
	QbitPort     int    `mapstructure:"qbitPort"`
	QbitUsername string `mapstructure:"qbitUsername"`
	QbitPassword string `mapstructure:"qbitPassword"`

	LogLevel      string `mapstructure:"logLevel"`
	LogPath       string `mapstructure:"logPath"`
	LogMaxSize    int    `mapstructure:"logMaxSize"`
	LogMaxBackups int    `mapstructure:"logMaxBackups"`

	Version string
}
