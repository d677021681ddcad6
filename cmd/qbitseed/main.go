// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qbitseed/qbitseed/internal/app"
	"github.com/qbitseed/qbitseed/internal/buildinfo"
	"github.com/qbitseed/qbitseed/internal/config"
	"github.com/qbitseed/qbitseed/internal/crossseed"
	"github.com/qbitseed/qbitseed/internal/qbittorrent"
	"github.com/qbitseed/qbitseed/internal/tui"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	rootCmd := RunRootCommand()
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunRootCommand() *cobra.Command {
	var (
		configDir        string
		infoHashes       []string
		noSingleEpisodes bool
		verbose          bool
	)

	command := &cobra.Command{
		Use:   "qbitseed",
		Short: "Manually trigger cross-seed searches for qBittorrent torrents",
		Long: `qbitseed - trigger cross-seed searches for torrents managed by qBittorrent.

Without flags it fetches the torrent list from qBittorrent and opens an
interactive picker. With --info-hash it skips the picker and searches the
given hashes directly.`,
		Example: `  qbitseed -i 696c022cb9371f2893689fe7ba18e9c1f8005fbc
  qbitseed -i HASH1 -i HASH2,HASH3
  qbitseed
  qbitseed --no-single-episodes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Trailing positional tokens are hashes too, so
			// `-i HASH1 HASH2` works the same as repeating -i
			hashes := collectInfoHashes(infoHashes, args)

			cfg, err := config.New(configDir, buildinfo.Version)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			if verbose {
				cfg.Config.LogLevel = "DEBUG"
			}
			cfg.ApplyLogConfig()

			// Config failures must surface before any network call
			if err := cfg.Validate(); err != nil {
				return err
			}

			if len(hashes) == 0 && cfg.Config.QbitPassword == "" {
				password, err := readPassword("qBittorrent password: ")
				if err != nil {
					return err
				}
				cfg.Config.QbitPassword = password
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Debug().Str("version", buildinfo.Version).Msg("Starting qbitseed run")

			runner := app.New(
				qbittorrent.NewClient(*cfg.Config),
				crossseed.NewClient(*cfg.Config),
				tui.Run,
			)

			return runner.Run(ctx, app.Options{
				InfoHashes:            hashes,
				IncludeSingleEpisodes: !noSingleEpisodes,
			})
		},
	}

	command.Version = buildinfo.Version
	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/qbitseed/ or %APPDATA%\\qbitseed\\). For backward compatibility, can also be a direct path to a .toml file")
	command.Flags().StringSliceVarP(&infoHashes, "info-hash", "i", nil, "info hash(es) to search, skips the interactive picker (repeatable or comma separated)")
	command.Flags().BoolVar(&noSingleEpisodes, "no-single-episodes", false, "exclude single episodes from the cross-seed search")
	command.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of qbitseed",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without running a search.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/qbitseed/config.toml
- Windows: %APPDATA%\qbitseed\config.toml

You can specify either a directory path or a direct file path:
- Directory: qbitseed generate-config --config-dir /path/to/config/
- File: qbitseed generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				configPath = filepath.Join(config.GetDefaultConfigDir(), "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

// collectInfoHashes merges the --info-hash values with any bare positional
// tokens, so `-i HASH1 HASH2 HASH3` searches all three.
func collectInfoHashes(flagged, positional []string) []string {
	if len(flagged) == 0 && len(positional) == 0 {
		return nil
	}
	hashes := make([]string, 0, len(flagged)+len(positional))
	hashes = append(hashes, flagged...)
	hashes = append(hashes, positional...)
	return hashes
}

func readPassword(prompt string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print(prompt)
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	var password string
	if _, err := fmt.Scanln(&password); err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return password, nil
}
