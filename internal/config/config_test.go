// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbitseed/qbitseed/internal/domain"
)

func TestNewAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(""), 0o644))

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Config.CrossSeedHost)
	assert.Equal(t, 2468, cfg.Config.CrossSeedPort)
	assert.Equal(t, "127.0.0.1", cfg.Config.QbitHost)
	assert.Equal(t, 8080, cfg.Config.QbitPort)
	assert.Equal(t, "admin", cfg.Config.QbitUsername)
	assert.Equal(t, "adminadmin", cfg.Config.QbitPassword)
	assert.Equal(t, "INFO", cfg.Config.LogLevel)
}

func TestNewLoadsConfigFromFileOrDirectory(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, tmpDir string) (inputPath string, expectedHost string, expectedPort int)
	}{
		{
			name: "config_file_path",
			prepare: func(t *testing.T, tmpDir string) (string, string, int) {
				configPath := filepath.Join(tmpDir, "myconfig.toml")
				content := "qbitHost = \"10.0.0.5\"\nqbitPort = 9090\ncrossSeedApiKey = \"abc\"\n"
				require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
				return configPath, "10.0.0.5", 9090
			},
		},
		{
			name: "config_directory_path",
			prepare: func(t *testing.T, tmpDir string) (string, string, int) {
				configDir := filepath.Join(tmpDir, "configdir")
				require.NoError(t, os.MkdirAll(configDir, 0o755))
				content := "qbitHost = \"qbit.local\"\nqbitPort = 8181\n"
				require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
				return configDir, "qbit.local", 8181
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			inputPath, expectedHost, expectedPort := tt.prepare(t, tmpDir)

			cfg, err := New(inputPath)
			require.NoError(t, err)

			assert.Equal(t, expectedHost, cfg.Config.QbitHost)
			assert.Equal(t, expectedPort, cfg.Config.QbitPort)
		})
	}
}

func TestNewCreatesDefaultConfigWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.FileExists(t, configPath)
	assert.Equal(t, 2468, cfg.Config.CrossSeedPort)

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "crossSeedPort = 2468")
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("qbitPort = 8080\n"), 0o644))

	t.Setenv("CROSS_SEED_HOST", "seed.local")
	t.Setenv("CROSS_SEED_PORT", "2500")
	t.Setenv("CROSS_SEED_API_KEY", "env-key")
	t.Setenv("QBIT_PORT", "18080")
	t.Setenv(envPrefix+"LOG_LEVEL", "DEBUG")

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, "seed.local", cfg.Config.CrossSeedHost)
	assert.Equal(t, 2500, cfg.Config.CrossSeedPort)
	assert.Equal(t, "env-key", cfg.Config.CrossSeedAPIKey)
	assert.Equal(t, 18080, cfg.Config.QbitPort)
	assert.Equal(t, "DEBUG", cfg.Config.LogLevel)
}

func TestAPIKeyFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(""), 0o644))

	keyPath := filepath.Join(tmpDir, "apikey")
	require.NoError(t, os.WriteFile(keyPath, []byte("key-from-file\n"), 0o644))

	// _FILE wins over the plain variable
	t.Setenv("CROSS_SEED_API_KEY", "key-not-from-file")
	t.Setenv("CROSS_SEED_API_KEY_FILE", keyPath)

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, "key-from-file", cfg.Config.CrossSeedAPIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(cfg *domain.Config)
		wantErr    bool
		wantSetting string
	}{
		{
			name:   "valid",
			mutate: func(cfg *domain.Config) { cfg.CrossSeedAPIKey = "secret" },
		},
		{
			name:        "missing_api_key",
			mutate:      func(cfg *domain.Config) { cfg.CrossSeedAPIKey = "   " },
			wantErr:     true,
			wantSetting: "CROSS_SEED_API_KEY",
		},
		{
			name: "invalid_cross_seed_port",
			mutate: func(cfg *domain.Config) {
				cfg.CrossSeedAPIKey = "secret"
				cfg.CrossSeedPort = 0
			},
			wantErr:     true,
			wantSetting: "CROSS_SEED_PORT",
		},
		{
			name: "invalid_qbit_port",
			mutate: func(cfg *domain.Config) {
				cfg.CrossSeedAPIKey = "secret"
				cfg.QbitPort = 70000
			},
			wantErr:     true,
			wantSetting: "QBIT_PORT",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{Config: &domain.Config{
				CrossSeedPort: 2468,
				QbitPort:      8080,
			}}
			tt.mutate(cfg.Config)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)

			var configErr *domain.ConfigurationError
			require.True(t, errors.As(err, &configErr))
			assert.Equal(t, tt.wantSetting, configErr.Setting)
		})
	}
}

func TestConfigDirResolution(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		setupFile      bool
		fileIsDir      bool
		expectedSuffix string
	}{
		{
			name:           "toml_file_extension",
			input:          "/path/to/custom.toml",
			expectedSuffix: "custom.toml",
		},
		{
			name:           "TOML_file_extension_uppercase",
			input:          "/path/to/CONFIG.TOML",
			expectedSuffix: "CONFIG.TOML",
		},
		{
			name:           "directory_path",
			input:          "/path/to/config",
			expectedSuffix: "config.toml",
		},
		{
			name:           "existing_file_without_toml",
			input:          "/path/to/configfile",
			setupFile:      true,
			expectedSuffix: "configfile",
		},
		{
			name:           "existing_directory",
			input:          "/path/to/configdir",
			setupFile:      true,
			fileIsDir:      true,
			expectedSuffix: "config.toml",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			inputPath := filepath.Join(tmpDir, filepath.Base(tt.input))

			if tt.setupFile {
				if tt.fileIsDir {
					require.NoError(t, os.MkdirAll(inputPath, 0o755))
				} else {
					require.NoError(t, os.WriteFile(inputPath, []byte("test"), 0o644))
				}
			}

			c := &AppConfig{}
			result := c.resolveConfigPath(inputPath)
			assert.True(t, strings.HasSuffix(result, tt.expectedSuffix),
				"Expected result %s to end with %s", result, tt.expectedSuffix)
		})
	}
}
