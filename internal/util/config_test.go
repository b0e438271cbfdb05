/**
 * Copyright (c) 2024 Peking University and Peking University
 * Changsha Institute for Computing and Digital Economy
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/sys/devices/platform/asus-nb-wmi/hwmon", cfg.Fan.HwmonRoot)
	assert.Equal(t, "asus_custom_fan_curve", cfg.Fan.HwmonName)
	assert.Equal(t, "/sys/bus/pci/devices", cfg.Gpu.PciDevicesRoot)
	assert.Equal(t, "/sys/bus/pci/rescan", cfg.Gpu.PciRescanPath)
	assert.Equal(t, []string{"0000:01:00.0", "0000:01:00.1", "0000:01:00.2", "0000:01:00.3"}, cfg.Gpu.Addresses)
	assert.Equal(t, []string{"nvidia_drm", "nvidia_modeset", "nvidia_uvm", "nvidia", "i2c_nvidia_gpu"}, cfg.Gpu.Modules)
	assert.Equal(t, "nvidia", cfg.Gpu.ProcessPattern)
	assert.True(t, cfg.Gpu.UseSudo)
	assert.Equal(t, BackendExec, cfg.Gpu.Backend)
}

func TestLoadConfigRequiredMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	require.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
fan:
  hwmon_root: /tmp/hwmon
gpu:
  backend: native
  use_sudo: false
  addresses:
    - "0000:02:00.0"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/hwmon", cfg.Fan.HwmonRoot)
	assert.Equal(t, "asus_custom_fan_curve", cfg.Fan.HwmonName)
	assert.Equal(t, BackendNative, cfg.Gpu.Backend)
	assert.False(t, cfg.Gpu.UseSudo)
	assert.Equal(t, []string{"0000:02:00.0"}, cfg.Gpu.Addresses)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad log level", content: "log_level: loud\n"},
		{name: "bad backend", content: "gpu:\n  backend: ssh\n"},
		{name: "empty hwmon name", content: "fan:\n  hwmon_name: \"\"\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path, true)
			assert.Error(t, err)
		})
	}
}

func TestCheckLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error", "INFO"} {
		assert.NoError(t, CheckLogLevel(level), level)
	}
	assert.Error(t, CheckLogLevel("verbose"))
}
