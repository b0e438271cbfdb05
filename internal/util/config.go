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
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`

	Fan FanConfig `mapstructure:"fan"`
	Gpu GpuConfig `mapstructure:"gpu"`
}

type FanConfig struct {
	HwmonRoot string `mapstructure:"hwmon_root"`
	HwmonName string `mapstructure:"hwmon_name"`
}

type GpuConfig struct {
	PciDevicesRoot string   `mapstructure:"pci_devices_root"`
	PciRescanPath  string   `mapstructure:"pci_rescan_path"`
	Addresses      []string `mapstructure:"addresses"`
	Modules        []string `mapstructure:"modules"`
	ProcessPattern string   `mapstructure:"process_pattern"`
	UseSudo        bool     `mapstructure:"use_sudo"`
	Backend        string   `mapstructure:"backend"`
}

const (
	BackendExec   = "exec"
	BackendNative = "native"
)

func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 30)

	v.SetDefault("fan.hwmon_root", DefaultHwmonRoot)
	v.SetDefault("fan.hwmon_name", DefaultHwmonName)

	v.SetDefault("gpu.pci_devices_root", DefaultPciDevicesRoot)
	v.SetDefault("gpu.pci_rescan_path", DefaultPciRescanPath)
	// GPU, audio, USB host and USB-C functions of the same card.
	v.SetDefault("gpu.addresses", []string{
		"0000:01:00.0", "0000:01:00.1", "0000:01:00.2", "0000:01:00.3",
	})
	v.SetDefault("gpu.modules", []string{
		"nvidia_drm", "nvidia_modeset", "nvidia_uvm", "nvidia", "i2c_nvidia_gpu",
	})
	v.SetDefault("gpu.process_pattern", "nvidia")
	v.SetDefault("gpu.use_sudo", true)
	v.SetDefault("gpu.backend", BackendExec)
}

// LoadConfig reads the config file at path on top of the built-in defaults.
// A missing file is only an error when required is set.
func LoadConfig(path string, required bool) (*Config, error) {
	v := viper.New()
	setDefaultConfig(v)
	v.SetEnvPrefix("ROGCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil || required {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseConfig loads the config or exits the process.
func ParseConfig(path string, required bool) *Config {
	config, err := LoadConfig(path, required)
	if err != nil {
		log.Errorf("Failed to load config: %v", err)
		os.Exit(ErrorCmdArg)
	}
	return config
}

func validateConfig(cfg *Config) error {
	if err := CheckLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.Fan.HwmonRoot == "" {
		return errors.New("fan.hwmon_root cannot be empty")
	}
	if cfg.Fan.HwmonName == "" {
		return errors.New("fan.hwmon_name cannot be empty")
	}
	if cfg.Gpu.PciDevicesRoot == "" || cfg.Gpu.PciRescanPath == "" {
		return errors.New("gpu.pci_devices_root and gpu.pci_rescan_path cannot be empty")
	}
	if len(cfg.Gpu.Addresses) == 0 {
		return errors.New("gpu.addresses must list at least the GPU function")
	}
	if cfg.Gpu.ProcessPattern == "" {
		return errors.New("gpu.process_pattern cannot be empty")
	}
	switch cfg.Gpu.Backend {
	case BackendExec, BackendNative:
	default:
		return fmt.Errorf("unsupported gpu.backend: %s", cfg.Gpu.Backend)
	}
	return nil
}

func PrintConfig(cfg *Config) {
	log.Debug("Effective configuration:")
	log.Debugf("  LogLevel: %s", cfg.LogLevel)
	log.Debugf("  LogFile: %s", cfg.LogFile)
	log.Debugf("  Fan.HwmonRoot: %s", cfg.Fan.HwmonRoot)
	log.Debugf("  Fan.HwmonName: %s", cfg.Fan.HwmonName)
	log.Debugf("  Gpu.PciDevicesRoot: %s", cfg.Gpu.PciDevicesRoot)
	log.Debugf("  Gpu.PciRescanPath: %s", cfg.Gpu.PciRescanPath)
	log.Debugf("  Gpu.Addresses: %v", cfg.Gpu.Addresses)
	log.Debugf("  Gpu.Modules: %v", cfg.Gpu.Modules)
	log.Debugf("  Gpu.ProcessPattern: %s", cfg.Gpu.ProcessPattern)
	log.Debugf("  Gpu.UseSudo: %t", cfg.Gpu.UseSudo)
	log.Debugf("  Gpu.Backend: %s", cfg.Gpu.Backend)
}
