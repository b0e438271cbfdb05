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
	"fmt"
	"io"
	"os"
	"strings"

	nested "github.com/antonfisher/nested-logrus-formatter"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	DefaultConfigPath     string
	DefaultHwmonRoot      string
	DefaultHwmonName      string
	DefaultPciDevicesRoot string
	DefaultPciRescanPath  string
)

func init() {
	DefaultConfigPath = "/etc/rogctl/config.yaml"
	DefaultHwmonRoot = "/sys/devices/platform/asus-nb-wmi/hwmon"
	DefaultHwmonName = "asus_custom_fan_curve"
	DefaultPciDevicesRoot = "/sys/bus/pci/devices"
	DefaultPciRescanPath = "/sys/bus/pci/rescan"
}

func CheckLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
}

// InitLogger sets the level and formatter of the standard logrus logger.
// An unknown level falls back to info.
func InitLogger(level string) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil || CheckLogLevel(level) != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetReportCaller(lvl >= log.DebugLevel)
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		NoColors:        !term.IsTerminal(int(os.Stderr.Fd())),
		TimestampFormat: "2006-01-02 15:04:05",
		FieldsOrder:     []string{"device", "fan", "address"},
	})
}

// SetLogFile duplicates log output into a rotated file.
func SetLogFile(path string, maxSizeMB, maxBackups, maxAgeDays int) {
	if path == "" {
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
}
