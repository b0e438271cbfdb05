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

package fanctl

import (
	"RogCtl/internal/fancurve"
	"RogCtl/internal/sysfs"
	"RogCtl/internal/util"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	gConfig *util.Config
	// Replaced in tests.
	gNewController = newController
)

func initRuntime(cmd *cobra.Command) {
	gConfig = util.ParseConfig(FlagConfigFilePath, cmd.Flags().Changed("config"))

	level := gConfig.LogLevel
	if FlagDebugLevel != "" {
		level = FlagDebugLevel
	}
	util.InitLogger(level)
	util.SetLogFile(gConfig.LogFile, gConfig.LogMaxSizeMB, gConfig.LogMaxBackups, gConfig.LogMaxAgeDays)
	util.PrintConfig(gConfig)
}

func newController(cfg *util.Config) *fancurve.Controller {
	fs := sysfs.NewOs()
	resolver := &fancurve.HwmonResolver{
		FS:   fs,
		Root: cfg.Fan.HwmonRoot,
		Name: cfg.Fan.HwmonName,
	}
	return fancurve.NewController(resolver, fs)
}

// exitCode maps controller errors to process exit codes.
func exitCode(err error) util.CmdError {
	var unknownProfile *fancurve.UnknownProfileError
	var unknownFan *fancurve.UnknownFanError
	var writeErr *sysfs.WriteError

	switch {
	case err == nil:
		return util.ErrorSuccess
	case errors.Is(err, fancurve.ErrUnsupportedDevice):
		return util.ErrorUnsupportedDevice
	case errors.As(err, &unknownProfile):
		return util.ErrorUnknownProfile
	case errors.As(err, &unknownFan):
		return util.ErrorCmdArg
	case errors.As(err, &writeErr):
		return util.ErrorIO
	default:
		return util.ErrorGeneric
	}
}

func ApplyProfile(profile string, fan string) util.CmdError {
	target, err := fancurve.ParseTarget(fan)
	if err != nil {
		log.Errorln(err)
		return exitCode(err)
	}

	c := gNewController(gConfig)
	if c.IsDeviceSupported() {
		fmt.Printf("Found device at %s\n", c.DevicePath())
	}

	if err := c.ApplyProfile(fancurve.Profile(profile), target); err != nil {
		var unknown *fancurve.UnknownProfileError
		if errors.As(err, &unknown) {
			log.Errorf("%v. Supported profiles are: %v", err, profileNames())
		} else if errors.As(err, new(*sysfs.WriteError)) {
			log.Errorf("Failed to apply fan curves, make sure you have the required permissions: %v", err)
		} else {
			log.Errorln(err)
		}
		return exitCode(err)
	}

	fmt.Printf("Fan profile '%s' applied to %s fan(s).\n", profile, target)
	return util.ErrorSuccess
}

func RestoreAuto(fan string, reset bool) util.CmdError {
	target, err := fancurve.ParseTarget(fan)
	if err != nil {
		log.Errorln(err)
		return exitCode(err)
	}

	c := gNewController(gConfig)
	if err := c.RestoreAuto(target, reset); err != nil {
		log.Errorln(err)
		return exitCode(err)
	}

	if reset {
		fmt.Printf("Firmware fan control restored for %s fan(s), custom curves reset.\n", target)
	} else {
		fmt.Printf("Firmware fan control restored for %s fan(s).\n", target)
	}
	return util.ErrorSuccess
}

func ListProfiles(w io.Writer, tree bool) util.CmdError {
	if tree {
		fmt.Fprint(w, profileTree())
		return util.ErrorSuccess
	}
	printProfileTable(w)
	return util.ErrorSuccess
}

func ShowProfile(w io.Writer, profile string, fan string, format OutputFormat) util.CmdError {
	target, err := fancurve.ParseTarget(fan)
	if err != nil {
		log.Errorln(err)
		return exitCode(err)
	}

	out, err := renderCurves(fancurve.Profile(profile), target, format)
	if err != nil {
		log.Errorln(err)
		return exitCode(err)
	}
	fmt.Fprint(w, out)
	return util.ErrorSuccess
}
