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

package gpumode

import (
	"RogCtl/internal/gpupower"
	"RogCtl/internal/sysfs"
	"RogCtl/internal/util"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
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

func newController(cfg *util.Config) *gpupower.Controller {
	opts := gpupower.Options{
		DevicesRoot:    cfg.Gpu.PciDevicesRoot,
		RescanPath:     cfg.Gpu.PciRescanPath,
		Addresses:      cfg.Gpu.Addresses,
		Modules:        cfg.Gpu.Modules,
		ProcessPattern: cfg.Gpu.ProcessPattern,
	}

	var terminator gpupower.ProcessTerminator
	var unloader gpupower.ModuleUnloader
	switch cfg.Gpu.Backend {
	case util.BackendNative:
		terminator = gpupower.NativeTerminator{}
		unloader = gpupower.NativeUnloader{}
	default:
		runner := gpupower.ExecRunner{}
		terminator = &gpupower.ExecTerminator{Runner: runner, UseSudo: cfg.Gpu.UseSudo}
		unloader = &gpupower.ExecUnloader{Runner: runner, UseSudo: cfg.Gpu.UseSudo}
	}

	return gpupower.NewController(opts, sysfs.NewOs(), nil, terminator, unloader)
}

func PowerOn(force bool) util.CmdError {
	c := gNewController(gConfig)
	if !force && c.IsAttached() {
		log.Errorf("GPU is already ON")
		return util.ErrorAlreadyInState
	}

	if err := c.PowerOn(); err != nil {
		log.Errorf("%v. Make sure you have write permission on the PCI rescan file", err)
		return util.ErrorIO
	}
	fmt.Println("GPU powered ON")
	return util.ErrorSuccess
}

func PowerOff(force bool) util.CmdError {
	c := gNewController(gConfig)
	if !force && !c.IsAttached() {
		log.Errorf("GPU is already OFF")
		return util.ErrorAlreadyInState
	}

	if err := c.PowerOff(); err != nil {
		log.Errorf("%v. Make sure you have write permission on the PCI remove files", err)
		return util.ErrorIO
	}
	fmt.Println("GPU powered OFF")
	return util.ErrorSuccess
}

func statusMessage(state gpupower.PowerState) string {
	switch state {
	case gpupower.StateActive:
		return "GPU active (ON)"
	case gpupower.StateSuspended:
		return "GPU suspended (OFF)"
	case gpupower.StateDetached:
		return "GPU detached (OFF)"
	default:
		return "GPU state unknown"
	}
}

func ShowStatus(w io.Writer, jsonOutput bool) util.CmdError {
	c := gNewController(gConfig)
	state := c.State()

	if !jsonOutput {
		fmt.Fprintln(w, statusMessage(state))
		return util.ErrorSuccess
	}

	out := "{}"
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"state", state.String()},
		{"attached", state.Attached()},
		{"message", statusMessage(state)},
	} {
		if out, err = sjson.Set(out, kv.path, kv.value); err != nil {
			log.Errorf("Failed to encode status: %v", err)
			return util.ErrorGeneric
		}
	}
	fmt.Fprintln(w, out)
	return util.ErrorSuccess
}
