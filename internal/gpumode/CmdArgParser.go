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
	"RogCtl/internal/util"
	"os"

	"github.com/spf13/cobra"
)

var (
	FlagConfigFilePath string
	FlagDebugLevel     string
	FlagForce          bool
	FlagJson           bool

	RootCmd = &cobra.Command{
		Use:     "gpumode [on|off|status]",
		Short:   "Switch the discrete GPU on or off",
		Long:    "Switch a muxless NVIDIA GPU on or off by detaching it from and rescanning the PCI bus.",
		Version: util.Version(),
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initRuntime(cmd)
		},
	}

	OnCmd = &cobra.Command{
		Use:   "on",
		Short: "Reattach the GPU by rescanning the PCI bus",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(PowerOn(FlagForce))
		},
	}

	OffCmd = &cobra.Command{
		Use:   "off",
		Short: "Stop GPU users, unload the driver and remove the GPU from the PCI bus",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(PowerOff(FlagForce))
		},
	}

	StatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the GPU power state",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(ShowStatus(os.Stdout, FlagJson))
		},
	}
)

func ParseCmdArgs() {
	RootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := RootCmd.Execute(); err != nil {
		os.Exit(util.ErrorGeneric)
	}
}

func init() {
	RootCmd.SetVersionTemplate(util.VersionTemplate())
	RootCmd.PersistentFlags().StringVarP(&FlagConfigFilePath, "config", "C",
		util.DefaultConfigPath, "Path to configuration file")
	RootCmd.PersistentFlags().StringVarP(&FlagDebugLevel, "debug-level", "", "",
		"Available debug level: trace, debug, info, warn, error")

	RootCmd.AddCommand(OnCmd)
	{
		OnCmd.Flags().BoolVarP(&FlagForce, "force", "f", false, "Rescan even if the GPU is already attached")
	}
	RootCmd.AddCommand(OffCmd)
	{
		OffCmd.Flags().BoolVarP(&FlagForce, "force", "f", false, "Detach even if the GPU looks detached")
	}
	RootCmd.AddCommand(StatusCmd)
	{
		StatusCmd.Flags().BoolVar(&FlagJson, "json", false, "Output in JSON format")
	}
}
