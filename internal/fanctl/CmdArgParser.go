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
	"RogCtl/internal/util"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	FlagConfigFilePath string
	FlagDebugLevel     string
	FlagFan            string
	FlagReset          bool
	FlagTree           bool
	FlagYaml           bool
	FlagJson           bool

	RootCmd = &cobra.Command{
		Use:     "fanctl [profile]",
		Short:   "Apply built-in fan curves on ASUS laptops",
		Long:    "Apply built-in fan curves through the asus-nb-wmi custom fan curve hwmon device.\nProfiles: " + strings.Join(profileNames(), ", "),
		Version: util.Version(),
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initRuntime(cmd)
		},
		ValidArgs: profileNames(),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				_ = cmd.Help()
				os.Exit(util.ErrorCmdArg)
			}
			os.Exit(ApplyProfile(args[0], fancurve.TargetBoth.String()))
		},
	}

	ApplyCmd = &cobra.Command{
		Use:       "apply <profile>",
		Short:     "Apply a fan profile",
		Args:      cobra.ExactArgs(1),
		ValidArgs: profileNames(),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(ApplyProfile(args[0], FlagFan))
		},
	}

	AutoCmd = &cobra.Command{
		Use:   "auto",
		Short: "Hand fan control back to the firmware curves",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(RestoreAuto(FlagFan, FlagReset))
		},
	}

	ListCmd = &cobra.Command{
		Use:   "list",
		Short: "List supported fan profiles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(ListProfiles(os.Stdout, FlagTree))
		},
	}

	ShowCmd = &cobra.Command{
		Use:       "show <profile>",
		Short:     "Print the curve points of a fan profile",
		Args:      cobra.ExactArgs(1),
		ValidArgs: profileNames(),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if FlagYaml && FlagJson {
				return fmt.Errorf("--yaml and --json are mutually exclusive")
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			format := FormatTable
			if FlagYaml {
				format = FormatYaml
			} else if FlagJson {
				format = FormatJson
			}
			os.Exit(ShowProfile(os.Stdout, args[0], FlagFan, format))
		},
	}
)

func profileNames() []string {
	var names []string
	for _, p := range fancurve.SupportedProfiles() {
		names = append(names, string(p))
	}
	return names
}

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

	fanUsage := "Fan to act on: cpu, gpu or all"

	RootCmd.AddCommand(ApplyCmd)
	{
		ApplyCmd.Flags().StringVarP(&FlagFan, "fan", "f", "all", fanUsage)
	}
	RootCmd.AddCommand(AutoCmd)
	{
		AutoCmd.Flags().StringVarP(&FlagFan, "fan", "f", "all", fanUsage)
		AutoCmd.Flags().BoolVarP(&FlagReset, "reset", "r", false,
			"Also reset the custom curves to the firmware defaults")
	}
	RootCmd.AddCommand(ListCmd)
	{
		ListCmd.Flags().BoolVarP(&FlagTree, "tree", "t", false, "Print profiles and curves as a tree")
	}
	RootCmd.AddCommand(ShowCmd)
	{
		ShowCmd.Flags().StringVarP(&FlagFan, "fan", "f", "all", fanUsage)
		ShowCmd.Flags().BoolVar(&FlagYaml, "yaml", false, "Output in YAML format")
		ShowCmd.Flags().BoolVar(&FlagJson, "json", false, "Output in JSON format")
	}
}
