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
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/tidwall/sjson"
	"github.com/xlab/treeprint"
	"gopkg.in/yaml.v3"
)

type OutputFormat int

const (
	FormatTable OutputFormat = iota
	FormatYaml
	FormatJson
)

type curveDocument struct {
	Profile string                    `yaml:"profile"`
	Fans    map[string]fancurve.Curve `yaml:"fans"`
}

func collectCurves(profile fancurve.Profile, target fancurve.Target) (map[fancurve.Fan]fancurve.Curve, error) {
	out := make(map[fancurve.Fan]fancurve.Curve)
	for _, fan := range target.Fans() {
		curve, err := fancurve.CurveFor(fan, profile)
		if err != nil {
			return nil, err
		}
		out[fan] = curve
	}
	return out, nil
}

func renderCurves(profile fancurve.Profile, target fancurve.Target, format OutputFormat) (string, error) {
	curves, err := collectCurves(profile, target)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatYaml:
		doc := curveDocument{Profile: string(profile), Fans: map[string]fancurve.Curve{}}
		for fan, curve := range curves {
			doc.Fans[fan.String()] = curve
		}
		data, err := yaml.Marshal(doc)
		if err != nil {
			return "", err
		}
		return string(data), nil

	case FormatJson:
		doc, err := sjson.Set("{}", "profile", string(profile))
		if err != nil {
			return "", err
		}
		for _, fan := range target.Fans() {
			if doc, err = sjson.Set(doc, "fans."+fan.String(), curves[fan]); err != nil {
				return "", err
			}
		}
		return doc + "\n", nil

	default:
		var sb strings.Builder
		header := []string{"POINT"}
		for _, fan := range target.Fans() {
			name := strings.ToUpper(fan.String())
			header = append(header, name+" TEMP", name+" PWM")
		}
		table := tablewriter.NewWriter(&sb)
		util.SetBorderlessTable(table)
		table.SetHeader(header)
		for i := 0; i < fancurve.PointCount; i++ {
			row := []string{strconv.Itoa(i + 1)}
			for _, fan := range target.Fans() {
				p := curves[fan][i]
				row = append(row, strconv.Itoa(p.Temp), strconv.Itoa(p.Duty))
			}
			table.Append(row)
		}
		table.Render()
		return sb.String(), nil
	}
}

func printProfileTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	util.SetBorderlessTable(table)
	table.SetHeader([]string{"PROFILE", "CPU MAX PWM", "GPU MAX PWM"})
	for _, profile := range fancurve.SupportedProfiles() {
		row := []string{string(profile)}
		for _, fan := range fancurve.TargetBoth.Fans() {
			curve, err := fancurve.CurveFor(fan, profile)
			if err != nil || len(curve) == 0 {
				row = append(row, "-")
				continue
			}
			last := curve[len(curve)-1]
			row = append(row, fmt.Sprintf("%d @ %d°C", last.Duty, last.Temp))
		}
		table.Append(row)
	}
	table.Render()
}

func profileTree() string {
	tree := treeprint.New()
	for _, profile := range fancurve.SupportedProfiles() {
		branch := tree.AddBranch(string(profile))
		for _, fan := range fancurve.TargetBoth.Fans() {
			curve, err := fancurve.CurveFor(fan, profile)
			if err != nil {
				continue
			}
			points := make([]string, 0, len(curve))
			for _, p := range curve {
				points = append(points, fmt.Sprintf("%d:%d", p.Temp, p.Duty))
			}
			branch.AddNode(fmt.Sprintf("%s  %s", fan, strings.Join(points, " ")))
		}
	}
	return tree.String()
}
