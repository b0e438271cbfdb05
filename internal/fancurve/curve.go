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

package fancurve

import (
	"fmt"
	"sort"
	"strings"
)

// PointCount is the number of auto points the asus-nb-wmi driver exposes
// per PWM channel.
const PointCount = 8

type Point struct {
	Temp int `yaml:"temp" json:"temp"`
	Duty int `yaml:"pwm" json:"pwm"`
}

type Curve []Point

type Profile string

const (
	ProfileSilent      Profile = "silent"
	ProfileBalanced    Profile = "balanced"
	ProfilePerformance Profile = "performance"
	ProfileMaxSpeed    Profile = "max_speed"
)

type Fan int

const (
	FanCPU Fan = iota
	FanGPU
)

func (f Fan) String() string {
	switch f {
	case FanCPU:
		return "cpu"
	case FanGPU:
		return "gpu"
	default:
		return fmt.Sprintf("fan(%d)", int(f))
	}
}

// Channel is the hwmon PWM channel driving the fan.
func (f Fan) Channel() int {
	return int(f) + 1
}

// Target selects the fans an operation touches.
type Target int

const (
	TargetCPU Target = iota
	TargetGPU
	TargetBoth
)

// Fans returns the selected fans, CPU first.
func (t Target) Fans() []Fan {
	switch t {
	case TargetCPU:
		return []Fan{FanCPU}
	case TargetGPU:
		return []Fan{FanGPU}
	default:
		return []Fan{FanCPU, FanGPU}
	}
}

func (t Target) String() string {
	switch t {
	case TargetCPU:
		return "cpu"
	case TargetGPU:
		return "gpu"
	default:
		return "all"
	}
}

func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu":
		return TargetCPU, nil
	case "gpu":
		return TargetGPU, nil
	case "all", "both", "":
		return TargetBoth, nil
	default:
		return TargetBoth, &UnknownFanError{Name: s}
	}
}

// Format: {temp °C, pwm 0-255}
var curves = map[Fan]map[Profile]Curve{
	FanCPU: {
		ProfileSilent:      {{30, 0}, {40, 10}, {50, 24}, {58, 36}, {66, 52}, {72, 68}, {78, 88}, {85, 105}},
		ProfileBalanced:    {{40, 12}, {47, 28}, {54, 45}, {61, 70}, {68, 95}, {74, 125}, {80, 155}, {85, 185}},
		ProfilePerformance: {{30, 18}, {47, 38}, {54, 60}, {61, 85}, {68, 115}, {74, 150}, {80, 185}, {85, 210}},
		ProfileMaxSpeed:    {{20, 255}, {30, 255}, {40, 255}, {50, 255}, {60, 255}, {70, 255}, {80, 255}, {90, 255}},
	},
	FanGPU: {
		ProfileSilent:      {{30, 0}, {40, 12}, {50, 28}, {58, 42}, {66, 60}, {72, 78}, {78, 92}, {85, 100}},
		ProfileBalanced:    {{40, 12}, {47, 32}, {54, 50}, {61, 78}, {68, 105}, {74, 138}, {80, 170}, {85, 200}},
		ProfilePerformance: {{30, 20}, {47, 44}, {54, 70}, {61, 98}, {68, 130}, {74, 165}, {80, 200}, {85, 230}},
		ProfileMaxSpeed:    {{20, 255}, {30, 255}, {40, 255}, {50, 255}, {60, 255}, {70, 255}, {80, 255}, {90, 255}},
	},
}

var profileOrder = []Profile{ProfileSilent, ProfileBalanced, ProfilePerformance, ProfileMaxSpeed}

// SupportedProfiles returns the profile names of the CPU table, from the
// quietest to the loudest.
func SupportedProfiles() []Profile {
	cpu := curves[FanCPU]
	profiles := make([]Profile, 0, len(cpu))
	for _, p := range profileOrder {
		if _, ok := cpu[p]; ok {
			profiles = append(profiles, p)
		}
	}
	// Anything not in the display order goes last, sorted.
	var rest []Profile
	for p := range cpu {
		if !containsProfile(profileOrder, p) {
			rest = append(rest, p)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(profiles, rest...)
}

func IsSupported(profile Profile) bool {
	_, ok := curves[FanCPU][profile]
	return ok
}

// CurveFor returns a copy of the built-in curve of a fan.
func CurveFor(fan Fan, profile Profile) (Curve, error) {
	if !IsSupported(profile) {
		return nil, &UnknownProfileError{Name: string(profile)}
	}
	curve, ok := curves[fan][profile]
	if !ok {
		return nil, &InvalidCurveError{Fan: fan, Profile: profile, Reason: "no curve defined"}
	}
	out := make(Curve, len(curve))
	copy(out, curve)
	return out, nil
}

// Validate checks the curve has PointCount points with strictly ascending
// temperatures and duties in 0..255.
func (c Curve) Validate() error {
	if len(c) != PointCount {
		return fmt.Errorf("expected %d points, got %d", PointCount, len(c))
	}
	for i, p := range c {
		if p.Duty < 0 || p.Duty > 255 {
			return fmt.Errorf("point %d: pwm %d out of range 0-255", i+1, p.Duty)
		}
		if i > 0 && p.Temp <= c[i-1].Temp {
			return fmt.Errorf("point %d: temperature %d is not above %d", i+1, p.Temp, c[i-1].Temp)
		}
	}
	return nil
}

// ValidateTables checks every built-in curve.
func ValidateTables() error {
	for _, fan := range TargetBoth.Fans() {
		for _, profile := range SupportedProfiles() {
			curve, err := CurveFor(fan, profile)
			if err != nil {
				return err
			}
			if err := curve.Validate(); err != nil {
				return &InvalidCurveError{Fan: fan, Profile: profile, Reason: err.Error()}
			}
		}
	}
	return nil
}

func containsProfile(list []Profile, p Profile) bool {
	for _, item := range list {
		if item == p {
			return true
		}
	}
	return false
}
