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

// Package fancurve applies built-in fan curves to the asus-nb-wmi
// custom fan curve hwmon device.
package fancurve

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"RogCtl/internal/sysfs"
)

// Values accepted by pwm<N>_enable.
const (
	ModeCustom    = "1"
	ModeAuto      = "2"
	ModeAutoReset = "3"
)

// Resolver locates the fan curve device. ok is false when there is none.
type Resolver interface {
	Resolve() (dir string, ok bool)
}

// HwmonResolver looks for a hwmon* directory under Root whose name
// attribute equals Name.
type HwmonResolver struct {
	FS   *sysfs.FS
	Root string
	Name string
}

func (r *HwmonResolver) Resolve() (string, bool) {
	dirs, err := r.FS.SubDirs(r.Root, "hwmon*")
	if err != nil {
		log.Debugf("Failed to list %s: %v", r.Root, err)
		return "", false
	}
	for _, dir := range dirs {
		name, err := r.FS.ReadAttr(filepath.Join(dir, "name"))
		if err != nil {
			continue
		}
		if name == r.Name {
			return dir, true
		}
	}
	return "", false
}

// Controller writes curves to a device resolved once at construction.
type Controller struct {
	device    string
	supported bool
	writer    sysfs.Writer
}

func NewController(resolver Resolver, writer sysfs.Writer) *Controller {
	c := &Controller{writer: writer}
	c.device, c.supported = resolver.Resolve()
	if c.supported {
		log.WithField("device", c.device).Debug("Found fan curve device")
	} else {
		log.Debug("No fan curve device found")
	}
	return c
}

func (c *Controller) IsDeviceSupported() bool {
	return c.supported
}

// DevicePath is empty when the device is unsupported.
func (c *Controller) DevicePath() string {
	return c.device
}

func (c *Controller) SupportedProfiles() []Profile {
	return SupportedProfiles()
}

// ApplyProfile writes the 8 curve points of every selected fan and then
// switches its channel to custom control. Nothing is written when the device
// is unsupported, the profile unknown or a curve invalid.
func (c *Controller) ApplyProfile(profile Profile, target Target) error {
	if !c.supported {
		return ErrUnsupportedDevice
	}
	if !IsSupported(profile) {
		return &UnknownProfileError{Name: string(profile)}
	}

	fans := target.Fans()
	plan := make(map[Fan]Curve, len(fans))
	for _, fan := range fans {
		curve, err := CurveFor(fan, profile)
		if err != nil {
			return err
		}
		if err := curve.Validate(); err != nil {
			return &InvalidCurveError{Fan: fan, Profile: profile, Reason: err.Error()}
		}
		plan[fan] = curve
	}

	for _, fan := range fans {
		if err := c.applyCurve(fan, plan[fan]); err != nil {
			return &ApplyError{Fan: fan, Err: err}
		}
		log.WithField("fan", fan.String()).Infof("Applied '%s' fan curve", profile)
	}
	return nil
}

// RestoreAuto hands the selected fans back to the firmware curves. With reset
// the firmware also restores its default custom curves.
func (c *Controller) RestoreAuto(target Target, reset bool) error {
	if !c.supported {
		return ErrUnsupportedDevice
	}

	mode := ModeAuto
	if reset {
		mode = ModeAutoReset
	}
	for _, fan := range target.Fans() {
		if err := c.writer.WriteAttr(c.enablePath(fan), mode); err != nil {
			return &ApplyError{Fan: fan, Err: err}
		}
		log.WithField("fan", fan.String()).Infof("Restored firmware fan control (mode %s)", mode)
	}
	return nil
}

func (c *Controller) applyCurve(fan Fan, curve Curve) error {
	for i, point := range curve {
		// The driver numbers auto points from 1.
		if err := c.writer.WriteAttr(c.pointPath(fan, i+1, "pwm"), fmt.Sprint(point.Duty)); err != nil {
			return err
		}
		if err := c.writer.WriteAttr(c.pointPath(fan, i+1, "temp"), fmt.Sprint(point.Temp)); err != nil {
			return err
		}
	}
	return c.writer.WriteAttr(c.enablePath(fan), ModeCustom)
}

func (c *Controller) pointPath(fan Fan, index int, kind string) string {
	return filepath.Join(c.device, fmt.Sprintf("pwm%d_auto_point%d_%s", fan.Channel(), index, kind))
}

func (c *Controller) enablePath(fan Fan) string {
	return filepath.Join(c.device, fmt.Sprintf("pwm%d_enable", fan.Channel()))
}
