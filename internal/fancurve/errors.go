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
	"errors"
	"fmt"
)

// ErrUnsupportedDevice means no asus_custom_fan_curve hwmon device was found.
var ErrUnsupportedDevice = errors.New("the current device is not supported: no custom fan curve hwmon device found")

type UnknownProfileError struct {
	Name string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("fan profile '%s' is not supported", e.Name)
}

type UnknownFanError struct {
	Name string
}

func (e *UnknownFanError) Error() string {
	return fmt.Sprintf("unknown fan '%s', expected cpu, gpu or all", e.Name)
}

type InvalidCurveError struct {
	Fan     Fan
	Profile Profile
	Reason  string
}

func (e *InvalidCurveError) Error() string {
	return fmt.Sprintf("invalid %s curve for profile '%s': %s", e.Fan, e.Profile, e.Reason)
}

// ApplyError wraps the write failure that aborted a fan. Points written
// before the failure are left in place.
type ApplyError struct {
	Fan Fan
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply %s fan curve: %v", e.Fan, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
