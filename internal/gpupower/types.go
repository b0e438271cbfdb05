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

package gpupower

import "fmt"

type PowerState int

const (
	StateUnknown PowerState = iota
	StateActive
	StateSuspended
	StateDetached
)

func (s PowerState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Attached reports whether the device is present on the bus, in any
// known power state.
func (s PowerState) Attached() bool {
	return s == StateActive || s == StateSuspended
}

func stateFromPowerState(value string) PowerState {
	switch value {
	case "D0":
		return StateActive
	case "D3hot", "D3cold":
		return StateSuspended
	default:
		return StateUnknown
	}
}

// ProcessTerminator signals every process whose command line contains
// pattern.
type ProcessTerminator interface {
	TerminateMatching(pattern string) error
}

// ModuleUnloader removes kernel modules. Modules that are not loaded are
// not an error.
type ModuleUnloader interface {
	Unload(modules ...string) error
}

// DetachError means a PCI function could not be removed from the bus.
type DetachError struct {
	Address string
	Err     error
}

func (e *DetachError) Error() string {
	return fmt.Sprintf("failed to detach PCI device %s: %v", e.Address, e.Err)
}

func (e *DetachError) Unwrap() error {
	return e.Err
}

// AttachError means the PCI bus rescan failed.
type AttachError struct {
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("failed to rescan PCI bus: %v", e.Err)
}

func (e *AttachError) Unwrap() error {
	return e.Err
}
