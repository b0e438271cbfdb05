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

// Package gpupower switches a muxless discrete GPU on and off by removing
// its PCI functions from the bus and rescanning the bus.
package gpupower

import (
	"RogCtl/internal/sysfs"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

type Options struct {
	DevicesRoot string
	RescanPath  string
	// Addresses lists the PCI functions of the card, GPU function first.
	// They are removed in this order.
	Addresses      []string
	Modules        []string
	ProcessPattern string
}

// Controller reads the power state fresh on every query; it keeps no
// state between calls.
type Controller struct {
	opts       Options
	fs         sysfs.Reader
	writer     sysfs.Writer
	exists     func(path string) bool
	terminator ProcessTerminator
	unloader   ModuleUnloader
}

func NewController(opts Options, fs *sysfs.FS, writer sysfs.Writer,
	terminator ProcessTerminator, unloader ModuleUnloader) *Controller {
	if writer == nil {
		writer = fs
	}
	return &Controller{
		opts:       opts,
		fs:         fs,
		writer:     writer,
		exists:     fs.Exists,
		terminator: terminator,
		unloader:   unloader,
	}
}

func (c *Controller) gpuAddress() string {
	if len(c.opts.Addresses) == 0 {
		return ""
	}
	return c.opts.Addresses[0]
}

func (c *Controller) devicePath(address string) string {
	return filepath.Join(c.opts.DevicesRoot, address)
}

// State reports the GPU function's power state. A device directory that is
// missing means the card was removed; a present device with an unreadable
// or unrecognised power_state is StateUnknown.
func (c *Controller) State() PowerState {
	dir := c.devicePath(c.gpuAddress())
	if !c.exists(dir) {
		return StateDetached
	}
	value, err := c.fs.ReadAttr(filepath.Join(dir, "power_state"))
	if err != nil {
		log.WithField("address", c.gpuAddress()).Debugf("Failed to read power_state: %v", err)
		return StateUnknown
	}
	return stateFromPowerState(value)
}

// IsAttached is true only when power_state reads D0, D3hot or D3cold.
func (c *Controller) IsAttached() bool {
	return c.State().Attached()
}

// PowerOff stops GPU users, unloads the driver and removes every PCI
// function. Only a failed remove write is returned; the preceding steps are
// best effort.
func (c *Controller) PowerOff() error {
	log.Info("Powering OFF the GPU...")

	log.Info("Killing processes using the GPU...")
	if err := c.terminator.TerminateMatching(c.opts.ProcessPattern); err != nil {
		log.Warnf("Failed to kill processes matching '%s': %v", c.opts.ProcessPattern, err)
	}

	log.Info("Unloading GPU kernel modules...")
	if err := c.unloader.Unload(c.opts.Modules...); err != nil {
		log.Warnf("Failed to unload kernel modules: %v", err)
	}

	log.Info("Detaching GPU devices from PCI bus...")
	for _, address := range c.opts.Addresses {
		path := filepath.Join(c.devicePath(address), "remove")
		if err := c.writer.WriteAttr(path, "1"); err != nil {
			return &DetachError{Address: address, Err: err}
		}
		log.WithField("address", address).Debug("Removed PCI device")
	}

	log.Info("GPU powered OFF")
	return nil
}

// PowerOn rescans the PCI bus. The kernel rebinds the driver on its own.
func (c *Controller) PowerOn() error {
	log.Info("Powering ON the GPU...")
	if err := c.writer.WriteAttr(c.opts.RescanPath, "1"); err != nil {
		return &AttachError{Err: err}
	}
	c.LoadModules()
	log.Info("GPU powered ON")
	return nil
}

// LoadModules does nothing: the modules come back with the device after a
// rescan.
func (c *Controller) LoadModules() {
	log.Debug("Skipping explicit module load, relying on kernel auto-binding")
}
