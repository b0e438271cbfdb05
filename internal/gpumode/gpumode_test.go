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
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var testAddresses = []string{"0000:01:00.0", "0000:01:00.1", "0000:01:00.2", "0000:01:00.3"}

type nopTerminator struct{ calls int }

func (n *nopTerminator) TerminateMatching(string) error {
	n.calls++
	return nil
}

type nopUnloader struct{ calls int }

func (n *nopUnloader) Unload(...string) error {
	n.calls++
	return nil
}

type fakeBus struct {
	mem    afero.Fs
	rec    *sysfs.Recorder
	term   *nopTerminator
	unload *nopUnloader
}

// useFakeBus installs an in-memory PCI tree. An empty state leaves the GPU
// detached.
func useFakeBus(t *testing.T, state string) *fakeBus {
	t.Helper()

	bus := &fakeBus{mem: afero.NewMemMapFs(), term: &nopTerminator{}, unload: &nopUnloader{}}
	require.NoError(t, afero.WriteFile(bus.mem, "/pci/rescan", nil, 0o200))
	if state != "" {
		for _, address := range testAddresses {
			require.NoError(t, afero.WriteFile(bus.mem, "/pci/devices/"+address+"/remove", nil, 0o200))
		}
		require.NoError(t, afero.WriteFile(bus.mem, "/pci/devices/"+testAddresses[0]+"/power_state", []byte(state+"\n"), 0o444))
	}

	fs := sysfs.New(bus.mem)
	bus.rec = sysfs.NewRecorder(fs)

	prev := gNewController
	gNewController = func(*util.Config) *gpupower.Controller {
		opts := gpupower.Options{
			DevicesRoot:    "/pci/devices",
			RescanPath:     "/pci/rescan",
			Addresses:      testAddresses,
			Modules:        []string{"nvidia"},
			ProcessPattern: "nvidia",
		}
		return gpupower.NewController(opts, fs, bus.rec, bus.term, bus.unload)
	}
	t.Cleanup(func() { gNewController = prev })
	return bus
}

func TestPowerOff(t *testing.T) {
	bus := useFakeBus(t, "D0")

	require.Equal(t, util.ErrorSuccess, PowerOff(false))
	assert.Len(t, bus.rec.Writes(), len(testAddresses))
	assert.Equal(t, 1, bus.term.calls)
	assert.Equal(t, 1, bus.unload.calls)
}

func TestPowerOffAlreadyOff(t *testing.T) {
	bus := useFakeBus(t, "")

	assert.Equal(t, util.ErrorAlreadyInState, PowerOff(false))
	assert.Empty(t, bus.rec.Writes())
	assert.Zero(t, bus.term.calls)
}

func TestPowerOffForcedRemoveFails(t *testing.T) {
	bus := useFakeBus(t, "")

	assert.Equal(t, util.ErrorIO, PowerOff(true))
	assert.Equal(t, 1, bus.term.calls)
	assert.Empty(t, bus.rec.Writes())
}

func TestPowerOn(t *testing.T) {
	bus := useFakeBus(t, "")

	require.Equal(t, util.ErrorSuccess, PowerOn(false))
	assert.Equal(t, []sysfs.Write{{Path: "/pci/rescan", Value: "1"}}, bus.rec.Writes())
}

func TestPowerOnAlreadyOn(t *testing.T) {
	for _, state := range []string{"D0", "D3hot", "D3cold"} {
		bus := useFakeBus(t, state)
		assert.Equal(t, util.ErrorAlreadyInState, PowerOn(false), state)
		assert.Empty(t, bus.rec.Writes(), state)
	}

	bus := useFakeBus(t, "D3cold")
	require.Equal(t, util.ErrorSuccess, PowerOn(true))
	assert.Len(t, bus.rec.Writes(), 1)
}

func TestShowStatus(t *testing.T) {
	tests := []struct {
		state    string
		message  string
		name     string
		attached bool
	}{
		{state: "D0", message: "GPU active (ON)", name: "active", attached: true},
		{state: "D3cold", message: "GPU suspended (OFF)", name: "suspended", attached: true},
		{state: "", message: "GPU detached (OFF)", name: "detached", attached: false},
		{state: "D2", message: "GPU state unknown", name: "unknown", attached: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useFakeBus(t, tt.state)

			var text strings.Builder
			require.Equal(t, util.ErrorSuccess, ShowStatus(&text, false))
			assert.Equal(t, tt.message+"\n", text.String())

			var js strings.Builder
			require.Equal(t, util.ErrorSuccess, ShowStatus(&js, true))
			out := js.String()
			require.True(t, gjson.Valid(out), out)
			assert.Equal(t, tt.name, gjson.Get(out, "state").String())
			assert.Equal(t, tt.attached, gjson.Get(out, "attached").Bool())
			assert.Equal(t, tt.message, gjson.Get(out, "message").String())
		})
	}
}
