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

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type fakeRunner struct {
	commands [][]string
	output   []byte
	err      error
}

func (f *fakeRunner) Run(name string, args ...string) ([]byte, error) {
	f.commands = append(f.commands, append([]string{name}, args...))
	return f.output, f.err
}

func expectPrivileged(useSudo bool, cmd ...string) []string {
	if useSudo && unix.Geteuid() != 0 {
		return append([]string{"sudo"}, cmd...)
	}
	return cmd
}

func TestExecTerminator(t *testing.T) {
	t.Parallel()

	for _, useSudo := range []bool{true, false} {
		runner := &fakeRunner{}
		term := &ExecTerminator{Runner: runner, UseSudo: useSudo}

		require.NoError(t, term.TerminateMatching("nvidia"))
		assert.Equal(t, [][]string{expectPrivileged(useSudo, "pkill", "-f", "nvidia")}, runner.commands)
	}
}

func TestExecTerminatorFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("exit status 2"), output: []byte("pkill: bad pattern\n")}
	term := &ExecTerminator{Runner: runner}

	err := term.TerminateMatching("nvidia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pkill: bad pattern")
}

func TestExecTerminatorNoMatch(t *testing.T) {
	t.Parallel()

	// `false` exits with status 1, the same as pkill without a match.
	_, err := exec.Command("false").CombinedOutput()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Skip("false is not available")
	}
	term := &ExecTerminator{Runner: &fakeRunner{err: err}}
	assert.NoError(t, term.TerminateMatching("nvidia"))
}

func TestExecUnloader(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	unload := &ExecUnloader{Runner: runner, UseSudo: true}

	require.NoError(t, unload.Unload("nvidia_drm", "nvidia"))
	assert.Equal(t, [][]string{expectPrivileged(true, "modprobe", "-r", "nvidia_drm", "nvidia")}, runner.commands)

	runner.commands = nil
	require.NoError(t, unload.Unload())
	assert.Empty(t, runner.commands)
}

func TestExecUnloaderFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("exit status 1"), output: []byte("modprobe: FATAL: Module nvidia is in use.\n")}
	unload := &ExecUnloader{Runner: runner}

	err := unload.Unload("nvidia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Module nvidia is in use")
}

func TestPowerStateStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "suspended", StateSuspended.String())
	assert.Equal(t, "detached", StateDetached.String())
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.True(t, StateActive.Attached())
	assert.True(t, StateSuspended.Attached())
	assert.False(t, StateDetached.Attached())
	assert.False(t, StateUnknown.Attached())
}
