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
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// privileged prefixes the command with sudo unless told otherwise or
// already running as root.
func privileged(useSudo bool, name string, args ...string) (string, []string) {
	if !useSudo || unix.Geteuid() == 0 {
		return name, args
	}
	return "sudo", append([]string{name}, args...)
}

// ExecTerminator runs pkill -f. Requires a NOPASSWD sudoers entry when
// UseSudo is set.
type ExecTerminator struct {
	Runner  CommandRunner
	UseSudo bool
}

func (t *ExecTerminator) TerminateMatching(pattern string) error {
	name, args := privileged(t.UseSudo, "pkill", "-f", pattern)
	log.Debugf("Running %s %s", name, strings.Join(args, " "))

	output, err := t.Runner.Run(name, args...)
	if err != nil {
		// pkill exits 1 when nothing matched.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil
		}
		return fmt.Errorf("pkill -f %s failed: %v, output: %s", pattern, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExecUnloader runs modprobe -r with every module in one call.
type ExecUnloader struct {
	Runner  CommandRunner
	UseSudo bool
}

func (u *ExecUnloader) Unload(modules ...string) error {
	if len(modules) == 0 {
		return nil
	}
	name, args := privileged(u.UseSudo, "modprobe", append([]string{"-r"}, modules...)...)
	log.Debugf("Running %s %s", name, strings.Join(args, " "))

	output, err := u.Runner.Run(name, args...)
	if err != nil {
		return fmt.Errorf("modprobe -r %s failed: %v, output: %s",
			strings.Join(modules, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
