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
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
	"github.com/u-root/u-root/pkg/kmodule"
	"golang.org/x/sys/unix"
)

// NativeTerminator sends SIGTERM to matching processes without spawning
// pkill. Needs enough privilege to signal them.
type NativeTerminator struct{}

func (NativeTerminator) TerminateMatching(pattern string) error {
	procs, err := process.Processes()
	if err != nil {
		return fmt.Errorf("failed to list processes: %w", err)
	}

	self := int32(os.Getpid())
	var errs []error
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		cmdline, err := p.Cmdline()
		if err != nil || !strings.Contains(cmdline, pattern) {
			continue
		}
		log.Debugf("Terminating process %d (%s)", p.Pid, cmdline)
		if err := p.Terminate(); err != nil && !errors.Is(err, unix.ESRCH) {
			errs = append(errs, fmt.Errorf("pid %d: %w", p.Pid, err))
		}
	}
	return errors.Join(errs...)
}

// NativeUnloader removes modules with the delete_module syscall, in the
// given order so dependants go first.
type NativeUnloader struct{}

func (NativeUnloader) Unload(modules ...string) error {
	var errs []error
	for _, name := range modules {
		err := kmodule.Delete(name, unix.O_NONBLOCK)
		switch {
		case err == nil:
			log.Debugf("Removed kernel module %s", name)
		case errors.Is(err, unix.ENOENT):
			log.Tracef("Kernel module %s is not loaded", name)
		default:
			errs = append(errs, fmt.Errorf("module %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
