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

package util

type CmdError = int

// general
const (
	ErrorSuccess CmdError = 0
	ErrorGeneric CmdError = 1
	ErrorCmdArg  CmdError = 2
)

// fanctl
const (
	ErrorUnsupportedDevice CmdError = 3
	ErrorUnknownProfile    CmdError = 4
)

// shared by fanctl and gpumode
const (
	ErrorIO CmdError = 5
)

// gpumode
const (
	ErrorAlreadyInState CmdError = 6
)
