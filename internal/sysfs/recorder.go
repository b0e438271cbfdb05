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

package sysfs

type Write struct {
	Path  string
	Value string
}

// Recorder forwards writes to another Writer and keeps the ones that
// succeeded, in order.
type Recorder struct {
	next   Writer
	writes []Write
}

func NewRecorder(next Writer) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) WriteAttr(path, value string) error {
	if err := r.next.WriteAttr(path, value); err != nil {
		return err
	}
	r.writes = append(r.writes, Write{Path: path, Value: value})
	return nil
}

func (r *Recorder) Writes() []Write {
	out := make([]Write, len(r.writes))
	copy(out, r.writes)
	return out
}

func (r *Recorder) Reset() {
	r.writes = nil
}
