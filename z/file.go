/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package z

import (
	"os"

	"github.com/pkg/errors"
)

// MmapFile represents a read-only mapped file and includes both the buffer to
// the data and the file descriptor.
type MmapFile struct {
	Data []byte
	Fd   *os.File
}

// OpenMmapFile opens filename and maps its full contents read-only. Empty
// files are opened without a mapping.
func OpenMmapFile(filename string) (*MmapFile, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open: %s", filename)
	}
	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, errors.Wrapf(err, "cannot stat file: %s", filename)
	}
	mf := &MmapFile{Fd: fd}
	if fi.Size() == 0 {
		return mf, nil
	}
	mf.Data, err = mmap(fd, fi.Size())
	if err != nil {
		fd.Close()
		return nil, errors.Wrapf(err, "while mmapping %s with size: %d", fd.Name(), fi.Size())
	}
	// Advice is best effort, a failure does not affect correctness.
	_ = madvise(mf.Data)
	return mf, nil
}

// Close unmaps the data and closes the file descriptor.
func (m *MmapFile) Close() error {
	if err := munmap(m.Data); err != nil {
		return errors.Wrapf(err, "while munmap file %s", m.Fd.Name())
	}
	m.Data = nil
	if err := m.Fd.Close(); err != nil {
		return errors.Wrapf(err, "while closing file %s", m.Fd.Name())
	}
	return nil
}
