/*
 * Copyright 2024 Dgraph Labs, Inc. and Contributors
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

package trace

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/dgraph-io/cachesim/z"
)

// The binary encoding starts with a header of the key width followed by the
// key type ('Q' for uint64 words, 's' for raw bytes). Each record is then
// timestamp, size and key, little endian.
const (
	headerLen   = 9
	keyTypeUint = 'Q'
	keyTypeStr  = 's'
)

// Binary is a Source over a binary trace held in memory, usually a read-only
// mapping of the trace file.
type Binary struct {
	counter
	data    []byte
	off     int
	keySize int
	keyType byte
	recLen  int
	file    *z.MmapFile
}

// NewBinary parses the header of data and returns a Source over its records.
func NewBinary(name string, data []byte) (*Binary, error) {
	if len(data) < headerLen {
		return nil, errors.Errorf("trace %s: header too short", name)
	}
	keySize := binary.LittleEndian.Uint64(data[:8])
	keyType := data[8]
	if keySize == 0 {
		return nil, errors.Errorf("trace %s: key size must be positive", name)
	}
	// A key wider than the whole trace means a corrupt header.
	width := uint64(len(data))
	switch keyType {
	case keyTypeUint:
		width /= 8
	case keyTypeStr:
	default:
		return nil, errors.Errorf("trace %s: unknown key type %q", name, keyType)
	}
	if keySize > width {
		return nil, errors.Errorf("trace %s: key size %d exceeds trace length %d",
			name, keySize, len(data))
	}
	b := &Binary{
		counter: counter{name: name},
		data:    data,
		off:     headerLen,
		keySize: int(keySize),
		keyType: keyType,
	}
	b.recLen = 16 + b.keySize
	if keyType == keyTypeUint {
		b.recLen = 16 + 8*b.keySize
	}
	return b, nil
}

// OpenBinary maps the trace file at path and reads it as a binary trace.
func OpenBinary(path string) (*Binary, error) {
	mf, err := z.OpenMmapFile(path)
	if err != nil {
		return nil, err
	}
	b, err := NewBinary(NameFromPath(path), mf.Data)
	if err != nil {
		mf.Close()
		return nil, err
	}
	b.file = mf
	return b, nil
}

// Next decodes the next record. A truncated trailing record ends the stream.
func (b *Binary) Next() (Request, error) {
	if b.off+b.recLen > len(b.data) {
		return Request{}, ErrDone
	}
	rec := b.data[b.off : b.off+b.recLen]
	b.off += b.recLen

	req := Request{
		Timestamp: binary.LittleEndian.Uint64(rec[0:8]),
		Size:      binary.LittleEndian.Uint64(rec[8:16]),
	}
	key := rec[16:]
	switch {
	case b.keyType == keyTypeUint && b.keySize == 1:
		req.Key = binary.LittleEndian.Uint64(key)
	case b.keyType == keyTypeUint:
		req.Key, _ = z.KeyToHash(key)
	default:
		key = bytes.TrimRight(key, "\x00")
		if k, err := strconv.ParseUint(string(key), 10, 64); err == nil {
			req.Key = k
		} else {
			req.Key, _ = z.KeyToHash(key)
		}
	}
	if req.Size == 0 {
		return Request{}, errors.Errorf("trace %s: record %d has zero size", b.name, b.count)
	}
	return b.emit(req), nil
}

// Close releases the mapping, if any.
func (b *Binary) Close() error {
	if b.file == nil {
		return nil
	}
	return b.file.Close()
}

// Convert reads a text trace from r and writes it to w in the binary
// encoding with single word integer keys. It returns the number of records
// written.
func Convert(r io.Reader, w io.Writer) (uint64, error) {
	src := NewReader("convert", ParseText, r)
	bw := bufio.NewWriter(w)

	var hdr [headerLen]byte
	binary.LittleEndian.PutUint64(hdr[:8], 1)
	hdr[8] = keyTypeUint
	if _, err := bw.Write(hdr[:]); err != nil {
		return 0, errors.Wrap(err, "while writing header")
	}

	var rec [24]byte
	for {
		req, err := src.Next()
		if err == ErrDone {
			break
		}
		if err != nil {
			return src.TotalCount(), err
		}
		binary.LittleEndian.PutUint64(rec[0:8], req.Timestamp)
		binary.LittleEndian.PutUint64(rec[8:16], req.Size)
		binary.LittleEndian.PutUint64(rec[16:24], req.Key)
		if _, err := bw.Write(rec[:]); err != nil {
			return src.TotalCount(), errors.Wrap(err, "while writing record")
		}
	}
	return src.TotalCount(), errors.Wrap(bw.Flush(), "while flushing")
}
