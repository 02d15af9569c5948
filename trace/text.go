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

package trace

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dgraph-io/cachesim/z"
)

// Parser turns one trace line into a request. The sequence index is assigned
// by the reader.
type Parser func(line string) (Request, error)

// Reader is a Source over a line oriented trace.
type Reader struct {
	counter
	parser Parser
	buf    *bufio.Reader
	closer io.Closer
	line   uint64
}

// NewReader returns a Source that parses each line of r with parser.
func NewReader(name string, parser Parser, r io.Reader) *Reader {
	return &Reader{
		counter: counter{name: name},
		parser:  parser,
		buf:     bufio.NewReaderSize(r, 64<<10),
	}
}

func openText(path string, parser Parser) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open trace: %s", path)
	}
	r := NewReader(NameFromPath(path), parser, f)
	r.closer = f
	return r, nil
}

// Next returns the next parsed request, skipping blank lines.
func (r *Reader) Next() (Request, error) {
	for {
		line, err := r.buf.ReadString('\n')
		if err != nil && err != io.EOF {
			return Request{}, errors.Wrapf(err, "while reading trace %s", r.name)
		}
		if line == "" && err == io.EOF {
			return Request{}, ErrDone
		}
		r.line++
		line = strings.TrimSpace(line)
		if line == "" {
			if err == io.EOF {
				return Request{}, ErrDone
			}
			continue
		}
		req, perr := r.parser(line)
		if perr != nil {
			return Request{}, errors.Wrapf(perr, "%s:%d", r.name, r.line)
		}
		return r.emit(req), nil
	}
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ParseText parses "timestamp key size". Keys that are not unsigned integers
// are hashed.
func ParseText(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Request{}, errors.Errorf("expected 3 fields, got %d", len(fields))
	}
	ts, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Request{}, errors.Wrap(err, "bad timestamp")
	}
	size, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return Request{}, errors.Wrap(err, "bad size")
	}
	if size == 0 {
		return Request{}, errors.New("size must be positive")
	}
	return Request{Key: parseKey(fields[1]), Size: size, Timestamp: ts}, nil
}

// ParseLIRS parses the key-per-line LIRS format. Every object has size 1.
func ParseLIRS(line string) (Request, error) {
	key, err := strconv.ParseUint(line, 10, 64)
	if err != nil {
		return Request{}, errors.Wrap(err, "bad key")
	}
	return Request{Key: key, Size: 1}, nil
}

func parseKey(s string) uint64 {
	if k, err := strconv.ParseUint(s, 10, 64); err == nil {
		return k
	}
	k, _ := z.KeyToHash(s)
	return k
}
