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

// Package trace defines the request stream replayed by the simulator and the
// readers and generators that produce it.
package trace

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrDone is returned by Source.Next once the stream is exhausted.
var ErrDone = errors.New("trace: done")

// Request is a single cache lookup. It is immutable once produced by a Source.
type Request struct {
	Key       uint64
	Size      uint64
	Timestamp uint64
	// Index is the position of the request within its trace, starting at 0.
	Index uint64
}

// Source is an ordered, single pass stream of requests.
type Source interface {
	// Next returns the next request or ErrDone at the end of the stream.
	Next() (Request, error)
	// Name identifies the trace in result payloads.
	Name() string
	// TotalCount is the number of requests returned so far.
	TotalCount() uint64
	// TotalBytes is the sum of the sizes of the requests returned so far.
	TotalBytes() uint64
}

// SourceCloser is a Source backed by a file.
type SourceCloser interface {
	Source
	io.Closer
}

// counter keeps the running totals every Source reports and stamps the
// sequence index on each request.
type counter struct {
	name  string
	count uint64
	bytes uint64
}

func (c *counter) emit(r Request) Request {
	r.Index = c.count
	c.count++
	c.bytes += r.Size
	return r
}

func (c *counter) Name() string       { return c.name }
func (c *counter) TotalCount() uint64 { return c.count }
func (c *counter) TotalBytes() uint64 { return c.bytes }

// NameFromPath strips the directory and every extension from path, so that
// "traces/memc_200m.tr.bin" is reported as "memc_200m".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

// Format names an on-disk trace encoding.
type Format string

const (
	// FormatText is one "timestamp key size" request per line.
	FormatText Format = "text"
	// FormatLIRS is one key per line, every object of size 1.
	FormatLIRS Format = "lirs"
	// FormatBinary is the fixed-width binary encoding written by Convert.
	FormatBinary Format = "binary"
)

// OpenFile opens a trace file in the given format.
func OpenFile(path string, format Format) (SourceCloser, error) {
	switch format {
	case FormatText, "":
		return openText(path, ParseText)
	case FormatLIRS:
		return openText(path, ParseLIRS)
	case FormatBinary:
		return OpenBinary(path)
	default:
		return nil, errors.Errorf("trace: unknown format %q", format)
	}
}
