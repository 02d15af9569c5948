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

package cachesim

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dgraph-io/cachesim/eviction"
	"github.com/dgraph-io/cachesim/trace"
	"github.com/dgraph-io/cachesim/z"
)

// DefaultOrdinalWindow is the number of requests per statistics window.
const DefaultOrdinalWindow = 100000

// ErrInvalidConfig is wrapped by simulation and experiment construction
// errors.
var ErrInvalidConfig = errors.New("cachesim: invalid configuration")

// Option configures a Simulation.
type Option func(*Simulation)

// WithOrdinalWindow sets how many requests each statistics window spans.
func WithOrdinalWindow(n uint64) Option {
	return func(s *Simulation) { s.window = n }
}

// WithOnHit registers a callback run after every hit.
func WithOnHit(fn func(req *trace.Request)) Option {
	return func(s *Simulation) { s.onHit = fn }
}

// WithOnMiss registers a callback run after every miss, once the request was
// offered to the cache.
func WithOnMiss(fn func(req *trace.Request)) Option {
	return func(s *Simulation) { s.onMiss = fn }
}

// WithLogger sets the entry window summaries are logged to.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Simulation) { s.log = log }
}

// Simulation replays a Source through a CachingSystem one request at a time.
type Simulation struct {
	system *CachingSystem
	source trace.Source
	window uint64
	onHit  func(req *trace.Request)
	onMiss func(req *trace.Request)
	log    *logrus.Entry

	stats     SegmentStatistics
	sizes     *z.HistogramData
	processed uint64
	lastHit   bool
	done      bool
}

// NewSimulation prepares a run of source through system.
func NewSimulation(system *CachingSystem, source trace.Source, opts ...Option) (*Simulation, error) {
	s := &Simulation{
		system: system,
		source: source,
		window: DefaultOrdinalWindow,
		onHit:  func(*trace.Request) {},
		onMiss: func(*trace.Request) {},
		sizes:  z.NewHistogramData(z.HistogramBounds(0, 32)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.window == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "ordinal window must be positive")
	}
	if s.onHit == nil || s.onMiss == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "callbacks must not be nil")
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("sim", s.ID())
	return s, nil
}

// Tick processes the next request. It returns false once the source is
// exhausted; the trailing partial window is recorded on that first false.
func (s *Simulation) Tick() (bool, error) {
	if s.done {
		return false, nil
	}
	req, err := s.source.Next()
	if errors.Is(err, trace.ErrDone) {
		s.finish()
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "reading trace %s", s.source.Name())
	}

	s.sizes.Update(int64(req.Size))
	_, s.lastHit = s.system.Get(&req)
	if s.lastHit {
		s.onHit(&req)
	} else {
		s.stats.recordMiss(req.Size)
		s.system.Put(&req)
		s.onMiss(&req)
	}
	s.stats.recordRequest(req.Size)
	s.processed++
	if s.processed%s.window == 0 {
		s.closeWindow()
	}
	return true, nil
}

func (s *Simulation) closeWindow() {
	policy := s.system.Policy()
	s.log.WithFields(logrus.Fields{
		"window":    s.stats.Windows(),
		"processed": s.processed,
		"bmr":       s.stats.CurrentByteMissRatio(),
		"omr":       s.stats.CurrentObjectMissRatio(),
		"used":      humanize.IBytes(policy.Used()),
		"state":     policy.State(),
	}).Info("window closed")
	s.stats.closeWindow()
}

func (s *Simulation) finish() {
	if s.stats.pending() {
		s.closeWindow()
	}
	s.done = true
	s.log.WithFields(logrus.Fields{
		"requests": s.source.TotalCount(),
		"bytes":    humanize.IBytes(s.source.TotalBytes()),
		"windows":  s.stats.Windows(),
		"metrics":  s.system.Metrics.String(),
	}).Debug("trace exhausted")
	if s.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		s.log.Debugf("request sizes:\n%s", s.sizes)
	}
}

// Run ticks until the source is exhausted or ctx is done.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		more, err := s.Tick()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return s.Result(time.Since(start))
}

// ID names the run after its system and trace.
func (s *Simulation) ID() string {
	return s.system.ID() + "_" + s.source.Name()
}

func (s *Simulation) System() *CachingSystem { return s.system }

// Stats returns the statistics accumulated so far.
func (s *Simulation) Stats() *SegmentStatistics { return &s.stats }

// Sizes is the distribution of request sizes seen so far.
func (s *Simulation) Sizes() *z.HistogramData { return s.sizes.Copy() }

// Processed is the number of requests ticked through.
func (s *Simulation) Processed() uint64 { return s.processed }

// LastHit reports whether the most recent tick was a hit.
func (s *Simulation) LastHit() bool { return s.lastHit }

// Done reports whether the source has been exhausted.
func (s *Simulation) Done() bool { return s.done }

// State is the warm-up state of the underlying cache.
func (s *Simulation) State() eviction.State { return s.system.Policy().State() }
