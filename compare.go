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

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dgraph-io/cachesim/filter"
	"github.com/dgraph-io/cachesim/trace"
)

// ErrStreamMismatch is returned when two simulations replaying the same trace
// disagree on where it ends.
var ErrStreamMismatch = errors.New("cachesim: simulations disagree on end of stream")

// Divergence counts the ticks on which exactly one of two simulations hit.
type Divergence struct {
	Ticks uint64 `json:"ticks"`
	OnlyA uint64 `json:"only_a_hits"`
	OnlyB uint64 `json:"only_b_hits"`
}

// Lockstep advances a and b by one tick each until both are exhausted. The
// two must be fed identical traces.
func Lockstep(ctx context.Context, a, b *Simulation) (*Divergence, error) {
	var d Divergence
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		moreA, err := a.Tick()
		if err != nil {
			return nil, err
		}
		moreB, err := b.Tick()
		if err != nil {
			return nil, err
		}
		if moreA != moreB {
			return nil, errors.Wrapf(ErrStreamMismatch, "after %d ticks: %s more=%v, %s more=%v",
				d.Ticks, a.ID(), moreA, b.ID(), moreB)
		}
		if !moreA {
			break
		}
		d.Ticks++
		switch {
		case a.LastHit() && !b.LastHit():
			d.OnlyA++
		case b.LastHit() && !a.LastHit():
			d.OnlyB++
		}
	}
	logrus.WithFields(logrus.Fields{
		"ticks":  d.Ticks,
		"only_a": d.OnlyA,
		"only_b": d.OnlyB,
	}).Debug("lockstep finished")
	return &d, nil
}

// Disagreement replays src through a and b and returns the fraction of
// requests on which they decide differently. With a Set oracle as b this is
// the false positive rate of an approximate filter a.
func Disagreement(a, b filter.Filter, src trace.Source) (float64, error) {
	var differ uint64
	for {
		req, err := src.Next()
		if errors.Is(err, trace.ErrDone) {
			break
		}
		if err != nil {
			return 0, errors.Wrapf(err, "reading trace %s", src.Name())
		}
		if a.ShouldFilter(&req) != b.ShouldFilter(&req) {
			differ++
		}
	}
	return ratio(differ, src.TotalCount()), nil
}
