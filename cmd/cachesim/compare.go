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

package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dgraph-io/cachesim"
)

var (
	compareA   string
	compareB   string
	compareOut string
)

// comparison is the payload written by the compare command.
type comparison struct {
	A          *cachesim.Result     `json:"a"`
	B          *cachesim.Result     `json:"b"`
	Divergence *cachesim.Divergence `json:"divergence"`
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run two experiments over the same trace in lockstep and diff their hits",
	RunE: func(cmd *cobra.Command, args []string) error {
		var sims [2]*cachesim.Simulation
		for i, path := range []string{compareA, compareB} {
			e, err := cachesim.LoadExperiment(path)
			if err != nil {
				return err
			}
			sim, closer, err := e.Build()
			if err != nil {
				return err
			}
			defer closer.Close()
			sims[i] = sim
		}

		start := time.Now()
		d, err := cachesim.Lockstep(cmd.Context(), sims[0], sims[1])
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		out := comparison{Divergence: d}
		if out.A, err = sims[0].Result(elapsed); err != nil {
			return err
		}
		if out.B, err = sims[1].Result(elapsed); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"a":      sims[0].ID(),
			"b":      sims[1].ID(),
			"only_a": d.OnlyA,
			"only_b": d.OnlyB,
		}).Info("comparison complete")
		return writeJSON(compareOut, out)
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareA, "a", "", "First experiment YAML file")
	compareCmd.Flags().StringVar(&compareB, "b", "", "Second experiment YAML file")
	compareCmd.Flags().StringVar(&compareOut, "out", "-", "Result file, - for stdout")
	_ = compareCmd.MarkFlagRequired("a")
	_ = compareCmd.MarkFlagRequired("b")
}
