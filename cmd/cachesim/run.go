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
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dgraph-io/cachesim"
	"github.com/dgraph-io/cachesim/trace"
)

// overrides holds run flags that replace values from the experiment file.
type overrides struct {
	tracePath string
	format    string
	policy    string
	capacity  string
	ratios    []float64
	filter    string
	window    uint64
}

func (o *overrides) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.tracePath, "trace", "", "Trace file, replaces the configured trace")
	f.StringVar(&o.format, "format", "", "Trace format: text, lirs or binary")
	f.StringVar(&o.policy, "policy", "", "Eviction policy: lru, slru or gdsf")
	f.StringVar(&o.capacity, "capacity", "", "Cache capacity, e.g. 512MiB")
	f.Float64SliceVar(&o.ratios, "ratios", nil, "SLRU segment ratios")
	f.StringVar(&o.filter, "filter", "", "Admission filter type")
	f.Uint64Var(&o.window, "window", 0, "Requests per statistics window")
}

func (o *overrides) apply(cmd *cobra.Command, e *cachesim.Experiment) {
	flags := cmd.Flags()
	if flags.Changed("trace") {
		e.Trace.Path = o.tracePath
		e.Trace.Synthetic = nil
	}
	if flags.Changed("format") {
		e.Trace.Format = trace.Format(o.format)
	}
	if flags.Changed("policy") {
		e.Cache.Policy = o.policy
	}
	if flags.Changed("capacity") {
		e.Cache.Capacity = o.capacity
	}
	if flags.Changed("ratios") {
		e.Cache.Ratios = o.ratios
	}
	if flags.Changed("filter") {
		e.Filter.Type = o.filter
	}
	if flags.Changed("window") {
		e.OrdinalWindow = o.window
	}
}

// loadExperiment reads path, applies flag overrides and validates the
// result.
func loadExperiment(cmd *cobra.Command, path string, o *overrides) (*cachesim.Experiment, error) {
	var e *cachesim.Experiment
	var err error
	if path != "" {
		if e, err = cachesim.LoadExperiment(path); err != nil {
			return nil, err
		}
	} else {
		e = &cachesim.Experiment{}
	}
	o.apply(cmd, e)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

var (
	runConfig string
	runOut    string
	runFlags  overrides
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and write its result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadExperiment(cmd, runConfig, &runFlags)
		if err != nil {
			return err
		}
		sim, closer, err := e.Build()
		if err != nil {
			return err
		}
		defer closer.Close()

		logrus.WithField("sim", sim.ID()).Info("starting simulation")
		res, err := sim.Run(cmd.Context())
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"bmr":     res.NoWarmupBMR,
			"bmr_20p": res.Warmup20BMR,
			"omr_20p": res.Warmup20OMR,
			"seconds": res.Seconds,
		}).Info("simulation complete")
		return writeJSON(runOut, res)
	},
}

func init() {
	runCmd.Flags().StringVar(&runConfig, "config", "", "Experiment YAML file")
	runCmd.Flags().StringVar(&runOut, "out", "-", "Result file, - for stdout")
	runFlags.register(runCmd)
}
