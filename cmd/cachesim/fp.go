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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgraph-io/cachesim"
	"github.com/dgraph-io/cachesim/filter"
	"github.com/dgraph-io/cachesim/trace"
)

var (
	fpTrace     string
	fpFormat    string
	fpN         uint64
	fpErrorRate float64
)

var fpCmd = &cobra.Command{
	Use:   "fp",
	Short: "Measure how often a rotating Bloom filter disagrees with an exact set",
	RunE: func(cmd *cobra.Command, args []string) error {
		approx, err := filter.NewBloom(filter.BloomConfig{N: fpN, ErrorRate: fpErrorRate})
		if err != nil {
			return err
		}
		src, err := trace.OpenFile(fpTrace, trace.Format(fpFormat))
		if err != nil {
			return err
		}
		defer src.Close()
		rate, err := cachesim.Disagreement(approx, filter.NewSet(), src)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rate)
		return nil
	},
}

func init() {
	fpCmd.Flags().StringVar(&fpTrace, "trace", "", "Trace file")
	fpCmd.Flags().StringVar(&fpFormat, "format", string(trace.FormatText), "Trace format: text, lirs or binary")
	fpCmd.Flags().Uint64Var(&fpN, "n", 1000000, "Insertions per Bloom generation")
	fpCmd.Flags().Float64Var(&fpErrorRate, "error-rate", filter.DefaultErrorRate, "Target false positive rate")
	_ = fpCmd.MarkFlagRequired("trace")
}
