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
	"bufio"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dgraph-io/cachesim/trace"
)

var (
	convertIn  string
	convertOut string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a text trace to the binary trace format",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(convertIn)
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer in.Close()
		out, err := os.Create(convertOut)
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		w := bufio.NewWriter(out)
		n, err := trace.Convert(in, w)
		if err == nil {
			err = w.Flush()
		}
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "converting %s", convertIn)
		}
		info, err := os.Stat(convertOut)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"requests": n,
			"size":     humanize.IBytes(uint64(info.Size())),
		}).Infof("wrote %s", convertOut)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertIn, "in", "", "Text trace to read")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "Binary trace to write")
	_ = convertCmd.MarkFlagRequired("in")
	_ = convertCmd.MarkFlagRequired("out")
}
