/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"github.com/gnames/gnexport/pkg/config"
	"github.com/spf13/cobra"
)

// funcFlag converts a changed command flag into configuration options.
type funcFlag func(cmd *cobra.Command) []config.Option

// configFlags returns options for every config-backed flag the user set.
func configFlags(cmd *cobra.Command, flags ...funcFlag) []config.Option {
	var res []config.Option
	for _, v := range flags {
		res = append(res, v(cmd)...)
	}
	return res
}

func indexFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("index") {
		return nil
	}
	s, _ := cmd.Flags().GetString("index")
	return []config.Option{config.OptIndexURL(s)}
}

func jobsFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("jobs") {
		return nil
	}
	i, _ := cmd.Flags().GetInt("jobs")
	return []config.Option{config.OptJobsNumber(i)}
}

func pageSizeFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("page-size") {
		return nil
	}
	i, _ := cmd.Flags().GetInt("page-size")
	return []config.Option{config.OptExportPageSize(i)}
}

func throttleFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("throttle") {
		return nil
	}
	d, _ := cmd.Flags().GetDuration("throttle")
	return []config.Option{config.OptExportThrottle(d)}
}

func timeoutFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("timeout") {
		return nil
	}
	d, _ := cmd.Flags().GetDuration("timeout")
	return []config.Option{config.OptExportMaxExecutionTime(d)}
}
