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
	"context"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnexport/internal/iofs"
	"github.com/gnames/gnexport/internal/ioindex"
	"github.com/gnames/gnexport/pkg/config"
	"github.com/spf13/cobra"
)

// getLoadCmd returns the load command.
func getLoadCmd() *cobra.Command {
	var (
		indexPath  string
		clearIndex bool
	)

	loadCmd := &cobra.Command{
		Use:   "load FILE...",
		Short: "Load occurrences into a local SQLite index",
		Long: `Load JSON-lines occurrence files into a local SQLite index.

Every line of a file must be a JSON object with index fields as keys,
for example:

  {"id": "occ-1", "month": "03", "data_resource_uid": "dr1", ...}

The local index can be used for exports without a search server:

  gnexport export '*:*' --index sqlite:~/.cache/gnexport/occurrences.sqlite

Examples:
  gnexport load occurrences.jsonl
  gnexport load --clear part1.jsonl part2.jsonl
  gnexport load -i demo.sqlite occurrences.jsonl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runLoad(args, indexPath, clearIndex)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	loadCmd.Flags().StringVarP(&indexPath, "index", "i", "",
		"path to the SQLite index (default in the cache directory)")
	loadCmd.Flags().BoolVarP(&clearIndex, "clear", "c", false,
		"remove existing documents before loading")

	return loadCmd
}

func runLoad(files []string, indexPath string, clearIndex bool) error {
	ctx := context.Background()
	if indexPath == "" {
		indexPath = config.LocalIndexPath(cfg.HomeDir)
	}

	idx, err := ioindex.OpenSQLite(indexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	if clearIndex {
		if err = idx.Clear(ctx); err != nil {
			return err
		}
		gn.Info("Removed existing documents from <em>%s</em>", indexPath)
	}

	var total int
	for _, path := range files {
		n, err := loadFile(ctx, idx, path)
		total += n
		if err != nil {
			return err
		}
		gn.Message("<em>Loaded %s occurrences from %s</em>",
			humanize.Comma(int64(n)), path)
	}

	gn.Info("Index <em>%s</em> received %s occurrences",
		indexPath, humanize.Comma(int64(total)))
	gn.Info("Export with: <em>gnexport export '*:*' --index %s%s</em>",
		ioindex.SQLitePrefix, indexPath)
	return nil
}

func loadFile(
	ctx context.Context,
	idx *ioindex.SQLiteIndex,
	path string,
) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, iofs.ReadFileError(path, err)
	}
	defer f.Close()
	return idx.Load(ctx, f, path)
}
