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
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnexport/internal/ioaudit"
	"github.com/gnames/gnexport/internal/iodb"
	"github.com/gnames/gnexport/internal/ioexport"
	"github.com/gnames/gnexport/internal/iofields"
	"github.com/gnames/gnexport/internal/ioindex"
	"github.com/gnames/gnexport/internal/ioquery"
	"github.com/gnames/gnexport/internal/ioquota"
	"github.com/gnames/gnexport/internal/iosink"
	"github.com/gnames/gnexport/pkg/db"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/gnames/gnexport/pkg/parserpool"
	"github.com/gnames/gnfmt"
	"github.com/spf13/cobra"
)

// exportFlags keep values of export command flags.
type exportFlags struct {
	filters          []string
	fields           []string
	qa               string
	format           string
	output           string
	zip              bool
	includeSensitive bool
	sensitiveFilter  string
	maxRecords       int
	quotas           map[string]int
	dwcHeaders       bool
	noDB             bool
}

// getExportCmd returns the export command.
func getExportCmd() *cobra.Command {
	var flags exportFlags

	exportCmd := &cobra.Command{
		Use:   "export QUERY",
		Short: "Export occurrence records matching a query",
		Long: `Export every occurrence record matching QUERY into a CSV or TSV file.

The query is split by the partition field (month by default) into
sub-queries fetched concurrently. Each record goes through:
  - per-source download limits (--quota or the download_limits table)
  - a global cap (--max-records, export.max_records in config)
  - sensitive field redaction (--include-sensitive, --sensitive-fq)

A taxa:NAME clause in the query is replaced by the canonical form of the
scientific name.

If PostgreSQL is reachable and 'gnexport create' was run, download limits
are read from the database and every export is saved to the export log.

Press Ctrl-C to stop an export. Records written so far are kept.

Examples:
  gnexport export 'taxa:"Acacia dealbata Link"'
  gnexport export '*:*' -f 'state:"New South Wales"' -f year:2020
  gnexport export '*:*' --fields id,scientificName,latitude --qa all
  gnexport export '*:*' --zip -o acacia.zip --max-records 1000
  gnexport export '*:*' --index sqlite:occurrences.sqlite --format tsv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runExport(cmd, args[0], flags)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	fl := exportCmd.Flags()
	fl.StringArrayVarP(&flags.filters, "filter", "f", nil,
		"filter clause, can be repeated")
	fl.StringSliceVar(&flags.fields, "fields", nil,
		"comma-separated fields to export (default from fields.yaml)")
	fl.StringVarP(&flags.qa, "qa", "q", export.QANone,
		"assertion columns: none, all, includeall or a list of names")
	fl.StringVar(&flags.format, "format", "csv", "output format: csv, tsv")
	fl.StringVarP(&flags.output, "output", "o", "",
		"output file (default records.<format> or records.zip)")
	fl.BoolVarP(&flags.zip, "zip", "z", false, "compress output with zip")
	fl.BoolVar(&flags.includeSensitive, "include-sensitive", false,
		"export unredacted sensitive values for all records")
	fl.StringVar(&flags.sensitiveFilter, "sensitive-fq", "",
		"filter of records allowed to show sensitive values")
	fl.IntVarP(&flags.maxRecords, "max-records", "m", 0,
		"maximum number of records (0 uses the configured cap)")
	fl.StringToIntVar(&flags.quotas, "quota", nil,
		"per-source limits, e.g. dr1=100,dr2=0")
	fl.BoolVar(&flags.dwcHeaders, "dwc", false, "use Darwin Core headers")
	fl.BoolVar(&flags.noDB, "no-db", false,
		"do not use PostgreSQL for download limits and export log")

	fl.String("index", "", "index URL: http(s)://... or sqlite:<path>")
	fl.IntP("jobs", "j", 0, "number of concurrent fetch workers")
	fl.Int("page-size", 0, "number of records per index request")
	fl.Duration("throttle", 0, "minimal pause between index requests")
	fl.Duration("timeout", 0, "maximum execution time of the export")

	return exportCmd
}

func runExport(cmd *cobra.Command, query string, flags exportFlags) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	cfg.Update(configFlags(cmd,
		indexFlag, jobsFlag, pageSizeFlag, throttleFlag, timeoutFlag,
	))

	idx, err := ioindex.New(cfg.Index)
	if err != nil {
		return err
	}
	defer idx.Close()

	cat, err := iofields.Load(cfg)
	if err != nil {
		return err
	}

	pool := parserpool.NewPool(cfg.JobsNumber)
	defer pool.Close()

	exOpts := []ioexport.Option{
		ioexport.OptNormalizer(ioquery.New(pool)),
	}

	var audit export.AuditLog
	if !flags.noDB {
		op := iodb.NewPgxOperator()
		if err := op.Connect(ctx, &cfg.Database); err != nil {
			slog.Warn("Database is not available", "error", err)
			gn.Warn("Database is not available, " +
				"download limits and export log are disabled")
		} else {
			defer op.Close()
			var quota export.QuotaSource
			quota, audit = dbServices(ctx, op)
			if quota != nil {
				exOpts = append(exOpts, ioexport.OptQuotaSource(quota))
			}
		}
	}

	path := iosink.OutputPath(flags.output, flags.format, flags.zip)
	out, err := iosink.Create(path, flags.format, flags.zip)
	if err != nil {
		return err
	}

	req := export.Request{
		Query:            query,
		Filters:          flags.filters,
		Fields:           flags.fields,
		QA:               flags.qa,
		Format:           strings.ToLower(flags.format),
		Compressed:       flags.zip,
		IncludeSensitive: flags.includeSensitive,
		SensitiveFilter:  flags.sensitiveFilter,
		MaxRecords:       flags.maxRecords,
		Quotas:           flags.quotas,
		DwcHeaders:       flags.dwcHeaders,
	}

	gn.Info("Exporting records from <em>%s</em>", cfg.Index.URL)
	ex := ioexport.New(cfg, idx, cat, exOpts...)
	res, exportErr := ex.Export(ctx, req, iosink.NewProgress(out))

	// planning failures leave the output open
	if !out.IsFinalized() {
		if err = out.Finalize(); err != nil {
			slog.Error("Cannot close output", "path", path, "error", err)
		}
	}

	if audit != nil {
		err = audit.Log(context.WithoutCancel(ctx), req, res, exportErr)
		if err != nil {
			slog.Error("Cannot save export log", "error", err)
		}
	}

	if res != nil {
		printSummary(res, path, exportErr)
	}
	return exportErr
}

// dbServices returns the quota source and the audit log if their tables
// exist.
func dbServices(
	ctx context.Context,
	op db.Operator,
) (export.QuotaSource, export.AuditLog) {
	var quota export.QuotaSource
	var audit export.AuditLog

	if ok, err := op.TableExists(ctx, "download_limits"); ok && err == nil {
		quota = ioquota.NewPostgres(op)
	}
	if ok, err := op.TableExists(ctx, "export_logs"); ok && err == nil {
		audit = ioaudit.New(op)
	}
	if quota == nil || audit == nil {
		gn.Warn("Database tables are missing, run <em>gnexport create</em>")
	}
	return quota, audit
}

func printSummary(res *export.Result, path string, exportErr error) {
	gn.Info(
		"Exported <em>%s</em> of %s records to <em>%s</em> in %s",
		humanize.Comma(int64(res.Written)),
		humanize.Comma(int64(res.TotalFound)),
		path,
		gnfmt.TimeString(res.Duration.Seconds()),
	)
	if len(res.Excluded) > 0 {
		gn.Warn("Unknown fields were skipped: <warn>%s</warn>",
			strings.Join(res.Excluded, ", "))
	}
	if res.Dropped > 0 {
		gn.Warn("<warn>%s</warn> records were dropped during shutdown",
			humanize.Comma(int64(res.Dropped)))
	}
	slog.Info("Export finished",
		"export_id", res.ExportID,
		"query_id", res.QueryID,
		"status", ioaudit.Status(res, exportErr),
		"written", res.Written,
		"accepted", res.Accepted,
	)
}
