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

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/internal/iodb"
	"github.com/gnames/gnexport/internal/ioschema"
	"github.com/spf13/cobra"
)

// getCreateCmd returns the create command.
// Extracted as a function to facilitate testing and dynamic
// command registration.
func getCreateCmd() *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create download limits and export log schema",
		Long: `Create the gnexport database schema in PostgreSQL.

This command:
  1. Connects to PostgreSQL using configuration settings
  2. Creates or updates tables using GORM AutoMigrate:
     - download_limits: remaining number of records per data source
     - export_logs: one row per finished export

Existing tables and their data are kept, so the command can be run
again after an upgrade.

Examples:
  gnexport create`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runCreate(cmd, args)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	return createCmd
}

func runCreate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Create database operator
	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return err
	}
	defer op.Close()

	gn.Info("Connected to database: <em>%s@%s:%d/%s</em>",
		cfg.Database.User, cfg.Database.Host,
		cfg.Database.Port, cfg.Database.Database)

	exists, err := op.TableExists(ctx, "export_logs")
	if err != nil {
		return err
	}
	if exists {
		gn.Info("Schema exists, updating tables...")
	} else {
		gn.Info("Creating schema using GORM AutoMigrate...")
	}

	sm := ioschema.NewManager(op)
	if err := sm.Create(ctx); err != nil {
		return err
	}

	gn.Info("Database schema is ready")
	gn.Info(`Next steps:
	 - Add per-source limits to the <em>download_limits</em> table
	 - Run '<em>gnexport export</em>' to export records`)

	return nil
}
