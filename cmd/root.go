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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnexport/internal/iofs"
	"github.com/gnames/gnexport/internal/iologger"
	app "github.com/gnames/gnexport/pkg"
	"github.com/gnames/gnexport/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config
)

// getRootCmd returns the base command with all subcommands attached.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "gnexport",
		Short:   "Bulk export of biodiversity occurrence records",
		Long: `gnexport streams every occurrence record matching a query from a
paged search index into a CSV or TSV file.

The query is split into independent partitions that are fetched
concurrently. Records pass through per-source quotas, a global cap and
sensitive field redaction before they reach the output.

Commands:
  - export: export records matching a query
  - create: create download limits and export log tables in PostgreSQL
  - load:   load a JSON-lines occurrence file into a local index

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (GNEXPORT_*)
  3. Config file (~/.config/gnexport/config.yaml)
  4. Built-in defaults

Environment variables use underscores for nesting
(index.url -> GNEXPORT_INDEX_URL).`,
		PersistentPreRunE: bootstrap,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Remove the automatic "gnexport version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for gnexport")

	rootCmd.AddCommand(getExportCmd())
	rootCmd.AddCommand(getCreateCmd())
	rootCmd.AddCommand(getLoadCmd())

	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog, true); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureFieldsFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	if err = reconfigureLogging(cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded", "config_file", config.ConfigFilePath(homeDir))

	return nil
}

// reconfigureLogging reinitializes the logger with the loaded configuration.
func reconfigureLogging(cfg *config.Config) error {
	logDir := config.LogDir(cfg.HomeDir)
	return iologger.Init(logDir, cfg.Log, true)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := getRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are allowed.
	// These match the fields included in config.ToOptions() - i.e., persistent
	// configuration that can be stored in config.yaml.
	v.SetEnvPrefix("GNEXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Index configuration
	v.BindEnv("index.url", "GNEXPORT_INDEX_URL")
	v.BindEnv("index.timeout", "GNEXPORT_INDEX_TIMEOUT")
	v.BindEnv("index.max_retries", "GNEXPORT_INDEX_MAX_RETRIES")
	v.BindEnv("index.retry_wait", "GNEXPORT_INDEX_RETRY_WAIT")

	// Export configuration
	v.BindEnv("export.page_size", "GNEXPORT_EXPORT_PAGE_SIZE")
	v.BindEnv("export.queue_size", "GNEXPORT_EXPORT_QUEUE_SIZE")
	v.BindEnv("export.offer_timeout", "GNEXPORT_EXPORT_OFFER_TIMEOUT")
	v.BindEnv("export.throttle", "GNEXPORT_EXPORT_THROTTLE")
	v.BindEnv("export.max_execution_time", "GNEXPORT_EXPORT_MAX_EXECUTION_TIME")
	v.BindEnv("export.max_completion_time", "GNEXPORT_EXPORT_MAX_COMPLETION_TIME")
	v.BindEnv("export.poll_interval", "GNEXPORT_EXPORT_POLL_INTERVAL")
	v.BindEnv("export.max_records", "GNEXPORT_EXPORT_MAX_RECORDS")
	v.BindEnv("export.uncompressed_max_records", "GNEXPORT_EXPORT_UNCOMPRESSED_MAX_RECORDS")
	v.BindEnv("export.partition_field", "GNEXPORT_EXPORT_PARTITION_FIELD")
	v.BindEnv("export.sort_field", "GNEXPORT_EXPORT_SORT_FIELD")
	v.BindEnv("export.quota_field", "GNEXPORT_EXPORT_QUOTA_FIELD")
	v.BindEnv("export.provenance_fields", "GNEXPORT_EXPORT_PROVENANCE_FIELDS")
	v.BindEnv("export.assertions_field", "GNEXPORT_EXPORT_ASSERTIONS_FIELD")

	// Database configuration
	v.BindEnv("database.host", "GNEXPORT_DATABASE_HOST")
	v.BindEnv("database.port", "GNEXPORT_DATABASE_PORT")
	v.BindEnv("database.user", "GNEXPORT_DATABASE_USER")
	v.BindEnv("database.password", "GNEXPORT_DATABASE_PASSWORD")
	v.BindEnv("database.database", "GNEXPORT_DATABASE_DATABASE")
	v.BindEnv("database.ssl_mode", "GNEXPORT_DATABASE_SSL_MODE")

	// Log configuration
	v.BindEnv("log.level", "GNEXPORT_LOG_LEVEL")
	v.BindEnv("log.format", "GNEXPORT_LOG_FORMAT")
	v.BindEnv("log.destination", "GNEXPORT_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "GNEXPORT_JOBS_NUMBER")

	v.AutomaticEnv()
}
