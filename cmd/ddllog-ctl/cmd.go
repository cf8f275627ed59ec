// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"github.com/pingcap/ddllog/pkg/config"
	"github.com/pingcap/ddllog/pkg/ddllog"
	"github.com/pingcap/ddllog/pkg/ddllog/binlog"
	"github.com/pingcap/ddllog/pkg/ddllog/catalog"
	"github.com/pingcap/ddllog/pkg/ddllog/handler"
	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/ddllog/pkg/ddllog/store"
	"github.com/pingcap/ddllog/pkg/metrics"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Build information, filled by the linker.
var (
	ReleaseVersion = "None"
	GitHash        = "None"
	BuildTS        = "None"
)

const (
	flagConfig       = "config"
	flagLogLevel     = "log-level"
	flagDataDir      = "data-dir"
	flagCommittedXID = "committed-xid"
	flagMetricsFile  = "metrics-file"
)

// osFS is the file system the commands work on, tests swap it.
var osFS = afero.NewOsFs()

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "ddllog-ctl",
		Short:             "ddllog-ctl inspects and recovers the ddl log of a server data directory.",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
	rootCmd.PersistentFlags().String(flagConfig, "", "Path of the config file")
	rootCmd.PersistentFlags().StringP(flagLogLevel, "L", "", "Set the log level, overrides the config file")
	rootCmd.PersistentFlags().String(flagDataDir, "", "Set the data directory, overrides the config file")
	rootCmd.AddCommand(
		newDumpCmd(),
		newRecoverCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func initConfig(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	path, err := flags.GetString(flagConfig)
	if err != nil {
		return errors.Trace(err)
	}
	if path != "" {
		if err = cfg.Load(path); err != nil {
			return err
		}
	}
	config.StoreGlobalConfig(cfg)
	if dir, _ := flags.GetString(flagDataDir); dir != "" {
		config.UpdateGlobal(func(conf *config.Config) {
			conf.Data.Dir = dir
		})
	}
	cfg = config.GetGlobalConfig()
	if err = cfg.Valid(); err != nil {
		return errors.Trace(err)
	}
	if err = logutil.ReplaceLogger(cfg.Log.ToLogConfig()); err != nil {
		return err
	}
	if level, _ := flags.GetString(flagLogLevel); level != "" {
		return logutil.SetLevel(level)
	}
	return nil
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every record of the ddl log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDump(cmd.OutOrStdout(), config.GetGlobalConfig())
		},
	}
}

func runDump(w io.Writer, cfg *config.Config) (err error) {
	path := cfg.LogFilePath()
	ok, err := afero.Exists(osFS, path)
	if err != nil {
		return errors.Trace(err)
	}
	if !ok {
		return errors.Errorf("ddl log file %s does not exist", path)
	}
	st, err := store.Open(osFS, path, cfg.DDLLog.IOSize)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, st.Close())
	}()
	records, err := st.ReadAll()
	if err != nil {
		return err
	}
	printRecords(w, records)
	return nil
}

func printRecords(w io.Writer, records []store.Record) {
	t := tabby.NewCustom(tabwriter.NewWriter(w, 0, 0, 2, ' ', 0))
	t.AddHeader("POSITION", "TYPE", "ACTION", "PHASE", "NEXT", "XID", "TARGET", "SOURCE", "TEMP")
	for _, r := range records {
		if r.Err != nil {
			t.AddLine(r.Position, "corrupt", r.Err.Error(), "", "", "", "", "", "")
			continue
		}
		e := r.Entry
		switch e.Type {
		case model.EntryStep:
			t.AddLine(e.Position, e.Type, e.Action, model.PhaseName(e.Action, e.Phase), e.Next, "",
				objectName(e.Engine, e.DB, e.Name), objectName(e.Engine, e.FromDB, e.FromName), e.TmpName)
		case model.EntryChainHead:
			state := "enabled"
			if e.IsFinal() {
				state = "disabled"
			}
			t.AddLine(e.Position, e.Type, "", state, e.Next, e.XID, "", "", "")
		default:
			t.AddLine(e.Position, e.Type, "", "", "", "", "", "", "")
		}
	}
	t.Print()
}

func objectName(engine, db, name string) string {
	if db == "" && name == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s.%s", engine, db, name)
}

func newRecoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Run the pending chains of the ddl log to their end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			committed, err := cmd.Flags().GetUintSlice(flagCommittedXID)
			if err != nil {
				return errors.Trace(err)
			}
			xids := binlog.NewXIDSet()
			for _, xid := range committed {
				xids.Add(uint64(xid))
			}
			metricsFile, err := cmd.Flags().GetString(flagMetricsFile)
			if err != nil {
				return errors.Trace(err)
			}
			report, err := runRecover(cmd, config.GetGlobalConfig(), xids, metricsFile)
			if report != nil {
				cmd.Printf("executed: %d, binlogged: %d, failed: %d, corrupt: %d\n",
					report.Executed, report.Binlogged, report.Failed, report.Corrupt)
			}
			return err
		},
	}
	defineRecoverFlags(cmd.Flags())
	return cmd
}

func defineRecoverFlags(flags *pflag.FlagSet) {
	flags.UintSlice(flagCommittedXID, nil, "Xids committed to the binlog, their chains are closed without running")
	flags.String(flagMetricsFile, "", "Write the metrics in text format to this file after recovery")
}

// newRouter routes the configured file engines to the data directory and the
// meta engines to the catalog.
func newRouter(cfg *config.Config, cat *catalog.Catalog) *handler.Router {
	router := handler.NewRouter(cat)
	for engine, exts := range cfg.Engines {
		router.Register(engine, handler.NewFSHandler(osFS, cfg.Data.Dir, exts))
	}
	for _, engine := range cfg.MetaEngines {
		router.Register(engine, cat)
	}
	return router
}

func runRecover(cmd *cobra.Command, cfg *config.Config, reg *binlog.XIDSet, metricsFile string) (report *ddllog.RecoveryReport, err error) {
	registry := prometheus.NewRegistry()
	metrics.RegisterMetrics(registry)
	defer metrics.UnregisterMetrics(registry)

	cat, err := catalog.Open(cfg.CatalogPath(), nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, cat.Close())
	}()
	router := newRouter(cfg, cat)
	logutil.BgLogger().Info("start ddl log recovery",
		zap.String("path", cfg.LogFilePath()),
		zap.Strings("engines", router.Engines()),
		zap.Uint64s("committed-xids", reg.XIDs()))
	l, err := ddllog.Open(ddllog.Options{
		FS:     osFS,
		Path:   cfg.LogFilePath(),
		IOSize: cfg.DDLLog.IOSize,
		Router: router,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, l.Close())
	}()

	report, err = l.Recover(cmd.Context(), reg)
	if metricsFile != "" {
		if werr := prometheus.WriteToTextfile(metricsFile, registry); werr != nil {
			logutil.BgLogger().Warn("write metrics file failed", zap.String("file", metricsFile), zap.Error(werr))
		}
	}
	if err != nil {
		return report, err
	}
	if report.Failed > 0 {
		return report, ddllogerrors.ErrActionFailed.GenWithStackByArgs("recovery", 0, 0,
			fmt.Sprintf("%d chains are left enabled", report.Failed))
	}
	return report, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(versionInfo())
			return nil
		},
	}
}

func versionInfo() string {
	return strings.Join([]string{
		"Release Version: " + ReleaseVersion,
		"Git Commit Hash: " + GitHash,
		"UTC Build Time: " + BuildTS,
	}, "\n")
}
