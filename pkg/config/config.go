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

package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/pingcap/errors"
)

const (
	// DefIOSize is the default block size of the ddl log file.
	DefIOSize = 4096
	// MinIOSize is the smallest block size a record fits in.
	MinIOSize = 512
	// MaxIOSize is the largest supported block size.
	MaxIOSize = 64 * 1024
	// DefLogFileName is the default name of the ddl log file.
	DefLogFileName = "ddl_recovery.log"
)

// Config contains configuration options.
type Config struct {
	Log     Log                 `toml:"log" json:"log"`
	DDLLog  DDLLog              `toml:"ddl-log" json:"ddl-log"`
	Data    Data                `toml:"data" json:"data"`
	Engines map[string][]string `toml:"engines" json:"engines"`
	// MetaEngines are engines whose objects only live in the catalog.
	MetaEngines []string `toml:"meta-engines" json:"meta-engines"`
}

// Log is the log section of config.
type Log struct {
	// Log level.
	Level string `toml:"level" json:"level"`
	// Log format. one of json, text, or console.
	Format string `toml:"format" json:"format"`
	// Disable automatic timestamps in output.
	DisableTimestamp bool `toml:"disable-timestamp" json:"disable-timestamp"`
	// File log config.
	File logutil.FileLogConfig `toml:"file" json:"file"`
}

// DDLLog is the ddl-log section of config.
type DDLLog struct {
	// Path of the log file, relative paths are resolved against Data.Dir.
	Path string `toml:"path" json:"path"`
	// IOSize is the size of one record block.
	IOSize int `toml:"io-size" json:"io-size"`
}

// Data is the data section of config.
type Data struct {
	Dir        string `toml:"dir" json:"dir"`
	CatalogDir string `toml:"catalog-dir" json:"catalog-dir"`
}

var defaultConf = Config{
	Log: Log{
		Level:  "info",
		Format: logutil.DefaultLogFormat,
		File:   logutil.NewFileLogConfig(logutil.DefaultLogMaxSize),
	},
	DDLLog: DDLLog{
		Path:   DefLogFileName,
		IOSize: DefIOSize,
	},
	Data: Data{
		Dir:        "data",
		CatalogDir: "catalog",
	},
	Engines: map[string][]string{
		"InnoDB": {".frm", ".ibd"},
		"MyISAM": {".frm", ".MYD", ".MYI"},
		"Aria":   {".frm", ".MAD", ".MAI"},
	},
	MetaEngines: []string{"VIEW"},
}

var globalConf atomic.Pointer[Config]

func init() {
	StoreGlobalConfig(NewConfig())
}

// NewConfig creates a new config instance with default value.
func NewConfig() *Config {
	conf := defaultConf
	conf.Engines = make(map[string][]string, len(defaultConf.Engines))
	for name, exts := range defaultConf.Engines {
		conf.Engines[name] = append([]string(nil), exts...)
	}
	conf.MetaEngines = append([]string(nil), defaultConf.MetaEngines...)
	return &conf
}

// GetGlobalConfig returns the global configuration for this process.
func GetGlobalConfig() *Config {
	return globalConf.Load()
}

// StoreGlobalConfig stores a new config to the globalConf.
func StoreGlobalConfig(config *Config) {
	globalConf.Store(config)
}

// UpdateGlobal updates the global config, the update function works on a copy.
func UpdateGlobal(f func(conf *Config)) {
	g := GetGlobalConfig()
	newConf := *g
	f(&newConf)
	StoreGlobalConfig(&newConf)
}

// Load loads config options from a toml file.
func (c *Config) Load(confFile string) error {
	metaData, err := toml.DecodeFile(confFile, c)
	if err != nil {
		return errors.Trace(err)
	}
	if undecoded := metaData.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, item := range undecoded {
			keys = append(keys, item.String())
		}
		sort.Strings(keys)
		return ddllogerrors.ErrUnknownConfigOption.GenWithStackByArgs(confFile, strings.Join(keys, ", "))
	}
	return nil
}

// Valid checks if this config is valid.
func (c *Config) Valid() error {
	if c.DDLLog.IOSize < MinIOSize || c.DDLLog.IOSize > MaxIOSize {
		return invalidConfig("ddl-log.io-size should be in [%d, %d], got %d", MinIOSize, MaxIOSize, c.DDLLog.IOSize)
	}
	if c.DDLLog.IOSize&(c.DDLLog.IOSize-1) != 0 {
		return invalidConfig("ddl-log.io-size should be a power of 2, got %d", c.DDLLog.IOSize)
	}
	if c.DDLLog.Path == "" {
		return invalidConfig("ddl-log.path should not be empty")
	}
	for name, exts := range c.Engines {
		if len(exts) == 0 {
			return invalidConfig("engine %s should have at least one file extension", name)
		}
	}
	for _, name := range c.MetaEngines {
		if _, ok := c.Engines[name]; ok {
			return invalidConfig("engine %s is configured both as a file engine and a meta engine", name)
		}
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return ddllogerrors.ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf(format, args...))
}

// LogFilePath returns the path of the ddl log file.
func (c *Config) LogFilePath() string {
	if filepath.IsAbs(c.DDLLog.Path) {
		return c.DDLLog.Path
	}
	return filepath.Join(c.Data.Dir, c.DDLLog.Path)
}

// CatalogPath returns the directory of the metadata catalog.
func (c *Config) CatalogPath() string {
	if filepath.IsAbs(c.Data.CatalogDir) {
		return c.Data.CatalogDir
	}
	return filepath.Join(c.Data.Dir, c.Data.CatalogDir)
}

// ToLogConfig converts *Log to *logutil.LogConfig.
func (l *Log) ToLogConfig() *logutil.LogConfig {
	return logutil.NewLogConfig(l.Level, l.Format, l.File, l.DisableTimestamp)
}
