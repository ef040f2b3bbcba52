// ABOUTME: Player configuration via defaults, flags, file and environment
// ABOUTME: Later sources override earlier ones; viper merges them all
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/kr/pretty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// PlayerCfg is the resolved player configuration.
type PlayerCfg struct {
	Level        string  `mapstructure:"level"`
	ConfigFile   string  `mapstructure:"config_file"`
	LogFile      string  `mapstructure:"log_file"`
	Source       string  `mapstructure:"source"`
	Silent       bool    `mapstructure:"silent"`
	NoTUI        bool    `mapstructure:"no_tui"`
	MaxSleepMS   int     `mapstructure:"max_sleep_ms"`
	CacheAhead   int     `mapstructure:"cache_ahead"`
	CacheBehind  int     `mapstructure:"cache_behind"`
	EnableDiag   bool    `mapstructure:"enable_diag"`
	DiagAddr     string  `mapstructure:"diag_addr"`
	SynthFPS     int     `mapstructure:"synth_fps"`
	SynthSeconds int     `mapstructure:"synth_seconds"`
	SynthWidth   int     `mapstructure:"synth_width"`
	SynthHeight  int     `mapstructure:"synth_height"`
	ToneHz       float64 `mapstructure:"tone_hz"`
}

// default config
var defaultConf = PlayerCfg{
	Level:        "info",
	ConfigFile:   "cadence.yaml",
	LogFile:      "cadence-player.log",
	MaxSleepMS:   3000,
	CacheAhead:   30,
	CacheBehind:  10,
	DiagAddr:     ":8090",
	SynthFPS:     24,
	SynthSeconds: 10,
	SynthWidth:   320,
	SynthHeight:  180,
	ToneHz:       440,
}

// Config holds the merged settings after Load.
var Config = viper.New()

// Load resolves configuration from defaults, command-line flags, the config
// file and the environment, in that order of precedence.
func Load() PlayerCfg {
	v, cfg := load(pflag.CommandLine, os.Args[1:])
	Config = v
	return cfg
}

func load(fs *pflag.FlagSet, args []string) (*viper.Viper, PlayerCfg) {
	v := viper.New()

	// Default config
	b, _ := json.Marshal(defaultConf)
	defaults := viper.New()
	defaults.SetConfigType("json")
	defaults.ReadConfig(bytes.NewReader(b))
	v.MergeConfigMap(defaults.AllSettings())

	// Flags
	fs.String("source", "", "path to an MP3 to play; empty plays the built-in demo stream")
	fs.String("level", defaultConf.Level, "log level")
	fs.Bool("silent", false, "discard audio instead of opening a device")
	fs.Bool("no_tui", false, "run headless without the terminal interface")
	fs.Int("max_sleep_ms", defaultConf.MaxSleepMS, "upper bound on one loop sleep, in milliseconds")
	fs.Int("cache_ahead", defaultConf.CacheAhead, "frames to prefetch past the playhead")
	fs.Int("cache_behind", defaultConf.CacheBehind, "frames to retain behind the playhead")
	fs.Bool("enable_diag", false, "serve playback diagnostics over HTTP")
	fs.String("diag_addr", defaultConf.DiagAddr, "diagnostics server listen address")
	fs.String("config_file", defaultConf.ConfigFile, "configure filename")
	fs.String("log_file", defaultConf.LogFile, "log file used while the terminal interface is active")
	fs.Int("synth_fps", defaultConf.SynthFPS, "demo stream frame rate")
	fs.Int("synth_seconds", defaultConf.SynthSeconds, "demo stream duration in seconds")
	fs.Int("synth_width", defaultConf.SynthWidth, "demo stream width in pixels")
	fs.Int("synth_height", defaultConf.SynthHeight, "demo stream height in pixels")
	fs.Float64("tone_hz", defaultConf.ToneHz, "demo stream tone frequency")
	if err := fs.Parse(args); err != nil {
		log.Warning(err)
	}
	v.BindPFlags(fs)

	// File
	v.SetConfigFile(v.GetString("config_file"))
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		log.Debugf("no config file: %v", err)
	} else {
		v.MergeInConfig()
	}

	// Environment
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	initLog(v)

	c := PlayerCfg{}
	v.Unmarshal(&c)
	log.Debugf("Current configurations: \n%# v", pretty.Formatter(c))
	return v, c
}

func initLog(v *viper.Viper) {
	if l, err := log.ParseLevel(v.GetString("level")); err == nil {
		log.SetLevel(l)
		log.SetReportCaller(l == log.DebugLevel)
	}
}
