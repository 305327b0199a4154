// Copyright 2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command matrixchat-notify notifies of CI pipeline results on Matrix
// chat. It is built to run as a Drone CI plugin step: settings arrive as
// PLUGIN_* environment variables or a JSON config file, the message
// template is rendered against a whitelisted subset of the environment,
// and the result is sent as a single notice to a Matrix room.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"go.mau.fi/util/exzerolog"

	"github.com/aiku/matrixchat-notify/pkg/notify"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", notify.DefaultConfigFilename,
			"Configuration file path")
		dryRun = pflag.BoolP("dry-run", "d", false,
			"Don't send the notification message, only print it")
		passEnv = pflag.StringArrayP("pass-environment", "e", nil,
			"Comma-separated whitelist of environment variable names or shell glob "+
				"patterns available as template placeholders. Replaces any whitelist "+
				"from the configuration and may be passed more than once (default: 'DRONE_*')")
		renderMarkdown = pflag.BoolP("render-markdown", "m", false,
			"Message is in Markdown format and will be rendered to HTML")
		verbose = pflag.BoolP("verbose", "v", false,
			"Enable debug level logging")
		version = pflag.Bool("version", false,
			"Print version information and exit")
	)
	pflag.Parse()

	if *version {
		fmt.Printf("matrixchat-notify %s (%s, built %s)\n", Tag, Commit, BuildTime)
		return
	}

	log := setupLogging(*verbose)

	opts := notify.Options{
		ConfigPath:     *configPath,
		DryRun:         *dryRun,
		RenderMarkdown: *renderMarkdown,
		Log:            log,
	}
	if pflag.CommandLine.Changed("pass-environment") {
		opts.PassEnvironment = *passEnv
	}

	if err := notify.Run(context.Background(), opts); err != nil {
		log.Error().Err(err).Msg("Notification failed")
		os.Exit(1)
	}
}

func setupLogging(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("PLUGIN_LOG_LEVEL"))); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	log := zerolog.New(writer).With().Timestamp().Logger().Level(level)
	exzerolog.SetupDefaults(&log)
	return log
}
