// Copyright 2026 Aiku AI

package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/aiku/matrixchat-notify/pkg/notify/markdownfmt"
)

// Options carries the invocation surface of a single run. Environ is the
// process environment snapshot (os.Environ()); tests substitute their own.
type Options struct {
	ConfigPath string
	// DryRun renders the message and prints it instead of sending.
	DryRun bool
	// PassEnvironment, when non-nil, completely replaces any whitelist
	// from the config file or invocation parameters. This is a security
	// feature: command-line patterns always win.
	PassEnvironment []string
	// RenderMarkdown forces markdown conversion regardless of the
	// markdown setting.
	RenderMarkdown bool

	Environ []string
	Stdout  io.Writer
	Log     zerolog.Logger
}

// Run executes the notification pipeline: load settings, filter the
// environment, render the template, optionally convert markdown, then
// authenticate and send. Strictly linear, no retries; the first error
// terminates the invocation.
func Run(ctx context.Context, opts Options) error {
	if opts.Environ == nil {
		opts.Environ = os.Environ()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	log := opts.Log

	environ := Environ(opts.Environ)
	settings, err := LoadSettings(opts.ConfigPath, environ, log)
	if err != nil {
		return err
	}
	if opts.PassEnvironment != nil {
		settings.PassEnvironment = StringList(opts.PassEnvironment)
	}
	if opts.RenderMarkdown {
		settings.Markdown = "yes"
	}

	if opts.DryRun {
		return dryRun(settings, environ, opts.Stdout, log)
	}

	cfg, err := settings.Finalize()
	if err != nil {
		return err
	}

	msg := buildMessage(cfg.Template, environ, cfg.PassEnvironment, cfg.Markdown, log)

	client, err := Dial(cfg.Homeserver, cfg.UserID, log)
	if err != nil {
		return err
	}
	if err := client.Authenticate(ctx, cfg.Auth); err != nil {
		client.Close(ctx)
		return err
	}
	log.Debug().Str("homeserver", cfg.Homeserver).Msg("Sending notification to Matrix chat")
	_, err = client.Send(ctx, cfg.Room, msg)
	client.Close(ctx)
	return err
}

// buildMessage runs the pure stages of the pipeline: filter, render and
// optionally convert.
func buildMessage(template string, environ map[string]string, patterns []string, markdown bool, log zerolog.Logger) *markdownfmt.Message {
	vars := FilterEnvironment(environ, patterns)
	log.Debug().Int("variables", len(vars)).Msg("Filtered environment for template context")

	rendered := Render(template, vars)
	if !markdown {
		return &markdownfmt.Message{Body: rendered}
	}
	log.Debug().Msg("Rendering markdown message to HTML")
	return markdownfmt.Parse(rendered)
}

// dryRun renders and prints the message without touching the network.
// Credentials and room settings are deliberately not validated here, so
// templates can be previewed without a configured account. The whitelist
// patterns are still validated.
func dryRun(settings *Settings, environ map[string]string, stdout io.Writer, log zerolog.Logger) error {
	patterns := settings.PatternList()
	for _, p := range patterns {
		if err := validatePattern(p); err != nil {
			return fmt.Errorf("invalid pass_environment pattern %q: %w", p, err)
		}
	}
	msg := buildMessage(settings.TemplateString(), environ, patterns, settings.MarkdownEnabled(), log)
	fmt.Fprintln(stdout, msg.Body)
	if msg.FormattedBody != "" {
		fmt.Fprintln(stdout, msg.FormattedBody)
	}
	return nil
}
