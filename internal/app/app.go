// Package app wires argument parsing, configuration, and the PJLink session
// into one process run with an exit code.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/rbright/pjctl/internal/cli"
	"github.com/rbright/pjctl/internal/config"
	"github.com/rbright/pjctl/internal/doctor"
	"github.com/rbright/pjctl/internal/fsm"
	"github.com/rbright/pjctl/internal/logging"
	"github.com/rbright/pjctl/internal/pjlink"
	"github.com/rbright/pjctl/internal/render"
	"github.com/rbright/pjctl/internal/session"
	"github.com/rbright/pjctl/internal/transport"
	"github.com/rbright/pjctl/internal/version"
)

const binaryName = "pjctl"

// EnvPassword supplies the projector password when no flag does.
const EnvPassword = "PJLINK_PASSWORD"

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdin: os.Stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 1
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.ShowVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	cfgLoaded.Config = applyFlags(cfgLoaded.Config, parsed)
	cfg := cfgLoaded.Config

	renderer, err := render.New(cfg.Format, r.Stdout, r.Stderr)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		renderer.Warn(msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	for _, w := range parsed.Warnings {
		renderer.Warn(w)
	}

	target := cfg.Resolve(parsed.Host)
	if parsed.PortSet {
		target.Port = parsed.Port
	}

	password, err := r.resolvePassword(parsed, target)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("resolve password failed", "error", err.Error())
		return 1
	}

	logger.Info("command start",
		"command", parsed.Command,
		"host", target.Host,
		"port", target.Port,
		"alias", target.Alias,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	if parsed.Command == cli.CommandDoctor {
		report := doctor.Run(ctx, doctor.Input{Loaded: cfgLoaded, Target: target, Password: password})
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	}

	return r.runSession(ctx, parsed, cfg, target, password, renderer, logger)
}

func (r Runner) runSession(
	ctx context.Context,
	parsed cli.Parsed,
	cfg config.Config,
	target config.Target,
	password string,
	renderer *render.Renderer,
	logger *slog.Logger,
) int {
	doc := render.Document{Host: parsed.Host, Command: string(parsed.Command)}
	address := transport.Address(target.Host, target.Port)

	conn, err := transport.Dial(ctx, address, transport.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
	})
	if err != nil {
		logger.Error("connect failed", "address", address, "error", err.Error())
		doc.State = string(fsm.StateFailed)
		doc.Error = err.Error()
		return r.finish(renderer, doc, 1)
	}
	defer func() { _ = conn.Close() }()

	sess := session.New(conn, pjlink.NewQueue(parsed.Commands...), session.Options{
		Password: password,
		Logger:   logger.With("address", address),
		OnReport: renderer.Report,
	})
	result := sess.Run(ctx)
	logSessionResult(logger, result)

	doc.State = string(result.State)
	doc.Authenticated = result.Authenticated
	doc.Sent = result.Sent
	doc.Reports = result.Reports
	if result.Err != nil {
		doc.Error = describe(result.Err)
		return r.finish(renderer, doc, 1)
	}
	return r.finish(renderer, doc, 0)
}

func (r Runner) finish(renderer *render.Renderer, doc render.Document, code int) int {
	if err := renderer.Finish(doc); err != nil {
		fmt.Fprintf(r.Stderr, "error: write output: %v\n", err)
		return 1
	}
	return code
}

// applyFlags overlays explicit command-line settings on the loaded config.
func applyFlags(cfg config.Config, parsed cli.Parsed) config.Config {
	if parsed.Format != "" {
		cfg.Format = strings.ToLower(strings.TrimSpace(parsed.Format))
	}
	if parsed.ReadTimeoutSet {
		cfg.ReadTimeout = parsed.ReadTimeout
	}
	return cfg
}

// resolvePassword picks the first non-empty source: flag, password file,
// environment, then the alias or global config password.
func (r Runner) resolvePassword(parsed cli.Parsed, target config.Target) (string, error) {
	if parsed.Password != "" {
		return parsed.Password, nil
	}
	if parsed.PasswordFile != "" {
		return r.readPasswordFile(parsed.PasswordFile)
	}
	if env := os.Getenv(EnvPassword); env != "" {
		return env, nil
	}
	return target.Password, nil
}

func (r Runner) readPasswordFile(path string) (string, error) {
	if path == "-" {
		return r.promptPassword()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read password file: %w", err)
	}
	password := strings.TrimRight(string(content), "\r\n")
	if password == "" {
		return "", fmt.Errorf("password file %q is empty", path)
	}
	return password, nil
}

func (r Runner) promptPassword() (string, error) {
	f, ok := r.Stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", errors.New("--password-file - requires an interactive terminal")
	}

	fmt.Fprint(r.Stderr, "Password: ")
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(r.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, pjlink.ErrAuthRequired):
		return fmt.Sprintf("%v; supply --password, --password-file or %s", err, EnvPassword)
	case errors.Is(err, pjlink.ErrAuthenticationFailed):
		return "authentication failed: projector rejected the password"
	default:
		return err.Error()
	}
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"sent", result.Sent,
		"reports", len(result.Reports),
		"authenticated", result.Authenticated,
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}
