package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/pjctl/internal/cli"
	"github.com/rbright/pjctl/internal/config"
	"github.com/rbright/pjctl/internal/render"
)

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--version"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "pjctl")
	require.Empty(t, stderr.String())
}

func TestExecuteUsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown command", args: []string{"beamer", "reboot"}, wantErr: "unknown command"},
		{name: "missing host", args: nil, wantErr: "missing host"},
		{name: "bad power state", args: []string{"beamer", "power", "maybe"}, wantErr: "expected on or off"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout bytes.Buffer
			var stderr bytes.Buffer

			exitCode := Execute(context.Background(), tc.args, &stdout, &stderr)
			require.Equal(t, 1, exitCode)
			require.Contains(t, stderr.String(), tc.wantErr)
			require.Contains(t, stderr.String(), "Usage:")
			require.Empty(t, stdout.String())
		})
	}
}

func TestRunnerPowerOn(t *testing.T) {
	paths := setupRunnerEnv(t)
	projector := startProjector(t, "PJLINK 0\r", "%1POWR=OK\r")

	runner, stdout, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, projector.address, "power", "on"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Equal(t, "power on: OK\n", stdout.String())
	require.Empty(t, stderr.String())
	require.Equal(t, []string{"%1POWR 1\r"}, projector.received(t))
}

func TestRunnerWithoutConfigFileIsQuiet(t *testing.T) {
	setupRunnerEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	projector := startProjector(t, "PJLINK 0\r", "%1POWR=OK\r")

	runner, stdout, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{projector.address, "power", "on"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Equal(t, "power on: OK\n", stdout.String())
	require.Empty(t, stderr.String())
	require.Equal(t, []string{"%1POWR 1\r"}, projector.received(t))
}

func TestRunnerDigestAuthentication(t *testing.T) {
	paths := setupRunnerEnv(t)
	projector := startProjector(t, "PJLINK 1 abc123\r", "%1POWR=OK\r")

	runner, _, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "-p", "secret", projector.address, "power", "off"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Equal(t, []string{"38d4588fdbc729ba5f07c49b42d195a0%1POWR 0\r"}, projector.received(t))
}

func TestRunnerAliasPasswordPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		wantDigest string
	}{
		{name: "alias password", env: "", wantDigest: "1c0fe13d5cc61ecda55bb8e59af8644a"},
		{name: "environment wins over alias", env: "secret", wantDigest: "38d4588fdbc729ba5f07c49b42d195a0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			paths := setupRunnerEnv(t)
			t.Setenv(EnvPassword, tc.env)
			projector := startProjector(t, "PJLINK 1 abc123\r", "%1AVMT=OK\r")

			host, port, err := net.SplitHostPort(projector.address)
			require.NoError(t, err)
			writeConfig(t, paths.configPath, fmt.Sprintf(`
password = "global"

[projectors.lobby]
address = %q
port = %s
password = "fromconfig"
`, host, port))

			runner, stdout, stderr := newRunner()
			exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "lobby", "mute", "video", "on"})
			require.Equal(t, 0, exitCode, stderr.String())
			require.Equal(t, "video mute on: OK\n", stdout.String())
			require.Equal(t, []string{tc.wantDigest + "%1AVMT 11\r"}, projector.received(t))
		})
	}
}

func TestRunnerAuthRequiredSendsNothing(t *testing.T) {
	paths := setupRunnerEnv(t)
	projector := startProjector(t, "PJLINK 1 abc123\r")

	runner, stdout, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, projector.address, "power", "on"})
	require.Equal(t, 1, exitCode)
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "authentication required")
	require.Contains(t, stderr.String(), EnvPassword)
	require.Empty(t, projector.received(t))
}

func TestRunnerAuthenticationRejected(t *testing.T) {
	paths := setupRunnerEnv(t)
	projector := startProjector(t, "PJLINK 1 abc123\r", "PJLINK ERRA\r")

	runner, _, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "-p", "wrong", projector.address, "status"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "authentication failed")
	require.Len(t, projector.received(t), 1)
}

func TestRunnerDeviceErrorIsNotFatal(t *testing.T) {
	paths := setupRunnerEnv(t)
	projector := startProjector(t, "PJLINK 0\r", "%1INPT=ERR2\r")

	runner, stdout, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, projector.address, "source", "net"})
	require.Equal(t, 0, exitCode)
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "warning: missing source number, defaulting to 1")
	require.Contains(t, stderr.String(), "error: source select net1: Out-of-parameter.")
	require.Equal(t, []string{"%1INPT 51\r"}, projector.received(t))
}

func TestRunnerMalformedResponseIsFatal(t *testing.T) {
	paths := setupRunnerEnv(t)
	projector := startProjector(t, "PJLINK 0\r", "%2POWR=OK\r")

	runner, _, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, projector.address, "power", "on"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "unsupported")
	projector.received(t)
}

func TestRunnerStatusJSON(t *testing.T) {
	paths := setupRunnerEnv(t)
	projector := startProjector(t, "PJLINK 0\r",
		"%1NAME=Lobby\r",
		"%1INF1=ACME\r",
		"%1INF2=Beamer 3000\r",
		"%1INFO=rev2\r",
		"%1POWR=1\r",
		"%1INPT=31\r",
		"%1INST=11 31 52\r",
		"%1AVMT=30\r",
		"%1LAMP=1200 1\r",
		"%1ERST=000000\r",
		"%1CLSS=1\r",
	)

	runner, stdout, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "-o", "json", projector.address, "status"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Len(t, projector.received(t), 11)

	var doc render.Document
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	require.Equal(t, "finished", doc.State)
	require.Equal(t, string(cli.CommandStatus), doc.Command)
	require.Equal(t, 11, doc.Sent)
	require.Len(t, doc.Reports, 11)
	require.Equal(t, "Lobby", doc.Reports[0].Value)
	require.Equal(t, "on", doc.Reports[4].Value)
	require.Equal(t, []string{"rgb1", "digital1", "net2"}, doc.Reports[6].Items)
	require.Equal(t, "1200", doc.Reports[8].Lamps[0].Hours)
	require.Equal(t, "none", doc.Reports[9].Value)
	require.Empty(t, doc.Error)
}

func TestRunnerConnectFailure(t *testing.T) {
	paths := setupRunnerEnv(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := ln.Addr().String()
	require.NoError(t, ln.Close())

	runner, stdout, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "-o", "yaml", address, "power", "on"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout.String(), "state: failed")
	require.Contains(t, stdout.String(), "connect "+address)
	require.Empty(t, stderr.String())
}

func TestRunnerDoctor(t *testing.T) {
	paths := setupRunnerEnv(t)
	projector := startProjector(t, "PJLINK 0\r")

	runner, stdout, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, projector.address, "doctor"})
	require.Equal(t, 0, exitCode, stdout.String())
	require.Contains(t, stdout.String(), "[OK] greeting")
	require.Empty(t, stderr.String())
	require.Empty(t, projector.received(t))
}

func TestRunnerInvalidConfigFails(t *testing.T) {
	paths := setupRunnerEnv(t)
	writeConfig(t, paths.configPath, "port = 0\n")

	runner, _, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "beamer", "status"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "port must be between")
}

func TestRunnerUnknownFormatFlag(t *testing.T) {
	paths := setupRunnerEnv(t)

	runner, _, stderr := newRunner()
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "-o", "xml", "beamer", "status"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), `unknown output format "xml"`)
}

func TestResolvePasswordPrecedence(t *testing.T) {
	dir := t.TempDir()
	passwordFile := filepath.Join(dir, "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("fromfile\n"), 0o600))
	emptyFile := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(emptyFile, []byte("\n"), 0o600))

	target := config.Target{Password: "fromconfig"}
	tests := []struct {
		name    string
		parsed  cli.Parsed
		env     string
		want    string
		wantErr string
	}{
		{name: "flag first", parsed: cli.Parsed{Password: "flag", PasswordFile: passwordFile}, env: "env", want: "flag"},
		{name: "file before env", parsed: cli.Parsed{PasswordFile: passwordFile}, env: "env", want: "fromfile"},
		{name: "env before config", env: "env", want: "env"},
		{name: "config last", want: "fromconfig"},
		{name: "empty file", parsed: cli.Parsed{PasswordFile: emptyFile}, wantErr: "is empty"},
		{name: "missing file", parsed: cli.Parsed{PasswordFile: filepath.Join(dir, "nope")}, wantErr: "read password file"},
		{name: "prompt without terminal", parsed: cli.Parsed{PasswordFile: "-"}, wantErr: "interactive terminal"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvPassword, tc.env)
			runner := Runner{Stdin: strings.NewReader(""), Stdout: io.Discard, Stderr: io.Discard}

			got, err := runner.resolvePassword(tc.parsed, target)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

type runnerPaths struct {
	configPath string
}

func setupRunnerEnv(t *testing.T) runnerPaths {
	t.Helper()

	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv(EnvPassword, "")

	configPath := filepath.Join(t.TempDir(), "config.conf")
	writeConfig(t, configPath, "\n")

	return runnerPaths{configPath: configPath}
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newRunner() (Runner, *bytes.Buffer, *bytes.Buffer) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	return Runner{Stdin: strings.NewReader(""), Stdout: &stdout, Stderr: &stderr}, &stdout, &stderr
}

type fakeProjector struct {
	address string
	lines   chan []string
}

// startProjector accepts one connection, sends greeting, and answers each
// CR-terminated command with the next reply. Once replies run out it keeps
// reading until the client hangs up.
func startProjector(t *testing.T, greeting string, replies ...string) fakeProjector {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	lines := make(chan []string, 1)
	go func() {
		var received []string
		defer func() { lines <- received }()

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

		if _, err := io.WriteString(conn, greeting); err != nil {
			return
		}
		reader := bufio.NewReader(conn)
		for {
			line, err := reader.ReadString('\r')
			if err != nil {
				return
			}
			received = append(received, line)
			if len(replies) == 0 {
				continue
			}
			if _, err := io.WriteString(conn, replies[0]); err != nil {
				return
			}
			replies = replies[1:]
		}
	}()

	return fakeProjector{address: ln.Addr().String(), lines: lines}
}

func (p fakeProjector) received(t *testing.T) []string {
	t.Helper()
	select {
	case lines := <-p.lines:
		return lines
	case <-time.After(10 * time.Second):
		t.Fatal("fake projector did not finish")
		return nil
	}
}

