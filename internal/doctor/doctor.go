// Package doctor runs readiness diagnostics for config, reachability, and authentication.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/pjctl/internal/config"
	"github.com/rbright/pjctl/internal/pjlink"
	"github.com/rbright/pjctl/internal/transport"
)

// DefaultGreetingTimeout bounds the greeting read when no read timeout is configured.
const DefaultGreetingTimeout = 5 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Input is everything doctor needs from the resolved invocation.
type Input struct {
	Loaded   config.Loaded
	Target   config.Target
	Password string
}

// Run reports on the resolved input and probes the projector greeting
// without sending any command.
func Run(ctx context.Context, in Input) Report {
	checks := []Check{checkConfig(in.Loaded)}

	address := transport.Address(in.Target.Host, in.Target.Port)
	targetMsg := fmt.Sprintf("address %s", address)
	if in.Target.Alias != "" {
		targetMsg = fmt.Sprintf("alias %q -> %s", in.Target.Alias, address)
	}
	checks = append(checks, Check{Name: "target", Pass: true, Message: targetMsg})

	readTimeout := in.Loaded.Config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultGreetingTimeout
	}
	conn, err := transport.Dial(ctx, address, transport.Options{
		ConnectTimeout: in.Loaded.Config.ConnectTimeout,
		ReadTimeout:    readTimeout,
	})
	if err != nil {
		return Report{Checks: append(checks, Check{Name: "connect", Pass: false, Message: err.Error()})}
	}
	defer func() { _ = conn.Close() }()
	checks = append(checks, Check{Name: "connect", Pass: true, Message: fmt.Sprintf("connected to %s", conn.RemoteAddr())})

	greeting, check := checkGreeting(conn)
	checks = append(checks, check)
	if !check.Pass {
		return Report{Checks: checks}
	}

	checks = append(checks, checkAuth(greeting, in.Password))
	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", loaded.Path)}
	}
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if n := len(loaded.Warnings); n > 0 {
		message += fmt.Sprintf(" (%d warning(s))", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkGreeting reads and classifies the first frame the projector sends.
func checkGreeting(conn *transport.Conn) (pjlink.Greeting, Check) {
	frame, err := pjlink.NewFrameReader(conn).ReadFrame()
	if err != nil {
		return pjlink.Greeting{}, Check{Name: "greeting", Pass: false, Message: err.Error()}
	}

	greeting, err := pjlink.ParseGreeting(frame)
	switch {
	case errors.Is(err, pjlink.ErrAuthenticationFailed):
		return greeting, Check{Name: "greeting", Pass: false, Message: "projector refused the connection (PJLINK ERRA)"}
	case err != nil:
		return greeting, Check{Name: "greeting", Pass: false, Message: err.Error()}
	}
	return greeting, Check{Name: "greeting", Pass: true, Message: fmt.Sprintf("PJLink class 1, authentication %s", greeting.Auth)}
}

func checkAuth(greeting pjlink.Greeting, password string) Check {
	switch {
	case greeting.Auth == pjlink.AuthDigest && password == "":
		return Check{Name: "auth", Pass: false, Message: "projector requires a password but none is configured"}
	case greeting.Auth == pjlink.AuthDigest:
		return Check{Name: "auth", Pass: true, Message: "password configured for digest authentication"}
	case password != "":
		return Check{Name: "auth", Pass: true, Message: "no authentication required; configured password is unused"}
	default:
		return Check{Name: "auth", Pass: true, Message: "no authentication required"}
	}
}
