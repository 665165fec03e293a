// Package cli parses pjctl arguments into a validated command request.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/rbright/pjctl/internal/pjlink"
)

type Command string

const (
	CommandPower  Command = "power"
	CommandSource Command = "source"
	CommandMute   Command = "mute"
	CommandStatus Command = "status"
	CommandDoctor Command = "doctor"
)

// UsageError marks an argument problem; callers print usage and exit 1.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Parsed is the validated command-line request.
type Parsed struct {
	Host    string
	Command Command
	Args    []string

	// Commands is the queue to send, in order. Empty for doctor.
	Commands []pjlink.Command
	// Warnings are non-fatal argument notes, such as a defaulted source number.
	Warnings []string

	Password     string
	PasswordFile string
	Port         int
	ConfigPath   string
	Format       string
	ReadTimeout  time.Duration

	// PortSet and ReadTimeoutSet distinguish explicit flags from defaults.
	PortSet        bool
	ReadTimeoutSet bool

	ShowHelp    bool
	ShowVersion bool
}

func newFlagSet(p *Parsed) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("pjctl", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&p.Password, "password", "p", "", "projector password")
	flagSet.StringVar(&p.PasswordFile, "password-file", "", "read password from file (- prompts)")
	flagSet.IntVarP(&p.Port, "port", "P", 0, "TCP port")
	flagSet.StringVarP(&p.ConfigPath, "config", "c", "", "config file path")
	flagSet.StringVarP(&p.Format, "format", "o", "", "output format")
	flagSet.DurationVar(&p.ReadTimeout, "read-timeout", 0, "per-read deadline")
	flagSet.BoolVarP(&p.ShowHelp, "help", "h", false, "show help")
	flagSet.BoolVar(&p.ShowVersion, "version", false, "show version")
	return flagSet
}

// Parse validates args (without the binary name) and builds the command queue.
func Parse(args []string) (Parsed, error) {
	var parsed Parsed
	flagSet := newFlagSet(&parsed)
	if err := flagSet.Parse(args); err != nil {
		return Parsed{}, &UsageError{Message: err.Error()}
	}
	if parsed.ShowHelp || parsed.ShowVersion {
		return parsed, nil
	}

	parsed.PortSet = flagSet.Changed("port")
	parsed.ReadTimeoutSet = flagSet.Changed("read-timeout")
	if parsed.PortSet && (parsed.Port < 1 || parsed.Port > 65535) {
		return Parsed{}, usagef("--port must be between 1 and 65535")
	}
	if parsed.ReadTimeout < 0 {
		return Parsed{}, usagef("--read-timeout must be >= 0")
	}

	positional := flagSet.Args()
	switch len(positional) {
	case 0:
		return Parsed{}, usagef("missing host")
	case 1:
		return Parsed{}, usagef("missing command")
	}
	parsed.Host = positional[0]
	if strings.TrimSpace(parsed.Host) == "" {
		return Parsed{}, usagef("missing host")
	}
	parsed.Command = Command(positional[1])
	parsed.Args = positional[2:]

	if err := buildCommands(&parsed); err != nil {
		return Parsed{}, err
	}
	return parsed, nil
}

func buildCommands(p *Parsed) error {
	switch p.Command {
	case CommandPower:
		if len(p.Args) != 1 {
			return usagef("power requires exactly one argument: on|off")
		}
		on, err := parseSwitch(p.Args[0])
		if err != nil {
			return err
		}
		p.Commands = []pjlink.Command{pjlink.Power(on)}
	case CommandSource:
		if len(p.Args) != 1 {
			return usagef("source requires exactly one argument: <%s>[1-9]", strings.Join(pjlink.InputNames(), "|"))
		}
		in, defaulted, err := pjlink.ParseInput(p.Args[0])
		if err != nil {
			return &UsageError{Message: err.Error()}
		}
		if defaulted {
			p.Warnings = append(p.Warnings, "missing source number, defaulting to 1")
		}
		p.Commands = []pjlink.Command{pjlink.Source(in)}
	case CommandMute:
		if len(p.Args) != 2 {
			return usagef("mute requires two arguments: <video|audio|av> <on|off>")
		}
		target, err := pjlink.ParseMuteTarget(p.Args[0])
		if err != nil {
			return &UsageError{Message: err.Error()}
		}
		on, err := parseSwitch(p.Args[1])
		if err != nil {
			return err
		}
		p.Commands = []pjlink.Command{pjlink.Mute(target, on)}
	case CommandStatus:
		if len(p.Args) != 0 {
			return usagef("status takes no arguments")
		}
		p.Commands = pjlink.StatusQueries()
	case CommandDoctor:
		if len(p.Args) != 0 {
			return usagef("doctor takes no arguments")
		}
	default:
		return usagef("unknown command: %s", p.Command)
	}
	return nil
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, usagef("expected on or off, got %q", s)
	}
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] <host> <command> [args]

Commands:
  power <on|off>                                  Switch the projector on or off
  source <rgb|video|digital|storage|net>[1-9]     Select an input source
  mute <video|audio|av> <on|off>                  Mute or unmute video and/or audio
  status                                          Query and print full projector status
  doctor                                          Check config, reachability and authentication

<host> is a config alias, a hostname, or host:port.

Flags:
  -p, --password SECRET      Projector password (also $PJLINK_PASSWORD)
      --password-file PATH   Read password from file; "-" prompts on the terminal
  -P, --port PORT            TCP port (default: 4352)
  -c, --config PATH          Config file path (default: $XDG_CONFIG_HOME/pjctl/config.conf)
  -o, --format FORMAT        Output format: text, json or yaml (default: text)
      --read-timeout DUR     Per-read deadline, e.g. 10s (default: none)
  -h, --help                 Show help
      --version              Show version
`, binaryName)
}
