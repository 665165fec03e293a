// Package render prints session reports as text, JSON, or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rbright/pjctl/internal/config"
	"github.com/rbright/pjctl/internal/pjlink"
)

// Document is the structured output emitted once per run in json and yaml formats.
type Document struct {
	Host          string          `json:"host" yaml:"host"`
	Command       string          `json:"command" yaml:"command"`
	State         string          `json:"state" yaml:"state"`
	Authenticated bool            `json:"authenticated" yaml:"authenticated"`
	Sent          int             `json:"sent" yaml:"sent"`
	Reports       []pjlink.Report `json:"reports" yaml:"reports"`
	Error         string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Renderer writes reports in one output format. Text streams each report as
// it arrives; json and yaml buffer until Finish.
type Renderer struct {
	format  string
	stdout  io.Writer
	stderr  io.Writer
	errTag  *color.Color
	warnTag *color.Color
}

// New builds a renderer for format. Colors are used only when stderr is a terminal.
func New(format string, stdout, stderr io.Writer) (*Renderer, error) {
	switch format {
	case config.FormatText, config.FormatJSON, config.FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	errTag := color.New(color.FgRed, color.Bold)
	warnTag := color.New(color.FgYellow)
	if useColor(stderr) {
		errTag.EnableColor()
		warnTag.EnableColor()
	} else {
		errTag.DisableColor()
		warnTag.DisableColor()
	}

	return &Renderer{format: format, stdout: stdout, stderr: stderr, errTag: errTag, warnTag: warnTag}, nil
}

func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Warn prints a non-fatal note to stderr in every format.
func (r *Renderer) Warn(message string) {
	fmt.Fprintf(r.stderr, "%s %s\n", r.warnTag.Sprint("warning:"), message)
}

// Report prints one dispatched report in text mode. Silent reports print nothing.
func (r *Renderer) Report(rep pjlink.Report) {
	if r.format != config.FormatText || rep.Silent() {
		return
	}

	name := subject(rep)
	switch rep.Outcome {
	case pjlink.OutcomeOK:
		fmt.Fprintf(r.stdout, "%s: OK\n", name)
	case pjlink.OutcomeDeviceError, pjlink.OutcomeInvalid:
		fmt.Fprintf(r.stderr, "%s %s: %s\n", r.errTag.Sprint("error:"), name, rep.Message)
	case pjlink.OutcomeValue:
		switch {
		case len(rep.Lamps) > 0:
			for i, lamp := range rep.Lamps {
				state := "off"
				if lamp.On {
					state = "on"
				}
				fmt.Fprintf(r.stdout, "%s %d: %s hours, %s\n", name, i+1, lamp.Hours, state)
			}
		case len(rep.Items) > 0:
			fmt.Fprintf(r.stdout, "%s: %s\n", name, strings.Join(rep.Items, ", "))
		default:
			fmt.Fprintf(r.stdout, "%s: %s\n", name, rep.Value)
		}
	}
}

func subject(rep pjlink.Report) string {
	switch {
	case rep.Label != "":
		return rep.Label
	case rep.Field != "":
		return rep.Field
	default:
		return rep.Opcode
	}
}

// Finish completes output. Text prints only the fatal error, if any; json and
// yaml write the whole document to stdout.
func (r *Renderer) Finish(doc Document) error {
	if doc.Reports == nil {
		doc.Reports = []pjlink.Report{}
	}

	switch r.format {
	case config.FormatJSON:
		enc := json.NewEncoder(r.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case config.FormatYAML:
		enc := yaml.NewEncoder(r.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		if doc.Error != "" {
			r.Error(doc.Error)
		}
		return nil
	}
}

// Error prints a fatal error line to stderr.
func (r *Renderer) Error(message string) {
	fmt.Fprintf(r.stderr, "%s %s\n", r.errTag.Sprint("error:"), message)
}
