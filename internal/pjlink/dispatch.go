package pjlink

import (
	"errors"
	"strings"
)

// Verdict is the generic classification of a response payload.
type Verdict int

const (
	// VerdictData means the payload is not an acknowledgement and is parsed
	// by the command's own rules.
	VerdictData Verdict = iota
	VerdictOK
	VerdictDeviceError
)

// Interpret applies the error-code rules shared by every command. For
// VerdictDeviceError the returned error is one of the DeviceError values.
func Interpret(payload string) (Verdict, error) {
	if payload == "OK" {
		return VerdictOK, nil
	}
	if !strings.HasPrefix(payload, "ERR") || len(payload) < 4 {
		return VerdictData, nil
	}
	switch payload[3] {
	case '1':
		return VerdictDeviceError, ErrUndefinedCommand
	case '2':
		return VerdictDeviceError, ErrOutOfParameter
	case '3':
		return VerdictDeviceError, ErrUnavailableTime
	case '4':
		return VerdictDeviceError, ErrProjectorFailure
	default:
		return VerdictData, nil
	}
}

// Outcome is what a dispatched response amounted to.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeValue       Outcome = "value"
	OutcomeDeviceError Outcome = "device_error"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeSilent      Outcome = "silent"
)

// Lamp is one lamp entry of a LAMP response.
type Lamp struct {
	Hours string `json:"hours" yaml:"hours"`
	On    bool   `json:"on" yaml:"on"`
}

// Report is the caller-visible result of one command/response exchange.
type Report struct {
	Opcode  string   `json:"opcode" yaml:"opcode"`
	Label   string   `json:"label,omitempty" yaml:"label,omitempty"`
	Field   string   `json:"field,omitempty" yaml:"field,omitempty"`
	Outcome Outcome  `json:"outcome" yaml:"outcome"`
	Value   string   `json:"value,omitempty" yaml:"value,omitempty"`
	Items   []string `json:"items,omitempty" yaml:"items,omitempty"`
	Lamps   []Lamp   `json:"lamps,omitempty" yaml:"lamps,omitempty"`
	Code    string   `json:"code,omitempty" yaml:"code,omitempty"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Silent reports whether the report produces no output.
func (r Report) Silent() bool {
	return r.Outcome == OutcomeSilent
}

// Dispatch interprets resp as the answer to cmd.
func Dispatch(cmd Command, resp Response) Report {
	r := Report{Opcode: cmd.Opcode(), Label: cmd.Label(), Field: fieldNames[cmd.Kind()]}
	payload := resp.Payload

	switch cmd.Kind() {
	case KindName, KindManufacturer, KindProduct, KindModelInfo, KindClass, KindInputSwitch:
		if payload == "" {
			r.Outcome = OutcomeSilent
			return r
		}
	}

	verdict, err := Interpret(payload)
	switch verdict {
	case VerdictOK:
		r.Outcome = OutcomeOK
		return r
	case VerdictDeviceError:
		var de DeviceError
		if errors.As(err, &de) {
			r.Code = de.Code
		}
		r.Outcome = OutcomeDeviceError
		r.Message = err.Error()
		return r
	}

	switch cmd.Kind() {
	case KindPower:
		return parsePower(r, payload)
	case KindSource:
		r.Outcome = OutcomeSilent
		return r
	case KindMute:
		return parseMute(r, payload)
	case KindInputSwitch:
		return parseInputSwitch(r, payload)
	case KindInputList:
		return parseInputList(r, payload)
	case KindLamp:
		return parseLamps(r, payload)
	case KindErrorStatus:
		return parseErrorStatus(r, payload)
	default:
		r.Outcome = OutcomeValue
		r.Value = payload
		return r
	}
}

var fieldNames = map[Kind]string{
	KindPower:        "power status",
	KindMute:         "avmute",
	KindName:         "name",
	KindManufacturer: "manufacturer name",
	KindProduct:      "product name",
	KindModelInfo:    "model info",
	KindInputSwitch:  "current input",
	KindInputList:    "available input sources",
	KindLamp:         "lamp",
	KindErrorStatus:  "error status",
	KindClass:        "class",
}

func invalid(r Report, message string) Report {
	r.Outcome = OutcomeInvalid
	r.Message = message
	return r
}

func value(r Report, v string) Report {
	r.Outcome = OutcomeValue
	r.Value = v
	return r
}

func parsePower(r Report, payload string) Report {
	switch payload {
	case "0":
		return value(r, "off")
	case "1":
		return value(r, "on")
	case "2":
		return value(r, "cooling")
	case "3":
		return value(r, "warm-up")
	default:
		return invalid(r, "invalid response")
	}
}

var muteKinds = map[byte]string{
	'1': "video",
	'2': "audio",
	'3': "video & audio",
}

func parseMute(r Report, payload string) Report {
	if len(payload) != 2 {
		r.Outcome = OutcomeSilent
		return r
	}
	target, ok := muteKinds[payload[0]]
	if !ok {
		return invalid(r, "invalid response")
	}
	switch payload[1] {
	case '0':
		return value(r, target+" mute off")
	case '1':
		return value(r, target+" mute on")
	default:
		return invalid(r, "invalid response")
	}
}

func parseInputSwitch(r Report, payload string) Report {
	if len(payload) != 2 {
		return invalid(r, "invalid response")
	}
	return value(r, Input{Class: payload[0], Number: payload[1]}.String())
}

// parseInputList decodes "<class><number>" pairs separated by one byte. A
// payload of the wrong length yields no output at all.
func parseInputList(r Report, payload string) Report {
	if len(payload)%3 != 2 {
		r.Outcome = OutcomeSilent
		return r
	}
	for i := 0; i < len(payload); i += 3 {
		r.Items = append(r.Items, Input{Class: payload[i], Number: payload[i+1]}.String())
	}
	r.Outcome = OutcomeValue
	return r
}

// maxLampHours is the widest hour counter a LAMP entry carries.
const maxLampHours = 5

// parseLamps decodes "<hours> <on>" entries separated by single spaces.
// Any malformed entry rejects the whole payload.
func parseLamps(r Report, payload string) Report {
	if payload == "" {
		return invalid(r, "invalid message body")
	}

	var lamps []Lamp
	rest := payload
	for rest != "" {
		window := rest
		if len(window) > maxLampHours+1 {
			window = window[:maxLampHours+1]
		}
		sp := strings.IndexByte(window, ' ')
		if sp <= 0 || !allDigits(rest[:sp]) {
			return invalid(r, "invalid message body")
		}
		hours := rest[:sp]
		rest = rest[sp+1:]

		if rest == "" || (rest[0] != '0' && rest[0] != '1') {
			return invalid(r, "invalid message body")
		}
		lamps = append(lamps, Lamp{Hours: hours, On: rest[0] == '1'})
		rest = rest[1:]

		if rest == "" {
			break
		}
		if rest[0] != ' ' {
			return invalid(r, "invalid message body")
		}
		rest = rest[1:]
	}

	r.Lamps = lamps
	r.Outcome = OutcomeValue
	return r
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// errorCategories is the fixed order of ERST digits.
var errorCategories = []string{"fan", "lamp", "temperature", "cover", "filter", "other"}

var errorLevels = map[byte]string{
	'0': "none",
	'1': "warning",
	'2': "error",
}

func parseErrorStatus(r Report, payload string) Report {
	if len(payload) != len(errorCategories) {
		return invalid(r, "malformed error status")
	}
	var items []string
	for i, category := range errorCategories {
		level, ok := errorLevels[payload[i]]
		if !ok {
			return invalid(r, "malformed error status")
		}
		if payload[i] != '0' {
			items = append(items, category+":"+level)
		}
	}
	if len(items) == 0 {
		return value(r, "none")
	}
	r.Items = items
	r.Outcome = OutcomeValue
	return r
}
