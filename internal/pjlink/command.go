package pjlink

import (
	"fmt"
	"strings"
)

// Kind selects how a command's response payload is interpreted.
type Kind int

const (
	KindPower Kind = iota + 1
	KindSource
	KindMute
	KindName
	KindManufacturer
	KindProduct
	KindModelInfo
	KindInputSwitch
	KindInputList
	KindLamp
	KindErrorStatus
	KindClass
)

// Command is one outbound request and the knowledge needed to interpret its
// response. It is immutable once built.
type Command struct {
	opcode string
	wire   string
	kind   Kind
	label  string
}

// NewCommand builds a class 1 command line "%1<opcode> <param>\r".
// label, when non-empty, is shown ahead of the parsed result.
func NewCommand(opcode, param string, kind Kind, label string) Command {
	return Command{
		opcode: opcode,
		wire:   "%1" + opcode + " " + param + string(rune(Terminator)),
		kind:   kind,
		label:  label,
	}
}

func (c Command) Opcode() string { return c.opcode }
func (c Command) Kind() Kind     { return c.kind }
func (c Command) Label() string  { return c.label }

// Wire returns the exact command line, terminator included.
func (c Command) Wire() string { return c.wire }

// Power switches the projector on or off.
func Power(on bool) Command {
	if on {
		return NewCommand("POWR", "1", KindPower, "power on")
	}
	return NewCommand("POWR", "0", KindPower, "power off")
}

// inputNames maps the source class digit to its name.
var inputNames = map[byte]string{
	'1': "rgb",
	'2': "video",
	'3': "digital",
	'4': "storage",
	'5': "net",
}

var inputOrder = []byte{'1', '2', '3', '4', '5'}

func inputName(class byte) string {
	if name, ok := inputNames[class]; ok {
		return name
	}
	return "unknown"
}

// InputNames lists the selectable source names in class order.
func InputNames() []string {
	names := make([]string, 0, len(inputOrder))
	for _, class := range inputOrder {
		names = append(names, inputNames[class])
	}
	return names
}

// Input identifies one projector source: class digit and number digit.
type Input struct {
	Class  byte
	Number byte
}

func (in Input) String() string {
	return inputName(in.Class) + string(in.Number)
}

// ParseInput decodes "<name>[1-9]". defaulted is true when the number was
// omitted and 1 was assumed.
func ParseInput(s string) (in Input, defaulted bool, err error) {
	for _, class := range inputOrder {
		name := inputNames[class]
		if !strings.HasPrefix(s, name) {
			continue
		}
		rest := s[len(name):]
		switch {
		case rest == "":
			return Input{Class: class, Number: '1'}, true, nil
		case len(rest) == 1 && rest[0] >= '1' && rest[0] <= '9':
			return Input{Class: class, Number: rest[0]}, false, nil
		default:
			return Input{}, false, fmt.Errorf("invalid source number %q", rest)
		}
	}
	return Input{}, false, fmt.Errorf("incorrect source type %q", s)
}

// Source selects an input.
func Source(in Input) Command {
	param := string([]byte{in.Class, in.Number})
	return NewCommand("INPT", param, KindSource, "source select "+in.String())
}

// MuteTarget selects what AVMT mutes.
type MuteTarget byte

const (
	MuteVideo MuteTarget = '1'
	MuteAudio MuteTarget = '2'
	MuteAV    MuteTarget = '3'
)

var muteTargetNames = map[MuteTarget]string{
	MuteVideo: "video",
	MuteAudio: "audio",
	MuteAV:    "av",
}

func (t MuteTarget) String() string {
	if name, ok := muteTargetNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseMuteTarget decodes video, audio or av.
func ParseMuteTarget(s string) (MuteTarget, error) {
	for target, name := range muteTargetNames {
		if s == name {
			return target, nil
		}
	}
	return 0, fmt.Errorf("incorrect mute target %q", s)
}

// Mute turns muting of target on or off.
func Mute(target MuteTarget, on bool) Command {
	state, flag := "off", byte('0')
	if on {
		state, flag = "on", '1'
	}
	param := string([]byte{byte(target), flag})
	return NewCommand("AVMT", param, KindMute, target.String()+" mute "+state)
}

// statusQueries is the fixed order of the status report.
var statusQueries = []struct {
	opcode string
	kind   Kind
}{
	{"NAME", KindName},
	{"INF1", KindManufacturer},
	{"INF2", KindProduct},
	{"INFO", KindModelInfo},
	{"POWR", KindPower},
	{"INPT", KindInputSwitch},
	{"INST", KindInputList},
	{"AVMT", KindMute},
	{"LAMP", KindLamp},
	{"ERST", KindErrorStatus},
	{"CLSS", KindClass},
}

// StatusQueries returns every status query command in report order.
func StatusQueries() []Command {
	cmds := make([]Command, 0, len(statusQueries))
	for _, q := range statusQueries {
		cmds = append(cmds, NewCommand(q.opcode, "?", q.kind, ""))
	}
	return cmds
}
