// Package pjlink implements the PJLink class 1 wire protocol: framing,
// greeting and response parsing, digest authentication, the outbound command
// queue, and per-command response interpretation.
package pjlink

import (
	"bytes"
	"strings"
)

const (
	// DefaultPort is the TCP port PJLink devices listen on.
	DefaultPort = 4352

	// Terminator ends every PJLink frame in both directions.
	Terminator = '\r'

	// MaxFrameSize bounds a single inbound message including its terminator.
	MaxFrameSize = 136

	// MinResponseLen and MaxResponseLen bound a terminator-stripped response.
	MinResponseLen = 8
	MaxResponseLen = 135

	// GreetingPrefix opens the frame a device sends right after accept.
	GreetingPrefix = "PJLINK "

	// DigestLen is the width of the hex digest prefixed to authenticated commands.
	DigestLen = 32
)

// Fixed byte offsets within a response frame.
const (
	offsetHeader    = 0
	offsetClass     = 1
	offsetOpcode    = 2
	offsetSeparator = 6
	offsetPayload   = 7
)

// AuthMode is the authentication requirement announced in the greeting.
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthDigest
)

func (m AuthMode) String() string {
	switch m {
	case AuthNone:
		return "none"
	case AuthDigest:
		return "digest"
	default:
		return "unknown"
	}
}

// Greeting is a parsed "PJLINK <flag>[ <salt>]" frame.
type Greeting struct {
	Auth AuthMode
	Salt string
}

// Response is a parsed "%1<OPCODE>=<PAYLOAD>" frame.
type Response struct {
	Opcode  string
	Payload string
}

// IsGreeting reports whether frame starts with the greeting prefix.
func IsGreeting(frame []byte) bool {
	return bytes.HasPrefix(frame, []byte(GreetingPrefix))
}

// ParseGreeting decodes a greeting frame. A greeting carrying ERRA returns
// ErrAuthenticationFailed.
func ParseGreeting(frame []byte) (Greeting, error) {
	if !IsGreeting(frame) || len(frame) <= len(GreetingPrefix) {
		return Greeting{}, frameError(ErrInvalidGreeting, frame)
	}

	rest := string(frame[len(GreetingPrefix):])
	switch rest[0] {
	case '0':
		return Greeting{Auth: AuthNone}, nil
	case '1':
		fields := strings.Fields(rest[1:])
		if len(fields) == 0 {
			return Greeting{}, frameError(ErrInvalidGreeting, frame)
		}
		return Greeting{Auth: AuthDigest, Salt: fields[0]}, nil
	case 'E':
		// "PJLINK ERRA" is the only error greeting class 1 defines.
		return Greeting{}, frameError(ErrAuthenticationFailed, frame)
	}
	return Greeting{}, frameError(ErrInvalidGreeting, frame)
}

// ParseResponse validates a class 1 response frame and splits it into
// opcode and payload.
func ParseResponse(frame []byte) (Response, error) {
	if len(frame) < MinResponseLen || len(frame) > MaxResponseLen {
		return Response{}, frameError(ErrInvalidLength, frame)
	}
	if frame[offsetHeader] != '%' {
		return Response{}, frameError(ErrInvalidHeader, frame)
	}
	if frame[offsetClass] != '1' {
		return Response{}, frameError(ErrUnsupportedClass, frame)
	}
	if frame[offsetSeparator] != '=' {
		return Response{}, frameError(ErrInvalidSeparator, frame)
	}

	return Response{
		Opcode:  string(frame[offsetOpcode:offsetSeparator]),
		Payload: string(frame[offsetPayload:]),
	}, nil
}
