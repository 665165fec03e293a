package pjlink

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportClosed indicates the device closed the stream or a read failed.
	ErrTransportClosed = errors.New("transport closed")

	// ErrInvalidFrame indicates no terminator arrived within MaxFrameSize bytes.
	ErrInvalidFrame = errors.New("invalid pjlink frame")

	// ErrInvalidGreeting indicates the first frame was not a usable PJLINK greeting.
	ErrInvalidGreeting = errors.New("invalid greeting")

	// ErrUnexpectedGreeting indicates a greeting arrived after the handshake.
	ErrUnexpectedGreeting = errors.New("unexpected greeting")

	// ErrAuthRequired indicates the device demands a password and none is configured.
	ErrAuthRequired = errors.New("authentication required but no password configured")

	// ErrAuthenticationFailed indicates the device rejected the password (ERRA).
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrHashComputationFailed indicates the authentication digest could not be computed.
	ErrHashComputationFailed = errors.New("hash computation failed")

	ErrInvalidLength       = errors.New("invalid packet length")
	ErrInvalidHeader       = errors.New("invalid pjlink header")
	ErrUnsupportedClass    = errors.New("unsupported pjlink class")
	ErrInvalidSeparator    = errors.New("incorrect separator in pjlink response")
	ErrUnsolicitedResponse = errors.New("response without a command in flight")

	// ErrEmptyQueue indicates a session was started with nothing to send.
	ErrEmptyQueue = errors.New("no commands queued")
)

// FrameError ties a protocol violation to the frame that caused it.
type FrameError struct {
	Err   error
	Frame string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Frame)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

func frameError(err error, frame []byte) error {
	return &FrameError{Err: err, Frame: string(frame)}
}

// DeviceError is an error code reported by the projector in a response payload.
type DeviceError struct {
	Code    string
	Message string
}

func (e DeviceError) Error() string {
	return e.Message
}

var (
	ErrUndefinedCommand = DeviceError{Code: "ERR1", Message: "Undefined command."}
	ErrOutOfParameter   = DeviceError{Code: "ERR2", Message: "Out-of-parameter."}
	ErrUnavailableTime  = DeviceError{Code: "ERR3", Message: "Unavailable time."}
	ErrProjectorFailure = DeviceError{Code: "ERR4", Message: "Projector failure."}
)
