package pjlink

import (
	"bytes"
	"fmt"
	"io"
)

// FrameReader slices a byte stream into CR-terminated PJLink frames.
//
// Bytes received after a terminator are kept for the next call, so a frame
// may span several reads and one read may carry several frames. A frame
// that has not terminated within MaxFrameSize bytes is ErrInvalidFrame.
type FrameReader struct {
	r   io.Reader
	buf [MaxFrameSize]byte
	n   int
}

// NewFrameReader wraps r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame blocks until one frame is available and returns it without the
// terminator. The returned slice is owned by the caller.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	for {
		if i := bytes.IndexByte(fr.buf[:fr.n], Terminator); i >= 0 {
			frame := make([]byte, i)
			copy(frame, fr.buf[:i])
			fr.n = copy(fr.buf[:], fr.buf[i+1:fr.n])
			return frame, nil
		}
		if fr.n == len(fr.buf) {
			return nil, frameError(ErrInvalidFrame, fr.buf[:fr.n])
		}

		read, err := fr.r.Read(fr.buf[fr.n:])
		fr.n += read
		if read > 0 {
			continue
		}
		if err == nil || err == io.EOF {
			return nil, ErrTransportClosed
		}
		return nil, fmt.Errorf("%w: %w", ErrTransportClosed, err)
	}
}
