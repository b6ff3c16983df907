package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

var _ Link = (*CUL)(nil)

// CUL writes frames to a CUL transceiver attached over a serial port.
type CUL struct {
	lock   sync.Mutex
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

func NewCUL(port io.ReadWriteCloser) *CUL {
	return &CUL{port: port, reader: bufio.NewReader(port)}
}

func (c *CUL) Send(frame []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	n, err := c.port.Write(frame)
	if err != nil {
		return fmt.Errorf("%w: failed to write frame: %w", ErrTransportFailure, err)
	}

	if n != len(frame) {
		return fmt.Errorf("%w: short write of frame, %d of %d bytes", ErrTransportFailure, n, len(frame))
	}

	return nil
}

type versionResult struct {
	version string
	err     error
}

// Version asks the firmware for its version string.
func (c *CUL) Version(ctx context.Context) (string, error) {
	if err := c.Send([]byte("V\n")); err != nil {
		return "", err
	}

	ch := make(chan versionResult, 1)

	go func() {
		line, err := c.reader.ReadString('\n')
		ch <- versionResult{version: strings.TrimSpace(line), err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("%w: failed to read version: %w", ErrTransportFailure, r.err)
		}

		return r.version, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: waiting for version: %w", ErrTransportFailure, ctx.Err())
	}
}

func (c *CUL) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.port.Close()
}
