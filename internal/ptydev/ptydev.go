// Package ptydev opens the console pseudoterminal device.
package ptydev

import (
	"fmt"
	"io"
	"os"
)

// Open opens the pty device at path twice: a read-only handle for the
// reader loop and a write-only handle for the input writer. The two
// halves are exclusively owned by those loops for the process lifetime,
// so no locking on the descriptors is ever needed.
//
// Opening the device once in read-write mode and sharing the handle
// deadlocks with some guest console drivers, which is why the device is
// opened twice instead of split.
func Open(path string) (r io.ReadCloser, w io.WriteCloser, err error) {
	reader, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open pty for reading: %w", err)
	}

	writer, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		reader.Close()
		return nil, nil, fmt.Errorf("failed to open pty for writing: %w", err)
	}

	return reader, writer, nil
}
