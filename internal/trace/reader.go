package trace

import (
	"bufio"
	"compress/gzip"
	"io"
)

// gzipMagic is the two leading bytes of every gzip stream (RFC 1952 §2.3.1).
var gzipMagic = [2]byte{0x1f, 0x8b}

// maybeGunzip peeks at a stream's first two bytes and transparently wraps it
// in a gzip.Reader if they match the gzip magic number, otherwise returns
// the stream unmodified. This lets manifest and trace files be either plain
// text or gzip-compressed without the caller needing to know which.
func maybeGunzip(r io.Reader) (io.Reader, error) {
	buffered := bufio.NewReader(r)

	peeked, err := buffered.Peek(2)
	if err != nil {
		// Fewer than 2 bytes available (e.g. an empty file): treat as plain
		// text, there is nothing to decompress.
		return buffered, nil
	}

	if peeked[0] == gzipMagic[0] && peeked[1] == gzipMagic[1] {
		return gzip.NewReader(buffered)
	}

	return buffered, nil
}
