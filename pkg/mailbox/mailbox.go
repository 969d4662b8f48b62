// Package mailbox reads the messages of an mbox file.
package mailbox

import (
	"fmt"
	"io"

	"github.com/emersion/go-mbox"
)

// Each calls fn with the number, starting at 1, and bytes of every message in the mbox read from
// r.  It stops at the first error from r or fn and returns the count of messages read.
func Each(r io.Reader, fn func(n int, eml []byte) error) (int, error) {
	mr := mbox.NewReader(r)
	n := 0
	for {
		msg, err := mr.NextMessage()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read mbox message %d: %w", n+1, err)
		}
		eml, err := io.ReadAll(msg)
		if err != nil {
			return n, fmt.Errorf("read mbox message %d: %w", n+1, err)
		}
		n++
		if err := fn(n, eml); err != nil {
			return n, err
		}
	}
}
