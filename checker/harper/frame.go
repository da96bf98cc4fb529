package harper

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// MaxFrameSize bounds a single frame body.
const MaxFrameSize = 8 << 20

var errMissingLength = errors.New("harper: missing Content-Length header")

// readFrame reads one Content-Length framed body and decodes it into v.
func readFrame(r *bufio.Reader, v any) error {
	size := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("harper: invalid Content-Length: %w", err)
			}
			size = n
		}
	}
	if size < 0 {
		return errMissingLength
	}
	if size > MaxFrameSize {
		return fmt.Errorf("harper: frame of %d bytes exceeds limit", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("harper: decode frame: %w", err)
	}
	return nil
}

// writeFrame encodes v and writes it with a Content-Length header.
func writeFrame(w io.Writer, v any) error {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("harper: encode frame: %w", err)
	}
	size, err := safecast.Conv[uint32](len(body))
	if err != nil || size > MaxFrameSize {
		return fmt.Errorf("harper: frame of %d bytes exceeds limit", len(body))
	}
	header := "Content-Length: " + strconv.FormatUint(uint64(size), 10) + "\r\n\r\n"
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
