// Package wire implements the DAP message framing described in the bridge
// design: a "Content-Length: N\r\n\r\n" header followed by exactly N bytes
// of UTF-8 JSON. The teacher leans on google/go-dap's ReadProtocolMessage
// for this, which has no configurable size cap; this package does its own
// header parsing so a malformed or hostile adapter can't make the bridge
// buffer an unbounded body, then hands the decoded bytes to go-dap's own
// message decoder so the wire types stay exactly what the rest of the
// corpus uses.
package wire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/go-dap"

	"github.com/dapbridge/mcp-debugger/internal/errs"
)

// DefaultMaxBodyBytes is the default cap on a single message body (16 MiB),
// matching spec §4.1.
const DefaultMaxBodyBytes = 16 * 1024 * 1024

const contentLengthHeader = "Content-Length"

// Decoder reads framed DAP messages off a byte stream.
type Decoder struct {
	r            *bufio.Reader
	maxBodyBytes int
}

// NewDecoder wraps r with DAP framing. maxBodyBytes <= 0 selects
// DefaultMaxBodyBytes.
func NewDecoder(r *bufio.Reader, maxBodyBytes int) *Decoder {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Decoder{r: r, maxBodyBytes: maxBodyBytes}
}

// Decode reads one "Content-Length" framed message and returns the decoded
// DAP message. Unknown headers are ignored; a missing or duplicate
// Content-Length header, a non-numeric length, a length over the cap, or a
// truncated body all produce a *errs.Error with CodeProtocolError.
func (d *Decoder) Decode() (dap.Message, error) {
	length := -1

	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			// Blank line: end of headers.
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errs.ProtocolError(
				fmt.Sprintf("malformed header line %q", line))
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		if !strings.EqualFold(name, contentLengthHeader) {
			// Unknown headers are ignored per spec §4.1.
			continue
		}

		if length != -1 {
			return nil, errs.ProtocolError("duplicate Content-Length header")
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, errs.ProtocolError(
				fmt.Sprintf("non-numeric Content-Length %q", value))
		}
		if n < 0 {
			return nil, errs.ProtocolError(
				fmt.Sprintf("negative Content-Length %d", n))
		}
		length = n
	}

	if length == -1 {
		return nil, errs.ProtocolError("missing Content-Length header")
	}
	if length > d.maxBodyBytes {
		return nil, errs.ProtocolError(fmt.Sprintf(
			"Content-Length %d exceeds cap %d", length, d.maxBodyBytes))
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(d.r, body); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, errs.ProtocolError("truncated message body")
		}
		return nil, err
	}

	msg, err := dap.DecodeProtocolMessage(body)
	if err != nil {
		return nil, errs.ProtocolError(fmt.Sprintf("invalid DAP JSON: %v", err))
	}
	return msg, nil
}

// Encode frames and writes msg to w. The caller is responsible for
// serializing concurrent writers (see internal/transport).
func Encode(w io.Writer, msg dap.Message) error {
	body, err := dap.EncodeProtocolMessage(msg)
	if err != nil {
		return errs.ProtocolError(fmt.Sprintf("could not encode message: %v", err))
	}

	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
