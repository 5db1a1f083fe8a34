package wire

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-dap"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "request"},
			Command:         "initialize",
		},
		Arguments: dap.InitializeRequestArguments{AdapterID: "delve"},
	}

	require.NoError(t, Encode(&buf, req))

	dec := NewDecoder(bufio.NewReader(&buf), 0)
	msg, err := dec.Decode()
	require.NoError(t, err)

	got, ok := msg.(*dap.InitializeRequest)
	require.True(t, ok)
	require.Equal(t, "delve", got.Arguments.AdapterID)
	require.Equal(t, 1, got.Seq)
}

func TestDecodeMissingContentLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("X-Foo: bar\r\n\r\n{}"))
	dec := NewDecoder(r, 0)

	_, err := dec.Decode()
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing Content-Length")
}

func TestDecodeRejectsOversizedBody(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 99999999\r\n\r\n"))
	dec := NewDecoder(r, 1024)

	_, err := dec.Decode()
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds cap")
}

func TestDecodeRejectsNegativeContentLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: -5\r\n\r\n{}"))
	dec := NewDecoder(r, 0)

	_, err := dec.Decode()
	require.Error(t, err)
	require.Contains(t, err.Error(), "negative Content-Length")
}

func TestDecodeRejectsDuplicateHeader(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 2\r\nContent-Length: 2\r\n\r\n{}"))
	dec := NewDecoder(r, 0)

	_, err := dec.Decode()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestDecodeRejectsTruncatedBody(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 10\r\n\r\n{}"))
	dec := NewDecoder(r, 0)

	_, err := dec.Decode()
	require.Error(t, err)
	require.Contains(t, err.Error(), "truncated")
}

func TestDecodeIgnoresUnknownHeaders(t *testing.T) {
	body := `{"seq":1,"type":"event","event":"initialized"}`
	msg := "X-Trace-Id: abc123\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
	r := bufio.NewReader(strings.NewReader(msg))
	dec := NewDecoder(r, 0)

	decoded, err := dec.Decode()
	require.NoError(t, err)
	_, ok := decoded.(*dap.InitializedEvent)
	require.True(t, ok)
}
