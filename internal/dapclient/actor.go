package dapclient

import (
	"context"
	"time"

	"github.com/google/go-dap"
	"github.com/lightningnetwork/lnd/actor"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Request is the actor message wrapper for a single DAP request/response
// exchange, mirroring the teacher's debugger.DAPRequest (debugger/dap_messages.go)
// so the session manager can register a Client with the actor system the
// same way the teacher registers a Session.
type Request struct {
	actor.BaseMessage
	Msg     dap.Message
	Timeout time.Duration // 0 selects DefaultTimeout
}

func (r *Request) MessageType() string { return "dapclient.Request" }

// Response is the actor message wrapper for a DAP response.
type Response struct {
	actor.BaseMessage
	Msg dap.Message
}

func (r *Response) MessageType() string { return "dapclient.Response" }

// Actor adapts a Client to the lnd actor Ask/Receive calling convention,
// so a single request/response exchange can be dispatched through the
// actor system's receptionist the way the teacher's debugger actor finds
// and dispatches to a Session.
type Actor struct {
	client *Client
}

// NewActor wraps client for actor registration.
func NewActor(client *Client) *Actor {
	return &Actor{client: client}
}

// Receive implements the actor behavior function signature expected by
// actor.NewFunctionBehavior.
func (a *Actor) Receive(ctx context.Context, req *Request) fn.Result[*Response] {
	timeout := DefaultTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	resp, err := a.client.SendRequest(ctx, req.Msg, timeout)
	if err != nil {
		return fn.Err[*Response](err)
	}
	return fn.Ok(&Response{Msg: resp})
}
