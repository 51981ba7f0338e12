package transportfake

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-graph-client/transport"
)

var _ transport.Transport = (*FakeTransport)(nil)

// Reply is one queued outcome: either a response or an error.
type Reply struct {
	Response *transport.Response
	Err      error
}

// FakeTransport answers from a queue and records every request it was sent.
// Once the queue is empty the last reply is repeated.
type FakeTransport struct {
	lock     sync.Mutex
	replies  []Reply
	last     *Reply
	requests []transport.Request
}

func NewFakeTransport(replies ...Reply) *FakeTransport {
	return &FakeTransport{replies: replies}
}

// JSON builds a 200 reply carrying v encoded as JSON.
func JSON(v any) Reply {
	return JSONStatus(http.StatusOK, v)
}

func JSONStatus(status int, v any) Reply {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Raw(status, string(body))
}

func Raw(status int, body string) Reply {
	return Reply{Response: &transport.Response{StatusCode: status, Header: http.Header{}, Body: []byte(body)}}
}

func Failure(code transport.ErrorCode, message string) Reply {
	return Reply{Err: &transport.Error{Code: code, Message: message}}
}

// Enqueue appends replies to the queue.
func (f *FakeTransport) Enqueue(replies ...Reply) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *FakeTransport) Send(_ context.Context, req transport.Request) (*transport.Response, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.requests = append(f.requests, req)
	var reply Reply
	switch {
	case len(f.replies) > 0:
		reply = f.replies[0]
		f.replies = f.replies[1:]
		f.last = &reply
	case f.last != nil:
		reply = *f.last
	default:
		return nil, &transport.Error{Code: transport.CodeUnknown, Message: "no reply queued"}
	}
	return reply.Response, reply.Err
}

// Requests returns a copy of every request sent so far.
func (f *FakeTransport) Requests() []transport.Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]transport.Request(nil), f.requests...)
}

func (f *FakeTransport) LastRequest() (transport.Request, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if len(f.requests) == 0 {
		return transport.Request{}, false
	}
	return f.requests[len(f.requests)-1], true
}
