// Package exchangetest provides a scripted exchange.Runtime for adapter tests.
package exchangetest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"cryptobridge/exchange"
)

// Reply is a canned response for requests whose URL contains Match.
type Reply struct {
	Match  string
	Status int
	Body   string
	Err    error
}

// Runtime answers requests from its replies, first match wins, and records
// every request it sees.
type Runtime struct {
	mu       sync.Mutex
	replies  []Reply
	requests []exchange.Request
}

func NewRuntime(replies ...Reply) *Runtime {
	return &Runtime{replies: replies}
}

// On adds a 200 reply for URLs containing match.
func (r *Runtime) On(match, body string) *Runtime {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, Reply{Match: match, Status: http.StatusOK, Body: body})
	return r
}

func (r *Runtime) Fetch(ctx context.Context, req exchange.Request) (*exchange.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	replies := r.replies
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &exchange.NetworkError{Method: req.Method, URL: req.URL, Err: err}
	}
	for _, rep := range replies {
		if !strings.Contains(req.URL, rep.Match) {
			continue
		}
		if rep.Err != nil {
			return nil, &exchange.NetworkError{Method: req.Method, URL: req.URL, Err: rep.Err}
		}
		status := rep.Status
		if status == 0 {
			status = http.StatusOK
		}
		return &exchange.Response{Status: status, Header: http.Header{}, Body: []byte(rep.Body)}, nil
	}
	return nil, &exchange.NetworkError{Method: req.Method, URL: req.URL, Err: errors.New("no scripted reply")}
}

// Requests returns a copy of the recorded requests.
func (r *Runtime) Requests() []exchange.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]exchange.Request(nil), r.requests...)
}

// Calls returns how many requests were made.
func (r *Runtime) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// Last returns the most recent request whose URL contains match.
func (r *Runtime) Last(match string) (exchange.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.requests) - 1; i >= 0; i-- {
		if strings.Contains(r.requests[i].URL, match) {
			return r.requests[i], nil
		}
	}
	return exchange.Request{}, fmt.Errorf("no request matching %q", match)
}
