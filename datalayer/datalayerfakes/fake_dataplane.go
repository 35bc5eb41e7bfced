package datalayerfakes

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jrsteele09/go-ctrlx-datalayer/datalayer"
)

var _ datalayer.DataPlane = (*FakeDataPlane)(nil)

// Call records one data-plane invocation for later assertions.
type Call struct {
	Verb    string
	Path    string
	Kind    datalayer.ReadKind
	Auth    datalayer.Authorization
	Payload json.RawMessage
}

// FakeDataPlane fakes the data-layer verbs. Per-verb behavior can be
// overridden; by default every call succeeds with an empty JSON object.
type FakeDataPlane struct {
	ReadFn   func(ctx context.Context, host string, auth datalayer.Authorization, path string, kind datalayer.ReadKind, timeout time.Duration) (json.RawMessage, error)
	WriteFn  func(ctx context.Context, host string, auth datalayer.Authorization, path string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error)
	CreateFn func(ctx context.Context, host string, auth datalayer.Authorization, path string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error)
	DeleteFn func(ctx context.Context, host string, auth datalayer.Authorization, path string, timeout time.Duration) (json.RawMessage, error)

	lock  sync.Mutex
	calls []Call
}

func NewFakeDataPlane() *FakeDataPlane {
	return &FakeDataPlane{}
}

func (d *FakeDataPlane) record(call Call) {
	d.lock.Lock()
	d.calls = append(d.calls, call)
	d.lock.Unlock()
}

// Calls returns a copy of all recorded invocations in order.
func (d *FakeDataPlane) Calls() []Call {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallCount returns how many data-plane invocations were recorded.
func (d *FakeDataPlane) CallCount() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.calls)
}

func (d *FakeDataPlane) Read(ctx context.Context, host string, auth datalayer.Authorization, path string, kind datalayer.ReadKind, timeout time.Duration) (json.RawMessage, error) {
	d.record(Call{Verb: "read", Path: path, Kind: kind, Auth: auth})
	if d.ReadFn != nil {
		return d.ReadFn(ctx, host, auth, path, kind, timeout)
	}
	return json.RawMessage(`{}`), nil
}

func (d *FakeDataPlane) Write(ctx context.Context, host string, auth datalayer.Authorization, path string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	d.record(Call{Verb: "write", Path: path, Auth: auth, Payload: payload})
	if d.WriteFn != nil {
		return d.WriteFn(ctx, host, auth, path, payload, timeout)
	}
	return payload, nil
}

func (d *FakeDataPlane) Create(ctx context.Context, host string, auth datalayer.Authorization, path string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	d.record(Call{Verb: "create", Path: path, Auth: auth, Payload: payload})
	if d.CreateFn != nil {
		return d.CreateFn(ctx, host, auth, path, payload, timeout)
	}
	return json.RawMessage(`{}`), nil
}

func (d *FakeDataPlane) Delete(ctx context.Context, host string, auth datalayer.Authorization, path string, timeout time.Duration) (json.RawMessage, error) {
	d.record(Call{Verb: "delete", Path: path, Auth: auth})
	if d.DeleteFn != nil {
		return d.DeleteFn(ctx, host, auth, path, timeout)
	}
	return nil, nil
}
