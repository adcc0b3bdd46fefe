package repository

import (
	"context"
	"encoding/json"
	"sync"

	"storefront-core/postgrest"
	"storefront-core/rest"
	"storefront-core/session"

	"github.com/google/uuid"
)

type storeCall struct {
	op     string
	table  string
	query  postgrest.Query
	body   interface{}
	prefer rest.Prefer
}

// fakeStore records every call. selectFn and insertFn produce the response
// value, which is JSON round-tripped into out the way the transport decodes.
type fakeStore struct {
	mu       sync.Mutex
	calls    []storeCall
	selectFn func(table string, q postgrest.Query) (interface{}, error)
	insertFn func(table string, body interface{}) (interface{}, error)
	updateFn func(table string, q postgrest.Query, body interface{}) error
	deleteFn func(table string, q postgrest.Query) error
}

func (f *fakeStore) record(c storeCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeStore) Select(ctx context.Context, table string, q postgrest.Query, out interface{}) error {
	f.record(storeCall{op: "select", table: table, query: q})
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.selectFn == nil {
		return decodeInto([]interface{}{}, out)
	}
	v, err := f.selectFn(table, q)
	if err != nil {
		return err
	}
	return decodeInto(v, out)
}

func (f *fakeStore) Insert(ctx context.Context, table string, body interface{}, prefer rest.Prefer, out interface{}) error {
	f.record(storeCall{op: "insert", table: table, body: body, prefer: prefer})
	if f.insertFn == nil {
		return nil
	}
	v, err := f.insertFn(table, body)
	if err != nil {
		return err
	}
	if out == nil || prefer == rest.ReturnMinimal {
		return nil
	}
	return decodeInto(v, out)
}

func (f *fakeStore) Update(ctx context.Context, table string, q postgrest.Query, body interface{}) error {
	f.record(storeCall{op: "update", table: table, query: q, body: body})
	if f.updateFn == nil {
		return nil
	}
	return f.updateFn(table, q, body)
}

func (f *fakeStore) Delete(ctx context.Context, table string, q postgrest.Query) error {
	f.record(storeCall{op: "delete", table: table, query: q})
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(table, q)
}

func (f *fakeStore) callsTo(op, table string) []storeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storeCall
	for _, c := range f.calls {
		if c.op == op && c.table == table {
			out = append(out, c)
		}
	}
	return out
}

func decodeInto(v, out interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// filterValue returns the operand of the first filter on column.
func filterValue(q postgrest.Query, column string) (postgrest.Filter, bool) {
	for _, f := range q.Filters {
		if f.Column == column {
			return f, true
		}
	}
	return postgrest.Filter{}, false
}

func signedIn(id uuid.UUID) *session.Holder {
	h := session.NewHolder()
	h.Begin(session.Session{UserID: id, AccessToken: "user-jwt"})
	return h
}

var errStore = &rest.Error{StatusCode: 500, Message: "boom"}
