// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"context"
	"sync"

	"github.com/windowsadmins/setup-sqlserver/pkg/command"
)

// Call records one invocation.
type Call struct {
	Name string
	Args []string
	Opts command.Options
}

// Handler produces the outcome of a call.
type Handler func(call Call) (command.Result, error)

// Runner records every call and answers through Handler. A nil Handler
// succeeds with an empty Result.
type Runner struct {
	mu      sync.Mutex
	Handler Handler
	calls   []Call
}

// Run implements command.Runner.
func (r *Runner) Run(_ context.Context, name string, args []string, opts command.Options) (command.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Opts: opts}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	h := r.Handler
	r.mu.Unlock()
	if h == nil {
		return command.Result{}, nil
	}
	return h(call)
}

// Calls returns a snapshot of the recorded calls.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls for a program name.
func (r *Runner) CallsTo(name string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
