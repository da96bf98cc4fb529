package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler answers one envelope. Returned data becomes Response.Data.
type Handler func(ctx context.Context, env Envelope) (any, error)

// Router dispatches envelopes by kind. Failures never escape Dispatch; they
// become failure responses.
type Router struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
	log      *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{handlers: make(map[Kind]Handler), log: log}
}

// Handle registers h for kind, replacing any previous handler.
func (r *Router) Handle(kind Kind, h Handler) {
	r.mu.Lock()
	r.handlers[kind] = h
	r.mu.Unlock()
}

func (r *Router) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}

func (r *Router) Dispatch(ctx context.Context, env Envelope) (resp Response) {
	r.mu.RLock()
	h, ok := r.handlers[env.Type]
	r.mu.RUnlock()
	if !ok {
		r.log.Warn("unknown message type", "type", env.Type, "tab", env.TabID)
		return Fail(ErrUnknownType)
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("message handler panicked", "type", env.Type, "panic", p)
			resp = Fail(fmt.Errorf("%s: internal error", env.Type))
		}
	}()
	data, err := h(ctx, env)
	if err != nil {
		r.log.Warn("message handler failed", "type", env.Type, "tab", env.TabID, "err", err)
		return Fail(err)
	}
	return OK(data)
}
