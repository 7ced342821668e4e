// Package session implements the Session Registry and Conversation Context
// (spec §4.3): per-session dialogue history capped at a fixed length, the
// active order reference, and idle-session eviction. Ownership of a single
// session's state is confined to that session's goroutine — the registry
// guarantees at most one in-flight request per session (spec §5) — so
// [Context] itself holds no lock; [Registry] is what callers synchronize
// through.
package session

import (
	"github.com/melpes/voicekiosk/internal/order"
	"github.com/melpes/voicekiosk/pkg/types"
)

// Context is the per-session Conversation Context: a capped FIFO of
// dialogue turns, a snapshot of the last interpreted intent kind, a
// preferences map, and a reference to the session's active order.
type Context struct {
	SessionID    string
	history      []types.Message
	historyLimit int
	LastIntent   string
	Preferences  map[string]string
	Order        *order.Order
}

// newContext creates an empty Context capped at limit history entries.
func newContext(sessionID string, limit int) *Context {
	if limit <= 0 {
		limit = 20
	}
	return &Context{
		SessionID:    sessionID,
		historyLimit: limit,
		Preferences:  make(map[string]string),
	}
}

// Append records a dialogue turn, tagged with the order it was produced
// under, evicting the oldest entry once the cap is reached.
func (c *Context) Append(msg types.Message) {
	c.history = append(c.history, msg)
	if over := len(c.history) - c.historyLimit; over > 0 {
		c.history = c.history[over:]
	}
}

// History returns the recorded turns, oldest first.
func (c *Context) History() []types.Message {
	return append([]types.Message(nil), c.history...)
}

// HistoryForOrder returns only the turns tagged with orderID — the slice
// the Dialogue Policy's free-form generator uses so an LLM prompt never
// sees turns from a prior, already-completed order (spec §3).
func (c *Context) HistoryForOrder(orderID string) []types.Message {
	var out []types.Message
	for _, m := range c.history {
		if m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out
}
