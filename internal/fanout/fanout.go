// Package fanout resolves which recipients receive which event kinds.
//
// The audience is two-tiered: primary ("master") recipients subscribe to
// everything except startup; the single secondary ("slave") recipient
// additionally skips status. The asymmetry is a contract, not an accident.
package fanout

import (
	"tradenotify/internal/event"
)

type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

type Recipient struct {
	Name   string
	ChatID int64
	Role   Role
}

type Resolver struct {
	primary   []Recipient
	secondary int64
}

// New builds a resolver. primary keeps configuration order; secondary of 0
// means no secondary recipient is configured.
func New(primary []Recipient, secondary int64) *Resolver {
	ps := make([]Recipient, 0, len(primary))
	for _, r := range primary {
		r.Role = RolePrimary
		ps = append(ps, r)
	}
	return &Resolver{primary: ps, secondary: secondary}
}

// RecipientsFor returns the ordered recipient list for one event type:
// all primary recipients first, then the secondary if it subscribes.
func (r *Resolver) RecipientsFor(t event.Type) []Recipient {
	var out []Recipient
	if t != event.TypeStartup {
		out = append(out, r.primary...)
	}
	if r.secondary != 0 && t != event.TypeStartup && t != event.TypeStatus {
		out = append(out, Recipient{Name: "secondary", ChatID: r.secondary, Role: RoleSecondary})
	}
	return out
}
