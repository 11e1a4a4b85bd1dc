package order

import (
	"regexp"
	"sort"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// State is the coarse lifecycle category an order status belongs to
type State string

const (
	StateInCheckout      State = "in_checkout"
	StatePostCheckout    State = "post_checkout"
	StatePaymentReceived State = "payment_received"
	StateCompleted       State = "completed"
	StateCanceled        State = "canceled"
)

// AllStates returns every order state in display order
func AllStates() []State {
	return []State{StateCanceled, StateInCheckout, StatePostCheckout, StatePaymentReceived, StateCompleted}
}

// IsValid checks if the state is one of the known states
func (s State) IsValid() bool {
	switch s {
	case StateInCheckout, StatePostCheckout, StatePaymentReceived, StateCompleted, StateCanceled:
		return true
	}
	return false
}

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// Label returns the human readable state name
func (s State) Label() string {
	switch s {
	case StateInCheckout:
		return "In checkout"
	case StatePostCheckout:
		return "Post checkout"
	case StatePaymentReceived:
		return "Payment received"
	case StateCompleted:
		return "Completed"
	case StateCanceled:
		return "Canceled"
	}
	return "Unknown"
}

// Core status IDs shipped with the store
const (
	StatusInCheckout      = "in_checkout"
	StatusAbandoned       = "abandoned"
	StatusPending         = "pending"
	StatusProcessing      = "processing"
	StatusPaymentReceived = "payment_received"
	StatusCompleted       = "completed"
	StatusCanceled        = "canceled"
)

var statusIDPattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// Status is a site-configurable order status mapped onto a State
type Status struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	State  State  `json:"state"`
	Weight int    `json:"weight"`
	Locked bool   `json:"locked"`
}

// NewStatus creates a custom (unlocked) status
func NewStatus(id, name string, state State, weight int) (*Status, error) {
	id = strings.TrimSpace(id)
	if !statusIDPattern.MatchString(id) {
		return nil, shared.NewDomainError("INVALID_STATUS_ID", "Status ID must contain only lowercase letters, numbers and underscores")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_STATUS_NAME", "Status name cannot be empty")
	}
	if !state.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATE", "Unknown order state: "+string(state))
	}
	return &Status{ID: id, Name: name, State: state, Weight: weight}, nil
}

// Rename updates the display name
func (s *Status) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_STATUS_NAME", "Status name cannot be empty")
	}
	s.Name = name
	return nil
}

// DefaultStatuses returns the core statuses every store starts with
func DefaultStatuses() []Status {
	return []Status{
		{ID: StatusCanceled, Name: "Canceled", State: StateCanceled, Weight: -20, Locked: true},
		{ID: StatusInCheckout, Name: "In checkout", State: StateInCheckout, Weight: -10, Locked: true},
		{ID: StatusAbandoned, Name: "Abandoned", State: StateInCheckout, Weight: -5, Locked: false},
		{ID: StatusPending, Name: "Pending", State: StatePostCheckout, Weight: 0, Locked: true},
		{ID: StatusProcessing, Name: "Processing", State: StatePostCheckout, Weight: 5, Locked: true},
		{ID: StatusPaymentReceived, Name: "Payment received", State: StatePaymentReceived, Weight: 10, Locked: true},
		{ID: StatusCompleted, Name: "Completed", State: StateCompleted, Weight: 20, Locked: true},
	}
}

// StatusCatalog is a snapshot of configured statuses plus per-state default overrides
type StatusCatalog struct {
	statuses map[string]Status
	defaults map[State]string
}

// NewStatusCatalog builds a catalog. defaults maps a state to its configured default status ID.
func NewStatusCatalog(statuses []Status, defaults map[State]string) *StatusCatalog {
	c := &StatusCatalog{
		statuses: make(map[string]Status, len(statuses)),
		defaults: make(map[State]string, len(defaults)),
	}
	for _, s := range statuses {
		c.statuses[s.ID] = s
	}
	for state, id := range defaults {
		c.defaults[state] = id
	}
	return c
}

// DefaultStatusCatalog returns a catalog of the core statuses with no overrides
func DefaultStatusCatalog() *StatusCatalog {
	return NewStatusCatalog(DefaultStatuses(), nil)
}

// Get returns a status by ID
func (c *StatusCatalog) Get(id string) (Status, bool) {
	s, ok := c.statuses[id]
	return s, ok
}

// StateOf returns the state of a status, or "" if the status is unknown
func (c *StatusCatalog) StateOf(id string) State {
	if s, ok := c.statuses[id]; ok {
		return s.State
	}
	return ""
}

// NameOf returns the display name of a status, or "Unknown status"
func (c *StatusCatalog) NameOf(id string) string {
	if s, ok := c.statuses[id]; ok {
		return s.Name
	}
	return "Unknown status"
}

// List returns statuses sorted by weight then ID
func (c *StatusCatalog) List() []Status {
	out := make([]Status, 0, len(c.statuses))
	for _, s := range c.statuses {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// StatusesIn returns the statuses of a state, lowest weight first
func (c *StatusCatalog) StatusesIn(state State) []Status {
	var out []Status
	for _, s := range c.List() {
		if s.State == state {
			out = append(out, s)
		}
	}
	return out
}

// DefaultStatus returns the configured default for the state when it still
// exists and belongs to the state, otherwise the lowest-weight status of the state.
func (c *StatusCatalog) DefaultStatus(state State) (Status, bool) {
	if id, ok := c.defaults[state]; ok {
		if s, ok := c.statuses[id]; ok && s.State == state {
			return s, true
		}
	}
	in := c.StatusesIn(state)
	if len(in) == 0 {
		return Status{}, false
	}
	return in[0], true
}
