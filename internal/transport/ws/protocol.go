package ws

import (
	"github.com/roach88/shapeforge/internal/engine"
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/machine"
)

// Request is one client message. Type is an engine event name, e.g.
// "select", "toggle", "manual_spawn", "describe", "shape_entered".
type Request struct {
	Type string `json:"type"`

	// ID is echoed in the response so clients can match replies.
	ID int64 `json:"id,omitempty"`

	Machine string `json:"machine,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Recipe  string `json:"recipe,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	ID    int64  `json:"id,omitempty"`
	Seq   int64  `json:"seq,omitempty"`
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`

	Selected     string           `json:"selected,omitempty"`
	Produced     string           `json:"produced,omitempty"`
	Removed      *bool            `json:"removed,omitempty"`
	Machines     []string         `json:"machines,omitempty"`
	Entries      []ir.RecipeEntry `json:"entries,omitempty"`
	Transactions []Transaction    `json:"transactions,omitempty"`
}

// Transaction is the wire form of machine.Transaction.
type Transaction struct {
	Machine    string         `json:"machine"`
	Recipe     string         `json:"recipe"`
	Consumed   []ir.Handle    `json:"consumed"`
	Shortfalls []ir.ShapeKind `json:"shortfalls,omitempty"`
	Output     ir.ShapeKind   `json:"output"`
	Produced   ir.Handle      `json:"produced,omitempty"`
	SpawnError string         `json:"spawn_error,omitempty"`
}

func (r Request) event() (engine.Event, error) {
	t, err := engine.ParseEventType(r.Type)
	if err != nil {
		return engine.Event{}, err
	}
	return engine.Event{
		Type:    t,
		Machine: r.Machine,
		Kind:    ir.Kind(r.Kind),
		Handle:  ir.Handle(r.Handle),
		Recipe:  r.Recipe,
		Enabled: r.Enabled,
	}, nil
}

func newResponse(id int64, res engine.Result) Response {
	out := Response{
		ID:       id,
		Seq:      res.Seq,
		Type:     res.Type.String(),
		Selected: res.Selected,
		Produced: string(res.Produced),
		Machines: res.Machines,
		Entries:  res.Entries,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	if res.Type == engine.EventShapeLeft && res.Err == nil {
		removed := res.Removed
		out.Removed = &removed
	}
	for _, tx := range res.Transactions {
		out.Transactions = append(out.Transactions, wireTransaction(tx))
	}
	return out
}

func wireTransaction(tx machine.Transaction) Transaction {
	consumed := tx.Consumed
	if consumed == nil {
		consumed = []ir.Handle{}
	}
	w := Transaction{
		Machine:    tx.Machine,
		Recipe:     tx.Recipe,
		Consumed:   consumed,
		Shortfalls: tx.Shortfalls,
		Output:     tx.Output,
		Produced:   tx.Produced,
	}
	if tx.SpawnErr != nil {
		w.SpawnError = tx.SpawnErr.Error()
	}
	return w
}
