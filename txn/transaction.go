package txn

import (
	"errors"

	"github.com/go-lstore/lstore/engine"
)

// State is a Transaction's lifecycle stage: Open -> Running -> {Committed,
// Aborted}. Terminal states reject further AddQuery/Run.
type State int

const (
	Open State = iota
	Running
	Committed
	Aborted
)

// ErrTerminal is returned by AddQuery/Run when the transaction has already
// reached a terminal state.
var ErrTerminal = errors.New("txn: transaction already committed or aborted")

type queuedOp struct {
	table *engine.Table
	op    Op
}

// preImage captures what AddQuery's op needs to know to be undone, as
// described by the run-time state just before the op executed.
type preImage struct {
	kind        opKind
	key         int64
	existed     bool
	priorValues []int64 // full prior post-image, for update/increment/delete undo
}

// Transaction is an ordered queue of operations applied atomically: if any
// queued write fails, every already-applied op in the batch is undone by
// its inverse and the transaction reports failure.
type Transaction struct {
	state   State
	queue   []queuedOp
	applied []preImage
}

// New returns an empty, Open transaction.
func New() *Transaction {
	return &Transaction{state: Open}
}

// State reports the transaction's current lifecycle stage.
func (t *Transaction) State() State { return t.state }

// AddQuery queues op against table. Reads are not queued by this type;
// only insert/update/delete/increment participate in rollback.
func (t *Transaction) AddQuery(table *engine.Table, op Op) error {
	if t.state != Open && t.state != Running {
		return ErrTerminal
	}
	t.state = Running
	t.queue = append(t.queue, queuedOp{table: table, op: op})
	return nil
}

// Run executes every queued op in order under the caller's lock. It
// returns true if every op succeeded (the transaction commits); otherwise
// it aborts, undoing every already-applied op, and returns false. Abort
// itself never fails at this layer.
func (t *Transaction) Run() bool {
	if t.state != Open && t.state != Running {
		return false
	}
	t.state = Running

	for _, q := range t.queue {
		pre, ok := capturePreImage(q.table, q.op)
		if !ok {
			t.abort()
			return false
		}
		if !apply(q.table, q.op) {
			t.abort()
			return false
		}
		t.applied = append(t.applied, pre)
	}
	t.state = Committed
	return true
}

// Abort undoes every applied op in reverse order and transitions the
// transaction to Aborted. It may be called either as Run's internal
// failure path or explicitly by a caller after a successful Run/Commit,
// to roll back a transaction the caller has decided not to keep; it
// always succeeds at the engine layer and is idempotent once aborted.
func (t *Transaction) Abort() bool {
	if t.state == Aborted {
		return true
	}
	t.abort()
	return true
}

func (t *Transaction) abort() {
	for i := len(t.applied) - 1; i >= 0; i-- {
		undo(t.queue[i].table, t.applied[i])
	}
	t.applied = nil
	t.state = Aborted
}

// Commit finalizes a transaction whose Run already applied every op; it
// performs no storage work of its own.
func (t *Transaction) Commit() bool {
	if t.state != Running && t.state != Open {
		return t.state == Committed
	}
	t.state = Committed
	return true
}

func capturePreImage(table *engine.Table, op Op) (preImage, bool) {
	switch op.kind {
	case opInsert:
		key := op.values[table.Key]
		return preImage{kind: opInsert, key: key}, true
	case opUpdate, opIncrement:
		key := op.key
		rec, err := table.SelectLatest(key, allTrue(table.N))
		if err != nil {
			return preImage{}, false
		}
		return preImage{kind: op.kind, key: key, existed: true, priorValues: rec.Columns()}, true
	case opDelete:
		key := op.key
		rec, err := table.SelectLatest(key, allTrue(table.N))
		if err != nil {
			return preImage{}, false
		}
		return preImage{kind: opDelete, key: key, existed: true, priorValues: rec.Columns()}, true
	}
	return preImage{}, false
}

func apply(table *engine.Table, op Op) bool {
	switch op.kind {
	case opInsert:
		_, err := table.Insert(op.values)
		return err == nil
	case opUpdate:
		_, err := table.Update(op.key, op.columns)
		return err == nil
	case opDelete:
		return table.Delete(op.key) == nil
	case opIncrement:
		_, err := table.Increment(op.key, op.col)
		return err == nil
	}
	return false
}

func undo(table *engine.Table, pre preImage) {
	switch pre.kind {
	case opInsert:
		table.Delete(pre.key)
	case opUpdate, opIncrement:
		cols := make([]*int64, table.N)
		for i := range cols {
			if i == table.Key {
				continue
			}
			v := pre.priorValues[i]
			cols[i] = &v
		}
		table.Update(pre.key, cols)
	case opDelete:
		table.Insert(pre.priorValues)
	}
}

func allTrue(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}
