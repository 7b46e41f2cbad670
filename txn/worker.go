package txn

// Worker holds a batch of transactions and runs them one at a time: the
// engine is single-writer (see the concurrency package), so running a
// worker's transactions sequentially is always a conforming schedule. A
// future per-table-lock design could interleave workers, but nothing in
// this engine requires it.
type Worker struct {
	transactions []*Transaction
	done         chan struct{}
}

// NewWorker returns a Worker pre-loaded with transactions, in the order
// they will run.
func NewWorker(transactions ...*Transaction) *Worker {
	return &Worker{transactions: transactions}
}

// AddTransaction appends t to the worker's run queue.
func (w *Worker) AddTransaction(t *Transaction) {
	w.transactions = append(w.transactions, t)
}

// Run executes every queued transaction sequentially and signals Join's
// waiters when done.
func (w *Worker) Run() {
	w.done = make(chan struct{})
	for _, t := range w.transactions {
		t.Run()
	}
	close(w.done)
}

// Join blocks until a prior Run call has completed. Calling Join before
// Run returns immediately, since sequential execution leaves nothing to
// wait for.
func (w *Worker) Join() {
	if w.done == nil {
		return
	}
	<-w.done
}
