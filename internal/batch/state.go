package batch

// State is the client view: the displayed plates and whether a batch is running.
// Values are never mutated in place; Reduce returns a new State.
type State struct {
	plates  []string
	Loading bool
}

// Plates returns a copy of the displayed plates in display order.
func (s State) Plates() []string {
	return append([]string(nil), s.plates...)
}

// Len is the number of displayed plates.
func (s State) Len() int {
	return len(s.plates)
}

// Action is a state transition input.
type Action interface {
	isAction()
}

// BatchStarted marks the start of a form submission.
type BatchStarted struct{}

// BatchAborted ends a submission that had nothing to process.
type BatchAborted struct{}

// BatchFinished appends the plates found by one batch.
type BatchFinished struct {
	Plates []string
}

// ListCleared empties the displayed list.
type ListCleared struct{}

func (BatchStarted) isAction()  {}
func (BatchAborted) isAction()  {}
func (BatchFinished) isAction() {}
func (ListCleared) isAction()   {}

// Reduce applies a to s. Batches are appended in submission order after prior entries.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case BatchStarted:
		return State{plates: s.plates, Loading: true}
	case BatchAborted:
		return State{plates: s.plates, Loading: false}
	case BatchFinished:
		next := make([]string, 0, len(s.plates)+len(a.Plates))
		next = append(next, s.plates...)
		next = append(next, a.Plates...)
		return State{plates: next, Loading: false}
	case ListCleared:
		return State{Loading: s.Loading}
	default:
		return s
	}
}
