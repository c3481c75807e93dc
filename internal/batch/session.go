package batch

import (
	"context"
	"io"
)

// Session owns the client State and drives it through Reduce, the way the upload
// page does: submit a batch, clear the list, export it.
type Session struct {
	runner *Runner
	state  State
}

// NewSession starts with an empty, idle state.
func NewSession(r *Runner) *Session {
	return &Session{runner: r}
}

// State returns the current state value.
func (s *Session) State() State {
	return s.state
}

func (s *Session) dispatch(a Action) {
	s.state = Reduce(s.state, a)
}

// Submit processes one batch. An empty selection ends immediately with loading reset.
// Plates found before a cancellation are still appended.
func (s *Session) Submit(ctx context.Context, files []File) (Report, error) {
	s.dispatch(BatchStarted{})
	if len(files) == 0 {
		s.dispatch(BatchAborted{})
		return Report{}, nil
	}

	rep, err := s.runner.Run(ctx, files)
	s.dispatch(BatchFinished{Plates: rep.Plates})
	return rep, err
}

// Clear empties the displayed list.
func (s *Session) Clear() {
	s.dispatch(ListCleared{})
}

// Export writes the displayed list as CSV. It returns ErrNothingToExport for an empty list.
func (s *Session) Export(w io.Writer) error {
	return ExportCSV(w, s.state.plates)
}

// ExportFile writes the displayed list to path; no file is created for an empty list.
func (s *Session) ExportFile(path string) error {
	return WriteCSVFile(path, s.state.plates)
}
