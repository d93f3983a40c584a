package corpus

// Event is a single diagnostic delivered to a registered callback: an
// error or warning raised during loading, indexing or resolution, always
// carrying the corpus path it concerns. Grounded on mb0-daql's evt.Event
// envelope shape (evt/evt.go), stripped of the audit/transaction fields
// that belong to xelf's storage transaction log and have no counterpart
// here.
type Event struct {
	Severity Severity
	Message  string
	Path     CorpusPath
	Err      error
}

// EventCallback receives every event at or above the level passed to
// SetEventCallback.
type EventCallback func(Event)

// eventSink fans validation and pipeline errors out to a registered
// callback, filtered by minimum severity. The zero value is a valid,
// silent sink.
type eventSink struct {
	callback EventCallback
	minLevel Severity
}

func (s *eventSink) set(cb EventCallback, minLevel Severity) {
	s.callback = cb
	s.minLevel = minLevel
}

func (s *eventSink) emit(ev Event) {
	if s.callback == nil || ev.Severity < s.minLevel {
		return
	}
	s.callback(ev)
}

func (s *eventSink) emitError(path CorpusPath, err error) {
	s.emit(Event{Severity: SevError, Message: err.Error(), Path: path, Err: err})
}

func (s *eventSink) emitWarning(path CorpusPath, err error) {
	s.emit(Event{Severity: SevWarning, Message: err.Error(), Path: path, Err: err})
}

func (s *eventSink) emitValidation(ve ValidationError) {
	s.emit(Event{Severity: ve.Severity, Message: ve.Err.Error(), Path: ve.Path, Err: ve.Err})
}
