package log

// TB is the subset of testing.TB used to route log output through a test's
// own logger.
type TB interface {
	Logf(string, ...interface{})
	Helper()
}

// Testing returns a Logger that writes through t.Logf, letting a test see
// corpus engine diagnostics attributed to the failing test.
type Testing struct {
	TB
}

func (l *Testing) Debug(m string, a ...any) { l.Helper(); l.log("DEB", m, a) }
func (l *Testing) Info(m string, a ...any)  { l.Helper(); l.log("INF", m, a) }
func (l *Testing) Warn(m string, a ...any)  { l.Helper(); l.log("WRN", m, a) }
func (l *Testing) Error(m string, a ...any) { l.Helper(); l.log("ERR", m, a) }
func (l *Testing) With(a ...any) Logger     { return l }

func (l *Testing) log(lvl, m string, a []any) {
	l.Logf("%s %s %v", lvl, m, a)
}
