package builder

// Logger is the leveled logging subset used by builders and tasks.
// *log.Logger from github.com/qiniu/x/log satisfies it.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

type discard struct{}

func (discard) Debugf(string, ...any) {}
func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Errorf(string, ...any) {}

// Discard is a Logger that drops everything.
var Discard Logger = discard{}
