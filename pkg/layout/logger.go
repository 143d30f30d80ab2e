package layout

import "go.uber.org/zap"

var logger = zap.NewNop()

// SetLogger sets the logger used for unimplemented CSS corners. A nil logger
// silences the package.
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop()
		return
	}
	logger = l.Named("layout")
}
