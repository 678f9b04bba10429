package laa

import "go.uber.org/zap"

// nopLogger is used whenever a caller builds a Driver without supplying a
// *zap.Logger; the decision logic never branches on whether logging is
// live, so a no-op logger is always a legal substitute.
func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func identOf(v interface{ Ident() string }) string {
	if v == nil {
		return "<nil>"
	}
	return v.Ident()
}
