package core

// Logger is any leveled logger the app can report through.
// Implementations may extract a user.User from args to attach
// the acting user to the report.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
