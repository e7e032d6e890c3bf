package core

// Logger is any structured logger.
// expected args: error, map[string]interface{}, or a Person to attach to the report.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the user on whose behalf something was logged.
type Person struct {
	ID       string
	Username string
	Email    string
}
