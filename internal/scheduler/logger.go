package scheduler

import "github.com/charmbracelet/log"

// cronLogger adapts charmbracelet/log to gocron's Logger interface so job
// output shares the application's log format.
type cronLogger struct {
	logger *log.Logger
}

func newCronLogger() *cronLogger {
	return &cronLogger{logger: log.Default().WithPrefix("scheduler")}
}

func (l *cronLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *cronLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *cronLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *cronLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
