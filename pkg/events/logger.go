package events

import (
	"github.com/ThreeDotsLabs/watermill"
	log "github.com/sirupsen/logrus"
)

// logrusAdapter routes watermill logs through logrus.
type logrusAdapter struct {
	entry *log.Entry
}

func NewLogger(entry *log.Entry) watermill.LoggerAdapter {
	return &logrusAdapter{entry: entry}
}

func (l *logrusAdapter) with(fields watermill.LogFields) *log.Entry {
	return l.entry.WithFields(log.Fields(fields))
}

func (l *logrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.with(fields).WithError(err).Error(msg)
}

func (l *logrusAdapter) Info(msg string, fields watermill.LogFields) {
	l.with(fields).Info(msg)
}

func (l *logrusAdapter) Debug(msg string, fields watermill.LogFields) {
	l.with(fields).Debug(msg)
}

func (l *logrusAdapter) Trace(msg string, fields watermill.LogFields) {
	l.with(fields).Trace(msg)
}

func (l *logrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &logrusAdapter{entry: l.with(fields)}
}
