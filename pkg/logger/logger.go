// Package logger provides prefixed stdlib loggers for subprocess-heavy
// components where structured logging adds little.
package logger

import (
	"log"
	"os"
)

// New returns a stderr logger tagged with the component name.
func New(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}
