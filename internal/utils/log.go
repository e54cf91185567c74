// Package utils
package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	logger  *log.Logger
	logFile *os.File
	mu      sync.Mutex
)

const logPrefix = "Signal Trader: "

// GetLogger returns the process logger. Until SetupLogger is called it writes to stderr.
func GetLogger() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = log.New(os.Stderr, logPrefix, log.LstdFlags)
	}
	return logger
}

// SetupLogger tees the process logger and the standard log package to stdout
// and the file at path. An empty path logs to stdout only.
func SetupLogger(path string) error {
	var out io.Writer = os.Stdout
	var file *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = file
	log.SetOutput(out)
	if logger == nil {
		logger = log.New(out, logPrefix, log.LstdFlags)
	} else {
		logger.SetOutput(out)
	}
	return nil
}

// CloseLogger closes the log file opened by SetupLogger, if any.
func CloseLogger() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	log.SetOutput(os.Stderr)
	if logger != nil {
		logger.SetOutput(os.Stdout)
	}
	return err
}
