package main

import (
	"bytes"
	"log"
	"sync"

	ping "github.com/digineo/pingpanel"
	"github.com/digineo/pingpanel/internal"
	"github.com/digineo/pingpanel/monitor"
)

// logInterceptor keeps the most recent log lines for display.
type logInterceptor struct {
	keep     int
	messages []string
	mtx      sync.Mutex
}

func (li *logInterceptor) Write(p []byte) (n int, err error) {
	li.mtx.Lock()
	defer li.mtx.Unlock()

	li.messages = append(li.messages, string(bytes.TrimSpace(p)))

	if li.keep > 0 {
		li.truncate()
	}

	return len(p), nil
}

// Messages returns a copy of the kept log lines, oldest first.
func (li *logInterceptor) Messages() []string {
	li.mtx.Lock()
	defer li.mtx.Unlock()
	return append([]string(nil), li.messages...)
}

func interceptLog(keep int) *logInterceptor {
	li := &logInterceptor{keep: keep}
	log.SetOutput(li)
	return li
}

func (li *logInterceptor) truncate() {
	if delta := len(li.messages) - li.keep; delta > 0 {
		li.messages = li.messages[delta:]
	}
}

// stdLogger forwards log messages of the library packages to the
// standard logger, and thereby into the log pane.
type stdLogger struct{}

func (stdLogger) Infof(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func (stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf("error: "+format, args...)
}

func forwardLibraryLogs() {
	ping.SetLogger(stdLogger{})
	internal.SetLogger(stdLogger{})
	monitor.SetLogger(stdLogger{})
}
