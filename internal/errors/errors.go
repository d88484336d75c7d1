package errors

import (
	"fmt"
	"os"
	"sync"
)

var (
	defaultHandler *ErrorHandler
	defaultErr     error
	once           sync.Once
)

func GetDefaultHandler() (*ErrorHandler, error) {
	once.Do(func() {
		defaultHandler, defaultErr = NewErrorHandler(nil)
	})
	return defaultHandler, defaultErr
}

// HandleError reports err through the default handler, or straight to stderr
// when the log file cannot be opened.
func HandleError(err error) {
	if err == nil {
		return
	}
	if handler, handlerErr := GetDefaultHandler(); handlerErr == nil {
		handler.Handle(err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
}

// resetDefaultHandler resets the singleton for testing purposes
func resetDefaultHandler() {
	defaultHandler = nil
	defaultErr = nil
	once = sync.Once{}
}
