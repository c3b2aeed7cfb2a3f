package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")
)

// ErrorHandler is installed as the zerolog write-failure fallback; a
// broken log sink must never take the gateway down with it.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "promo-warden: could not write log event: %v\n", err)
}
