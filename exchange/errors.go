package exchange

import "errors"

// Error codes, one per failure class of the exchange protocol.
const (
	// CodeTransientStorage: allocating, writing, or reading the slot failed.
	CodeTransientStorage = "transient_storage"
	// CodeLaunch: the assistant binary was not found or not executable.
	CodeLaunch = "launch_failed"
	// CodeRuntime: the assistant crashed or exited non-zero.
	CodeRuntime = "process_failed"
	// CodeCancelled: the user interrupted the exchange. Not reported as an
	// error to the user, only used to pick the rollback path.
	CodeCancelled = "cancelled"
)

// Error is an exchange failure with a machine-readable code.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the exchange error code of err, or "" for other errors.
func CodeOf(err error) string {
	var xerr *Error
	if errors.As(err, &xerr) {
		return xerr.Code
	}
	return ""
}

// IsCancelled reports whether err is a user cancellation.
func IsCancelled(err error) bool {
	return CodeOf(err) == CodeCancelled
}
