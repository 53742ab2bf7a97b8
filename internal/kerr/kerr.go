// Package kerr defines the kernel's status-code taxonomy, delivered to
// user programs in a trap frame's x7 register and returned internally by
// collaborators such as the filesystem.
package kerr

import "fmt"

// Code is the wire value of a kernel status, delivered verbatim as tf.XRegs[7].
type Code uint64

const (
	Ok Code = iota
	NoEntry
	NoMemory
	NoOverlap
	InvalidArgument
	InvalidSyscall
	IoError
	IoErrorEof
	IoErrorInvalidData
	IoErrorInvalidInput
	IoErrorInterrupted
	IoErrorTimedOut
	Unknown
)

var names = map[Code]string{
	Ok:                  "ok",
	NoEntry:             "no such entry",
	NoMemory:            "out of memory",
	NoOverlap:           "overlapping mapping",
	InvalidArgument:     "invalid argument",
	InvalidSyscall:      "invalid syscall number",
	IoError:             "i/o error",
	IoErrorEof:          "unexpected eof",
	IoErrorInvalidData:  "invalid data",
	IoErrorInvalidInput: "invalid input",
	IoErrorInterrupted:  "interrupted",
	IoErrorTimedOut:     "timed out",
	Unknown:             "unknown error",
}

func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("kerr.Code(%d)", uint64(c))
}

// Error implements the error interface so Code can be returned directly
// from collaborator calls (e.g. the filesystem) instead of wrapping it in
// a distinct error type at every call site.
func (c Code) Error() string {
	return c.String()
}

// FromError maps a generic error into the closest Code. Interrupted reads
// are retried transparently by callers and never reach here as a terminal
// error (see internal/proc).
func FromError(err error) Code {
	if err == nil {
		return Ok
	}
	if c, ok := err.(Code); ok {
		return c
	}
	return IoError
}
