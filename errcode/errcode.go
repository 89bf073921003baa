package errcode

// Code is a stable error identifier for the peripheral layer.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Configuration errors. These indicate a programming mistake and must
	// be treated as fatal by the caller; no hardware state has been touched
	// when one is returned.
	UnknownBus   Code = "unknown_bus"
	InvalidMode  Code = "invalid_mode"
	BadFrequency Code = "bad_frequency"

	// Transfer-time errors.
	NotEnabled Code = "not_enabled"
	Busy       Code = "busy"
	Timeout    Code = "timeout"
	Protocol   Code = "protocol"

	// Protocol fault detail codes.
	BusError        Code = "bus_error"
	ArbitrationLost Code = "arbitration_lost"
	AckFailure      Code = "ack_failure"
	Overrun         Code = "overrun"
	ClockTimeout    Code = "clock_timeout"

	Error Code = "error" // generic fallback
)

// E is an optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, someCode) match through the wrapper.
func (e *E) Is(target error) bool {
	if c, ok := target.(Code); ok {
		return e.C == c
	}
	return false
}

// New builds a wrapped error for an operation.
func New(c Code, op string) *E { return &E{C: c, Op: op} }

// Wrap attaches a cause.
func Wrap(c Code, op string, err error) *E { return &E{C: c, Op: op, Err: err} }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
