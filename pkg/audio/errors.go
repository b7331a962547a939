package audio

import "fmt"

// MissingRateError is returned when a run or header is built without a sample rate
type MissingRateError struct{}

func (*MissingRateError) Error() string {
	return "sample rate not set"
}

// InvalidLengthError reports a length that cannot be used for the run
type InvalidLengthError struct {
	Length float64
	Reason string
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("invalid length %gs: %s", e.Length, e.Reason)
}

// InvalidWaveError reports a wave whose parameters cannot produce a signal
type InvalidWaveError struct {
	Index  int
	Reason string
}

func (e *InvalidWaveError) Error() string {
	return fmt.Sprintf("wave %d: %s", e.Index, e.Reason)
}
