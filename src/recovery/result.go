package recovery

// Result is the outcome of a recovery phase.
type Result uint8

const (
	// Success means every step completed.
	Success Result = iota
	// Partial means some steps failed or some transactions stayed unresolved.
	Partial
	// Failure means nothing could be recovered.
	Failure
)

// String ...
func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case Partial:
		return "Partial"
	case Failure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// worst returns the more severe of r and o.
func (r Result) worst(o Result) Result {
	if o > r {
		return o
	}
	return r
}
