package domain

// ErrorCode classifies failures crossing package boundaries
type ErrorCode string

const (
	// ErrConfiguration is a missing or invalid setting, or an unknown source/sink name.
	// Raised before any I/O.
	ErrConfiguration ErrorCode = "Configuration"

	// ErrRetrieval is a transport failure, non-success status or malformed response
	// while collecting from a source
	ErrRetrieval ErrorCode = "Retrieval"

	// ErrPersistence is a failure while writing a batch to a sink
	ErrPersistence ErrorCode = "Persistence"

	// ErrMalformedInput is an imported row whose shape or values do not match Vacancy
	ErrMalformedInput ErrorCode = "MalformedInput"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
