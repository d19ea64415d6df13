package errortypes

// Defines numeric codes for well-known errors.
const (
	UnknownErrorCode = 999
	ConfigErrorCode  = iota
	AuthErrorCode
	RateLimitedErrorCode
	IdentifierNotFoundErrorCode
	AppNotFoundErrorCode
	UnitNotFoundErrorCode
	TransportErrorCode
	UpstreamErrorCode
	UnknownNetworkErrorCode
	BadInputErrorCode
	StoreLookupErrorCode
)

// Defines numeric codes for well-known warnings.
const (
	UnknownWarningCode    = 10999
	MultiMatchWarningCode = iota + 10000
	NameFallbackMatchWarningCode
	MissingUnitFormatWarningCode
)

// Coder provides an error or warning code with severity.
type Coder interface {
	Code() int
	Severity() Severity
}

// ReadCode returns the error or warning code, or UnknownErrorCode if unavailable.
func ReadCode(err error) int {
	if e, ok := err.(Coder); ok {
		return e.Code()
	}
	return UnknownErrorCode
}
