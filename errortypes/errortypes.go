package errortypes

// ConfigError should be used when a network cannot be used because its
// credentials or static configuration are missing or malformed. These surface
// before any upstream call is made.
//
// ConfigErrors are actionable for the hub operator: fix the environment or
// the network config file and restart.
type ConfigError struct {
	Message string
}

func (err *ConfigError) Error() string {
	return err.Message
}

func (err *ConfigError) Code() int {
	return ConfigErrorCode
}

func (err *ConfigError) Severity() Severity {
	return SeverityFatal
}

// AuthError should be used when an upstream rejects our credentials and the
// single refresh-and-retry pass did not recover. It should _not_ be used for
// connection-level failures, which are TransportErrors.
type AuthError struct {
	Message string
}

func (err *AuthError) Error() string {
	return err.Message
}

func (err *AuthError) Code() int {
	return AuthErrorCode
}

func (err *AuthError) Severity() Severity {
	return SeverityFatal
}

// RateLimited should be used when an upstream responds with HTTP 429 or an
// equivalent throttling signal. Callers may back off and retry the whole
// operation later; the hub itself does not retry.
type RateLimited struct {
	Message string
}

func (err *RateLimited) Error() string {
	return err.Message
}

func (err *RateLimited) Code() int {
	return RateLimitedErrorCode
}

func (err *RateLimited) Severity() Severity {
	return SeverityFatal
}

// IdentifierNotFound should be used when an upstream reports success but the
// response carries none of the identifier fields we know how to read. This
// usually means the network changed its response schema.
type IdentifierNotFound struct {
	Message string
}

func (err *IdentifierNotFound) Error() string {
	return err.Message
}

func (err *IdentifierNotFound) Code() int {
	return IdentifierNotFoundErrorCode
}

func (err *IdentifierNotFound) Severity() Severity {
	return SeverityFatal
}

// AppNotFound should be used when reconciliation cannot match a requested app
// against the network's app inventory, by package name or by display name.
type AppNotFound struct {
	Message string
}

func (err *AppNotFound) Error() string {
	return err.Message
}

func (err *AppNotFound) Code() int {
	return AppNotFoundErrorCode
}

func (err *AppNotFound) Severity() Severity {
	return SeverityFatal
}

// UnitNotFound should be used when a matched app has no ad unit of the
// requested format.
type UnitNotFound struct {
	Message string
}

func (err *UnitNotFound) Error() string {
	return err.Message
}

func (err *UnitNotFound) Code() int {
	return UnitNotFoundErrorCode
}

func (err *UnitNotFound) Severity() Severity {
	return SeverityFatal
}

// TransportError should be used for connection-level failures: DNS errors,
// dial timeouts, TLS failures, or a request canceled by its context. The
// upstream never produced a readable response.
type TransportError struct {
	Message string
}

func (err *TransportError) Error() string {
	return err.Message
}

func (err *TransportError) Code() int {
	return TransportErrorCode
}

func (err *TransportError) Severity() Severity {
	return SeverityFatal
}

// UpstreamError should be used when a network responds but signals failure,
// either with a non-2xx status or with a business-level error code inside a
// 200 body. ErrCode preserves the network's own code verbatim so callers can
// report it without re-parsing the response.
type UpstreamError struct {
	Message string
	ErrCode string
}

func (err *UpstreamError) Error() string {
	return err.Message
}

func (err *UpstreamError) Code() int {
	return UpstreamErrorCode
}

func (err *UpstreamError) Severity() Severity {
	return SeverityFatal
}

// UnknownNetwork should be used when a registry lookup fails because no
// adapter is registered under the requested name or alias.
type UnknownNetwork struct {
	Message string
}

func (err *UnknownNetwork) Error() string {
	return err.Message
}

func (err *UnknownNetwork) Code() int {
	return UnknownNetworkErrorCode
}

func (err *UnknownNetwork) Severity() Severity {
	return SeverityFatal
}

// BadInput should be used when returning errors which are caused by bad input.
// It should _not_ be used if the error is a server-side issue (e.g. failed to
// reach the ad network).
type BadInput struct {
	Message string
}

func (err *BadInput) Error() string {
	return err.Message
}

func (err *BadInput) Code() int {
	return BadInputErrorCode
}

func (err *BadInput) Severity() Severity {
	return SeverityFatal
}

// StoreLookup should be used when an app-store metadata lookup fails or the
// store has no record of the requested app id.
type StoreLookup struct {
	Message string
}

func (err *StoreLookup) Error() string {
	return err.Message
}

func (err *StoreLookup) Code() int {
	return StoreLookupErrorCode
}

func (err *StoreLookup) Severity() Severity {
	return SeverityFatal
}

// Warning is a generic non-fatal error. Reconciliation uses warnings to
// surface ambiguous matches it resolved by fallback rules.
type Warning struct {
	Message     string
	WarningCode int
}

func (err *Warning) Error() string {
	return err.Message
}

func (err *Warning) Code() int {
	return err.WarningCode
}

func (err *Warning) Severity() Severity {
	return SeverityWarning
}
