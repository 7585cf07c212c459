package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidSortKey       = errors.New("invalid sort key")
	ErrNoImageInRegistry    = errors.New("no image in registry")
	ErrNotSupported         = errors.New("not supported")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrInvalidState         = errors.New("invalid state")
)

// NotFoundError is returned when no resource or repository matches.
type NotFoundError struct {
	Resource string
	Key      string
	Value    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s=%s", e.Resource, e.Key, e.Value)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AlreadyExistsError is returned on a uniqueness violation.
type AlreadyExistsError struct {
	Resource string
	Key      string
	Value    string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s=%s", e.Resource, e.Key, e.Value)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// InvalidArgumentError is returned when request input fails validation.
type InvalidArgumentError struct {
	Key    string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Key, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// ConfigurationError is returned when a component is missing required
// configuration. It is fatal at construction and never retried.
type ConfigurationError struct {
	Component string
	Keys      []string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid configuration for %s", e.Component)
	if len(e.Keys) > 0 {
		msg += ": missing " + strings.Join(e.Keys, ", ")
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrInvalidConfiguration }

// InvalidSortKeyError is returned when sorting on an undeclared field.
type InvalidSortKeyError struct {
	Key string
}

func (e *InvalidSortKeyError) Error() string {
	return fmt.Sprintf("invalid sort key: %s", e.Key)
}

func (e *InvalidSortKeyError) Is(target error) bool { return target == ErrInvalidSortKey }

// NoImageInRegistryError is returned when a registry has no tags for an image.
type NoImageInRegistryError struct {
	RegistryType RegistryType
	Image        string
	Err          error
}

func (e *NoImageInRegistryError) Error() string {
	msg := fmt.Sprintf("no image in registry: registry_type=%s image=%s", e.RegistryType, e.Image)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NoImageInRegistryError) Is(target error) bool { return target == ErrNoImageInRegistry }
func (e *NoImageInRegistryError) Unwrap() error        { return e.Err }

// NotSupportedError is returned for operations a repository strategy does not offer.
type NotSupportedError struct {
	Operation      string
	RepositoryType RepositoryType
}

func (e *NotSupportedError) Error() string {
	if e.RepositoryType == "" {
		return fmt.Sprintf("%s is not supported", e.Operation)
	}
	return fmt.Sprintf("%s is not supported on %s repositories", e.Operation, e.RepositoryType)
}

func (e *NotSupportedError) Is(target error) bool { return target == ErrNotSupported }

// UpstreamError is returned when a call to a peer repository fails in transport.
type UpstreamError struct {
	Endpoint string
	Method   string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s %s unavailable: %v", e.Endpoint, e.Method, e.Err)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamUnavailable }
func (e *UpstreamError) Unwrap() error        { return e.Err }

// InvalidStateError is returned when a precondition on the repository set does not hold.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// Error codes exchanged between peers and returned by the API.
const (
	CodeNotFound             = "ERROR_NOT_FOUND"
	CodeAlreadyExists        = "ERROR_ALREADY_EXISTS"
	CodeInvalidArgument      = "ERROR_INVALID_ARGUMENT"
	CodeInvalidConfiguration = "ERROR_INVALID_CONFIGURATION"
	CodeInvalidSortKey       = "ERROR_INVALID_SORT_KEY"
	CodeNoImageInRegistry    = "ERROR_NO_IMAGE_IN_REGISTRY"
	CodeNotSupported         = "ERROR_NOT_SUPPORTED"
	CodeUpstreamUnavailable  = "ERROR_UPSTREAM_UNAVAILABLE"
	CodeInvalidState         = "ERROR_INVALID_STATE"
	CodeInternal             = "ERROR_INTERNAL"
)

var codes = []struct {
	sentinel error
	code     string
}{
	{ErrNotFound, CodeNotFound},
	{ErrAlreadyExists, CodeAlreadyExists},
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrInvalidConfiguration, CodeInvalidConfiguration},
	{ErrInvalidSortKey, CodeInvalidSortKey},
	{ErrNoImageInRegistry, CodeNoImageInRegistry},
	{ErrNotSupported, CodeNotSupported},
	{ErrUpstreamUnavailable, CodeUpstreamUnavailable},
	{ErrInvalidState, CodeInvalidState},
}

// ErrorCode returns the wire code for err.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.sentinel) {
			return c.code
		}
	}
	return CodeInternal
}

// CodeError carries an error reported by a peer with its wire code.
type CodeError struct {
	Code    string
	Message string
}

func (e *CodeError) Error() string { return e.Message }

func (e *CodeError) Is(target error) bool {
	for _, c := range codes {
		if c.sentinel == target {
			return c.code == e.Code
		}
	}
	return false
}

// ErrorFromCode rebuilds an error from a wire code so that errors.Is
// matches the same sentinel on both sides of a peer call.
func ErrorFromCode(code, message string) error {
	if message == "" {
		message = strings.ToLower(strings.TrimPrefix(code, "ERROR_"))
	}
	return &CodeError{Code: code, Message: message}
}
