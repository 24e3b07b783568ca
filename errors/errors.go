// Package errors provides the standardized error taxonomy for the molvis
// bridge. It defines sentinel errors for each failure class, a classified
// error wrapper that carries scene and operation context, and helper
// constructors so every layer reports failures the same way.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Class represents the classification of bridge errors
type Class int

const (
	// ClassShape represents input data that does not match the required
	// nested-mapping contract. Always detected before anything is sent.
	ClassShape Class = iota
	// ClassTimeout represents a blocking call whose deadline elapsed with
	// no matching response.
	ClassTimeout
	// ClassNotFound represents a failed registry lookup by name.
	ClassNotFound
	// ClassPeer represents an error payload reported by the rendering peer.
	ClassPeer
	// ClassDecode represents an inbound message that could not be parsed.
	// Decode errors are local only: logged and dropped at the boundary.
	ClassDecode
)

// String returns the string representation of Class
func (c Class) String() string {
	switch c {
	case ClassShape:
		return "shape"
	case ClassTimeout:
		return "timeout"
	case ClassNotFound:
		return "not_found"
	case ClassPeer:
		return "peer"
	case ClassDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// ErrShape indicates input data does not match the wire contract
	ErrShape = errors.New("invalid data shape")
	// ErrTimeout indicates a blocking call's deadline elapsed
	ErrTimeout = errors.New("request timed out")
	// ErrNotFound indicates a registry lookup by name failed
	ErrNotFound = errors.New("scene not found")
	// ErrPeer indicates the peer's response carried an error payload
	ErrPeer = errors.New("peer reported error")
	// ErrDecode indicates an inbound message could not be parsed
	ErrDecode = errors.New("response decode failed")

	// ErrSceneClosed indicates an operation on a closed scene
	ErrSceneClosed = errors.New("scene is closed")
	// ErrNoTransport indicates the scene has no transport attached
	ErrNoTransport = errors.New("no transport attached")
	// ErrEmptyInput indicates an input collection with no elements
	ErrEmptyInput = errors.New("input is empty")
)

// ClassifiedError wraps an error with its classification and the scene and
// operation it originated from.
type ClassifiedError struct {
	Class     Class
	Err       error
	Scene     string
	Operation string
	Message   string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// newClassified creates a new classified error wrapping the class sentinel
func newClassified(class Class, sentinel error, scene, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       sentinel,
		Scene:     scene,
		Operation: operation,
		Message:   message,
	}
}

// Shapef creates a pre-send shape error with formatted detail.
// Shape errors are always raised synchronously before any transport send.
func Shapef(scene, operation, format string, args ...any) error {
	msg := fmt.Sprintf("%s.%s: %s", scene, operation, fmt.Sprintf(format, args...))
	return newClassified(ClassShape, ErrShape, scene, operation, msg)
}

// EmptyInput creates a shape error for an empty input collection
func EmptyInput(scene, operation, what string) error {
	msg := fmt.Sprintf("%s.%s: %s cannot be empty", scene, operation, what)
	return &ClassifiedError{
		Class:     ClassShape,
		Err:       fmt.Errorf("%w: %w", ErrShape, ErrEmptyInput),
		Scene:     scene,
		Operation: operation,
		Message:   msg,
	}
}

// Timeout creates a timeout error naming the request id and elapsed time
func Timeout(scene string, requestID uint64, elapsed time.Duration) error {
	msg := fmt.Sprintf("%s: request %d timed out after %s", scene, requestID, elapsed)
	return newClassified(ClassTimeout, ErrTimeout, scene, "", msg)
}

// NotFound creates a lookup error listing the currently available names
func NotFound(name string, available []string) error {
	msg := fmt.Sprintf("scene %q not found, available scenes: [%s]",
		name, strings.Join(available, ", "))
	return newClassified(ClassNotFound, ErrNotFound, name, "Lookup", msg)
}

// Peer creates an error carrying the message reported by the rendering peer
func Peer(scene, operation, peerMessage string) error {
	msg := fmt.Sprintf("%s.%s: peer error: %s", scene, operation, peerMessage)
	return newClassified(ClassPeer, ErrPeer, scene, operation, msg)
}

// Decode creates a local-only decode error. Callers must log and drop it,
// never propagate it into the transport's message-handling path.
func Decode(scene string, cause error) error {
	msg := fmt.Sprintf("%s: %s: %v", scene, ErrDecode, cause)
	return &ClassifiedError{
		Class:   ClassDecode,
		Err:     fmt.Errorf("%w: %w", ErrDecode, cause),
		Scene:   scene,
		Message: msg,
	}
}

// IsShape checks whether an error is a pre-send shape error
func IsShape(err error) bool {
	return classOf(err, ClassShape) || errors.Is(err, ErrShape)
}

// IsTimeout checks whether an error is a blocking-call timeout
func IsTimeout(err error) bool {
	return classOf(err, ClassTimeout) || errors.Is(err, ErrTimeout)
}

// IsNotFound checks whether an error is a failed registry lookup
func IsNotFound(err error) bool {
	return classOf(err, ClassNotFound) || errors.Is(err, ErrNotFound)
}

// IsPeer checks whether an error carries a peer-reported failure
func IsPeer(err error) bool {
	return classOf(err, ClassPeer) || errors.Is(err, ErrPeer)
}

// IsDecode checks whether an error is a local-only decode failure
func IsDecode(err error) bool {
	return classOf(err, ClassDecode) || errors.Is(err, ErrDecode)
}

func classOf(err error, class Class) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == class
	}
	return false
}

// Wrap creates a standardized error with context following the pattern:
// "scene.operation: action failed: %w"
func Wrap(err error, scene, operation, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", scene, operation, action, err)
}

// Is reports whether any error in err's tree matches target.
// Re-exported so callers need only one errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
// Re-exported so callers need only one errors import.
func As(err error, target any) bool { return errors.As(err, target) }

// New returns an error that formats as the given text.
// Re-exported so callers need only one errors import.
func New(text string) error { return errors.New(text) }
