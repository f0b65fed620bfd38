// Package chesserr contains the server's stable error taxonomy. Every error
// that can reach a wire Error envelope originates here so the 4-digit code,
// message and retryability stay in lock-step.
package chesserr

import "fmt"

// Kind identifies a family of error and carries its stable wire code.
type Kind uint16

const (
	Unknown Kind = iota

	// Game family (1xxx).
	GameNotFound
	InvalidMove
	GameFinished
	NotYourTurn
	GameFull

	// Player family (2xxx).
	PlayerNotFound
	PlayerAlreadyInGame
	PlayerNotInGame
	InvalidPlayerName
	AuthFailed

	// Transport family (3xxx).
	ConnectionLost
	InvalidMessage
	MessageTooLarge
	ConnectionTimeout
	Overloaded

	// Protocol family (4xxx).
	ProtocolVersionMismatch
	UnsupportedMessageType
	MissingField

	// System family (5xxx).
	ConfigError
	IOError
	SerializationError
	InternalError

	// Validation family (6xxx).
	InvalidPosition
	InvalidFEN
	InvalidPGN

	// Rate family (7xxx).
	RateLimitExceeded
	TooManyGames

	// Authorization family (8xxx).
	InsufficientPermissions
	ActionNotAllowed
)

// code returns the stable 4-digit wire code for the kind.
func (k Kind) code() string {
	switch k {
	case GameNotFound:
		return "1001"
	case InvalidMove:
		return "1002"
	case GameFinished:
		return "1003"
	case NotYourTurn:
		return "1004"
	case GameFull:
		return "1005"
	case PlayerNotFound:
		return "2001"
	case PlayerAlreadyInGame:
		return "2002"
	case PlayerNotInGame:
		return "2003"
	case InvalidPlayerName:
		return "2004"
	case AuthFailed:
		return "2005"
	case ConnectionLost:
		return "3001"
	case InvalidMessage:
		return "3002"
	case MessageTooLarge:
		return "3003"
	case ConnectionTimeout:
		return "3004"
	case Overloaded:
		return "3005"
	case ProtocolVersionMismatch:
		return "4001"
	case UnsupportedMessageType:
		return "4002"
	case MissingField:
		return "4003"
	case ConfigError:
		return "5001"
	case IOError:
		return "5003"
	case SerializationError:
		return "5004"
	case InternalError:
		return "5005"
	case InvalidPosition:
		return "6001"
	case InvalidFEN:
		return "6002"
	case InvalidPGN:
		return "6003"
	case RateLimitExceeded:
		return "7001"
	case TooManyGames:
		return "7002"
	case InsufficientPermissions:
		return "8001"
	case ActionNotAllowed:
		return "8002"
	default:
		return "0000"
	}
}

// Error is a typed, wire-codeable server error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Code returns the stable 4-digit wire code for the error.
func (e *Error) Code() string {
	return e.Kind.code()
}

// IsClientError reports whether the error belongs to a family the client
// caused (1xxx-4xxx, 6xxx-8xxx).
func (e *Error) IsClientError() bool {
	switch e.Code()[0] {
	case '1', '2', '3', '4', '6', '7', '8':
		return true
	default:
		return false
	}
}

// IsServerError reports whether the error belongs to the system family (5xxx).
func (e *Error) IsServerError() bool {
	return e.Code()[0] == '5'
}

// Retryable reports whether the client may reasonably retry the request
// that produced this error. Advisory only: the caller decides whether to
// act on it.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case ConnectionTimeout, Overloaded, ConnectionLost, IOError:
		return true
	default:
		return false
	}
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// As extracts a *Error from err, if any.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}

// CodeOf returns the wire code for err, defaulting to the internal-error
// code if err is not one of ours.
func CodeOf(err error) string {
	if e, ok := As(err); ok {
		return e.Code()
	}
	return InternalError.code()
}
