package domain

import (
	"errors"
)

// Kind classifies a failure so the endpoint layer can pick a status code
// without looking at messages.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindDecode
	KindTooSmall
	KindGateway
	KindShape
	KindUnrecognizedSpeech
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindTooSmall:
		return "too_small"
	case KindGateway:
		return "gateway"
	case KindShape:
		return "shape"
	case KindUnrecognizedSpeech:
		return "unrecognized_speech"
	default:
		return "internal"
	}
}

// Error is a classified failure. Msg is safe to show to the client.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}

	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationError(msg string) error {
	return NewError(KindValidation, msg, nil)
}

func GatewayError(msg string, err error) error {
	return NewError(KindGateway, msg, err)
}

func ShapeError(msg string, err error) error {
	return NewError(KindShape, msg, err)
}

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// PublicMessage returns the client-facing text for err. Unclassified errors
// are hidden behind a generic message.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}

	return "internal server error"
}
