package wsdiscovery

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned for a payload that is not well-formed XML
	ErrParse = errors.New("malformed discovery response")

	// ErrNotSOAP is returned for well-formed XML without a SOAP envelope body
	ErrNotSOAP = errors.New("response is not a SOAP envelope")

	// ErrInvalidEndpoint is returned when an XAddrs entry is not a usable URL
	ErrInvalidEndpoint = errors.New("invalid endpoint address")

	ErrInvalidConfig = errors.New("invalid discovery config")
)

// Stage names the step of a probe session that failed
type Stage string

const (
	StageBind    Stage = "bind"
	StageSend    Stage = "send"
	StageReceive Stage = "receive"
	StageParse   Stage = "parse"
)

// SessionError is a failure inside one probe session
type SessionError struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("probe from %s failed at %s: %v", e.Source, e.Stage, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err stems from a malformed response
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse) || errors.Is(err, ErrNotSOAP)
}
