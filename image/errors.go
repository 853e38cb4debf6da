package image

import (
	"fmt"
)

type ParseErrorKind int

const (
	SyntaxError ParseErrorKind = iota + 1
	RecordError
	DataError
	ChecksumError
)

func (k ParseErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case RecordError:
		return "record error"
	case DataError:
		return "data error"
	case ChecksumError:
		return "checksum error"
	}
	return "error"
}

// ParseError reports a malformed record in an image file.
type ParseError struct {
	Kind    ParseErrorKind
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s at line %d", e.Kind, e.Message, e.Line)
}

func newParseError(kind ParseErrorKind, line int, format string, param ...interface{}) error {
	return &ParseError{Kind: kind, Line: line, Message: fmt.Sprintf(format, param...)}
}
