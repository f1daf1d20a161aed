package quizbank

import "errors"

var (
	// ErrNoFormatSupported is returned when none of the configured input
	// formats has a reader.
	ErrNoFormatSupported = errors.New("quizbank: no input format supported")

	// ErrUnsupportedFormat is returned for a file whose format has no reader.
	ErrUnsupportedFormat = errors.New("quizbank: unsupported document format")

	// ErrParsingFailed is returned when a file cannot be read or structured.
	ErrParsingFailed = errors.New("quizbank: parsing failed")

	// ErrNoQuestions is returned when a run extracts no records at all.
	ErrNoQuestions = errors.New("quizbank: no questions extracted")

	// ErrNoInputFiles is returned when discovery finds nothing to convert.
	ErrNoInputFiles = errors.New("quizbank: no input files")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("quizbank: invalid configuration")
)
