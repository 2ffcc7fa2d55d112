package usecase

import "github.com/rs/zerolog"

// orNop lets constructors accept a nil logger.
func orNop(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return l
}

// strOrNil maps "" to a nil pointer for optional columns.
func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
