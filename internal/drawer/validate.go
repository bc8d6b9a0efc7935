package drawer

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MaxNameLength is the maximum length of a directory or file name, in characters.
	MaxNameLength = 256
	// MaxTypeLength is the maximum length of a file's MIME type, in characters.
	MaxTypeLength = 75
)

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return fmt.Errorf("%w: name is %d characters, maximum is %d", ErrValidation, n, MaxNameLength)
	}
	return nil
}

func validateType(mimeType string) error {
	if n := utf8.RuneCountInString(mimeType); n > MaxTypeLength {
		return fmt.Errorf("%w: type is %d characters, maximum is %d", ErrValidation, n, MaxTypeLength)
	}
	return nil
}

func validateSize(size int64) error {
	if size < 0 {
		return fmt.Errorf("%w: size must not be negative, got %d", ErrValidation, size)
	}
	return nil
}

func validateOwner(owner string) error {
	if owner == "" {
		return fmt.Errorf("%w: owner is required", ErrValidation)
	}
	return nil
}
