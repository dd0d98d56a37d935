package moduleloader

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned when the artifact path does not exist or
	// cannot be opened.
	ErrInvalidPath = errors.New("moduleloader: invalid path")

	// ErrSymbolNotFound is returned when the artifact does not export the
	// expected module.Symbol of the expected type.
	ErrSymbolNotFound = errors.New("moduleloader: symbol not found")

	// ErrInitFailed is wrapped by the registry's error when a module's Init
	// call returns an error.
	ErrInitFailed = errors.New("moduleloader: module init failed")
)

// ChecksumMismatchError is returned when a caller-supplied checksum does not
// match the artifact's actual SHA-256 digest.
type ChecksumMismatchError struct {
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("moduleloader: checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// AbiMismatchError is returned when a loaded module's ABI version does not
// equal the runtime's compiled-in constant.
type AbiMismatchError struct {
	Expected int
	Actual   int
}

func (e *AbiMismatchError) Error() string {
	return fmt.Sprintf("moduleloader: abi mismatch: expected %d, got %d", e.Expected, e.Actual)
}
