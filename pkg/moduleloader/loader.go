// Package moduleloader opens on-disk tool module artifacts (Go plugins),
// verifies their integrity and ABI version, and extracts the module.Module
// handle the registry will hold onto for the life of the process.
package moduleloader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"plugin"

	"github.com/kadirpekel/toolrt/pkg/module"
)

// Loader opens tool module artifacts from the filesystem.
type Loader struct{}

// New returns a ready-to-use Loader.
func New() *Loader {
	return &Loader{}
}

// Load opens the artifact at path, optionally verifying it against a
// hex-encoded SHA-256 checksum, locates its module.Symbol, and verifies
// its ABI version. The returned module.Module is valid for the life of the
// process: Go plugins, once opened, cannot be unloaded, so there is no
// corresponding Close/Unload — the artifact is released only at process
// exit, which matches plugin.Open's documented behavior.
func (l *Loader) Load(path string, checksum string) (module.Module, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}

	if checksum != "" {
		actual, err := fileChecksum(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
		}
		if actual != checksum {
			return nil, &ChecksumMismatchError{Expected: checksum, Actual: actual}
		}
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}

	sym, err := p.Lookup(module.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSymbolNotFound, path, err)
	}

	// plugin.Lookup returns a pointer to the exported variable, never the
	// interface value itself (see the stdlib plugin package's own
	// documented example: v.(*int) for a `var V int`). module.Symbol
	// documents a package-level `var ToolModule module.Module`, so the
	// symbol's dynamic type here is *module.Module.
	modPtr, ok := sym.(*module.Module)
	if !ok {
		return nil, fmt.Errorf("%w: %s: symbol %q does not implement module.Module", ErrSymbolNotFound, path, module.Symbol)
	}
	mod := *modPtr

	meta := mod.Meta()
	if meta.ABIVersion != module.ABIVersion {
		return nil, &AbiMismatchError{Expected: module.ABIVersion, Actual: meta.ABIVersion}
	}

	return mod, nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
