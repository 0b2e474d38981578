package loader

import (
	"os"

	"github.com/pkg/errors"
)

// Asset supplies the flash agent image at runtime.
type Asset interface {
	Load() ([]byte, error)
}

// AssetFunc - Plain function as an Asset
type AssetFunc func() ([]byte, error)

// Load - Asset
func (f AssetFunc) Load() ([]byte, error) {
	return f()
}

// FileAsset - Asset read from path on every Load
func FileAsset(path string) Asset {
	return AssetFunc(func() ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read bootloader")
		}
		return data, nil
	})
}
