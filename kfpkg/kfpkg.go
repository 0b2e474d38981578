// Package kfpkg reads .kfpkg firmware packages: zip archives holding a
// flash-list.json manifest and the binaries it names.
package kfpkg

import (
	"archive/zip"
	"encoding/json"
	"io"
	"path"

	"github.com/golang/glog"
	"github.com/mholt/archiver/v3"
	"github.com/pkg/errors"

	"github.com/janch32/kendryte-flash/firmware"
)

// ManifestName - Name of the manifest inside the archive
const ManifestName = "flash-list.json"

// File - One manifest entry
type File struct {
	Address       uint32 `json:"address"`
	Bin           string `json:"bin"`
	SHA256Prefix  bool   `json:"sha256Prefix"`
	Reverse4Bytes bool   `json:"reverse4Bytes"`
}

// Manifest - Content of flash-list.json
type Manifest struct {
	Version string `json:"version"`
	Files   []File `json:"files"`
}

// Package - Loaded package, manifest plus every archive member by name
type Package struct {
	Manifest Manifest
	members  map[string][]byte
}

// Open reads the package at path.
func Open(filePath string) (*Package, error) {
	members := map[string][]byte{}

	err := archiver.NewZip().Walk(filePath, func(f archiver.File) error {
		if f.IsDir() {
			return nil
		}

		name := f.Name()
		if h, ok := f.Header.(zip.FileHeader); ok {
			name = h.Name
		}

		data, err := io.ReadAll(f)
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}

		members[path.Clean(name)] = data
		return nil
	})

	if err != nil {
		return nil, errors.Wrapf(err, "open package %s", filePath)
	}

	return load(members)
}

func load(members map[string][]byte) (*Package, error) {
	raw, ok := members[ManifestName]
	if !ok {
		return nil, errors.Errorf("package has no %s", ManifestName)
	}

	p := &Package{members: members}
	if err := json.Unmarshal(raw, &p.Manifest); err != nil {
		return nil, errors.Wrapf(err, "decode %s", ManifestName)
	}

	if len(p.Manifest.Files) == 0 {
		return nil, errors.Errorf("%s lists no files", ManifestName)
	}

	for _, f := range p.Manifest.Files {
		if _, ok := members[path.Clean(f.Bin)]; !ok {
			return nil, errors.Errorf("%s names %q, not in package", ManifestName, f.Bin)
		}
	}

	glog.V(1).Infof("Package version %q, %d files", p.Manifest.Version, len(p.Manifest.Files))
	return p, nil
}

// Chunks - Manifest entries in order, with their binaries
func (p *Package) Chunks() []firmware.Chunk {
	chunks := make([]firmware.Chunk, 0, len(p.Manifest.Files))

	for _, f := range p.Manifest.Files {
		chunks = append(chunks, firmware.Chunk{
			Address:       f.Address,
			Data:          p.members[path.Clean(f.Bin)],
			SHA256Prefix:  f.SHA256Prefix,
			Reverse4Bytes: f.Reverse4Bytes,
		})
	}

	return chunks
}
