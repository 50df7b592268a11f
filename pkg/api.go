package pkg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/psdkit/pkg/psd"
	"github.com/provide-io/psdkit/pkg/utils/permissions"
)

// LoadFile decodes the document stored at path.
func LoadFile(path string) (*psd.Document, error) {
	return LoadFileWithLogger(path, hclog.NewNullLogger())
}

// LoadFileWithLogger decodes the document stored at path, logging through logger.
func LoadFileWithLogger(path string, logger hclog.Logger) (*psd.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	logger.Debug("📂 Loading document", "path", path)
	dec, err := psd.NewDecoderWithLogger(f, logger)
	if err != nil {
		return nil, err
	}
	doc, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// SaveFile encodes doc to path with the default file mode.
func SaveFile(path string, doc *psd.Document) error {
	return SaveFileWithLogger(path, doc, permissions.DefaultFileMode, hclog.NewNullLogger())
}

// SaveFileWithLogger encodes doc into a temporary file next to path and
// renames it into place, so a failed encode never leaves a partial file.
func SaveFileWithLogger(path string, doc *psd.Document, mode os.FileMode, logger hclog.Logger) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".psdkit-*.psd")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			if rmErr := os.Remove(tmp.Name()); rmErr != nil {
				logger.Debug("Failed to remove temporary file", "path", tmp.Name(), "error", rmErr)
			}
		}
	}()

	logger.Debug("💾 Saving document", "path", path, "tmp", tmp.Name())
	enc, err := psd.NewEncoderWithLogger(tmp, logger)
	if err != nil {
		return err
	}
	if err = enc.Encode(doc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
