package compact

import (
	"fmt"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/mapping"
	"github.com/arloliu/dxform/optimizer"
)

// registryKeys maps key segments through the abbreviation registry.
type registryKeys struct {
	reg      *mapping.Registry
	truncate int
}

func (k registryKeys) ParseKey(token string) (string, error) {
	seg := optimizer.ExpandSegment(k.reg, token)
	if !document.ValidSegment(seg) {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidKey, token)
	}

	return seg, nil
}

func (k registryKeys) RenderKey(segment string) (string, error) {
	if !document.ValidSegment(segment) {
		return "", fmt.Errorf("%w: key segment %q", errs.ErrUnrepresentable, segment)
	}

	return optimizer.AbbreviateKey(k.reg, segment, k.truncate), nil
}

// expandKey expands a dotted key token and validates the result.
func (k registryKeys) expandKey(token string) (string, error) {
	key := optimizer.ExpandKey(k.reg, token)
	if !document.ValidKey(key) {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidKey, token)
	}

	return key, nil
}

// compressKey validates a dotted key and abbreviates it for output.
func (k registryKeys) compressKey(key string) (string, error) {
	if !document.ValidKey(key) {
		return "", fmt.Errorf("%w: key %q", errs.ErrUnrepresentable, key)
	}

	return optimizer.AbbreviateKey(k.reg, key, k.truncate), nil
}
