package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixObject   = "obj"
	PrefixSnapshot = "snap"
	PrefixAsset    = "asset"
	PrefixSession  = "sess"
	PrefixExport   = "exp"
)

// New mints a fresh, globally unique id with the given prefix.
func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewObjectID() string   { return New(PrefixObject) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewAssetID() string    { return New(PrefixAsset) }
func NewSessionID() string  { return New(PrefixSession) }
func NewExportID() string   { return New(PrefixExport) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
