// Package asset stores cover images in a publicly readable object-storage
// bucket and hands back their URLs.
//
// Objects are write-once: the store never lists, overwrites or deletes, and
// it has no notion of which book an object belongs to.
package asset

import (
	"errors"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrStorageWrite is returned when an object could not be written.
var ErrStorageWrite = errors.New("asset storage write failed")

// legacyExtension is the fixed suffix older deployments gave every object.
const legacyExtension = ".jpg"

// KeyFunc names a new object for the given content type.
type KeyFunc func(contentType string) string

// NewKeyFunc returns the object naming scheme. Names are UUIDv7 values, so
// they sort by creation time and never depend on the client filename. With
// legacyJPG every name ends in ".jpg"; otherwise the extension follows the
// content type and is omitted when the type is unknown.
func NewKeyFunc(legacyJPG bool) KeyFunc {
	return func(contentType string) string {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		if legacyJPG {
			return id.String() + legacyExtension
		}
		return id.String() + ExtensionFor(contentType)
	}
}

// ExtensionFor maps a MIME type such as "image/png; q=1" to ".png".
func ExtensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		return ""
	}
	if m := mimetype.Lookup(mediaType); m != nil {
		return m.Extension()
	}
	return ""
}
