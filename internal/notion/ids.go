package notion

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// pageURLPattern matches notion.so and notion.site page URLs whose last
// path segment ends in a 32 character hex id
var pageURLPattern = regexp.MustCompile(`(?i)^https?://(?:[a-z0-9-]+\.)?notion\.(?:so|site)/(?:[^/?#]+/)*(?:[^/?#]*-)?([0-9a-f]{32})(?:[?#].*)?$`)

// CanonicalID returns the dashed form of a raw id or page URL. The second
// result is false when ref is neither, and has to be searched for instead.
func CanonicalID(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	if !strings.Contains(ref, "://") {
		if id, err := uuid.Parse(ref); err == nil {
			return id.String(), true
		}
		return "", false
	}

	m := pageURLPattern.FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	id, err := uuid.Parse(m[1])
	if err != nil {
		return "", false
	}
	return id.String(), true
}
