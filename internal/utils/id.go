package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
)

// GeneratePeriodID returns a new opaque identifier for a generated period.
// A fresh value is produced on every call, so two generations of the same
// breakdown never share identifiers.
func GeneratePeriodID() string {
	return ulid.Make().String()
}

// GenerateBusinessKey names the stored document of a tactic. The campaign and
// tactic identifiers go in as fields; casing and surrounding blanks do not
// change the key, field names do. version prefixes the key so a change of
// layout never collides with documents written under the previous one.
//
// Example:
//
//	key := GenerateBusinessKey("TB1", map[string]string{"campaign": "camp-7", "tactic": "tac-42"})
//	// → "TB1_<base64url sha256>", used as the S3 object name
func GenerateBusinessKey(version string, fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + strings.ToLower(strings.TrimSpace(fields[name]))
	}

	sum := sha256.Sum256([]byte(strings.Join(pairs, "&")))
	return version + "_" + base64.RawURLEncoding.EncodeToString(sum[:])
}
