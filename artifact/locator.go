package artifact

import (
	"fmt"
	"strings"
)

// Scheme prefixes every artifact locator.
const Scheme = "artifact://"

// Locator returns the opaque reference handed to customers and clients.
func Locator(sessionID, artifactID string) string {
	return Scheme + sessionID + "/" + artifactID
}

// ParseLocator splits a locator into its session and artifact ids.
func ParseLocator(locator string) (sessionID, artifactID string, err error) {
	rest, ok := strings.CutPrefix(locator, Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	sessionID, artifactID, ok = strings.Cut(rest, "/")
	if !ok || sessionID == "" || artifactID == "" || strings.Contains(artifactID, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return sessionID, artifactID, nil
}
