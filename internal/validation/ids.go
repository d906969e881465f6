package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Comment and video ids are URL-safe base64-ish strings; replies add a
// dotted suffix ("Ugx...AaABAg.9z...").
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_\-.]+$`)

const maxIDLength = 256

var ErrInvalidID = errors.New("invalid id")

func CommentID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case len(id) > maxIDLength:
		return fmt.Errorf("%w: %d characters is too long", ErrInvalidID, len(id))
	case !idPattern.MatchString(id):
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// CommentIDs trims, validates and de-duplicates ids. All invalid ids are
// reported together.
func CommentIDs(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	var errs []error
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if err := CommentID(id); err != nil {
			errs = append(errs, err)
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, errors.Join(errs...)
}
