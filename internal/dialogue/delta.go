package dialogue

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"brief-agent/internal/domain"
)

// DraftDelta returns the RFC 7386 merge patch turning before into after.
// An unchanged draft yields "{}".
func DraftDelta(before, after domain.Draft) (string, error) {
	from, err := json.Marshal(before)
	if err != nil {
		return "", fmt.Errorf("dialogue: marshal draft: %w", err)
	}
	to, err := json.Marshal(after)
	if err != nil {
		return "", fmt.Errorf("dialogue: marshal draft: %w", err)
	}
	patch, err := jsonpatch.CreateMergePatch(from, to)
	if err != nil {
		return "", fmt.Errorf("dialogue: draft delta: %w", err)
	}
	return string(patch), nil
}
