package dedupe

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/lineup/internal/domain/model"
)

// namespace scopes request fingerprints.
var namespace = uuid.MustParse("6f0c1d52-8a7e-4b0e-9a55-3c7f2f1d9e41")

// Fingerprint returns the deduplication key of req.
// A caller supplied RequestID wins; otherwise the key is a name-based UUID
// over the request content. ConfirmLarge does not change the key.
func Fingerprint(req model.JobRequest) string {
	if id := strings.TrimSpace(req.RequestID); id != "" {
		return id
	}
	req.RequestID = ""
	req.ConfirmLarge = false
	data, err := json.Marshal(req)
	if err != nil {
		return uuid.NewString()
	}
	return uuid.NewSHA1(namespace, data).String()
}
