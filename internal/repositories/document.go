package repositories

import (
	"encoding/json"
	"fmt"

	"varanasihub.com/site/internal/domain"
)

// DecodeDocument converts a loosely typed document (Firestore fields, YAML
// fixture) into a profile using the JSON field names as the schema.
func DecodeDocument(doc map[string]any) (domain.BusinessProfile, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return domain.BusinessProfile{}, fmt.Errorf("repositories: encode document: %w", err)
	}
	var profile domain.BusinessProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.BusinessProfile{}, fmt.Errorf("repositories: decode profile: %w", err)
	}
	return profile, nil
}
