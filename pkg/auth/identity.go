package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sheetdash/sheetdash/internal/utils"
)

const identityKey = "user_identity"

// Identity is the display-only user record decoded from the ID token.
type Identity struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// DecodeIdentity extracts the profile claims from an ID token payload.
// The signature is not verified; the record is informational only.
func DecodeIdentity(idToken string) (Identity, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return Identity{}, fmt.Errorf("malformed id token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Identity{}, fmt.Errorf("decoding id token payload: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return Identity{}, fmt.Errorf("parsing id token payload: %w", err)
	}
	return id, nil
}

// IdentityStore persists the decoded identity next to the credentials.
type IdentityStore struct {
	kv KV
}

func NewIdentityStore(kv KV) *IdentityStore {
	return &IdentityStore{kv: kv}
}

func (s *IdentityStore) Save(ctx context.Context, id Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, identityKey, string(raw))
}

// Load returns the stored identity; malformed data is treated as absent.
func (s *IdentityStore) Load(ctx context.Context) (Identity, bool, error) {
	raw, ok, err := s.kv.Get(ctx, identityKey)
	if err != nil {
		return Identity{}, false, err
	}
	if !ok {
		return Identity{}, false, nil
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		utils.Log.Debug("Discarding malformed stored identity: ", err)
		_ = s.kv.Delete(ctx, identityKey)
		return Identity{}, false, nil
	}
	return id, true, nil
}

func (s *IdentityStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, identityKey)
}
