package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sheetdash/sheetdash/internal/utils"
	"golang.org/x/oauth2"
)

const credentialsKey = "oauth_credentials"

// Credentials is the persisted OAuth token record.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	ExpiryMillis int64  `json:"expiry_ms"`
}

// Expired reports whether the access token expiry has passed.
func (c Credentials) Expired(now time.Time) bool {
	return c.ExpiryMillis != 0 && c.ExpiryMillis < now.UnixMilli()
}

// Token converts the record into an oauth2 token.
func (c Credentials) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if c.ExpiryMillis != 0 {
		tok.Expiry = time.UnixMilli(c.ExpiryMillis)
	}
	return tok
}

func credentialsFromToken(tok *oauth2.Token) Credentials {
	c := Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		c.ExpiryMillis = tok.Expiry.UnixMilli()
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		c.IDToken = id
	}
	return c
}

// CredentialStore persists the credential record in the local KV store.
// Loading never surfaces malformed data: anything unreadable or expired
// is treated as absent and evicted.
type CredentialStore struct {
	kv  KV
	now func() time.Time
}

// KV is the slice of the storage capability the store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

func NewCredentialStore(kv KV) *CredentialStore {
	return &CredentialStore{kv: kv, now: time.Now}
}

// Save persists the record, overwriting any prior one.
func (s *CredentialStore) Save(ctx context.Context, creds Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, credentialsKey, string(raw))
}

// Load reads the stored record. Expired records are evicted lazily and
// reported as absent.
func (s *CredentialStore) Load(ctx context.Context) (Credentials, bool, error) {
	raw, ok, err := s.kv.Get(ctx, credentialsKey)
	if err != nil {
		return Credentials{}, false, err
	}
	if !ok {
		return Credentials{}, false, nil
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		utils.Log.Debug("Discarding malformed stored credentials: ", err)
		_ = s.kv.Delete(ctx, credentialsKey)
		return Credentials{}, false, nil
	}

	if creds.Expired(s.now()) {
		utils.Log.Debug("Stored credentials are expired, evicting")
		_ = s.kv.Delete(ctx, credentialsKey)
		return Credentials{}, false, nil
	}

	return creds, true, nil
}

// Clear removes any persisted record. Idempotent.
func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, credentialsKey)
}
