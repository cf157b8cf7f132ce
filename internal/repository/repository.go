// Package repository defines how the application talks to storage.
//
// Everything a browser profile owns is kept as a handful of named JSON blobs,
// the same shape the browser version kept in local storage. Storage is the
// raw keyed interface a backend implements; Store layers typed load/save
// helpers on top of it.
package repository

import (
	"context"
	"time"
)

// Blob keys. They match the local-storage keys of the browser version so
// a dump of a browser's storage can be imported as-is.
const (
	KeySettings      = "promptAppSettings"
	KeyUsers         = "promptAppUsers"
	KeySession       = "promptAppCurrentSession"
	KeyLegacyPrompts = "prompts"
	KeyDraft         = "promptDraft"
)

// Keys lists every blob key the application reads or writes.
var Keys = []string{KeySettings, KeyUsers, KeySession, KeyLegacyPrompts, KeyDraft}

// Storage is a keyed blob store scoped to one browser profile.
//
// INTERFACE CONTRACT:
//   - Get returns an error wrapping apperror.ErrNotFound when the key is absent.
//   - Put overwrites any previous value.
//   - Delete of an absent key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ProfileSummary describes one stored browser profile.
type ProfileSummary struct {
	ID        string
	Keys      int
	UpdatedAt time.Time
}

// ProfileLister is implemented by backends that can enumerate profiles.
type ProfileLister interface {
	Profiles(ctx context.Context) ([]ProfileSummary, error)
}
