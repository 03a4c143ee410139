// Package site holds the Site record shared by the metadata store, the registry
// and the upload pipeline, together with the error taxonomy they report.
package site

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// UserID identifies a user of the messaging platform.
type UserID int64

// Site is one hosted HTML artifact. ID, Owner, File and CreatedAt never change
// after creation.
type Site struct {
	ID        string    `json:"id"`
	Owner     UserID    `json:"owner"`
	File      string    `json:"file"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FileRef derives the content reference for id.
func FileRef(id string) string {
	return id + ".html"
}

// SizeKB returns the content size in kilobytes rounded to two places.
func (s Site) SizeKB() float64 {
	return math.Round(float64(s.SizeBytes)/1024*100) / 100
}

// SizeLabel formats SizeKB for display, e.g. "1.25 KB".
func (s Site) SizeLabel() string {
	return fmt.Sprintf("%.2f KB", s.SizeKB())
}

// URL returns the public address of the site under baseURL.
func (s Site) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/sites/" + s.File
}

// OwnedBy reports whether user may manage the site.
func (s Site) OwnedBy(user UserID) bool {
	return s.Owner == user
}
