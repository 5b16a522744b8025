package models

import "time"

// BinaryRecord describes a tool materialized from the bundled assets.
type BinaryRecord struct {
	Name        string    `json:"name"`
	Arch        string    `json:"arch"`
	Path        string    `json:"path"`
	SHA256      string    `json:"sha256"`
	Size        int64     `json:"size"`
	InstalledAt time.Time `json:"installed_at"`
}
