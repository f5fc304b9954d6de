package database

import "time"

// MediaArtifact is the persisted record of an uploaded media file and, once
// a re-encode job succeeds, its re-encoded output.
//
// Invariant: ReencodedPath, ReencodedSize and ReencodedBitrate are either all
// zero or all populated; they are written together in a single statement so
// no intermediate state is ever visible.
type MediaArtifact struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourcePath string    `json:"-"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"createdAt"`

	IsReencoded      bool   `json:"isReEncoded"`
	ReencodedPath    string `json:"-"`
	ReencodedSize    int64  `json:"reEncodedSize,omitempty"`
	ReencodedBitrate string `json:"reEncodedBitrate,omitempty"`

	LastError   string    `json:"lastError,omitempty"`
	LastErrorAt time.Time `json:"lastErrorAt,omitempty"`
}
