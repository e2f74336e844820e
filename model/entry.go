package model

// Entry kinds. The value column holds the target URL for KindURL and a
// storage-relative filename (prefixed "file:") for KindFile.
const (
	KindURL  = "url"
	KindFile = "file"
)

// Entry is a short code's payload: the items table row.
type Entry struct {
	Code      string `gorm:"primaryKey;size:16" json:"code"`
	Kind      string `gorm:"size:8;not null" json:"kind"`
	Value     string `gorm:"not null" json:"value"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Entry) TableName() string { return "items" }

// FilePrefix marks file-kind values, mirroring how they are stored on disk
// relative to the upload directory.
const FilePrefix = "file:"

// Filename returns the storage-relative filename for a file-kind entry.
func (e Entry) Filename() string {
	if len(e.Value) >= len(FilePrefix) && e.Value[:len(FilePrefix)] == FilePrefix {
		return e.Value[len(FilePrefix):]
	}
	return e.Value
}
