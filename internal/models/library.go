package models

// LibraryRecord is a public library branch. The directory is synced by an
// external job; this service only reads it.
type LibraryRecord struct {
	Code      string   `gorm:"primaryKey;size:20" json:"code"`
	Name      string   `gorm:"size:200;index" json:"name"`
	Address   string   `gorm:"size:300" json:"address"`
	Phone     string   `gorm:"size:50" json:"phone"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Homepage  string   `gorm:"size:300" json:"homepage"`
}

func (LibraryRecord) TableName() string { return "libraries" }

// HasCoordinates reports whether both coordinates are known.
func (l LibraryRecord) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}
