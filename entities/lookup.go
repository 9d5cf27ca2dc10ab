package entities

// Label is the common shape of the reference tables (categories, ages,
// genders). Disabled rows stay valid as historical references on existing
// recordings but are excluded from future selection.
type Label struct {
	ID          int16   `json:"id"`
	Label       string  `json:"label"`
	Description *string `json:"description"`
	Enabled     bool    `json:"enabled"`
}

type Category struct {
	Label
}

func (Category) TableName() string {
	return "categories"
}

type Age struct {
	Label
}

func (Age) TableName() string {
	return "ages"
}

type Gender struct {
	Label
}

func (Gender) TableName() string {
	return "genders"
}

// MimeType maps a probed (container, codec) pair to the mime essence and
// file extension used when storing and serving recordings.
type MimeType struct {
	ID        int16  `json:"id" gorm:"type:smallint;primary_key"`
	Container string `json:"container" gorm:"type:text;not null"`
	Codec     string `json:"codec" gorm:"type:text;not null"`
	Essence   string `json:"essence" gorm:"type:text;not null"`
	Extension string `json:"extension" gorm:"type:text;not null"`
	Enabled   bool   `json:"enabled" gorm:"not null;default:true"`
}

func (MimeType) TableName() string {
	return "mime_types"
}

// LookupTables is one consistent read of all reference data, including
// disabled rows. The lookup cache snapshots it.
type LookupTables struct {
	Categories []Label
	Ages       []Label
	Genders    []Label
	MimeTypes  []MimeType
}
