package models

// Tag is unique by its primary-locale name and attached to accounts
// through the tags_detail join table.
type Tag struct {
	ID     int    `json:"id" db:"id"`
	NameRU string `json:"name_ru" db:"name_ru"`
	NameEU string `json:"name_eu" db:"name_eu"`
}

func (Tag) TableName() string {
	return "tags"
}

// TagUsage is a tag with the number of accounts carrying it.
type TagUsage struct {
	ID         int    `json:"id" db:"id"`
	NameRU     string `json:"name_ru" db:"name_ru"`
	UsageCount int    `json:"usage_count" db:"usage_count"`
}
