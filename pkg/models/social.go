package models

// SocialType is one row of the seeded socials_type table. Identificator is
// the short key the dump grammar uses (fb, od, tg, ...).
type SocialType struct {
	ID            int    `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Identificator string `json:"identificator" db:"identificator"`
}

func (SocialType) TableName() string {
	return "socials_type"
}

// Social is a handle unique per (type, text); the same handle row is shared
// by every account that lists it.
type Social struct {
	ID           int    `json:"id" db:"id"`
	TypeSocialID int    `json:"type_social_id" db:"type_social_id"`
	Text         string `json:"text" db:"text"`
	SocialName   string `json:"social_name,omitempty" db:"social_name"`
}

func (Social) TableName() string {
	return "socials"
}
