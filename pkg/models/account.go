package models

import "time"

// Account is a directory profile. Identificator is the stable external key
// the import pipeline upserts on; DateOfCreate is nullable on purpose — an
// account without one stays invisible until a moderator dates it.
type Account struct {
	ID            int        `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Identificator string     `json:"identificator" db:"identificator"`
	CityID        *int       `json:"city_id,omitempty" db:"city_id"`
	DateOfCreate  *time.Time `json:"date_of_create,omitempty" db:"date_of_create"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	CheckVideo    int        `json:"check_video" db:"check_video"`
	Photo         []byte     `json:"photo,omitempty" db:"photo"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFilter narrows the directory listing.
type AccountFilter struct {
	Search    string
	CityID    *int
	TagID     *int
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// AccountSummary is the listing row shape.
type AccountSummary struct {
	ID            int        `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Identificator string     `json:"identificator" db:"identificator"`
	CityID        *int       `json:"city_id,omitempty" db:"city_id"`
	DateOfCreate  *time.Time `json:"date_of_create,omitempty" db:"date_of_create"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	CheckVideo    int        `json:"check_video" db:"check_video"`
	Photo         string     `json:"photo,omitempty" db:"-"`
}

// AccountDetail aggregates everything the profile page needs.
type AccountDetail struct {
	Account  Account    `json:"account"`
	City     *City      `json:"city,omitempty"`
	Tags     []Tag      `json:"tags"`
	Socials  []Social   `json:"socials"`
	Rating   []Rating   `json:"rating"`
	Comments []*Comment `json:"comments"`
	Files    []string   `json:"files"`
}

// AccountListResponse pages the directory listing.
type AccountListResponse struct {
	Items      []AccountSummary `json:"items"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// UpdateAccountRequest is the admin edit surface.
type UpdateAccountRequest struct {
	ID   int    `json:"id" validate:"required"`
	Name string `json:"name"`
	City string `json:"city"`
	Tags string `json:"tags"`
}

// UpdateAccountDateRequest dates an account. A nil Date stamps the current
// time; "null" clears it and hides the account again.
type UpdateAccountDateRequest struct {
	ID   int     `json:"id" validate:"required"`
	Date *string `json:"date"`
}
