package models

// City is unique by its primary-locale name. The import pipeline creates
// cities lazily with NameEU mirrored from NameRU.
type City struct {
	ID     int    `json:"id" db:"id"`
	NameRU string `json:"name_ru" db:"name_ru"`
	NameEU string `json:"name_eu" db:"name_eu"`
}

func (City) TableName() string {
	return "city"
}

// CityUsage is the admin listing row: a city with its account count.
type CityUsage struct {
	ID           int    `json:"city_id" db:"id"`
	NameRU       string `json:"city_name" db:"name_ru"`
	AccountCount int    `json:"account_count" db:"account_count"`
}
