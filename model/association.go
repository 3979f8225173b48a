package model

import "time"

// AssetCategory associates an asset with the forum category that was
// provisioned for it. This is the only table this service owns. The unique
// index makes the create-category race deterministic: concurrent requests may
// both create a category externally, but only the first insert wins and the
// other one fails with an integrity violation.
type AssetCategory struct {
	Id         uint   `gorm:"primaryKey"`
	AssetId    string `gorm:"uniqueIndex"`
	CategoryId int
	Url        string
	CreatedAt  time.Time
}
