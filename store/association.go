// Package store persists the asset to forum category association, the only
// state this service owns.
package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/collabsvcs/discussion/model"
	Logger "github.com/collabsvcs/discussion/utils/log"
)

// ErrDuplicateAssociation is returned when an association already exists for
// the asset. Callers treat it as "someone else already created it" and move
// on with the stored association.
var ErrDuplicateAssociation = errors.New("an association already exists for this asset")

// AssociationStore resolves and records which forum category was provisioned
// for which asset.
type AssociationStore interface {
	// Lookup returns the category id associated with the asset, or nil when
	// no association exists yet.
	Lookup(assetId string) (*int, error)

	// Store records a new association. ErrDuplicateAssociation is returned
	// when the asset already has one.
	Store(assetId string, categoryId int) error
}

type GormAssociationStore struct {
	db *gorm.DB
}

func NewGormAssociationStore(db *gorm.DB) *GormAssociationStore {
	return &GormAssociationStore{db: db}
}

// Lookup selects all matching rows and returns the first one. There should be
// at most one per asset; if duplicates ever exist the earliest-selected wins.
func (s *GormAssociationStore) Lookup(assetId string) (*int, error) {
	var associations []model.AssetCategory
	res := s.db.Where("asset_id = ?", assetId).Order("id").Find(&associations)
	if res.Error != nil {
		Logger.Log.Errorf("fail to retrieve category for asset %s: %v", assetId, res.Error)
		return nil, res.Error
	}
	if len(associations) == 0 {
		return nil, nil
	}
	Logger.Log.Debugf("asset %s resolves to category %d", assetId, associations[0].CategoryId)
	return &associations[0].CategoryId, nil
}

func (s *GormAssociationStore) Store(assetId string, categoryId int) error {
	res := s.db.Create(&model.AssetCategory{AssetId: assetId, CategoryId: categoryId})
	if res.Error != nil {
		Logger.Log.Errorf("fail to store category %d for asset %s: %v", categoryId, assetId, res.Error)
		if isUniqueViolation(res.Error) {
			return ErrDuplicateAssociation
		}
		return res.Error
	}
	Logger.Log.Debugf("asset %s associated with category %d", assetId, categoryId)
	return nil
}

// isUniqueViolation matches the postgres unique_violation error (23505)
// without depending on the driver's error types.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
