package repositories

import (
	"time"

	"query-server/db"
	"query-server/entities"

	"gorm.io/gorm/clause"
)

type configGormRepository struct {
	db db.Database
}

func NewConfigGormRepository(database db.Database) ConfigRepository {
	return &configGormRepository{db: database}
}

func (r *configGormRepository) Get(ownerID, key string) (*entities.AppConfig, error) {
	var cfg entities.AppConfig
	// map conditions get quoted columns; "key" is a keyword in some dialects
	err := r.db.GetDB().Where(map[string]interface{}{"owner_id": ownerID, "key": key}).First(&cfg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cfg, nil
}

func (r *configGormRepository) ListByOwner(ownerID string) ([]entities.AppConfig, error) {
	var cfgs []entities.AppConfig
	err := r.db.GetDB().Where("owner_id = ?", ownerID).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&cfgs).Error
	return cfgs, err
}

func (r *configGormRepository) Set(ownerID, key, value string) error {
	cfg := &entities.AppConfig{OwnerID: ownerID, Key: key, Value: value}
	return r.db.GetDB().Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now().UTC().Format(time.RFC3339),
		}),
	}).Create(cfg).Error
}

func (r *configGormRepository) DeleteAllByOwner(ownerID string) error {
	return r.db.GetDB().Where("owner_id = ?", ownerID).Delete(&entities.AppConfig{}).Error
}
