package repositories

import (
	"query-server/db"
	"query-server/entities"
)

type historyGormRepository struct {
	db db.Database
}

func NewHistoryGormRepository(database db.Database) HistoryRepository {
	return &historyGormRepository{db: database}
}

func (r *historyGormRepository) Create(item *entities.QrHistoryItem) error {
	return r.db.GetDB().Create(item).Error
}

func (r *historyGormRepository) GetByID(ownerID, id string) (*entities.QrHistoryItem, error) {
	var item entities.QrHistoryItem
	err := r.db.GetDB().Where("owner_id = ? AND id = ?", ownerID, id).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *historyGormRepository) ListByOwner(ownerID string) ([]entities.QrHistoryItem, error) {
	items := []entities.QrHistoryItem{}
	err := r.db.GetDB().Where("owner_id = ?", ownerID).Order("timestamp DESC").Find(&items).Error
	return items, err
}

func (r *historyGormRepository) ListFavorites(ownerID string) ([]entities.QrHistoryItem, error) {
	items := []entities.QrHistoryItem{}
	err := r.db.GetDB().Where("owner_id = ? AND is_favorite = ?", ownerID, true).Order("timestamp DESC").Find(&items).Error
	return items, err
}

func (r *historyGormRepository) Update(item *entities.QrHistoryItem) error {
	return r.db.GetDB().Save(item).Error
}

func (r *historyGormRepository) Delete(ownerID, id string) error {
	res := r.db.GetDB().Where("owner_id = ? AND id = ?", ownerID, id).Delete(&entities.QrHistoryItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *historyGormRepository) DeleteAllByOwner(ownerID string) error {
	return r.db.GetDB().Where("owner_id = ?", ownerID).Delete(&entities.QrHistoryItem{}).Error
}

func (r *historyGormRepository) PruneOwner(ownerID string, keep int) (int64, error) {
	var ids []string
	err := r.db.GetDB().Model(&entities.QrHistoryItem{}).
		Where("owner_id = ?", ownerID).
		Order("timestamp DESC").
		Pluck("id", &ids).Error
	if err != nil || len(ids) <= keep {
		return 0, err
	}
	res := r.db.GetDB().Where("id IN ?", ids[keep:]).Delete(&entities.QrHistoryItem{})
	return res.RowsAffected, res.Error
}

func (r *historyGormRepository) ListOwners() ([]string, error) {
	var owners []string
	err := r.db.GetDB().Model(&entities.QrHistoryItem{}).Distinct().Pluck("owner_id", &owners).Error
	return owners, err
}

func (r *historyGormRepository) PurgeDeleted() (int64, error) {
	res := r.db.GetDB().Unscoped().Where("deleted_at IS NOT NULL").Delete(&entities.QrHistoryItem{})
	return res.RowsAffected, res.Error
}
