package repositories

import (
	"errors"
	"time"

	"query-server/db"
	"query-server/entities"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db db.Database
}

func NewUserGormRepository(database db.Database) UserRepository {
	return &userGormRepository{db: database}
}

func (r *userGormRepository) Create(user *entities.User) error {
	return r.db.GetDB().Create(user).Error
}

func (r *userGormRepository) GetByID(id string) (*entities.User, error) {
	return r.first("id = ?", id)
}

func (r *userGormRepository) GetByUsername(username string) (*entities.User, error) {
	return r.first("username = ?", username)
}

func (r *userGormRepository) GetByEmail(email string) (*entities.User, error) {
	return r.first("email = ?", email)
}

func (r *userGormRepository) first(query string, arg string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().Where(query, arg).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userGormRepository) Update(user *entities.User) error {
	user.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return r.db.GetDB().Save(user).Error
}

func (r *userGormRepository) Delete(id string) error {
	// Unscoped so the unique username/email become available again
	return r.db.GetDB().Unscoped().Where("id = ?", id).Delete(&entities.User{}).Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
