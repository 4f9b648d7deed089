package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// userRecord is the GORM mapping of the users table.
type userRecord struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	Email        string  `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string  `gorm:"size:255;not null"`
	Role         string  `gorm:"size:20;not null;default:complainer;index"`
	Phone        *string `gorm:"size:20"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string {
	return "users"
}

func (r *userRecord) toDomain() (*domain.User, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", r.ID, err)
	}
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         role,
		Phone:        r.Phone,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

// MigrateGorm creates or updates the tables owned by the GORM repositories.
func MigrateGorm(db *gorm.DB) error {
	return db.AutoMigrate(&userRecord{})
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository returns a GORM-backed implementation, used with SQLite.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) error {
	record := userRecord{
		Email:        normalizeEmail(user.Email),
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Phone:        user.Phone,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return mapGormError(err)
	}
	user.ID = record.ID
	user.Email = record.Email
	user.CreatedAt = record.CreatedAt
	user.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *gormUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, mapGormError(err)
	}
	return record.toDomain()
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, mapGormError(err)
	}
	return record.toDomain()
}

func (r *gormUserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := r.db.WithContext(ctx).Order("id")
	if filter.Email != "" {
		query = query.Where("email = ?", normalizeEmail(filter.Email))
	}

	var records []userRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(records))
	for i := range records {
		user, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

func (r *gormUserRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	res := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Update("role", string(role))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userRecord{}).Where("role = ?", string(role)).Count(&count).Error
	return count, err
}

func mapGormError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
