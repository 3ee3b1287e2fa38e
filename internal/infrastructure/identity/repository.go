package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/lidne/stockexchange/internal/domain/entity/identity"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"
	"github.com/lidne/stockexchange/internal/infrastructure/identity/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository stores broker accounts in PostgreSQL through gorm.
type Repository struct {
	db *gorm.DB
}

var _ interfaces.AccountStore = (*Repository)(nil)

func NewRepository(dsn string, logger *logrus.Logger) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(logger, 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open identity database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&models.RoleModel{}, &models.BrokerModel{})
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) CreateBroker(ctx context.Context, broker *domain.Broker) error {
	if broker == nil {
		return errors.New("broker is nil")
	}
	model := &models.BrokerModel{
		Username:           broker.Username,
		NormalizedUsername: domain.NormalizeUsername(broker.Username),
		PasswordHash:       broker.PasswordHash,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrBrokerExists
		}
		return err
	}
	broker.ID = model.ID
	broker.CreatedAt = model.CreatedAt
	return nil
}

func (r *Repository) GetBroker(ctx context.Context, username string) (*domain.Broker, error) {
	model, err := r.findBroker(ctx, r.db, username)
	if err != nil {
		return nil, err
	}
	return &domain.Broker{
		ID:           model.ID,
		Username:     model.Username,
		PasswordHash: model.PasswordHash,
		Roles:        model.RoleNames(),
		CreatedAt:    model.CreatedAt,
	}, nil
}

func (r *Repository) ResolveBroker(ctx context.Context, name string) (*domain.Principal, error) {
	broker, err := r.GetBroker(ctx, name)
	if err != nil {
		return nil, err
	}
	principal := broker.Principal()
	return &principal, nil
}

func (r *Repository) CreateRole(ctx context.Context, name string) error {
	if err := r.db.WithContext(ctx).Create(&models.RoleModel{Name: name}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrRoleExists
		}
		return err
	}
	return nil
}

func (r *Repository) AssignRole(ctx context.Context, username, role string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		broker, err := r.findBroker(ctx, tx, username)
		if err != nil {
			return err
		}
		var roleModel models.RoleModel
		if err := tx.Where("name = ?", role).First(&roleModel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRoleNotFound
			}
			return err
		}
		return tx.Model(broker).Association("Roles").Append(&roleModel)
	})
}

func (r *Repository) findBroker(ctx context.Context, db *gorm.DB, username string) (*models.BrokerModel, error) {
	var model models.BrokerModel
	err := db.WithContext(ctx).Preload("Roles").Where("normalized_username = ?", domain.NormalizeUsername(username)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBrokerNotFound
		}
		return nil, err
	}
	return &model, nil
}
