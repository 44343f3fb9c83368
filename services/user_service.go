package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/models"
)

type UserService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserService(db *gorm.DB, logger *zap.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

// CreateUser registers a user record for created_by references.
func (s *UserService) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationErr("username", "Username cannot be empty or contain only whitespace.")
	}

	user := models.User{
		Username: username,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		IsActive: true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return validationErr("username", "A user with that username already exists.")
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user. Users referenced by invoices or ledger entries
// are protected: the delete is refused, never cascaded.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "user", ID: id}
			}
			return err
		}

		var invoiceCount int64
		if err := tx.Model(&models.Invoice{}).Where("created_by_id = ?", id).Count(&invoiceCount).Error; err != nil {
			return err
		}
		var transactionCount int64
		if err := tx.Model(&models.Transaction{}).Where("created_by_id = ?", id).Count(&transactionCount).Error; err != nil {
			return err
		}
		if invoiceCount > 0 || transactionCount > 0 {
			return &ConflictError{Message: "Cannot delete user: invoices or transactions still reference this user."}
		}

		if err := tx.Delete(&user).Error; err != nil {
			return err
		}
		s.logger.Info("user deleted", zap.Uint("user_id", id))
		return nil
	})
}
