package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/models"
)

// settingService reads and writes the settings table. Keys that were never
// written fall back to the configured defaults.
type settingService struct {
	db       *gorm.DB
	defaults FeeSettings
}

// NewSettingService creates a new SettingServicer.
func NewSettingService(db *gorm.DB, defaults FeeSettings) SettingServicer {
	return &settingService{db: db, defaults: defaults}
}

// GetFeeSettings returns the effective fee settings.
func (s *settingService) GetFeeSettings() (*FeeSettings, error) {
	var rows []models.Setting
	if err := s.db.Where("name IN ?", feeSettingKeys()).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	fees := s.defaults
	for _, row := range rows {
		if field := fees.field(row.Name); field != nil {
			*field = row.Value
		}
	}
	return &fees, nil
}

// UpdateFeeSettings persists the provided fee fields and returns the result.
func (s *settingService) UpdateFeeSettings(update FeeSettingsUpdate) (*FeeSettings, error) {
	values := map[string]*int64{
		models.SettingPurchaseFeeBps:     update.PurchaseFeeBps,
		models.SettingPurchaseFeeFlat:    update.PurchaseFeeFlat,
		models.SettingTransactionFeeBps:  update.TransactionFeeBps,
		models.SettingTransactionFeeFlat: update.TransactionFeeFlat,
	}

	var rows []models.Setting
	for key, v := range values {
		if v == nil {
			continue
		}
		if *v < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, key+" must not be negative")
		}
		rows = append(rows, models.Setting{Name: key, Value: *v})
	}

	if len(rows) > 0 {
		err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetFeeSettings()
}

func feeSettingKeys() []string {
	return []string{
		models.SettingPurchaseFeeBps,
		models.SettingPurchaseFeeFlat,
		models.SettingTransactionFeeBps,
		models.SettingTransactionFeeFlat,
	}
}

func (f *FeeSettings) field(key string) *int64 {
	switch key {
	case models.SettingPurchaseFeeBps:
		return &f.PurchaseFeeBps
	case models.SettingPurchaseFeeFlat:
		return &f.PurchaseFeeFlat
	case models.SettingTransactionFeeBps:
		return &f.TransactionFeeBps
	case models.SettingTransactionFeeFlat:
		return &f.TransactionFeeFlat
	}
	return nil
}
