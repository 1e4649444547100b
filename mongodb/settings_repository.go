package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/setpar/sso-bridge/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Setting labels in the system_settings collection.
const (
	SettingMultiTenantMode    = "multi_tenant_mode"
	SettingOnboardingComplete = "onboarding_complete"
)

type settingDocument struct {
	Label     string    `bson:"_id"`
	Value     bool      `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SettingsRepository implements domain.SettingsRepository backed by MongoDB.
type SettingsRepository struct {
	settings *mongo.Collection
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *mongo.Database) domain.SettingsRepository {
	return &SettingsRepository{
		settings: db.Collection(SettingsCollection),
	}
}

// IsMultiTenant reports whether the store is in multi-tenant mode. A missing
// document means the mode was never enabled.
func (r *SettingsRepository) IsMultiTenant(ctx context.Context) (bool, error) {
	var doc settingDocument
	err := r.settings.FindOne(ctx, bson.M{"_id": SettingMultiTenantMode}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		log.Error().Err(err).Msg("Error reading multi-tenant flag from MongoDB")
		return false, err
	}
	return doc.Value, nil
}

// EnableMultiTenant flips multi-tenant mode on and marks onboarding complete
// alongside it. Both writes are upserts, so redundant enabling from
// concurrent requests is harmless.
func (r *SettingsRepository) EnableMultiTenant(ctx context.Context) error {
	now := time.Now().UTC()
	for _, label := range []string{SettingMultiTenantMode, SettingOnboardingComplete} {
		update := bson.M{"$set": bson.M{"value": true, "updated_at": now}}
		opts := options.UpdateOne().SetUpsert(true)
		if _, err := r.settings.UpdateOne(ctx, bson.M{"_id": label}, update, opts); err != nil {
			log.Error().Err(err).Str("setting", label).Msg("Error enabling setting in MongoDB")
			return err
		}
	}
	return nil
}

// Ensure interface compliance
var _ domain.SettingsRepository = (*SettingsRepository)(nil)
