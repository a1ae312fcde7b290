package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/pkg/database"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
)

// siteSettingsKey is the settings row holding domain.SiteSettings.
const siteSettingsKey = "site"

const (
	getSettingSQL    = `SELECT value FROM settings WHERE key = $1`
	upsertSettingSQL = `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

// SettingsRepository implements repository.SettingsRepository using a
// key/JSON settings table.
type SettingsRepository struct {
	pool database.DBTX
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(pool database.DBTX) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the stored site settings.
func (r *SettingsRepository) Get(ctx context.Context) (_ *domain.SiteSettings, err error) {
	ctx, end := database.TraceQuery(ctx, "settings.get", getSettingSQL)
	defer func() { end(err) }()

	var raw []byte
	if err = r.pool.QueryRow(ctx, getSettingSQL, siteSettingsKey).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("settings", siteSettingsKey)
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var s domain.SiteSettings
	if err = json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &s, nil
}

// Save upserts the site settings.
func (r *SettingsRepository) Save(ctx context.Context, s *domain.SiteSettings) (err error) {
	ctx, end := database.TraceQuery(ctx, "settings.save", upsertSettingSQL)
	defer func() { end(err) }()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if _, err = r.pool.Exec(ctx, upsertSettingSQL, siteSettingsKey, string(data)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
