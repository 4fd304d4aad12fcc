package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paybridge/internal/clock"
	"github.com/smallbiznis/paybridge/internal/config"
	"github.com/smallbiznis/paybridge/internal/integration/domain"
	obslogger "github.com/smallbiznis/paybridge/internal/observability/logger"
	"github.com/smallbiznis/paybridge/internal/platform/catalog"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Defaults *config.PlatformDefaultsHolder `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	defaults *config.PlatformDefaultsHolder
	sealer   *sealer
}

func New(p Params) (domain.Service, error) {
	sealer, err := newSealer(p.Cfg.PlatformConfigSecret)
	if err != nil {
		return nil, err
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("integration.service"),
		genID:    p.GenID,
		clock:    clk,
		repo:     p.Repo,
		defaults: p.Defaults,
		sealer:   sealer,
	}, nil
}

func (s *Service) GetAllConfigs(ctx context.Context, userID string) ([]domain.PlatformConfig, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}

	records, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	byPlatform := make(map[string]domain.Record, len(records))
	for _, record := range records {
		byPlatform[record.PlatformID] = record
	}

	platforms := catalog.Platforms()
	out := make([]domain.PlatformConfig, 0, len(platforms))
	for _, platform := range platforms {
		record, ok := byPlatform[platform.ID]
		if !ok {
			out = append(out, s.synthesize(userID, platform))
			continue
		}
		view, err := s.view(record, platform)
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

func (s *Service) GetConfig(ctx context.Context, userID, platformID string) (*domain.PlatformConfig, error) {
	userID, platform, err := s.validate(userID, platformID)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.Find(ctx, s.db, userID, platform.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		cfg := s.synthesize(userID, platform)
		return &cfg, nil
	}
	return s.view(*record, platform)
}

// UpdateConfig writes only the fields present in patch. A missing row is
// created from defaults first.
func (s *Service) UpdateConfig(ctx context.Context, userID, platformID string, patch domain.ConfigPatch) (*domain.PlatformConfig, error) {
	userID, platform, err := s.validate(userID, platformID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.ErrEmptyPatch
	}

	now := s.clock.Now().UTC()
	var stored *domain.Record
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.Find(ctx, tx, userID, platform.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			record, err := s.newRecord(userID, platform.ID, now, patch)
			if err != nil {
				return err
			}
			if err := s.repo.Insert(ctx, tx, record); err != nil {
				return err
			}
			stored = record
			return nil
		}

		recordPatch := domain.RecordPatch{
			Enabled: patch.Enabled,
			Sandbox: patch.Sandbox,
		}
		if patch.Settings != nil {
			settings, err := json.Marshal(patch.Settings)
			if err != nil {
				return err
			}
			recordPatch.Settings = datatypes.JSON(settings)
		}
		if patch.TouchesCredentials() {
			current, err := s.sealer.open(existing.Credentials)
			if err != nil {
				return err
			}
			sealed, err := s.sealer.seal(patch.Apply(current))
			if err != nil {
				return err
			}
			recordPatch.Credentials = sealed
		}
		if _, err := s.repo.Update(ctx, tx, userID, platform.ID, recordPatch, now); err != nil {
			return err
		}
		stored, err = s.repo.Find(ctx, tx, userID, platform.ID)
		return err
	})
	if err != nil {
		s.logger(ctx).Error("update platform config failed",
			zap.String("platform", platform.ID),
			zap.Error(err),
		)
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}

	fields := make([]string, 0, 4)
	if patch.Enabled != nil {
		fields = append(fields, "enabled")
	}
	if patch.Sandbox != nil {
		fields = append(fields, "sandbox")
	}
	if patch.Settings != nil {
		fields = append(fields, "settings")
	}
	if patch.TouchesCredentials() {
		fields = append(fields, "credentials")
	}
	s.logger(ctx).Info("platform config updated",
		zap.String("platform", platform.ID),
		zap.Strings("fields", fields),
	)
	return s.view(*stored, platform)
}

// SaveConfig replaces credentials, flags and settings in one write. The
// health snapshot is preserved.
func (s *Service) SaveConfig(ctx context.Context, cfg domain.PlatformConfig) (*domain.PlatformConfig, error) {
	userID, platform, err := s.validate(cfg.UserID, cfg.PlatformID)
	if err != nil {
		return nil, err
	}

	creds := cfg.Credentials
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	creds.SecretKey = strings.TrimSpace(creds.SecretKey)
	creds.WebhookSecret = strings.TrimSpace(creds.WebhookSecret)
	sealed, err := s.sealer.seal(creds)
	if err != nil {
		return nil, err
	}
	settings := cfg.Settings
	if len(settings.Currencies) == 0 {
		settings = domain.DefaultSettings(s.defaults.Get())
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	var stored *domain.Record
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.Find(ctx, tx, userID, platform.ID)
		if err != nil {
			return err
		}
		status := defaultStatusJSON()
		if existing != nil && len(existing.Status) > 0 {
			status = existing.Status
		}
		record := &domain.Record{
			ID:          s.genID.Generate().Int64(),
			UserID:      userID,
			PlatformID:  platform.ID,
			Enabled:     cfg.Enabled,
			Sandbox:     cfg.Sandbox,
			Credentials: sealed,
			Settings:    datatypes.JSON(settingsJSON),
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Save(ctx, tx, record); err != nil {
			return err
		}
		stored, err = s.repo.Find(ctx, tx, userID, platform.ID)
		return err
	})
	if err != nil {
		s.logger(ctx).Error("save platform config failed",
			zap.String("platform", platform.ID),
			zap.Error(err),
		)
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}
	s.logger(ctx).Info("platform config saved",
		zap.String("platform", platform.ID),
		zap.Bool("enabled", cfg.Enabled),
		zap.Bool("sandbox", cfg.Sandbox),
	)
	return s.view(*stored, platform)
}

func (s *Service) RecordHealth(ctx context.Context, userID, platformID string, status domain.HealthStatus) error {
	userID, platform, err := s.validate(userID, platformID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	updated, err := s.repo.Update(ctx, s.db, userID, platform.ID, domain.RecordPatch{
		Status: datatypes.JSON(payload),
	}, s.clock.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrNotFound
	}
	return nil
}

// ListEnabled returns every enabled integration that has credentials.
// Rows that cannot be decrypted are skipped.
func (s *Service) ListEnabled(ctx context.Context) ([]domain.PlatformConfig, error) {
	records, err := s.repo.ListEnabled(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlatformConfig, 0, len(records))
	for _, record := range records {
		platform, ok := catalog.Find(record.PlatformID)
		if !ok {
			continue
		}
		view, err := s.view(record, platform)
		if err != nil {
			s.logger(ctx).Warn("skipping unreadable integration",
				zap.String("user_id", record.UserID),
				zap.String("platform", record.PlatformID),
				zap.Error(err),
			)
			continue
		}
		if view.Credentials.APIKey == "" || view.Credentials.SecretKey == "" {
			continue
		}
		out = append(out, *view)
	}
	return out, nil
}

func (s *Service) validate(userID, platformID string) (string, catalog.Platform, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", catalog.Platform{}, domain.ErrInvalidUser
	}
	platform, ok := catalog.Find(platformID)
	if !ok {
		return "", catalog.Platform{}, domain.ErrInvalidPlatform
	}
	return userID, platform, nil
}

func (s *Service) synthesize(userID string, platform catalog.Platform) domain.PlatformConfig {
	return domain.PlatformConfig{
		UserID:     userID,
		PlatformID: platform.ID,
		Platform:   platform,
		Enabled:    false,
		Sandbox:    true,
		Settings:   domain.DefaultSettings(s.defaults.Get()),
		Status:     domain.DefaultStatus(),
	}
}

func (s *Service) newRecord(userID, platformID string, now time.Time, patch domain.ConfigPatch) (*domain.Record, error) {
	settings := domain.DefaultSettings(s.defaults.Get())
	if patch.Settings != nil {
		settings = *patch.Settings
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	creds, err := s.sealer.seal(patch.Apply(domain.Credentials{}))
	if err != nil {
		return nil, err
	}

	record := &domain.Record{
		ID:          s.genID.Generate().Int64(),
		UserID:      userID,
		PlatformID:  platformID,
		Enabled:     false,
		Sandbox:     true,
		Credentials: creds,
		Settings:    datatypes.JSON(settingsJSON),
		Status:      defaultStatusJSON(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if patch.Enabled != nil {
		record.Enabled = *patch.Enabled
	}
	if patch.Sandbox != nil {
		record.Sandbox = *patch.Sandbox
	}
	return record, nil
}

func (s *Service) view(record domain.Record, platform catalog.Platform) (*domain.PlatformConfig, error) {
	creds, err := s.sealer.open(record.Credentials)
	if err != nil {
		return nil, err
	}

	settings := domain.DefaultSettings(s.defaults.Get())
	if isSet(record.Settings) {
		if err := json.Unmarshal(record.Settings, &settings); err != nil {
			return nil, err
		}
	}
	status := domain.DefaultStatus()
	if isSet(record.Status) {
		if err := json.Unmarshal(record.Status, &status); err != nil {
			return nil, err
		}
	}

	createdAt, updatedAt := record.CreatedAt, record.UpdatedAt
	return &domain.PlatformConfig{
		ID:          record.ID,
		UserID:      record.UserID,
		PlatformID:  record.PlatformID,
		Platform:    platform,
		Credentials: creds,
		Enabled:     record.Enabled,
		Sandbox:     record.Sandbox,
		Settings:    settings,
		Status:      status,
		Configured:  true,
		CreatedAt:   &createdAt,
		UpdatedAt:   &updatedAt,
	}, nil
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func defaultStatusJSON() datatypes.JSON {
	out, _ := json.Marshal(domain.DefaultStatus())
	return datatypes.JSON(out)
}

func isSet(raw datatypes.JSON) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "{}"
}
