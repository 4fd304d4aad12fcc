package domain

import (
	"strings"
	"time"

	"github.com/smallbiznis/paybridge/internal/config"
	"github.com/smallbiznis/paybridge/internal/platform/catalog"
	"gorm.io/datatypes"
)

// Record is the persisted row. Credentials hold an encrypted envelope.
type Record struct {
	ID          int64          `gorm:"primaryKey"`
	UserID      string         `gorm:"type:text;not null;index:ux_payment_platforms_user_platform,unique,priority:1"`
	PlatformID  string         `gorm:"type:text;not null;index:ux_payment_platforms_user_platform,unique,priority:2"`
	Enabled     bool           `gorm:"not null;default:false"`
	Sandbox     bool           `gorm:"not null;default:true"`
	Credentials datatypes.JSON `gorm:"type:jsonb"`
	Settings    datatypes.JSON `gorm:"type:jsonb"`
	Status      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

func (Record) TableName() string { return "payment_platforms" }

// RecordPatch lists the columns an update touches. Nil fields are left alone.
type RecordPatch struct {
	Enabled     *bool
	Sandbox     *bool
	Credentials datatypes.JSON
	Settings    datatypes.JSON
	Status      datatypes.JSON
}

func (p RecordPatch) Empty() bool {
	return p.Enabled == nil && p.Sandbox == nil && p.Credentials == nil && p.Settings == nil && p.Status == nil
}

type Credentials struct {
	APIKey        string `json:"api_key"`
	SecretKey     string `json:"secret_key"`
	ClientID      string `json:"client_id,omitempty"`
	ClientSecret  string `json:"client_secret,omitempty"`
	WebhookURL    string `json:"webhook_url,omitempty"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

func (c Credentials) Empty() bool {
	return c == Credentials{}
}

// Redacted keeps the last four characters of every secret.
func (c Credentials) Redacted() Credentials {
	return Credentials{
		APIKey:        mask(c.APIKey),
		SecretKey:     mask(c.SecretKey),
		ClientID:      c.ClientID,
		ClientSecret:  mask(c.ClientSecret),
		WebhookURL:    c.WebhookURL,
		WebhookSecret: mask(c.WebhookSecret),
	}
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

type FeatureSettings struct {
	Webhooks      bool `json:"webhooks"`
	Refunds       bool `json:"refunds"`
	Subscriptions bool `json:"subscriptions"`
	SplitPayments bool `json:"split_payments"`
}

type LimitSettings struct {
	MinAmount           float64 `json:"min_amount"`
	MaxAmount           float64 `json:"max_amount"`
	DailyTransactions   int     `json:"daily_transactions"`
	MonthlyTransactions int     `json:"monthly_transactions"`
}

type Settings struct {
	Features       FeatureSettings `json:"features"`
	Limits         LimitSettings   `json:"limits"`
	Currencies     []string        `json:"currencies"`
	PaymentMethods []string        `json:"payment_methods"`
	Countries      []string        `json:"countries"`
	TestMode       bool            `json:"test_mode"`
}

// HealthStatus is the operational snapshot kept per integration.
type HealthStatus struct {
	IsActive    bool       `json:"is_active"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	Uptime      float64    `json:"uptime"`
	Latency     int64      `json:"latency"`
	Errors      int        `json:"errors"`
	Checks      int        `json:"checks"`
}

// Observe folds one sync attempt into the snapshot. Uptime is the share of
// successful checks.
func (h HealthStatus) Observe(at time.Time, latency time.Duration, failed bool) HealthStatus {
	successes := h.Uptime * float64(h.Checks)
	h.Checks++
	if failed {
		h.Errors++
	} else {
		successes++
	}
	h.Uptime = successes / float64(h.Checks)
	h.Latency = latency.Milliseconds()
	h.IsActive = !failed
	checked := at.UTC()
	h.LastChecked = &checked
	return h
}

func DefaultSettings(defaults config.PlatformDefaults) Settings {
	return Settings{
		Features: FeatureSettings{
			Webhooks:      defaults.Features.Webhooks,
			Refunds:       defaults.Features.Refunds,
			Subscriptions: defaults.Features.Subscriptions,
			SplitPayments: defaults.Features.SplitPayments,
		},
		Limits: LimitSettings{
			MinAmount:           defaults.Limits.MinAmount,
			MaxAmount:           defaults.Limits.MaxAmount,
			DailyTransactions:   defaults.Limits.DailyTransactions,
			MonthlyTransactions: defaults.Limits.MonthlyTransactions,
		},
		Currencies:     append([]string(nil), defaults.Currencies...),
		PaymentMethods: append([]string(nil), defaults.PaymentMethods...),
		Countries:      append([]string(nil), defaults.Countries...),
		TestMode:       defaults.TestMode,
	}
}

func DefaultStatus() HealthStatus {
	return HealthStatus{IsActive: true}
}

// PlatformConfig is the decrypted view of one user's integration with one
// platform. Unconfigured platforms are synthesized with Configured=false.
type PlatformConfig struct {
	ID          int64            `json:"id,string,omitempty"`
	UserID      string           `json:"user_id"`
	PlatformID  string           `json:"platform_id"`
	Platform    catalog.Platform `json:"platform"`
	Credentials Credentials      `json:"config"`
	Enabled     bool             `json:"enabled"`
	Sandbox     bool             `json:"sandbox"`
	Settings    Settings         `json:"settings"`
	Status      HealthStatus     `json:"status"`
	Configured  bool             `json:"configured"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

// ConfigPatch is a partial update. Only non-nil fields are written.
type ConfigPatch struct {
	APIKey        *string   `json:"api_key"`
	SecretKey     *string   `json:"secret_key"`
	ClientID      *string   `json:"client_id"`
	ClientSecret  *string   `json:"client_secret"`
	WebhookURL    *string   `json:"webhook_url"`
	WebhookSecret *string   `json:"webhook_secret"`
	Enabled       *bool     `json:"enabled"`
	Sandbox       *bool     `json:"sandbox"`
	Settings      *Settings `json:"settings"`
}

func (p ConfigPatch) Empty() bool {
	return !p.TouchesCredentials() && p.Enabled == nil && p.Sandbox == nil && p.Settings == nil
}

func (p ConfigPatch) TouchesCredentials() bool {
	return p.APIKey != nil || p.SecretKey != nil || p.ClientID != nil ||
		p.ClientSecret != nil || p.WebhookURL != nil || p.WebhookSecret != nil
}

// Apply merges the credential fields of the patch into c.
func (p ConfigPatch) Apply(c Credentials) Credentials {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&c.APIKey, p.APIKey)
	set(&c.SecretKey, p.SecretKey)
	set(&c.ClientID, p.ClientID)
	set(&c.ClientSecret, p.ClientSecret)
	set(&c.WebhookURL, p.WebhookURL)
	set(&c.WebhookSecret, p.WebhookSecret)
	return c
}
