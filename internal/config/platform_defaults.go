package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PlatformDefaults is the baseline applied to every integration before any
// user customization.
type PlatformDefaults struct {
	Features       PlatformFeatureDefaults `mapstructure:"features"`
	Limits         PlatformLimitDefaults   `mapstructure:"limits"`
	Currencies     []string                `mapstructure:"currencies"`
	PaymentMethods []string                `mapstructure:"paymentMethods"`
	Countries      []string                `mapstructure:"countries"`
	TestMode       bool                    `mapstructure:"testMode"`
}

type PlatformFeatureDefaults struct {
	Webhooks      bool `mapstructure:"webhooks"`
	Refunds       bool `mapstructure:"refunds"`
	Subscriptions bool `mapstructure:"subscriptions"`
	SplitPayments bool `mapstructure:"splitPayments"`
}

type PlatformLimitDefaults struct {
	MinAmount           float64 `mapstructure:"minAmount"`
	MaxAmount           float64 `mapstructure:"maxAmount"`
	DailyTransactions   int     `mapstructure:"dailyTransactions"`
	MonthlyTransactions int     `mapstructure:"monthlyTransactions"`
}

func DefaultPlatformDefaults() PlatformDefaults {
	return PlatformDefaults{
		Features: PlatformFeatureDefaults{
			Webhooks: true,
		},
		Currencies:     []string{"BRL"},
		PaymentMethods: []string{"credit_card", "pix", "boleto"},
		Countries:      []string{"BR"},
		TestMode:       true,
	}
}

type PlatformDefaultsHolder struct {
	current atomic.Value // holds PlatformDefaults
}

// NewStaticPlatformDefaults returns a holder that never reloads.
func NewStaticPlatformDefaults(defaults PlatformDefaults) *PlatformDefaultsHolder {
	holder := &PlatformDefaultsHolder{}
	holder.current.Store(defaults)
	return holder
}

func NewPlatformDefaultsHolder() (*PlatformDefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("platforms")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/paybridge")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PAYBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPlatformDefaults()
	v.SetDefault("platforms.features.webhooks", defaults.Features.Webhooks)
	v.SetDefault("platforms.currencies", defaults.Currencies)
	v.SetDefault("platforms.paymentMethods", defaults.PaymentMethods)
	v.SetDefault("platforms.countries", defaults.Countries)
	v.SetDefault("platforms.testMode", defaults.TestMode)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg PlatformDefaults
	if err := v.UnmarshalKey("platforms", &cfg); err != nil {
		return nil, err
	}
	if err := validatePlatformDefaults(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticPlatformDefaults(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	// reloads fire after startup, once the process logger is installed globally
	v.OnConfigChange(func(e fsnotify.Event) {
		log := zap.L().With(zap.String("component", "platform_defaults"), zap.String("file", e.Name))
		var updated PlatformDefaults
		if err := v.UnmarshalKey("platforms", &updated); err != nil {
			log.Warn("platform defaults reload failed", zap.Error(err))
			return
		}
		if err := validatePlatformDefaults(updated); err != nil {
			log.Warn("invalid platform defaults ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("platform defaults reloaded")
	})

	return holder, nil
}

func (h *PlatformDefaultsHolder) Get() PlatformDefaults {
	if h == nil {
		return DefaultPlatformDefaults()
	}
	value, ok := h.current.Load().(PlatformDefaults)
	if !ok {
		return DefaultPlatformDefaults()
	}
	return value
}

func validatePlatformDefaults(cfg PlatformDefaults) error {
	if len(cfg.Currencies) == 0 {
		return errors.New("platforms.currencies cannot be empty")
	}
	if cfg.Limits.MinAmount < 0 || cfg.Limits.MaxAmount < 0 {
		return errors.New("platforms.limits amounts cannot be negative")
	}
	if cfg.Limits.MaxAmount > 0 && cfg.Limits.MinAmount > cfg.Limits.MaxAmount {
		return errors.New("platforms.limits.minAmount exceeds maxAmount")
	}
	return nil
}
