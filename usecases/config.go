package usecases

import (
	"errors"
	"strconv"

	"query-server/auth"
	"query-server/entities"
	"query-server/i18n"
	"query-server/repositories"
)

type validator func(string) bool

func isBool(v string) bool {
	return v == "true" || v == "false"
}

var configValidators = map[string]validator{
	entities.ConfigLanguage:           i18n.Supported,
	entities.ConfigTheme:              func(v string) bool { return v == "light" || v == "dark" },
	entities.ConfigHasSeenOnboarding:  isBool,
	entities.ConfigVibrationEnabled:   isBool,
	entities.ConfigSoundEnabled:       isBool,
	entities.ConfigSaveHistoryEnabled: isBool,
}

// ConfigUseCase stores per-owner preferences on top of fixed defaults.
type ConfigUseCase struct {
	Router   *repositories.Router
	defaults map[string]string
}

func NewConfigUseCase(router *repositories.Router, defaultLanguage string) *ConfigUseCase {
	if !i18n.Supported(defaultLanguage) {
		defaultLanguage = i18n.Spanish
	}
	return &ConfigUseCase{
		Router: router,
		defaults: map[string]string{
			entities.ConfigLanguage:           defaultLanguage,
			entities.ConfigTheme:              "light",
			entities.ConfigHasSeenOnboarding:  "false",
			entities.ConfigVibrationEnabled:   "true",
			entities.ConfigSoundEnabled:       "true",
			entities.ConfigSaveHistoryEnabled: "true",
		},
	}
}

// Defaults returns a copy of the default preferences.
func (uc *ConfigUseCase) Defaults() map[string]string {
	out := make(map[string]string, len(uc.defaults))
	for k, v := range uc.defaults {
		out[k] = v
	}
	return out
}

// All merges the owner's stored values over the defaults.
func (uc *ConfigUseCase) All(p auth.Principal) (map[string]string, error) {
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return nil, internal(err)
	}
	stored, err := store.Config.ListByOwner(p.Subject)
	if err != nil {
		return nil, internal(err)
	}
	out := uc.Defaults()
	for _, c := range stored {
		out[c.Key] = c.Value
	}
	return out, nil
}

// Get returns a single preference, falling back to its default.
func (uc *ConfigUseCase) Get(p auth.Principal, key string) (string, error) {
	value, _, err := uc.lookup(p, key)
	return value, err
}

func (uc *ConfigUseCase) lookup(p auth.Principal, key string) (value string, stored bool, err error) {
	def, known := uc.defaults[key]
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return "", false, internal(err)
	}
	cfg, err := store.Config.Get(p.Subject, key)
	switch {
	case err == nil:
		return cfg.Value, true, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return "", false, internal(err)
	case !known:
		return "", false, fail(CodeUnknownConfigKey)
	}
	return def, false, nil
}

// Set stores a preference. Known keys are validated; unknown keys are kept
// as-is so clients can persist their own flags.
func (uc *ConfigUseCase) Set(p auth.Principal, key, value string) error {
	if key == "" {
		return fail(CodeFieldRequired)
	}
	if valid, ok := configValidators[key]; ok && !valid(value) {
		return fail(CodeInvalidValue)
	}
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return internal(err)
	}
	return internal(store.Config.Set(p.Subject, key, value))
}

// Language returns the owner's language. stored is false when the value is
// only the default.
func (uc *ConfigUseCase) Language(p auth.Principal) (lang string, stored bool, err error) {
	return uc.lookup(p, entities.ConfigLanguage)
}

func (uc *ConfigUseCase) SetLanguage(p auth.Principal, lang string) error {
	return uc.Set(p, entities.ConfigLanguage, lang)
}

func (uc *ConfigUseCase) HasSeenOnboarding(p auth.Principal) (bool, error) {
	return uc.boolValue(p, entities.ConfigHasSeenOnboarding)
}

func (uc *ConfigUseCase) CompleteOnboarding(p auth.Principal) error {
	return uc.Set(p, entities.ConfigHasSeenOnboarding, "true")
}

// SaveHistoryEnabled reports whether new scans and creations are recorded.
func (uc *ConfigUseCase) SaveHistoryEnabled(p auth.Principal) (bool, error) {
	return uc.boolValue(p, entities.ConfigSaveHistoryEnabled)
}

// Reset drops every stored preference of the owner.
func (uc *ConfigUseCase) Reset(p auth.Principal) error {
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return internal(err)
	}
	return internal(store.Config.DeleteAllByOwner(p.Subject))
}

func (uc *ConfigUseCase) boolValue(p auth.Principal, key string) (bool, error) {
	v, err := uc.Get(p, key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, wrap(CodeInvalidValue, err)
	}
	return b, nil
}
