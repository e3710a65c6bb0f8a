package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceSettings describes where contacts come from.
type SourceSettings struct {
	// Mode is one of SourceModeLocal, SourceModeWeb or SourceModeAPI.
	Mode string `yaml:"mode"`
	// Path is the local .vcf file used in local mode.
	Path string `yaml:"path"`
	// URL is the CardDAV/WebDAV vCard URL (web) or the contacts endpoint (api).
	URL string `yaml:"url"`
	// Username selects the keyring entry holding the password or API token.
	Username string `yaml:"username"`
}

// ReminderSettings controls the VALARM attached to feed events.
type ReminderSettings struct {
	Enabled   bool   `yaml:"enabled"`
	Value     int    `yaml:"value"`
	Unit      string `yaml:"unit"`
	Direction string `yaml:"direction"`
}

// Settings is the user-editable configuration persisted as YAML.
type Settings struct {
	Source SourceSettings `yaml:"source"`

	// WindowDays is the lookahead window for upcoming events. 0 keeps only
	// today's events.
	WindowDays int `yaml:"window_days"`

	// DashboardLimit caps the upcoming list of the dashboard. 0 means unlimited.
	DashboardLimit int `yaml:"dashboard_limit"`

	// Refresh is a cron spec (e.g. "@every 1h" or "*/15 * * * *").
	Refresh string `yaml:"refresh"`

	// Timezone is an IANA name, or "Local" for the system zone.
	Timezone string `yaml:"timezone"`

	Port     string           `yaml:"port"`
	Language string           `yaml:"language"`
	Reminder ReminderSettings `yaml:"reminder"`
}

// DefaultSettings returns an in-memory default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Source:         SourceSettings{Mode: SourceModeLocal},
		WindowDays:     DefaultWindowDays,
		DashboardLimit: DefaultDashboardLimit,
		Refresh:        DefaultRefreshSpec,
		Timezone:       DefaultTimezone,
		Port:           DefaultPort,
		Language:       DefaultLanguage,
		Reminder: ReminderSettings{
			Value:     DefaultReminderValue,
			Unit:      UnitDays,
			Direction: DirBefore,
		},
	}
}

// Normalize fills in missing or invalid values so that partially-filled files
// still behave. The window is left untouched: 0 means "today only" and a
// negative value is rejected by the resolver rather than silently repaired.
// A window_days key missing from the file keeps the DefaultSettings value.
func (s *Settings) Normalize() {
	switch s.Source.Mode {
	case SourceModeLocal, SourceModeWeb, SourceModeAPI:
	default:
		s.Source.Mode = SourceModeLocal
	}
	if s.DashboardLimit < 0 {
		s.DashboardLimit = DefaultDashboardLimit
	}
	if s.Refresh == "" {
		s.Refresh = DefaultRefreshSpec
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if s.Port == "" {
		s.Port = DefaultPort
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.Reminder.Value <= 0 {
		s.Reminder.Value = DefaultReminderValue
	}
	switch s.Reminder.Unit {
	case UnitDays, UnitHours, UnitMinutes:
	default:
		s.Reminder.Unit = UnitDays
	}
	if s.Reminder.Direction != DirAfter {
		s.Reminder.Direction = DirBefore
	}
}

// ValidatePort checks that the port is a number in the TCP range.
func (s *Settings) ValidatePort() error {
	if s.Port == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(s.Port)
	if err != nil {
		return errors.New(ErrPortNumber)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

// Location resolves the configured timezone.
func (s *Settings) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == DefaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", ErrTimezone, s.Timezone, err)
	}
	return loc, nil
}

// ReminderTrigger renders the reminder as an ISO8601 duration ("-P1D").
// It returns an empty string when reminders are disabled.
func (s *Settings) ReminderTrigger() string {
	if !s.Reminder.Enabled {
		return ""
	}

	sign := ISOPeriodPrefix
	if s.Reminder.Direction == DirBefore {
		sign = ISONegativePrefix
	}

	switch s.Reminder.Unit {
	case UnitHours:
		return fmt.Sprintf("%s%d%s", sign, s.Reminder.Value, ISOHour)
	case UnitMinutes:
		return fmt.Sprintf("%s%d%s", sign, s.Reminder.Value, ISOMinute)
	default:
		return fmt.Sprintf("%s%d%s", sign, s.Reminder.Value, ISODay)
	}
}

// DefaultSettingsPath returns the settings file location in the user config dir.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppID, SettingsFileName), nil
}

// LoadSettings reads settings from the given YAML path.
//
// On first run (file missing) a default file is written with 0600 permissions
// and the defaults are returned. If writing fails the defaults are still
// returned together with the error so the caller can decide.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New(ErrSettingsPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s := DefaultSettings()
			if err := SaveSettings(path, s); err != nil {
				return s, err
			}
			slog.Info(MsgSettingsCreated,
				LogKeyComponent, CompConfig,
				LogKeyPath, path)
			return s, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
	}

	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsParse, err)
	}
	s.Normalize()

	slog.Debug(MsgSettingsLoaded,
		LogKeyComponent, CompConfig,
		LogKeyPath, path,
		LogKeyMode, s.Source.Mode)
	return s, nil
}

// SaveSettings writes settings atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func SaveSettings(path string, s *Settings) error {
	if path == "" {
		return errors.New(ErrSettingsPath)
	}
	if s == nil {
		return errors.New(ErrSettingsNil)
	}

	s.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	tmp, err := os.CreateTemp(dir, SettingsTempPattern)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	return nil
}
