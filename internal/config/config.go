package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Celebrations/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Celebrations"
	AppID             = "com.github.tartampluch.go-celebrations"
	KeyringService    = "com.github.tartampluch.go-celebrations"
	CLIName           = "celebrate"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "config.yaml"
	IconFile          = "Icon.png"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs and the settings file.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1

	SettingsTempPattern = ".go-celebrations-config-*.tmp"
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion     = "version"
	FlagDebug       = "debug"
	FlagConfig      = "config"
	FlagHeadless    = "headless"
	FlagStoreSecret = "store-secret"
	FlagMode        = "mode"
	FlagPath        = "path"
	FlagURL         = "url"
	FlagUser        = "user"
	FlagToday       = "today"
	FlagLang        = "lang"
	FlagWindow      = "window"
	FlagJSON        = "json"
	FlagSearch      = "search"
	FlagFilter      = "filter"
	FlagSort        = "sort"

	FlagDescVersion     = "Show application version and exit"
	FlagDescDebug       = "Enable debug logging to stdout"
	FlagDescConfig      = "Path to the YAML settings file"
	FlagDescHeadless    = "Run the feed server and refresh worker without the tray UI"
	FlagDescStoreSecret = "Read a password or API token from stdin and store it in the OS keyring"
	FlagDescMode        = "Contact source: local, web or api (overrides settings)"
	FlagDescPath        = "Path to a local .vcf file (overrides settings)"
	FlagDescURL         = "CardDAV/WebDAV vCard URL or contacts API URL (overrides settings)"
	FlagDescUser        = "Username used for the keyring lookup (overrides settings)"
	FlagDescToday       = "Reference date in YYYY-MM-DD format (defaults to today)"
	FlagDescLang        = "Language for labels (en, fr)"
	FlagDescWindow      = "Lookahead window in days (overrides settings)"
	FlagDescJSON        = "Print JSON instead of a table"
	FlagDescSearch      = "Case-insensitive substring matched against name and email"
	FlagDescFilter      = "Date filter: all, birthday, anniversary or both"
	FlagDescSort        = "Sort key: name, created, birthday or anniversary"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
	MsgSecretStored  = "Secret stored in keyring for user %q\n"
)

// Commands of the celebrate CLI.
const (
	CmdShortRoot      = "Upcoming birthdays and anniversaries from your contacts"
	CmdLongRoot       = "celebrate reads contacts from a vCard file, a CardDAV/WebDAV URL or a contacts API\nand lists the birthdays and anniversaries that fall within the lookahead window."
	CmdUseUpcoming    = "upcoming"
	CmdShortUpcoming  = "List upcoming birthdays and anniversaries"
	CmdUseDashboard   = "dashboard"
	CmdShortDashboard = "Show contact statistics and the next celebrations"
	CmdUseContacts    = "contacts"
	CmdShortContacts  = "List, search, filter and sort contacts"
	CmdUseFeed        = "feed"
	CmdShortFeed      = "Print the iCalendar feed to stdout"

	CLIEmptyCell  = "-"
	CLIJSONIndent = "  "
)

// -----------------------------------------------------------------------------
// UI Constants
// -----------------------------------------------------------------------------

const (
	// Window Dimensions
	UpcomingWinWidth  = 620
	UpcomingWinHeight = 400

	// Table Column IDs
	ColIDName  = 0
	ColIDEvent = 1
	ColIDDate  = 2
	ColIDWhen  = 3
	ColCount   = 4

	// Table Layout
	ColWidthName  = 220
	ColWidthEvent = 120
	ColWidthDate  = 120
	ColWidthWhen  = 110

	// Display Formats & Placeholders
	DateFormatDisplay = "2006-01-02"
	TablePlaceholder  = "Cell Content"
	LogMsgOpenWin     = "Opening Upcoming Window"
	LogMsgSorted      = "Upcoming events sorted"

	// Sorting Indicators
	SortIconAsc  = " ▲"
	SortIconDesc = " ▼"

	// Contacts Window
	ContactsWinWidth    = 820
	ContactsWinHeight   = 460
	ContactColName      = 0
	ContactColEmail     = 1
	ContactColBirthday  = 2
	ContactColAnniv     = 3
	ContactColWhen      = 4
	ContactColCount     = 5
	ColWidthEmail       = 220
	ColWidthMonthDay    = 110
	LogMsgOpenContacts  = "Opening Contacts Window"
	LogMsgContactsQuery = "Contacts view updated"

	// Settings Window
	SettingsWinWidth      = 520
	LayoutColumnsDouble   = 2
	PlaceholderURL        = "https://example.com/contacts.vcf"
	PlaceholderRefresh    = DefaultRefreshSpec
	PlaceholderTimezone   = "Europe/Paris"
	ExtVCF                = ".vcf"
	ExtVCard              = ".vcard"
	LogMsgOpenSettings    = "Opening Settings Window"
	LogMsgFocusSettings   = "Settings window already open, requesting focus"
	LogMsgSaveSettings    = "Saving settings"
	LogMsgSettingsApplied = "Settings applied, scheduler restarted"
	ErrSaveSecret         = "Failed to save credentials to keyring"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinUpcoming     = "win_upcoming_title"
	TKeyMenuRefresh     = "menu_refresh"
	TKeyTrayStatus      = "tray_status"      // Requires Count > 0
	TKeyTrayStatusZero  = "tray_status_zero" // Explicit key for 0
	TKeyNotifStart      = "notif_sync_start"
	TKeyNotifSuccess    = "notif_sync_success"
	TKeyNotifError      = "notif_err_sync"
	TKeyEvtBirthday     = "event_birthday"
	TKeyEvtAnniversary  = "event_anniversary"
	TKeySummaryBirthday = "summary_birthday"    // Requires Name
	TKeySummaryAnniv    = "summary_anniversary" // Requires Name
	TKeyDaysToday       = "days_today"
	TKeyDaysTomorrow    = "days_tomorrow"
	TKeyDaysCount       = "days_count" // Requires Count, plural aware
	TKeyStatsContacts   = "stats_contacts"
	TKeyStatsWithDates  = "stats_with_dates"
	TKeyStatsToday      = "stats_today"
	TKeyStatsUpcoming   = "stats_upcoming"
	TKeyNoUpcoming      = "no_upcoming"
	TKeyMenuContacts    = "menu_contacts"
	TKeyMenuSettings    = "menu_settings"
	TKeyWinContacts     = "win_contacts_title"
	TKeyWinSettings     = "win_settings_title"
	TKeyNoContacts      = "no_contacts"

	// Contacts Window Controls
	TKeySearchHint     = "search_placeholder"
	TKeyLblFilter      = "lbl_filter"
	TKeyLblSort        = "lbl_sort"
	TKeyFilterAll      = "filter_all"
	TKeyFilterBirthday = "filter_birthday"
	TKeyFilterAnniv    = "filter_anniversary"
	TKeyFilterBoth     = "filter_both"
	TKeySortName       = "sort_name"
	TKeySortCreated    = "sort_created"
	TKeySortBirthday   = "sort_birthday"
	TKeySortAnniv      = "sort_anniversary"

	// Settings Window Labels
	TKeyLblSource    = "lbl_source"
	TKeyModeLocal    = "mode_local"
	TKeyModeWeb      = "mode_web"
	TKeyModeAPI      = "mode_api"
	TKeyLblPath      = "lbl_path"
	TKeyLblURL       = "lbl_url"
	TKeyLblUser      = "lbl_user"
	TKeyLblPass      = "lbl_pass"
	TKeyBtnBrowse    = "btn_browse"
	TKeyLblGeneral   = "lbl_general"
	TKeyLblLanguage  = "lbl_language"
	TKeyLblRefresh   = "lbl_refresh"
	TKeyLblTimezone  = "lbl_timezone"
	TKeyLblPort      = "lbl_port"
	TKeyLblWindow    = "lbl_window"
	TKeyLblLimit     = "lbl_dashboard_limit"
	TKeyLblDays      = "lbl_days"
	TKeyLblNotif     = "lbl_notif"
	TKeyLblEnableRem = "lbl_enable_reminder"
	TKeyUnitDays     = "unit_days"
	TKeyUnitHours    = "unit_hours"
	TKeyUnitMinutes  = "unit_minutes"
	TKeyDirBefore    = "dir_before"
	TKeyDirAfter     = "dir_after"
	TKeyBtnSave      = "btn_save"
	TKeyBtnCancel    = "btn_cancel"
	TKeyErrPortReq   = "err_port_required"
	TKeyErrPortNum   = "err_port_number"
	TKeyErrPortRange = "err_port_range"
	TKeyErrRefresh   = "err_refresh"
	TKeyErrTimezone  = "err_timezone"

	// Column Headers & Formats
	TKeyColName    = "col_name"
	TKeyColEvent   = "col_event"
	TKeyColDate    = "col_date"
	TKeyColWhen    = "col_when"
	TKeyColEmail   = "col_email"
	TKeyFormatDate = "format_date_short" // Date format pattern (e.g., "2006-01-02")
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb         = "web"
	SourceModeLocal       = "local"
	SourceModeAPI         = "api"
	DefaultPort           = "18080"
	DefaultRefreshSpec    = "@every 1h"
	RolloverSpec          = "@midnight"
	DefaultLanguage       = "en"
	DefaultTimezone       = "Local"
	DefaultWindowDays     = 30
	DefaultDashboardLimit = 10
	DefaultReminderValue  = 1
	DefaultLeapYear       = 2000 // Reference leap year used to validate --02-29
	UIDNamespace          = "go-celebrations-v1"
)

// ISO8601 Duration Components for Reminders
const (
	ISOPeriodPrefix   = "P"
	ISONegativePrefix = "-P"
	ISODay            = "D"
	ISOHour           = "H"
	ISOMinute         = "M"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Celebrations//Engine//EN"
	ICalCalName   = "Celebrations"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gocelebrations"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropCategories  = "CATEGORIES"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardBDAY         = "BDAY"
	VCardAnniversary  = "ANNIVERSARY"
	VCardXAnniversary = "X-ANNIVERSARY"
	VCardFN           = "FN"
	VCardN            = "N"
	VCardUID          = "UID"
	VCardEmail        = "EMAIL"
	VCardTel          = "TEL"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts carrying a year (the year is discarded)
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatDayFirst  = "02-01-2006"

	// Date layouts without a year
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"
	DateFormatDayMonth  = "02-01"
	DateFormatMonthDay  = "--%02d-%02d"
	DateFormatReference = "2006-01-02"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%s-%d@%s"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	RouteCalendar       = "/calendar.ics"
	RouteUpcoming       = "/upcoming.json"
	AddrSeparator       = ":"
	BearerPrefix        = "Bearer "
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderAuthorization   = "Authorization"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeJSONAccept      = "application/json"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag     = `"%s"`
	ETagWeakPrefix = "W/"
	ETagAny        = "*"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty   = "configuration error: local path is empty"
	ErrWebURLEmpty      = "configuration error: web URL is empty"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrModeUnsupport    = "configuration error: unsupported source mode"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrAPIDecode        = "failed to decode contacts payload"
	ErrContactSource    = "failed to acquire contacts"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrDateParse        = "unable to parse date"
	ErrDateInvalid      = "invalid calendar date"
	ErrNegativeWindow   = "lookahead window must not be negative"
	ErrContactDate      = "contact has an invalid date"
	ErrResolve          = "failed to resolve upcoming events"
	ErrUnknownFilter    = "unknown contact filter"
	ErrUnknownSort      = "unknown contact sort key"
	ErrScheduleSpec     = "invalid refresh schedule"
	ErrTimezone         = "unknown timezone"
	ErrSettingsPath     = "settings path is empty"
	ErrSettingsNil      = "settings are nil"
	ErrSettingsRead     = "failed to read settings file"
	ErrSettingsParse    = "failed to parse settings file"
	ErrSettingsWrite    = "failed to write settings file"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrConfigDir        = "could not determine user config dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrEncodeResp       = "failed to encode response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrTrayNotSupported = "system tray not supported on this platform/driver"
	ErrSecretEmpty      = "secret read from stdin is empty"
	ErrSecretUser       = "a username is required to store a secret"
	ErrSecretStore      = "failed to store secret in keyring"
	ErrReferenceDate    = "invalid reference date (expected YYYY-MM-DD)"
	ErrRequestBuild     = "failed to build contacts request"
	ErrNetwork          = "network error while fetching contacts"
	ErrHTTPStatus       = "contacts endpoint returned unexpected status"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackSummaryBirthday = "Birthday: %s"
	FallbackSummaryAnniv    = "Anniversary: %s"
	FallbackDaysToday       = "Today!"
	FallbackDaysTomorrow    = "Tomorrow"
	FallbackDaysCount       = "%d days"
	FallbackTrayError       = "Go Celebrations: Sync Error"
	FallbackTrayDefault     = "Go Celebrations (%d today)"
	FallbackTrayLabel       = "Go Celebrations"
	FallbackName            = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	TitleStartupError = "Startup Error"
	TitleSyncError    = "Sync Error"

	MsgPortBusy        = "Port %s is busy or unavailable."
	MsgSyncStarted     = "Synchronization started..."
	MsgSyncFailed      = "Synchronization failed. Check logs."
	MsgSyncReq         = "Sync requested"
	MsgWorkerStart     = "Refresh worker started"
	MsgWorkerStop      = "Worker stopping due to context cancellation"
	MsgWorkerTrigger   = "Manual refresh triggered"
	MsgAppStop         = "Application stopped gracefully"
	MsgCtxCancel       = "Context cancelled, shutting down UI"
	MsgContactsLoaded  = "Contacts acquired"
	MsgGenSuccess      = "Snapshot generation successful"
	MsgAppStarting     = "Starting application"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Snapshot cache updated"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgPassFail        = "Secret retrieval failed (might be empty)"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgEventToday      = "Celebration found today"
	MsgSettingsCreated = "Default settings file created"
	MsgSettingsLoaded  = "Settings loaded"
	MsgHeadless        = "Running headless"
	MsgFetchStart      = "Requesting contacts"
	MsgFetchStatus     = "Contacts endpoint returned an error status"
	MsgFetchOK         = "Contacts response received"
)

// -----------------------------------------------------------------------------
// Reminder Units & Directions
// -----------------------------------------------------------------------------

const (
	UnitDays    = "d"
	UnitHours   = "h"
	UnitMinutes = "m"
	DirBefore   = "before"
	DirAfter    = "after"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeySpec      = "spec"
	LogKeyUser      = "user"
	LogKeyContacts  = "contacts"
	LogKeyWithDates = "with_dates"
	LogKeyUpcoming  = "upcoming"
	LogKeyToday     = "today"
	LogKeyWindow    = "window_days"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyManual    = "manual"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeySortCol   = "sort_column"
	LogKeySortAsc   = "sort_asc"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyEvent     = "event_type"
	LogKeyDuration  = "duration_ms"
	LogKeyPath      = "path"
	LogKeyLocation  = "location"
	LogKeyLength    = "content_length"
	LogKeyAuth      = "auth"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI      = "ui"
	CompEngine  = "engine"
	CompServer  = "server"
	CompFetcher = "fetcher"
	CompWorker  = "worker"
	CompMain    = "main"
	CompCLI     = "cli"
	CompI18n    = "i18n"
	CompConfig  = "config"
)
