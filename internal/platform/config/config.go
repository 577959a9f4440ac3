package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	defaultEnvFile             = ".env"
	defaultPort                = "8080"
	defaultReadTimeout         = 15 * time.Second
	defaultWriteTimeout        = 30 * time.Second
	defaultIdleTimeout         = 120 * time.Second
	defaultStoreDriver         = StoreLocal
	defaultProfilesDir         = "profiles"
	defaultFirestoreCollection = "businesses"
	defaultSignedURLTTL        = 10 * time.Minute
	defaultCacheTTL            = 5 * time.Minute
	defaultCacheCapacity       = 10000
	defaultViewIdleTTL         = 30 * time.Minute
	defaultViewSweepSchedule   = "@every 1m"
	defaultViewMaxPublished    = 10000
	defaultViewMaxPreviews     = 2000
	defaultPreviewPerMinute    = 30
	defaultPreviewMaxUpload    = 20 << 20
	defaultSecurityEnvironment = "local"
	defaultTimezone            = "Asia/Kolkata"
)

// Store drivers selectable with SITE_STORE_DRIVER.
const (
	StoreLocal     = "local"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Store     StoreConfig
	Firestore FirestoreConfig
	Postgres  PostgresConfig
	Storage   StorageConfig
	PubSub    PubSubConfig
	Cache     CacheConfig
	Views     ViewConfig
	Preview   PreviewConfig
	Security  SecurityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// TrustedProxies are the networks allowed to report the client address
	// through X-Forwarded-For. Empty means forwarding headers are ignored.
	TrustedProxies []netip.Prefix
}

// SiteConfig controls rendering and tenancy.
type SiteConfig struct {
	Dev          bool
	TemplatesDir string
	RootDomain   string
	APIBaseURL   string
	MapsAPIKey   string
	Timezone     string
}

// StoreConfig selects where profiles are read from when no remote API is configured.
type StoreConfig struct {
	Driver      string
	ProfilesDir string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	Collection   string
}

// PostgresConfig stores the SQL connection string.
type PostgresConfig struct {
	DSN string
}

// StorageConfig configures signed media URLs.
type StorageConfig struct {
	MediaBucket     string
	CredentialsFile string
	URLTTL          time.Duration
}

// PubSubConfig configures the profile-change subscription. Empty Subscription disables it.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
}

// CacheConfig sizes the process-wide profile cache.
type CacheConfig struct {
	TTL      time.Duration
	Capacity int
}

// ViewConfig controls how long abandoned page instances are kept.
type ViewConfig struct {
	IdleTTL       time.Duration
	SweepSchedule string
	MaxPublished  int
	MaxPreviews   int
}

// PreviewConfig limits wizard preview uploads.
type PreviewConfig struct {
	PerMinute      int
	MaxUploadBytes int64
}

// SecurityConfig groups secret resolution settings.
type SecurityConfig struct {
	Environment      string
	SecretsProjectID string
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets the resolver used for secret:// and sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// Lookup returns a key lookup applying Load's precedence (.env < OS env <
// explicit map) so callers can build dependencies, such as the secret
// fetcher, before calling Load.
func Lookup(opts ...Option) (func(string) string, error) {
	options := newLoaderOptions(opts)
	lookup, err := options.lookup()
	if err != nil {
		return nil, err
	}
	return func(key string) string {
		value, _ := lookup(key)
		return value
	}, nil
}

// Load assembles the configuration from defaults, .env overrides, the
// environment, and Secret Manager references.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)
	lookup, err := options.lookup()
	if err != nil {
		return Config{}, err
	}

	trusted, err := prefixList(lookup, "SITE_SERVER_TRUSTED_PROXIES")
	if err != nil {
		return Config{}, err
	}

	port := stringWithDefault(lookup, "PORT", defaultPort)
	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "SITE_SERVER_PORT", port),
			ReadTimeout:  durationWithDefault(lookup, "SITE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SITE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SITE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),

			TrustedProxies: trusted,
		},
		Site: SiteConfig{
			Dev:          boolWithDefault(lookup, "SITE_DEV", false),
			TemplatesDir: stringWithDefault(lookup, "SITE_TEMPLATES_DIR", ""),
			RootDomain:   strings.ToLower(strings.Trim(stringWithDefault(lookup, "SITE_ROOT_DOMAIN", ""), ".")),
			APIBaseURL:   strings.TrimRight(stringWithDefault(lookup, "SITE_API_BASE_URL", ""), "/"),
			MapsAPIKey:   stringWithDefault(lookup, "SITE_MAPS_API_KEY", ""),
			Timezone:     stringWithDefault(lookup, "SITE_TIMEZONE", defaultTimezone),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(stringWithDefault(lookup, "SITE_STORE_DRIVER", defaultStoreDriver)),
			ProfilesDir: stringWithDefault(lookup, "SITE_LOCAL_PROFILES_DIR", defaultProfilesDir),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "SITE_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "SITE_FIRESTORE_EMULATOR_HOST", ""),
			Collection:   stringWithDefault(lookup, "SITE_FIRESTORE_COLLECTION", defaultFirestoreCollection),
		},
		Postgres: PostgresConfig{
			DSN: stringWithDefault(lookup, "SITE_POSTGRES_DSN", ""),
		},
		Storage: StorageConfig{
			MediaBucket:     stringWithDefault(lookup, "SITE_STORAGE_MEDIA_BUCKET", ""),
			CredentialsFile: stringWithDefault(lookup, "SITE_STORAGE_CREDENTIALS_FILE", ""),
			URLTTL:          durationWithDefault(lookup, "SITE_STORAGE_URL_TTL", defaultSignedURLTTL),
		},
		PubSub: PubSubConfig{
			ProjectID:    stringWithDefault(lookup, "SITE_PUBSUB_PROJECT_ID", ""),
			Subscription: stringWithDefault(lookup, "SITE_PUBSUB_SUBSCRIPTION", ""),
		},
		Cache: CacheConfig{
			TTL:      durationWithDefault(lookup, "SITE_CACHE_TTL", defaultCacheTTL),
			Capacity: intWithDefault(lookup, "SITE_CACHE_CAPACITY", defaultCacheCapacity),
		},
		Views: ViewConfig{
			IdleTTL:       durationWithDefault(lookup, "SITE_VIEW_IDLE_TTL", defaultViewIdleTTL),
			SweepSchedule: stringWithDefault(lookup, "SITE_VIEW_SWEEP_SCHEDULE", defaultViewSweepSchedule),
			MaxPublished:  intWithDefault(lookup, "SITE_VIEW_MAX_PUBLISHED", defaultViewMaxPublished),
			MaxPreviews:   intWithDefault(lookup, "SITE_VIEW_MAX_PREVIEWS", defaultViewMaxPreviews),
		},
		Preview: PreviewConfig{
			PerMinute:      intWithDefault(lookup, "SITE_RATELIMIT_PREVIEW_PER_MIN", defaultPreviewPerMinute),
			MaxUploadBytes: int64(intWithDefault(lookup, "SITE_PREVIEW_MAX_UPLOAD_BYTES", defaultPreviewMaxUpload)),
		},
		Security: SecurityConfig{
			Environment:      strings.ToLower(stringWithDefault(lookup, "SITE_SECURITY_ENVIRONMENT", defaultSecurityEnvironment)),
			SecretsProjectID: stringWithDefault(lookup, "SITE_SECRETS_PROJECT_ID", ""),
		},
	}

	// Pub/Sub and Secret Manager default to the Firestore project.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}
	if cfg.Security.SecretsProjectID == "" {
		cfg.Security.SecretsProjectID = cfg.Firestore.ProjectID
	}

	secretFields := []*string{
		&cfg.Site.MapsAPIKey,
		&cfg.Postgres.DSN,
	}
	for _, field := range secretFields {
		resolved, err := resolveSecret(ctx, *field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*field = resolved
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", errSecretResolverNotConfigured
		}),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func (o loaderOptions) lookup() (func(string) (string, bool), error) {
	dotEnvValues, err := loadDotEnv(o.envFile)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		if value, ok := o.envMap[key]; ok {
			return value, true
		}
		if o.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnvValues[key]
		return value, ok
	}, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if _, err := time.LoadLocation(cfg.Site.Timezone); err != nil {
		missing = append(missing, "Site.Timezone")
	}
	switch cfg.Store.Driver {
	case StoreLocal:
		if cfg.Store.ProfilesDir == "" && cfg.Site.APIBaseURL == "" {
			missing = append(missing, "Store.ProfilesDir")
		}
	case StoreFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
		if cfg.Firestore.Collection == "" {
			missing = append(missing, "Firestore.Collection")
		}
	case StorePostgres:
		if cfg.Postgres.DSN == "" {
			missing = append(missing, "Postgres.DSN")
		}
	default:
		missing = append(missing, "Store.Driver")
	}
	if cfg.PubSub.Subscription != "" && cfg.PubSub.ProjectID == "" {
		missing = append(missing, "PubSub.ProjectID")
	}
	if cfg.Storage.URLTTL <= 0 {
		missing = append(missing, "Storage.URLTTL")
	}
	if cfg.Cache.TTL <= 0 {
		missing = append(missing, "Cache.TTL")
	}
	if cfg.Cache.Capacity <= 0 {
		missing = append(missing, "Cache.Capacity")
	}
	if cfg.Views.IdleTTL <= 0 {
		missing = append(missing, "Views.IdleTTL")
	}
	if strings.TrimSpace(cfg.Views.SweepSchedule) == "" {
		missing = append(missing, "Views.SweepSchedule")
	}
	if cfg.Views.MaxPublished <= 0 {
		missing = append(missing, "Views.MaxPublished")
	}
	if cfg.Views.MaxPreviews <= 0 {
		missing = append(missing, "Views.MaxPreviews")
	}
	if cfg.Preview.PerMinute <= 0 {
		missing = append(missing, "Preview.PerMinute")
	}
	if cfg.Preview.MaxUploadBytes <= 0 {
		missing = append(missing, "Preview.MaxUploadBytes")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if !isSecretReference(value) {
		return value, nil
	}
	ref := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(trimmed, "sm://"); ok {
		return "secret://" + rest
	}
	return trimmed
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

// prefixList parses a comma-separated list of CIDRs; bare addresses become
// single-host prefixes.
func prefixList(lookup func(string) (string, bool), key string) ([]netip.Prefix, error) {
	value, ok := lookup(key)
	if !ok {
		return nil, nil
	}
	var prefixes []netip.Prefix
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			addr, err := netip.ParseAddr(item)
			if err != nil {
				return nil, fmt.Errorf("config: %s: %w", key, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", key, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}
