package mustache

import "github.com/itsatony/go-mustache/internal"

// Default delimiters
const (
	DefaultOpenDelim  = internal.DefaultOpenDelim
	DefaultCloseDelim = internal.DefaultCloseDelim
)

// Default configuration values
const (
	DefaultMaxDepth          = internal.DefaultMaxDepth
	DefaultTemplateExtension = "mustache"
	DefaultCharset           = "UTF-8"
	DefaultParseCacheSize    = 1000
)

// Pragma names
const (
	PragmaDotNotation = internal.PragmaDotNotation
	PragmaUnescaped   = internal.PragmaUnescaped
)

// ViewErrorPrefix prefixes the text View.String returns for a failed render
const ViewErrorPrefix = "Error rendering mustache: "

// Metadata keys attached to errors
const (
	MetaKeyLine         = "line"
	MetaKeyColumn       = "column"
	MetaKeyOffset       = "offset"
	MetaKeyName         = "name"
	MetaKeyErrorClass   = "error_class"
	MetaKeyTemplateName = "template_name"
	MetaKeyPartialName  = "partial_name"
	MetaKeyDetail       = "detail"
	MetaKeySource       = "source"
	MetaKeyCharset      = "charset"
	MetaKeyOption       = "option"
	MetaKeyValue        = "value"
	MetaKeyDriverName   = "driver"
	MetaKeyPath         = "path"
)

// Log message constants
const (
	LogMsgEngineCreated     = "mustache engine created"
	LogMsgParseCacheHit     = "parse cache hit"
	LogMsgParseCacheEvict   = "parse cache full, evicting"
	LogMsgPartialResolved   = "partial resolved"
	LogMsgPartialRegistered = "partial registered"
	LogMsgTemplateLoaded    = "template loaded from source"
	LogMsgSourceCacheHit    = "source cache hit"
	LogMsgSourceCacheMiss   = "source cache miss"
	LogMsgSourceMigrated    = "source schema migrated"
	LogMsgSourceOpened      = "template source opened"
)

// Log field names
const (
	LogFieldName      = "name"
	LogFieldOrigin    = "origin"
	LogFieldEntries   = "entries"
	LogFieldDriver    = "driver"
	LogFieldSourceLen = "source_length"
	LogFieldHasSource = "has_source"
)

// Partial origins reported in logs
const (
	PartialOriginCall     = "call"
	PartialOriginRegistry = "registry"
	PartialOriginSource   = "source"
)

// Environment variable names read by LoadEnvConfig
const (
	EnvPrefix             = "MUSTACHE_"
	EnvTemplateDir        = "MUSTACHE_TEMPLATE_DIR"
	EnvTemplateExtension  = "MUSTACHE_TEMPLATE_EXTENSION"
	EnvCharset            = "MUSTACHE_CHARSET"
	EnvMaxDepth           = "MUSTACHE_MAX_DEPTH"
	EnvPragmas            = "MUSTACHE_PRAGMAS"
	EnvKnownPragmas       = "MUSTACHE_KNOWN_PRAGMAS"
	EnvErrorStrategies    = "MUSTACHE_ERROR_STRATEGIES"
	EnvStrict             = "MUSTACHE_STRICT"
	EnvSectionTrim        = "MUSTACHE_SECTION_TRIM"
	EnvPostgresDSN        = "MUSTACHE_POSTGRES_DSN"
	EnvSQLitePath         = "MUSTACHE_SQLITE_PATH"
	EnvRedisAddr          = "MUSTACHE_REDIS_ADDR"
	EnvRedisPrefix        = "MUSTACHE_REDIS_PREFIX"
	EnvSourceCacheTTL     = "MUSTACHE_SOURCE_CACHE_TTL"
	EnvLogLevel           = "MUSTACHE_LOG_LEVEL"
	EnvParseCacheSize     = "MUSTACHE_PARSE_CACHE_SIZE"
	ConfigListSeparator   = ","
	ConfigKeyValSeparator = "="
)

// Source driver names
const (
	SourceDriverMemory     = "memory"
	SourceDriverFilesystem = "filesystem"
	SourceDriverPostgres   = "postgres"
	SourceDriverSQLite     = "sqlite"
	SourceDriverRedis      = "redis"
)
