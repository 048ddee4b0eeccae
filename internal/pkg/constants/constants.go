package constants

const (
	CookieKeyAuthToken = "auth_token"

	CtxKeyAccountID   = "account_id"
	CtxKeyAccountName = "account_name"

	HeaderRequestID = "X-Request-ID"
)

// viper keys
const (
	ViperServerAddrKey      = "server.addr"
	ViperDBDSNKey           = "db.dsn"
	ViperDBMaxConnsKey      = "db.max_conns"
	ViperRedisAddrKey       = "redis.addr"
	ViperRedisPasswordKey   = "redis.password"
	ViperRedisDBKey         = "redis.db"
	ViperFacetCacheTTLKey   = "redis.facet_ttl"
	ViperSecretKey          = "auth.secret"
	ViperTokenTTLKey        = "auth.token_ttl"
	ViperLogLevelKey        = "logger.level"
	ViperLogDevelopmentKey  = "logger.development"
	ViperCORSOriginsKey     = "cors.allow_origins"
	ViperPageSizeKey        = "results.page_size"
	ViperMaxPageSizeKey     = "results.max_page_size"
	ViperIngestConcurrency  = "ingest.concurrency"
	ViperShutdownTimeoutKey = "server.shutdown_timeout"
)
