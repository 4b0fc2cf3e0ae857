package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "ACP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SessionsBackendRedis  = "redis"
	SessionsBackendMemory = "memory"
)
