package config

import "time"

type DevAPI struct{}

var _ DevAPIConfig = DevAPI{}

func (DevAPI) GetAPIBasePath() string {
	return GetEnv("DEVAPI_BASE_PATH", "/api/v1")
}

func (DevAPI) GetJWTSecret() string {
	return GetEnv("DEVAPI_JWT_SECRET", "dev-only-secret-change-me")
}

func (DevAPI) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration("DEVAPI_ACCESS_TOKEN_TTL", 30*time.Minute)
}

func (DevAPI) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration("DEVAPI_REFRESH_TOKEN_TTL", 7*24*time.Hour)
}
