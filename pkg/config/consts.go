package config

const (
	// EnvPrefix is intentionally empty: every field names its variable in full.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN           = "BALUTEDAAR_DB_DSN"
	EnvDBHost          = "BALUTEDAAR_DB_HOST"
	EnvDBUser          = "BALUTEDAAR_DB_USER"
	EnvDBName          = "BALUTEDAAR_DB_NAME"
	EnvServicePincodes = "BALUTEDAAR_SERVICE_PINCODES"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
