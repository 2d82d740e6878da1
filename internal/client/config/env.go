package config

const (
	EnvAPIURL    = "UNIPORTAL_API_URL"
	EnvTransport = "UNIPORTAL_TRANSPORT"
)

func parseEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := getenv(EnvTransport); v != "" {
		cfg.Transport = v
	}
}
