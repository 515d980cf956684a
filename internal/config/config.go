package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Auth        Auth `envPrefix:"AUTH_"`
	Bot         Bot  `envPrefix:"BOT_"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"orderbot.sqlite"`
}

type Bot struct {
	// Base URL of the ordering backend the bot talks to.
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://127.0.0.1:8080/api/v1/"`
	// Token for the chat transport.
	ChatToken string `env:"CHAT_TOKEN"`
	// Per-identity durable session store, separate from the backend DB.
	SessionDBPath string `env:"SESSION_DB_PATH" envDefault:"bot_sessions.sqlite"`
	// Outbound API call timeout.
	RequestTimeoutSeconds int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"20"`
}

type Auth struct {
	// Secret for signing access/refresh tokens.
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	// Shared token for staff-only endpoints (order status transitions).
	StaffToken string `env:"STAFF_TOKEN"`

	AccessTTLMinutes int `env:"ACCESS_TTL_MINUTES" envDefault:"30"`
	RefreshTTLDays   int `env:"REFRESH_TTL_DAYS" envDefault:"30"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
