package models

// GraylogConfig holds credentials for the log store. Either APIToken or
// Username/Password is used, never both; the token wins when both are set.
type GraylogConfig struct {
	URL      string `json:"url" yaml:"url"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	APIToken string `json:"api_token" yaml:"api_token"`
}

// AIConfig holds the OpenAI-compatible endpoint configuration.
type AIConfig struct {
	URL      string `json:"url" yaml:"url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	Model    string `json:"model" yaml:"model"`
	Language string `json:"language" yaml:"language"`
}

// NotificationConfig groups global channels and conditional rules.
// Global channels fire for every alert; rules fire on substring match.
type NotificationConfig struct {
	Telegram TelegramChannel     `json:"telegram" yaml:"telegram"`
	Email    EmailChannel        `json:"email" yaml:"email"`
	Rules    []*NotificationRule `json:"rules" yaml:"rules"`
}

// AppConfig is the runtime-mutable application configuration, persisted
// as a single JSON object in the key-value store.
type AppConfig struct {
	Graylog       GraylogConfig      `json:"graylog" yaml:"graylog"`
	AI            AIConfig           `json:"ai" yaml:"ai"`
	Notifications NotificationConfig `json:"notifications" yaml:"notifications"`
}

// DefaultAppConfig returns the configuration used before the operator
// saves anything.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Graylog: GraylogConfig{
			URL:      "http://localhost:9000",
			Username: "admin",
		},
		AI: AIConfig{
			URL:      "http://localhost:3000",
			Model:    "llama3.1",
			Language: "english",
		},
	}
}

// Validate checks the configured notification rules.
func (c *AppConfig) Validate() error {
	for _, rule := range c.Notifications.Rules {
		if err := rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}
