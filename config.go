package main

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLMProvider     string `yaml:"llm_provider"` // "gemini" or "anthropic"
	LLMModel        string `yaml:"llm_model"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	LLMBatchSize           int     `yaml:"llm_batch_size"`
	LLMRequestsPerMinute   int     `yaml:"llm_requests_per_minute"`
	LLMMaxRetries          int     `yaml:"llm_max_retries"`
	LLMRetryBackoffSeconds int     `yaml:"llm_retry_backoff_seconds"`
	ClassifyConfidence     float64 `yaml:"classify_confidence_threshold"`
	ExtractConfidence      float64 `yaml:"extract_confidence_threshold"`
	BodyMaxChars           int     `yaml:"body_max_chars"`
	MaxEmailsPerRun        int     `yaml:"max_emails_per_run"`

	ClassificationTemplatePath string `yaml:"classification_template_path"`
	ExtractionTemplatePath     string `yaml:"extraction_template_path"`

	CredentialsFile   string `yaml:"credentials_file"`
	GmailTokenFile    string `yaml:"gmail_token_file"`
	SheetsTokenFile   string `yaml:"sheets_token_file"`
	SpreadsheetIDFile string `yaml:"spreadsheet_id_file"`

	StoreBackend string `yaml:"store_backend"` // "sqlite" or "sheets"
	DBPath       string `yaml:"db_path"`

	StartDate     string `yaml:"start_date"`
	EndDate       string `yaml:"end_date"`
	RunSchedule   string `yaml:"run_schedule"` // 5-field cron; empty = one-shot
	RunWindowDays int    `yaml:"run_window_days"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	// Loaded and validated at startup, never mid-run.
	ClassificationTemplate PromptTemplate `yaml:"-"`
	ExtractionTemplate     PromptTemplate `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverrideInt(&cfg.LLMBatchSize, "LLM_BATCH_SIZE")
	envOverrideInt(&cfg.LLMRequestsPerMinute, "LLM_REQUESTS_PER_MINUTE")
	envOverrideInt(&cfg.LLMMaxRetries, "LLM_MAX_RETRIES")
	envOverrideInt(&cfg.LLMRetryBackoffSeconds, "LLM_RETRY_BACKOFF_SECONDS")
	envOverrideFloat(&cfg.ClassifyConfidence, "CLASSIFY_CONFIDENCE_THRESHOLD")
	envOverrideFloat(&cfg.ExtractConfidence, "EXTRACT_CONFIDENCE_THRESHOLD")
	envOverrideInt(&cfg.BodyMaxChars, "BODY_MAX_CHARS")
	envOverrideInt(&cfg.MaxEmailsPerRun, "MAX_EMAILS_PER_RUN")
	envOverride(&cfg.ClassificationTemplatePath, "CLASSIFICATION_TEMPLATE_PATH")
	envOverride(&cfg.ExtractionTemplatePath, "EXTRACTION_TEMPLATE_PATH")
	envOverride(&cfg.CredentialsFile, "CREDENTIALS_FILE")
	envOverride(&cfg.GmailTokenFile, "GMAIL_TOKEN_FILE")
	envOverride(&cfg.SheetsTokenFile, "SHEETS_TOKEN_FILE")
	envOverride(&cfg.SpreadsheetIDFile, "SPREADSHEET_ID_FILE")
	envOverride(&cfg.StoreBackend, "STORE_BACKEND")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.StartDate, "START_DATE")
	envOverride(&cfg.EndDate, "END_DATE")
	envOverride(&cfg.RunSchedule, "RUN_SCHEDULE")
	envOverrideInt(&cfg.RunWindowDays, "RUN_WINDOW_DAYS")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")

	applyDefaults(&cfg)
	validate(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "gemini"
	}
	if cfg.LLMBatchSize == 0 {
		cfg.LLMBatchSize = 10
	}
	if cfg.LLMRequestsPerMinute == 0 {
		cfg.LLMRequestsPerMinute = 10
	}
	if cfg.LLMMaxRetries == 0 {
		cfg.LLMMaxRetries = 3
	}
	if cfg.LLMRetryBackoffSeconds == 0 {
		cfg.LLMRetryBackoffSeconds = 2
	}
	if cfg.ClassifyConfidence == 0 {
		cfg.ClassifyConfidence = 0.50
	}
	if cfg.ExtractConfidence == 0 {
		cfg.ExtractConfidence = 0.50
	}
	if cfg.BodyMaxChars == 0 {
		cfg.BodyMaxChars = 1500
	}
	if cfg.MaxEmailsPerRun == 0 {
		cfg.MaxEmailsPerRun = 100
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = "credentials.json"
	}
	if cfg.GmailTokenFile == "" {
		cfg.GmailTokenFile = "token.json"
	}
	if cfg.SheetsTokenFile == "" {
		cfg.SheetsTokenFile = "token_sheets.json"
	}
	if cfg.SpreadsheetIDFile == "" {
		cfg.SpreadsheetIDFile = "spreadsheet_id.txt"
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "sqlite"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./statussync.db"
	}
	if cfg.RunWindowDays == 0 {
		cfg.RunWindowDays = 7
	}
}

func validate(cfg *Config) {
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatalf("gemini_api_key is required when llm_provider=gemini")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	default:
		log.Fatalf("llm_provider must be 'gemini' or 'anthropic', got '%s'", cfg.LLMProvider)
	}

	if cfg.StoreBackend != "sqlite" && cfg.StoreBackend != "sheets" {
		log.Fatalf("store_backend must be 'sqlite' or 'sheets', got '%s'", cfg.StoreBackend)
	}
	if cfg.LLMBatchSize < 1 {
		log.Fatalf("invalid llm_batch_size '%d': must be >= 1", cfg.LLMBatchSize)
	}
	if cfg.LLMRequestsPerMinute < 1 {
		log.Fatalf("invalid llm_requests_per_minute '%d': must be >= 1", cfg.LLMRequestsPerMinute)
	}
	if cfg.ClassifyConfidence < 0 || cfg.ClassifyConfidence > 1 {
		log.Fatalf("invalid classify_confidence_threshold '%f': must be between 0 and 1", cfg.ClassifyConfidence)
	}
	if cfg.ExtractConfidence < 0 || cfg.ExtractConfidence > 1 {
		log.Fatalf("invalid extract_confidence_threshold '%f': must be between 0 and 1", cfg.ExtractConfidence)
	}
	if cfg.StartDate != "" || cfg.EndDate != "" {
		if _, _, err := ParseDateRange(cfg.StartDate, cfg.EndDate); err != nil {
			log.Fatalf("invalid date range: %v", err)
		}
	}

	var err error
	cfg.ClassificationTemplate, err = LoadPromptTemplate("classification",
		cfg.ClassificationTemplatePath, defaultClassificationTemplate)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := cfg.ClassificationTemplate.Validate("email_batch"); err != nil {
		log.Fatalf("%v", err)
	}

	cfg.ExtractionTemplate, err = LoadPromptTemplate("extraction",
		cfg.ExtractionTemplatePath, defaultExtractionTemplate)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := cfg.ExtractionTemplate.Validate("email_subject", "email_sender", "email_body"); err != nil {
		log.Fatalf("%v", err)
	}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
