package config

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// DictionaryConfig represents the indicator term dictionary settings
type DictionaryConfig struct {
	BaseScore  float64
	ExtraTerms map[string]float64
}

// HistoryConfig represents the analysis history settings
type HistoryConfig struct {
	Type             string
	MaxEntries       int
	Retention        time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	MaxTextSize      int
}

// ExplainerConfig represents the optional verdict explainer settings
type ExplainerConfig struct {
	Provider string
	OnlySpam bool
}

// HTTPConfig represents the JSON API settings
type HTTPConfig struct {
	ListenAddress string
	Mode          string
	AllowInsert   bool
	MaxBodySize   int64
}

// HeadersConfig names the headers added to filtered mail
type HeadersConfig struct {
	Spam       string
	Score      string
	Confidence string
	Words      string
	Reason     string
}

// PostfixConfig represents the SMTP content filter settings
type PostfixConfig struct {
	ListenAddress string
	BlockSpam     bool
	Headers       HeadersConfig
	Address       string
	Port          int
	Enabled       bool
	SubjectPrefix string
	ModifySubject bool
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GetDictionary returns the dictionary configuration
func (c *Config) GetDictionary() (DictionaryConfig, error) {
	raw := c.v.GetStringMap("dictionary.extra_terms")
	terms := make(map[string]float64, len(raw))
	for term, value := range raw {
		score, err := cast.ToFloat64E(value)
		if err != nil {
			return DictionaryConfig{}, fmt.Errorf("invalid score for dictionary term %q: %w", term, err)
		}
		terms[term] = score
	}

	return DictionaryConfig{
		BaseScore:  c.GetFloat64("dictionary.base_score"),
		ExtraTerms: terms,
	}, nil
}

// GetHistory returns the history configuration
func (c *Config) GetHistory() (HistoryConfig, error) {
	retention, err := c.GetDuration("history.retention")
	if err != nil {
		return HistoryConfig{}, fmt.Errorf("invalid history retention: %w", err)
	}
	cleanupFreq, err := c.GetDuration("history.cleanup_frequency")
	if err != nil {
		return HistoryConfig{}, fmt.Errorf("invalid history cleanup frequency: %w", err)
	}
	if cleanupFreq <= 0 {
		return HistoryConfig{}, fmt.Errorf("history cleanup frequency must be positive, got %s", cleanupFreq)
	}

	return HistoryConfig{
		Type:             c.GetString("history.type"),
		MaxEntries:       c.GetInt("history.max_entries"),
		Retention:        retention,
		CleanupFrequency: cleanupFreq,
		SQLitePath:       c.GetString("history.sqlite_path"),
		MySQLDSN:         c.GetString("history.mysql_dsn"),
		MaxTextSize:      c.GetInt("history.max_text_size"),
	}, nil
}

// GetExplainer returns the explainer configuration
func (c *Config) GetExplainer() ExplainerConfig {
	return ExplainerConfig{
		Provider: c.GetString("explainer.provider"),
		OnlySpam: c.GetBool("explainer.only_spam"),
	}
}

// GetHTTP returns the HTTP API configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		ListenAddress: c.GetString("http.listen_address"),
		Mode:          c.GetString("http.mode"),
		AllowInsert:   c.GetBool("http.allow_insert"),
		MaxBodySize:   c.GetViper().GetInt64("http.max_body_size"),
	}
}

// GetPostfix returns the SMTP content filter configuration
func (c *Config) GetPostfix() PostfixConfig {
	return PostfixConfig{
		ListenAddress: c.GetString("server.listen_address"),
		BlockSpam:     c.GetBool("server.block_spam"),
		Headers: HeadersConfig{
			Spam:       c.GetString("server.headers.spam"),
			Score:      c.GetString("server.headers.score"),
			Confidence: c.GetString("server.headers.confidence"),
			Words:      c.GetString("server.headers.words"),
			Reason:     c.GetString("server.headers.reason"),
		},
		Address:       c.GetString("server.postfix.address"),
		Port:          c.GetInt("server.postfix.port"),
		Enabled:       c.GetBool("server.postfix.enabled"),
		SubjectPrefix: c.GetString("server.subject_prefix"),
		ModifySubject: c.GetBool("server.modify_subject"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}
