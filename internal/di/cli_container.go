package di

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/trie-spam-filter/internal/adapters/filter"
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/factory"
	"github.com/mikey/trie-spam-filter/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	Text     string
	File     string
	Email    bool
	Example  string
	DumpTrie bool

	// Output flags
	JSON    bool
	Verbose bool
	JSONLog bool

	// Dictionary flags
	BaseScore float64
	Whitelist string

	// Explainer flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	ConfigFile string
}

// ParseFlags parses command line arguments, without the program name
func ParseFlags(args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("spam-detector", flag.ContinueOnError)
	fs.SetOutput(output)

	// Input flags
	fs.StringVar(&flags.Text, "text", "", "Text to analyze")
	fs.StringVar(&flags.File, "file", "", "File to analyze (stdin if neither -text nor -file is given)")
	fs.BoolVar(&flags.Email, "email", false, "Parse the input as an RFC 5322 email")
	fs.StringVar(&flags.Example, "example", "", "Analyze the built-in sample messages (spam or ham)")
	fs.BoolVar(&flags.DumpTrie, "dump-trie", false, "Print the indicator term dictionary and exit")

	// Output flags
	fs.BoolVar(&flags.JSON, "json", false, "Print results as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output and logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	// Dictionary flags
	fs.Float64Var(&flags.BaseScore, "base-score", core.DefaultBaseScore, "Score of every built-in indicator term")
	fs.StringVar(&flags.Whitelist, "whitelist", "", "Comma separated sender domains that are never spam")

	// Explainer flags
	fs.StringVar(&flags.Provider, "provider", "none", "Verdict explainer (none, bedrock, gemini, openai)")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 300, "Maximum tokens for the explanation")
	fs.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for explanation generation")
	fs.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for explanation generation")
	fs.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum text size sent to the explainer")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides dictionary and explainer flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if flags.Text != "" && flags.File != "" {
		return nil, fmt.Errorf("-text and -file are mutually exclusive")
	}
	switch flags.Example {
	case "", "spam", "ham":
	default:
		return nil, fmt.Errorf("-example must be spam or ham, got %q", flags.Example)
	}

	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile == "" {
			return createConfigFromFlags(flags), nil
		}

		cfg, err := config.NewFromFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
		setOutputFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register service options; the CLI keeps no history
	if err := container.Provide(func(cfg *config.Config, explainer core.Explainer) core.ServiceOptions {
		return core.ServiceOptions{
			Explainer:       explainer,
			ExplainOnlySpam: cfg.GetExplainer().OnlySpam,
		}
	}); err != nil {
		return nil, err
	}

	if err := provideService(container); err != nil {
		return nil, err
	}

	// Register CLI filter
	if err := container.Provide(func(f *factory.FilterFactory) *filter.CliFilter {
		return f.CreateCliFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

func setOutputFlags(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cli.json", flags.JSON)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("dictionary.base_score", flags.BaseScore)
	v.Set("spam.whitelisted_domains", splitList(flags.Whitelist))

	v.Set("explainer.provider", flags.Provider)
	v.Set("explainer.only_spam", false)

	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	}

	cfg := config.NewFromViper(v)
	setOutputFlags(cfg, flags)
	return cfg
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
