package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/trie-spam-filter/internal/adapters/filter"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	err = container.Invoke(func(logger *zap.Logger, cli *filter.CliFilter, explainer core.Explainer) error {
		defer logger.Sync()
		if closer, ok := explainer.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		return run(flags, cli, logger, os.Stdin)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, cli *filter.CliFilter, logger *zap.Logger, stdin io.Reader) error {
	ctx := context.Background()

	if flags.DumpTrie {
		return cli.DumpDictionary()
	}

	if flags.Example != "" {
		samples := core.SampleSpamMessages
		if flags.Example == "ham" {
			samples = core.SampleNormalMessages
		}
		for _, sample := range samples {
			if _, err := cli.ProcessEmail(ctx, &core.Email{Body: sample}); err != nil {
				return err
			}
		}
		return nil
	}

	input, source, err := readInput(flags, stdin)
	if err != nil {
		return err
	}
	logger.Debug("Read input", zap.String("source", source), zap.Int("size", len(input)))

	email := &core.Email{Body: input}
	if flags.Email {
		email, err = filter.ParseEmail(strings.NewReader(input))
		if err != nil {
			return err
		}
	}

	_, err = cli.ProcessEmail(ctx, email)
	return err
}

func readInput(flags *di.CLIFlags, stdin io.Reader) (string, string, error) {
	switch {
	case flags.Text != "":
		return flags.Text, "text", nil
	case flags.File != "":
		data, err := os.ReadFile(flags.File)
		if err != nil {
			return "", "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), flags.File, nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
}
