package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vidfetch/internal/captions"
	"vidfetch/internal/config"
	"vidfetch/internal/language"
)

const autoLanguage = "auto"

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var source string
	var target string

	cmd := &cobra.Command{
		Use:   "translate <caption-file>",
		Short: "Translate a local WebVTT/SRT file next to the original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.TranslationEnabled() {
				return fmt.Errorf("translation.api_key is not set (edit %s or export OPENROUTER_API_KEY)", ctx.configPath)
			}
			src, err := normalizeLanguageFlag("source", source, true)
			if err != nil {
				return err
			}
			dst, err := normalizeLanguageFlag("target", target, false)
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}
			pipeline := captions.NewPipeline(captions.Backends{Translator: newTranslator(cfg)}, nil, logger)
			name, err := pipeline.TranslateFile(cmd.Context(), path, src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", filepath.Join(filepath.Dir(path), name))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", autoLanguage, "Source language code, or auto to let the translator detect it")
	cmd.Flags().StringVar(&target, "target", "", "Target language code")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func normalizeLanguageFlag(flag, value string, allowAuto bool) (string, error) {
	value = strings.TrimSpace(value)
	if allowAuto && strings.EqualFold(value, autoLanguage) {
		return autoLanguage, nil
	}
	normalized, ok := language.Normalize(value)
	if !ok {
		return "", fmt.Errorf("--%s: invalid language code %q", flag, value)
	}
	return normalized, nil
}
