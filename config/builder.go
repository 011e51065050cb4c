package config

import (
	"sort"

	feedbackwidget "github.com/jpalmerr/feedbackwidget"
)

// BuildOptions converts parsed configuration into SDK options.
//
// Only fields set in the file produce an option, so the SDK defaults apply
// to everything else. The logger is left to the caller.
func BuildOptions(cfg *Config) []feedbackwidget.Option {
	opts := []feedbackwidget.Option{
		feedbackwidget.WithPort(cfg.Port),
		feedbackwidget.WithDuplicateSubmitGuard(cfg.GuardEnabled()),
	}

	if cfg.Title != "" {
		opts = append(opts, feedbackwidget.WithTitle(cfg.Title))
	}
	if cfg.TagName != "" {
		opts = append(opts, feedbackwidget.WithTagName(cfg.TagName))
	}
	if cfg.BasePath != "" {
		opts = append(opts, feedbackwidget.WithBasePath(cfg.BasePath))
	}
	if cfg.MaxInstances > 0 {
		opts = append(opts, feedbackwidget.WithMaxInstances(cfg.MaxInstances))
	}

	if cfg.Collector.URL != "" {
		opts = append(opts, feedbackwidget.WithEndpoint(cfg.Collector.URL))
	}
	if len(cfg.Collector.Headers) > 0 {
		opts = append(opts, feedbackwidget.WithHeaders(mapToKeyValuePairs(cfg.Collector.Headers)...))
	}

	if cfg.Trigger.Label != "" {
		opts = append(opts, feedbackwidget.WithTriggerLabel(cfg.Trigger.Label))
	}
	if cfg.Trigger.Icon != "" {
		opts = append(opts, feedbackwidget.WithTriggerIcon(cfg.Trigger.Icon))
	}

	return opts
}

// mapToKeyValuePairs converts a map to a slice of key-value pairs sorted by key.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
