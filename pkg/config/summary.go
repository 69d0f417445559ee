package config

import (
	"github.com/goliatone/go-survey-relay/pkg/secrets"
)

// Summary returns a log-safe view of the effective configuration. Secrets
// and tokens embedded in URLs are masked.
func (c Config) Summary() map[string]any {
	cells := make([]string, 0, len(c.Cells))
	for _, cell := range c.Cells {
		cells = append(cells, cell.Key)
	}
	custom := make([]string, 0, len(c.Vendors.Custom))
	for _, v := range c.Vendors.Custom {
		custom = append(custom, v.Key)
	}
	return map[string]any{
		"server": map[string]any{
			"addr": c.Server.Addr,
		},
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
		"project": c.Project.DefaultLabel,
		"client": map[string]any{
			"complete_url":     secrets.MaskURL(c.Client.CompleteURL),
			"terminate_url":    secrets.MaskURL(c.Client.TerminateURL),
			"quota_url":        secrets.MaskURL(c.Client.QuotaURL),
			"quality_url":      secrets.MaskURL(c.Client.QualityURL),
			"forward_id_param": c.Client.ForwardIDParam,
			"signing_secret":   secrets.Mask(c.Client.SigningSecret),
		},
		"statuses": map[string]any{
			"quality_mode": c.Statuses.QualityMode,
		},
		"identity_mode": c.Identity.Mode,
		"vendors": map[string]any{
			"gomr": map[string]any{
				"enabled":    c.Vendors.Gomr.IsEnabled(),
				"mode":       c.Vendors.Gomr.Mode,
				"base_url":   c.Vendors.Gomr.BaseURL,
				"project_id": c.Vendors.Gomr.ProjectID,
			},
			"custom": custom,
		},
		"cells": cells,
		"dispatcher": map[string]any{
			"timeout":          c.Dispatcher.Timeout.String(),
			"postback_timeout": c.Dispatcher.PostbackTimeout.String(),
			"dry_run":          c.Dispatcher.DryRun,
		},
		"console": c.Console.IsEnabled(),
		"webhook": secrets.MaskURL(c.Webhook.URL),
		"analytics": map[string]any{
			"enabled":        c.Analytics.Enabled(),
			"measurement_id": secrets.Mask(c.Analytics.MeasurementID),
			"api_secret":     secrets.Mask(c.Analytics.APISecret),
		},
		"postback": c.Postback.IsEnabled(),
		"kafka": map[string]any{
			"brokers": c.Kafka.Brokers,
			"topic":   c.Kafka.Topic,
		},
		"alert": map[string]any{
			"ses":           c.Alert.SESEnabled(),
			"to":            c.Alert.To,
			"slack":         c.Alert.SlackEnabled(),
			"slack_channel": c.Alert.SlackChannel,
			"slack_token":   secrets.Mask(c.Alert.SlackToken),
		},
		"telemetry": map[string]any{
			"endpoint": c.Telemetry.Endpoint,
		},
	}
}
