package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-survey-relay/pkg/identity"
	"github.com/goliatone/go-survey-relay/pkg/links"
	"github.com/goliatone/go-survey-relay/pkg/status"
	"github.com/goliatone/go-survey-relay/pkg/vendors"
)

var errEmptyKey = errors.New("key is required")

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text; got %q", c.Log.Format)
	}
	if !status.QualityMode(c.Statuses.QualityMode).Valid() {
		return fmt.Errorf("statuses.quality_mode %q is not supported", c.Statuses.QualityMode)
	}
	for name := range c.Statuses.ExtraAliases {
		if !status.Status(strings.ToLower(name)).Valid() {
			return fmt.Errorf("statuses.extra_aliases: unknown status %q", name)
		}
	}
	if !identity.Mode(c.Identity.Mode).Valid() {
		return fmt.Errorf("identity.mode %q is not supported", c.Identity.Mode)
	}
	for name, raw := range c.Client.URLs() {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := links.ParseAbsolute(raw); err != nil {
			return fmt.Errorf("client.%s_url: %w", name, err)
		}
	}
	if err := c.validateVendors(); err != nil {
		return err
	}
	if err := c.validateCells(); err != nil {
		return err
	}
	if c.Dispatcher.Timeout <= 0 {
		return fmt.Errorf("dispatcher.timeout must be > 0")
	}
	if c.Dispatcher.PostbackTimeout <= 0 {
		return fmt.Errorf("dispatcher.postback_timeout must be > 0")
	}
	if raw := strings.TrimSpace(c.Webhook.URL); raw != "" {
		if _, err := links.ParseAbsolute(raw); err != nil {
			return fmt.Errorf("webhook.url: %w", err)
		}
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be within [0,1]")
	}
	return nil
}

func (c *Config) validateVendors() error {
	if c.Vendors.Gomr.IsEnabled() {
		if !vendors.Mode(c.Vendors.Gomr.Mode).Valid() {
			return fmt.Errorf("vendors.gomr.mode %q is not supported", c.Vendors.Gomr.Mode)
		}
		if _, err := links.ParseAbsolute(c.Vendors.Gomr.BaseURL); err != nil {
			return fmt.Errorf("vendors.gomr.base_url: %w", err)
		}
	}
	seen := map[string]bool{}
	if c.Vendors.Gomr.IsEnabled() {
		seen["gomr"] = true
	}
	for i, v := range c.Vendors.Custom {
		key := strings.ToLower(strings.TrimSpace(v.Key))
		if key == "" {
			return fmt.Errorf("vendors.custom[%d]: %w", i, errEmptyKey)
		}
		if seen[key] {
			return fmt.Errorf("vendors.custom[%d]: duplicate key %q", i, key)
		}
		seen[key] = true
		if v.Mode != "" && !vendors.Mode(v.Mode).Valid() {
			return fmt.Errorf("vendors.custom[%d].mode %q is not supported", i, v.Mode)
		}
		if len(v.Templates) == 0 && v.Query == nil {
			return fmt.Errorf("vendors.custom[%d]: templates or query is required", i)
		}
		for name, tmpl := range v.Templates {
			if !status.Status(strings.ToLower(name)).Valid() {
				return fmt.Errorf("vendors.custom[%d].templates: unknown status %q", i, name)
			}
			probe := links.Expand(tmpl, links.Slots{vendors.SlotProjectID: "p", vendors.SlotIdentifier: "u"})
			if _, err := links.ParseAbsolute(probe); err != nil {
				return fmt.Errorf("vendors.custom[%d].templates.%s: %w", i, name, err)
			}
		}
		if v.Query != nil {
			if _, err := links.ParseAbsolute(v.Query.BaseURL); err != nil {
				return fmt.Errorf("vendors.custom[%d].query.base_url: %w", i, err)
			}
			for name := range v.Query.StatusCodes {
				if !status.Status(strings.ToLower(name)).Valid() {
					return fmt.Errorf("vendors.custom[%d].query.status_codes: unknown status %q", i, name)
				}
			}
		}
	}
	return nil
}

func (c *Config) validateCells() error {
	seen := map[string]bool{}
	for i, cell := range c.Cells {
		key := strings.ToLower(strings.TrimSpace(cell.Key))
		if key == "" {
			return fmt.Errorf("cells[%d]: %w", i, errEmptyKey)
		}
		if seen[key] {
			return fmt.Errorf("cells[%d]: duplicate key %q", i, key)
		}
		seen[key] = true
		probe := links.Expand(cell.StartURL, links.Slots{"rid": "r"})
		if _, err := links.ParseAbsolute(probe); err != nil {
			return fmt.Errorf("cells[%d].start_url: %w", i, err)
		}
	}
	return nil
}
