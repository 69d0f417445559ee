package di

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-survey-relay/pkg/cells"
	"github.com/goliatone/go-survey-relay/pkg/config"
	"github.com/goliatone/go-survey-relay/pkg/status"
	"github.com/goliatone/go-survey-relay/pkg/vendors"
)

// GomrKey is the vendor key of the built-in Global Opinion MR vendor.
const GomrKey = "gomr"

// GomrTemplates returns the built-in gomr return URLs under base.
func GomrTemplates(base string) map[status.Status]string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	return map[status.Status]string{
		status.Complete:  base + "/complete?pid={pid}&uid={uid}",
		status.Terminate: base + "/terminate?pid={pid}&uid={uid}",
		status.Quota:     base + "/quotafull?pid={pid}&uid={uid}",
	}
}

// BuildVendors turns vendor configuration into the vendor list. Project ids
// read from the environment are resolved once, here.
func BuildVendors(cfg config.VendorsConfig, getenv func(string) string) ([]vendors.Vendor, error) {
	var out []vendors.Vendor
	if cfg.Gomr.IsEnabled() {
		out = append(out, vendors.NewTemplateVendor(GomrKey, vendors.Mode(cfg.Gomr.Mode),
			GomrTemplates(cfg.Gomr.BaseURL), vendors.StaticProjectID(cfg.Gomr.ProjectID)))
	}
	for i, vc := range cfg.Custom {
		projectID := vc.ProjectID
		if env := strings.TrimSpace(vc.ProjectIDEnv); env != "" && getenv != nil {
			if v := strings.TrimSpace(getenv(env)); v != "" {
				projectID = v
			}
		}
		mode := vendors.Mode(vc.Mode)
		pid := vendors.StaticProjectID(projectID)
		switch {
		case vc.Query != nil:
			out = append(out, vendors.NewQueryVendor(vc.Key, mode, vendors.QuerySpec{
				BaseURL:      vc.Query.BaseURL,
				StatusParam:  vc.Query.StatusParam,
				StatusCodes:  statusMap(vc.Query.StatusCodes),
				IDParam:      vc.Query.IDParam,
				ProjectParam: vc.Query.ProjectParam,
				Params:       vc.Query.Params,
			}, pid))
		case len(vc.Templates) > 0:
			out = append(out, vendors.NewTemplateVendor(vc.Key, mode, statusMap(vc.Templates), pid))
		default:
			return nil, fmt.Errorf("di: vendors.custom[%d] %q has neither templates nor query", i, vc.Key)
		}
	}
	return out, nil
}

// BuildCells converts cell configuration into table entries.
func BuildCells(list []config.CellConfig) []cells.Cell {
	out := make([]cells.Cell, 0, len(list))
	for _, c := range list {
		out = append(out, cells.Cell{
			Key:             c.Key,
			StartURL:        c.StartURL,
			Project:         c.Project,
			IDParam:         c.IDParam,
			SecondaryParams: c.SecondaryParams,
		})
	}
	return out
}

func statusMap(in map[string]string) map[status.Status]string {
	out := make(map[status.Status]string, len(in))
	for name, value := range in {
		out[status.Status(strings.ToLower(strings.TrimSpace(name)))] = value
	}
	return out
}
