package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims and dedupes list fields and checks everything
// required before any network activity happens. Errors here are fatal to the
// run; warnings are logged and the run proceeds.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Search.Keywords = trimList(out.Search.Keywords)
	out.Search.Countries = trimList(out.Search.Countries)
	out.Search.WorkTypes = trimList(out.Search.WorkTypes)
	out.Search.ContractTypes = trimList(out.Search.ContractTypes)

	if len(out.Search.Keywords) == 0 {
		res.addErr("search.keywords must not be empty")
	}
	if len(out.Search.Countries) == 0 {
		res.addErr("search.countries must not be empty")
	}
	for _, c := range out.Search.Countries {
		if _, ok := out.Search.GeoIDs[c]; !ok {
			res.addWarn("no geo id known for country %q; that search will be skipped", c)
		}
	}
	for _, w := range out.Search.WorkTypes {
		switch w {
		case "Remote", "Hybrid", "On-site":
		default:
			res.addErr("search.work_types contains unknown value %q (want Remote, Hybrid, or On-site)", w)
		}
	}
	if out.Search.Pages > 10 {
		res.addWarn("search.pages is %d; deep paging raises the odds of being blocked", out.Search.Pages)
	}

	if out.Pacing.RequestsPerSec > 3 {
		res.addWarn("pacing.requests_per_sec is %.1f; the upstream service may throttle this", out.Pacing.RequestsPerSec)
	}

	switch out.Store.Backend {
	case "workbook":
		if strings.TrimSpace(out.Store.WorkbookDir) == "" {
			res.addErr("store.workbook_dir is required when store.backend=workbook")
		}
	case "sqlite":
		if strings.TrimSpace(out.Store.SQLitePath) == "" {
			res.addErr("store.sqlite_path is required when store.backend=sqlite")
		}
	case "postgres":
		if strings.TrimSpace(out.Store.PostgresDSN) == "" {
			res.addErr("store.postgres_dsn is required when store.backend=postgres")
		}
	default:
		res.addErr("store.backend must be one of workbook, sqlite, postgres (got %q)", out.Store.Backend)
	}

	if out.Enrich.Enabled {
		if strings.TrimSpace(out.Enrich.CVFile) == "" {
			res.addErr("enrich.cv_file is required when enrich.enabled=true")
		}
	}

	if out.Notify.TelegramEnabled && out.Notify.TelegramChatID == 0 {
		res.addErr("notify.telegram_chat_id is required when notify.telegram_enabled=true")
	}

	return out, res
}
