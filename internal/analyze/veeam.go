package analyze

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"reportaudit/internal/checks"
	"reportaudit/internal/model"
	"reportaudit/internal/registry"
)

// veeamAnalyzer extends the generic metrics with per-VM backup semantics:
// a failed job that succeeds again by the next calendar day counts as
// recovered, only unrecovered failures drive the harsher deductions.
type veeamAnalyzer struct {
	genericAnalyzer
}

func (a veeamAnalyzer) Analyze(ctx context.Context, def *registry.Definition, table *model.ParsedTable) (Findings, error) {
	findings, err := a.genericAnalyzer.Analyze(ctx, def, table)
	if err != nil {
		return findings, err
	}

	engine := checks.NewEngine(table, def.FieldMappings, def.FuzzyThreshold)
	vmColumn, haveVM := engine.ResolveField("vm_name")
	dateColumn, haveDate := engine.ResolveField("date")
	statusColumn, haveStatus := engine.ResolveField("status")
	if !haveStatus {
		return findings, nil
	}

	total := len(table.Rows)
	failures := findings.Metrics["failed_count"]
	warnings := findings.Metrics["warning_count"]
	if total > 0 {
		findings.Metrics["failure_rate"] = failures / float64(total) * 100
		findings.Metrics["warning_rate"] = warnings / float64(total) * 100
	}

	if transferredColumn, ok := engine.ResolveField("transferred"); ok {
		totalGB := 0.0
		for _, row := range table.Rows {
			if gb, ok := parseDataSizeGB(row[transferredColumn]); ok {
				totalGB += gb
			}
		}
		findings.Metrics["transferred_gb"] = totalGB
		findings.Fields["transferredGB"] = math.Round(totalGB*100) / 100
	}

	if !haveVM || !haveDate {
		return findings, nil
	}

	type jobDay struct {
		date   checks.ParsedDate
		status string
	}
	perVM := make(map[string][]jobDay)
	var allDates []string
	for _, row := range table.Rows {
		if v := row[dateColumn]; v != "" {
			allDates = append(allDates, v)
		}
	}
	if len(allDates) == 0 {
		return findings, nil
	}
	format := checks.DetectFormat(allDates)

	if first, last, ok := periodBounds(allDates, format); ok {
		findings.Fields["periodStart"] = first.Format("2006-01-02")
		findings.Fields["periodEnd"] = last.Format("2006-01-02")
	}

	vmNames := make(map[string]bool)
	for _, row := range table.Rows {
		vm := row[vmColumn]
		if vm == "" {
			continue
		}
		vmNames[vm] = true
		date, err := format.Parse(row[dateColumn])
		if err != nil {
			continue
		}
		perVM[vm] = append(perVM[vm], jobDay{date: date, status: engine.ClassifyValue("status", row[statusColumn])})
	}
	findings.Metrics["vm_count"] = float64(len(vmNames))
	findings.Fields["vmCount"] = len(vmNames)

	unrecovered := 0
	vmMissing := 0
	for _, jobs := range perVM {
		byDay := make(map[string]string, len(jobs))
		dates := make([]checks.ParsedDate, 0, len(jobs))
		for _, job := range jobs {
			dates = append(dates, job.date)
			key := job.date.Date().Format("2006-01-02")
			// A success on the same day supersedes an earlier failure.
			if byDay[key] != "success" {
				byDay[key] = job.status
			}
		}
		for _, job := range jobs {
			if job.status != "failed" {
				continue
			}
			next := job.date.Date().AddDate(0, 0, 1).Format("2006-01-02")
			if byDay[next] != "success" {
				unrecovered++
			}
		}
		if year, month, ok := checks.ReportMonth(dates); ok {
			present := make(map[int]bool)
			for _, job := range jobs {
				if job.date.Year == year && job.date.Month == month {
					present[job.date.Day] = true
				}
			}
			vmMissing += len(checks.MissingDays(year, month, present))
		}
	}
	findings.Metrics["unrecovered_failures"] = float64(unrecovered)
	findings.Metrics["vm_missing_days"] = float64(vmMissing)

	return findings, nil
}

// periodBounds returns the earliest and latest parseable dates.
func periodBounds(values []string, format checks.DateFormat) (time.Time, time.Time, bool) {
	var first, last time.Time
	found := false
	for _, value := range values {
		date, err := format.Parse(value)
		if err != nil {
			continue
		}
		t := date.Date()
		if !found || t.Before(first) {
			first = t
		}
		if !found || t.After(last) {
			last = t
		}
		found = true
	}
	return first, last, found
}

// parseDataSizeGB reads values like "12.5 GB", "640MB" or "1,2 TB" into
// gigabytes. Bare numbers are taken as gigabytes already.
func parseDataSizeGB(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0, false
	}
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(strings.TrimSpace(s[end:])) {
	case "", "GB", "GIB":
		return value, true
	case "KB", "KIB":
		return value / (1024 * 1024), true
	case "MB", "MIB":
		return value / 1024, true
	case "TB", "TIB":
		return value * 1024, true
	}
	return 0, false
}
