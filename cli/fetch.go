package cli

import (
	"context"
	"fmt"

	"github.com/giygas/smpc-comparator/config"
	"github.com/giygas/smpc-comparator/logging"
	"github.com/giygas/smpc-comparator/record"
	"github.com/giygas/smpc-comparator/smpcclient"
	"github.com/giygas/smpc-comparator/validation"
)

// fetchRecords downloads the record set once, outside of any server
func fetchRecords(ctx context.Context, cfg *config.Config) ([]record.Record, error) {
	client := smpcclient.NewClient(cfg.SMPCAPIURL, cfg.FetchTimeout, cfg.MaxUpstreamBody)

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	records, decoded, err := client.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("data fetch failed: %w", err)
	}

	report := validation.NewDataValidator().ReportDataQuality(records, decoded)
	logging.Debug("Records fetched",
		"records", report.TotalRecords,
		"skipped_elements", report.SkippedElements,
		"duplicate_keys", len(report.DuplicateKeys))
	return records, nil
}

// indexByKey maps keys to records; the first record wins on duplicates
func indexByKey(records []record.Record) map[string]record.Record {
	byKey := make(map[string]record.Record, len(records))
	for _, r := range records {
		if _, dup := byKey[r.Key]; !dup {
			byKey[r.Key] = r
		}
	}
	return byKey
}
