package core

import (
	"encoding/json"
	"fmt"

	"github.com/huangsam/monthrank/core/algo"
	"github.com/huangsam/monthrank/schema"
	"github.com/shopspring/decimal"
)

// countryPeak is the running maximum of one country inside a month.
type countryPeak struct {
	country string
	value   decimal.Decimal
	raw     json.Number
	date    string
}

// SummarizePeaks reduces every ranked month to the peak value of each country and
// keeps the top limit countries, highest first. The first record reaching a peak wins
// when values are equal. A limit <= 0 keeps every country.
func SummarizePeaks(data []schema.BucketResult, fields schema.FieldMap, ordering algo.Ordering, limit int) ([]schema.MonthSummary, error) {
	summaries := make([]schema.MonthSummary, 0, len(data))

	for _, month := range data {
		var peaks []*countryPeak
		byCountry := make(map[string]*countryPeak)

		for i, rec := range month.Data {
			country, err := rec.String(fields.Country)
			if err != nil {
				return nil, rankedRecordError(month.Date, i, "invalid country", err)
			}
			num, err := rec.Number(fields.Value)
			if err != nil {
				return nil, rankedRecordError(month.Date, i, "invalid value", err)
			}
			value, err := decimal.NewFromString(num.String())
			if err != nil {
				return nil, rankedRecordError(month.Date, i, "invalid value", err)
			}

			peak, ok := byCountry[country]
			if !ok {
				peak = &countryPeak{country: country, value: value, raw: num, date: recordDate(rec, fields, month.Date)}
				byCountry[country] = peak
				peaks = append(peaks, peak)
				continue
			}
			if value.GreaterThan(peak.value) {
				peak.value, peak.raw = value, num
				peak.date = recordDate(rec, fields, month.Date)
			}
		}

		ranked, err := algo.SortBy(ordering, peaks, func(p *countryPeak) (algo.Key, error) {
			return p.value, nil
		}, algo.Descending)
		if err != nil {
			return nil, fmt.Errorf("failed to rank peaks for %s: %w", month.Date, err)
		}
		if limit > 0 && len(ranked) > limit {
			ranked = ranked[:limit]
		}

		summary := schema.MonthSummary{Date: month.Date, Peaks: make([]schema.CountryPeak, len(ranked))}
		for i, p := range ranked {
			summary.Peaks[i] = schema.CountryPeak{Country: p.country, Value: p.raw, Date: p.date}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// recordDate formats the record's day as "Y-M-D". Without a day field the bucket key is used.
func recordDate(rec *schema.Record, fields schema.FieldMap, fallback string) string {
	year, yErr := rec.Int(fields.Year)
	month, mErr := rec.Int(fields.Month)
	day, dErr := rec.Int(fields.Day)
	if yErr != nil || mErr != nil || dErr != nil {
		return fallback
	}
	return fmt.Sprintf("%d-%d-%d", year, month, day)
}

// rankedRecordError locates a bad record by its month and 1-based rank in the ranked output.
func rankedRecordError(bucket string, pos int, reason string, err error) *RecordError {
	return &RecordError{Index: -1, Bucket: bucket, Rank: pos + 1, Reason: reason, Err: err}
}
