package fred

import (
	"errors"
	"testing"
)

func TestValuesMinimalQuery(t *testing.T) {
	q := Query{SeriesID: "GDP"}
	vals, err := q.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(vals) != 2 {
		t.Errorf("expected exactly 2 parameters, got %d: %v", len(vals), vals)
	}
	if got := vals.Get("series_id"); got != "GDP" {
		t.Errorf("expected series_id GDP, got %s", got)
	}
	if got := vals.Get("file_type"); got != "json" {
		t.Errorf("expected file_type json, got %s", got)
	}
}

func TestValuesMissingSeriesID(t *testing.T) {
	for _, id := range []string{"", "   ", "\t\n"} {
		q := Query{SeriesID: id}
		_, err := q.Values()
		var argErr *ArgumentError
		if !errors.As(err, &argErr) {
			t.Fatalf("SeriesID %q: expected ArgumentError, got %v", id, err)
		}
		if argErr.Field != "series_id" {
			t.Errorf("expected field series_id, got %s", argErr.Field)
		}
	}
}

func TestValuesAllFields(t *testing.T) {
	q := Query{
		SeriesID:          "UNRATE",
		RealtimeStart:     "2024-01-01",
		RealtimeEnd:       "2024-06-30",
		ObservationStart:  "2020-01-01",
		ObservationEnd:    "2024-01-01",
		Limit:             50,
		Offset:            10,
		SortOrder:         SortDescending,
		Units:             UnitsPercentChange,
		Frequency:         FreqQuarterly,
		AggregationMethod: AggEndOfPeriod,
		OutputType:        2,
		VintageDates:      "2024-01-01,2024-06-01",
	}
	vals, err := q.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}

	want := map[string]string{
		"series_id":          "UNRATE",
		"file_type":          "json",
		"realtime_start":     "2024-01-01",
		"realtime_end":       "2024-06-30",
		"observation_start":  "2020-01-01",
		"observation_end":    "2024-01-01",
		"limit":              "50",
		"offset":             "10",
		"sort_order":         "desc",
		"units":              "pch",
		"frequency":          "q",
		"aggregation_method": "eop",
		"output_type":        "2",
		"vintage_dates":      "2024-01-01,2024-06-01",
	}
	if len(vals) != len(want) {
		t.Errorf("expected %d parameters, got %d: %v", len(want), len(vals), vals)
	}
	for k, v := range want {
		if got := vals.Get(k); got != v {
			t.Errorf("param %s: expected %s, got %s", k, v, got)
		}
	}
}

func TestValuesUnsetFieldsOmitted(t *testing.T) {
	q := Query{SeriesID: "CPIAUCSL", ObservationStart: "2023-01-01"}
	vals, err := q.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	for _, absent := range []string{
		"realtime_start", "realtime_end", "observation_end", "limit",
		"offset", "sort_order", "units", "frequency",
		"aggregation_method", "output_type", "vintage_dates",
	} {
		if vals.Has(absent) {
			t.Errorf("param %s should be absent, got %q", absent, vals.Get(absent))
		}
	}
}

func TestValuesEnumValidation(t *testing.T) {
	tests := []struct {
		name  string
		q     Query
		field string
	}{
		{"bad sort order", Query{SeriesID: "GDP", SortOrder: "upward"}, "sort_order"},
		{"bad units", Query{SeriesID: "GDP", Units: "bananas"}, "units"},
		{"bad frequency", Query{SeriesID: "GDP", Frequency: "hourly"}, "frequency"},
		{"bad aggregation", Query{SeriesID: "GDP", AggregationMethod: "median"}, "aggregation_method"},
		{"negative limit", Query{SeriesID: "GDP", Limit: -5}, "limit"},
		{"negative offset", Query{SeriesID: "GDP", Offset: -1}, "offset"},
		{"output type too low", Query{SeriesID: "GDP", OutputType: -1}, "output_type"},
		{"output type too high", Query{SeriesID: "GDP", OutputType: 5}, "output_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.q.Values()
			var argErr *ArgumentError
			if !errors.As(err, &argErr) {
				t.Fatalf("expected ArgumentError, got %v", err)
			}
			if argErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, argErr.Field)
			}
		})
	}
}

func TestValuesAcceptsEveryEnumValue(t *testing.T) {
	for u := range validUnits {
		q := Query{SeriesID: "GDP", Units: u}
		if _, err := q.Values(); err != nil {
			t.Errorf("units %s: %v", u, err)
		}
	}
	for f := range validFrequencies {
		q := Query{SeriesID: "GDP", Frequency: f}
		if _, err := q.Values(); err != nil {
			t.Errorf("frequency %s: %v", f, err)
		}
	}
	for a := range validAggregations {
		q := Query{SeriesID: "GDP", AggregationMethod: a}
		if _, err := q.Values(); err != nil {
			t.Errorf("aggregation %s: %v", a, err)
		}
	}
	for s := range validSortOrders {
		q := Query{SeriesID: "GDP", SortOrder: s}
		if _, err := q.Values(); err != nil {
			t.Errorf("sort order %s: %v", s, err)
		}
	}
}

func TestValuesFrequencyCount(t *testing.T) {
	if len(validFrequencies) != 16 {
		t.Errorf("expected 16 frequencies, got %d", len(validFrequencies))
	}
	if len(validUnits) != 9 {
		t.Errorf("expected 9 units, got %d", len(validUnits))
	}
}

func TestValuesOutputTypeRange(t *testing.T) {
	for ot := 1; ot <= 4; ot++ {
		q := Query{SeriesID: "GDP", OutputType: ot}
		vals, err := q.Values()
		if err != nil {
			t.Fatalf("output_type %d: %v", ot, err)
		}
		if got := vals.Get("output_type"); got == "" {
			t.Errorf("output_type %d should be serialized", ot)
		}
	}
}
