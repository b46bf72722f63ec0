package fred

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SortOrder controls upstream observation ordering.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Units selects the value transformation FRED applies before returning data.
type Units string

const (
	UnitsLevels                Units = "lin"
	UnitsChange                Units = "chg"
	UnitsChangeFromYearAgo     Units = "ch1"
	UnitsPercentChange         Units = "pch"
	UnitsPercentChangeYearAgo  Units = "pc1"
	UnitsCompoundedAnnualRate  Units = "pca"
	UnitsCompoundedRate        Units = "cch"
	UnitsCompoundedAnnualRateC Units = "cca"
	UnitsNaturalLog            Units = "log"
)

// Frequency aggregates observations to a lower frequency. Week and biweek
// variants pin the period-ending weekday.
type Frequency string

const (
	FreqDaily      Frequency = "d"
	FreqWeekly     Frequency = "w"
	FreqBiweekly   Frequency = "bw"
	FreqMonthly    Frequency = "m"
	FreqQuarterly  Frequency = "q"
	FreqSemiannual Frequency = "sa"
	FreqAnnual     Frequency = "a"

	FreqWeeklyEndingFriday      Frequency = "wef"
	FreqWeeklyEndingThursday    Frequency = "weth"
	FreqWeeklyEndingWednesday   Frequency = "wew"
	FreqWeeklyEndingTuesday     Frequency = "wetu"
	FreqWeeklyEndingMonday      Frequency = "wem"
	FreqWeeklyEndingSunday      Frequency = "wesu"
	FreqWeeklyEndingSaturday    Frequency = "wesa"
	FreqBiweeklyEndingWednesday Frequency = "bwew"
	FreqBiweeklyEndingMonday    Frequency = "bwem"
)

// AggregationMethod controls how values are combined when a frequency is
// set. Upstream ignores it otherwise.
type AggregationMethod string

const (
	AggAverage     AggregationMethod = "avg"
	AggSum         AggregationMethod = "sum"
	AggEndOfPeriod AggregationMethod = "eop"
)

var validSortOrders = map[SortOrder]bool{
	SortAscending:  true,
	SortDescending: true,
}

var validUnits = map[Units]bool{
	UnitsLevels:                true,
	UnitsChange:                true,
	UnitsChangeFromYearAgo:     true,
	UnitsPercentChange:         true,
	UnitsPercentChangeYearAgo:  true,
	UnitsCompoundedAnnualRate:  true,
	UnitsCompoundedRate:        true,
	UnitsCompoundedAnnualRateC: true,
	UnitsNaturalLog:            true,
}

var validFrequencies = map[Frequency]bool{
	FreqDaily:                   true,
	FreqWeekly:                  true,
	FreqBiweekly:                true,
	FreqMonthly:                 true,
	FreqQuarterly:               true,
	FreqSemiannual:              true,
	FreqAnnual:                  true,
	FreqWeeklyEndingFriday:      true,
	FreqWeeklyEndingThursday:    true,
	FreqWeeklyEndingWednesday:   true,
	FreqWeeklyEndingTuesday:     true,
	FreqWeeklyEndingMonday:      true,
	FreqWeeklyEndingSunday:      true,
	FreqWeeklyEndingSaturday:    true,
	FreqBiweeklyEndingWednesday: true,
	FreqBiweeklyEndingMonday:    true,
}

var validAggregations = map[AggregationMethod]bool{
	AggAverage:     true,
	AggSum:         true,
	AggEndOfPeriod: true,
}

// Query describes one series/observations request. Zero-valued optional
// fields are treated as unset and are never serialized: the upstream API
// distinguishes an absent parameter from an explicitly empty one. Dates are
// YYYY-MM-DD strings; VintageDates is a comma-separated list of them.
type Query struct {
	SeriesID string

	RealtimeStart    string
	RealtimeEnd      string
	ObservationStart string
	ObservationEnd   string

	Limit  int
	Offset int

	SortOrder         SortOrder
	Units             Units
	Frequency         Frequency
	AggregationMethod AggregationMethod
	OutputType        int
	VintageDates      string
}

// Values normalizes the query into upstream parameters: exactly the fields
// that are set, plus the fixed file_type. Enum fields are validated here
// instead of being left to the upstream's opaque error text.
func (q Query) Values() (url.Values, error) {
	if strings.TrimSpace(q.SeriesID) == "" {
		return nil, &ArgumentError{Field: "series_id", Reason: "must be a non-empty string"}
	}

	vals := url.Values{}
	vals.Set("series_id", q.SeriesID)
	vals.Set("file_type", "json")

	if q.RealtimeStart != "" {
		vals.Set("realtime_start", q.RealtimeStart)
	}
	if q.RealtimeEnd != "" {
		vals.Set("realtime_end", q.RealtimeEnd)
	}
	if q.ObservationStart != "" {
		vals.Set("observation_start", q.ObservationStart)
	}
	if q.ObservationEnd != "" {
		vals.Set("observation_end", q.ObservationEnd)
	}

	if q.Limit != 0 {
		if q.Limit < 0 {
			return nil, &ArgumentError{Field: "limit", Reason: "must be a positive integer"}
		}
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset != 0 {
		if q.Offset < 0 {
			return nil, &ArgumentError{Field: "offset", Reason: "must be a non-negative integer"}
		}
		vals.Set("offset", strconv.Itoa(q.Offset))
	}

	if q.SortOrder != "" {
		if !validSortOrders[q.SortOrder] {
			return nil, &ArgumentError{Field: "sort_order", Reason: fmt.Sprintf("unknown value %q", q.SortOrder)}
		}
		vals.Set("sort_order", string(q.SortOrder))
	}
	if q.Units != "" {
		if !validUnits[q.Units] {
			return nil, &ArgumentError{Field: "units", Reason: fmt.Sprintf("unknown value %q", q.Units)}
		}
		vals.Set("units", string(q.Units))
	}
	if q.Frequency != "" {
		if !validFrequencies[q.Frequency] {
			return nil, &ArgumentError{Field: "frequency", Reason: fmt.Sprintf("unknown value %q", q.Frequency)}
		}
		vals.Set("frequency", string(q.Frequency))
	}
	if q.AggregationMethod != "" {
		if !validAggregations[q.AggregationMethod] {
			return nil, &ArgumentError{Field: "aggregation_method", Reason: fmt.Sprintf("unknown value %q", q.AggregationMethod)}
		}
		vals.Set("aggregation_method", string(q.AggregationMethod))
	}

	if q.OutputType != 0 {
		if q.OutputType < 1 || q.OutputType > 4 {
			return nil, &ArgumentError{Field: "output_type", Reason: "must be 1, 2, 3 or 4"}
		}
		vals.Set("output_type", strconv.Itoa(q.OutputType))
	}
	if q.VintageDates != "" {
		vals.Set("vintage_dates", q.VintageDates)
	}

	return vals, nil
}
