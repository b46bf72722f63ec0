package fred

// ObservationsResponse is the envelope FRED returns from
// series/observations. Everything upstream echoes about the query is kept
// so snapshots can persist it alongside the data.
type ObservationsResponse struct {
	RealtimeStart    string        `json:"realtime_start"`
	RealtimeEnd      string        `json:"realtime_end"`
	ObservationStart string        `json:"observation_start"`
	ObservationEnd   string        `json:"observation_end"`
	Units            string        `json:"units"`
	OutputType       int           `json:"output_type"`
	FileType         string        `json:"file_type"`
	OrderBy          string        `json:"order_by"`
	SortOrder        string        `json:"sort_order"`
	Count            int           `json:"count"`
	Offset           int           `json:"offset"`
	Limit            int           `json:"limit"`
	Observations     []Observation `json:"observations"`
}

// Observation is one upstream data point. Value stays a string end to end:
// FRED marks missing data with a "." sentinel that must pass through
// uninterpreted, never parsed as a number.
type Observation struct {
	RealtimeStart string `json:"realtime_start"`
	RealtimeEnd   string `json:"realtime_end"`
	Date          string `json:"date"`
	Value         string `json:"value"`
}

// empty reports whether the decoded body carried no payload at all
// (`{}` or `null`), as opposed to a populated envelope with zero
// observations.
func (r *ObservationsResponse) empty() bool {
	return r == nil || (r.Observations == nil &&
		r.Count == 0 &&
		r.RealtimeStart == "" &&
		r.Units == "" &&
		r.FileType == "")
}
