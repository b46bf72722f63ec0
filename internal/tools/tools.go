// Package tools declares the tool surface: each tool binds the FRED client,
// the snapshot store and the news fetcher into an mcp.Tool definition shared
// by every transport (MCP stdio, HTTP, CLI).
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/seenimoa/macrolens/internal/fred"
	"github.com/seenimoa/macrolens/internal/mcp"
	"github.com/seenimoa/macrolens/internal/news"
	"github.com/seenimoa/macrolens/internal/snapshot"
)

// Tool names as exposed to agents.
const (
	NameGetSeriesObservations = "get_series_observations"
	NameGetSeriesHistory      = "get_series_history"
	NameListHistory           = "list_history"
	NameListSavedSeries       = "list_saved_series"
	NameGetEconomicNews       = "get_economic_news"
)

// Defaults applied when an argument is absent. Values() never injects
// these; the tool boundary owns them.
const (
	defaultLimit      = 10
	defaultOffset     = 0
	defaultSortOrder  = fred.SortAscending
	defaultUnits      = fred.UnitsLevels
	defaultAgg        = fred.AggAverage
	defaultOutputType = 1
	defaultNewsLimit  = 10
)

// EventSink receives domain events for broadcast surfaces. Implementations
// must not block the caller.
type EventSink interface {
	Publish(event string, payload any)
}

// Deps carries everything the tool handlers need.
type Deps struct {
	Client *fred.Client
	Store  *snapshot.Store
	News   *news.Fetcher
	Log    *zap.Logger

	// SnapshotsEnabled gates the best-effort persistence after each fetch.
	SnapshotsEnabled bool
	// HistoryLimit is how many records the history digest loads. Zero
	// means 3.
	HistoryLimit int
	// Events is optional; nil means no broadcasts.
	Events EventSink
}

func (d *Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d *Deps) historyLimit() int {
	if d.HistoryLimit <= 0 {
		return 3
	}
	return d.HistoryLimit
}

func (d *Deps) publish(event string, payload any) {
	if d.Events != nil {
		d.Events.Publish(event, payload)
	}
}

// Register adds every tool definition to the registry.
func Register(reg *mcp.Registry, deps *Deps) {
	reg.Register(getSeriesObservationsTool(deps))
	reg.Register(getSeriesHistoryTool(deps))
	reg.Register(listHistoryTool(deps))
	reg.Register(listSavedSeriesTool(deps))
	reg.Register(getEconomicNewsTool(deps))
}

// NewRegistry builds a registry with all tools registered.
func NewRegistry(deps *Deps) *mcp.Registry {
	reg := mcp.NewRegistry()
	Register(reg, deps)
	return reg
}

// flexInt accepts JSON numbers and digit strings. Agent runtimes disagree
// about which one an "integer" parameter arrives as.
type flexInt struct {
	set bool
	val int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	f.set = true
	f.val = n
	return nil
}

func (f flexInt) or(def int) int {
	if f.set {
		return f.val
	}
	return def
}

// --- get_series_observations ---

type observationsArgs struct {
	SeriesID          string  `json:"series_id"`
	RealtimeStart     string  `json:"realtime_start"`
	RealtimeEnd       string  `json:"realtime_end"`
	Limit             flexInt `json:"limit"`
	Offset            flexInt `json:"offset"`
	SortOrder         string  `json:"sort_order"`
	ObservationStart  string  `json:"observation_start"`
	ObservationEnd    string  `json:"observation_end"`
	Units             string  `json:"units"`
	Frequency         string  `json:"frequency"`
	AggregationMethod string  `json:"aggregation_method"`
	OutputType        flexInt `json:"output_type"`
	VintageDates      string  `json:"vintage_dates"`
}

func (a observationsArgs) toQuery() fred.Query {
	q := fred.Query{
		SeriesID:          a.SeriesID,
		RealtimeStart:     a.RealtimeStart,
		RealtimeEnd:       a.RealtimeEnd,
		ObservationStart:  a.ObservationStart,
		ObservationEnd:    a.ObservationEnd,
		Limit:             a.Limit.or(defaultLimit),
		Offset:            a.Offset.or(defaultOffset),
		SortOrder:         defaultSortOrder,
		Units:             defaultUnits,
		AggregationMethod: defaultAgg,
		OutputType:        a.OutputType.or(defaultOutputType),
		VintageDates:      a.VintageDates,
	}
	if a.SortOrder != "" {
		q.SortOrder = fred.SortOrder(a.SortOrder)
	}
	if a.Units != "" {
		q.Units = fred.Units(a.Units)
	}
	if a.Frequency != "" {
		q.Frequency = fred.Frequency(a.Frequency)
	}
	if a.AggregationMethod != "" {
		q.AggregationMethod = fred.AggregationMethod(a.AggregationMethod)
	}
	return q
}

func getSeriesObservationsTool(deps *Deps) mcp.Tool {
	params := mcp.ObjectSchema("Parameters for a FRED series/observations request.",
		map[string]*mcp.JSONSchema{
			"series_id":         mcp.StringProp("The id for a series."),
			"realtime_start":    mcp.StringProp("The start of the real-time period. Format: YYYY-MM-DD. Defaults to today's date."),
			"realtime_end":      mcp.StringProp("The end of the real-time period. Format: YYYY-MM-DD. Defaults to today's date."),
			"limit":             mcp.WithDefault(mcp.IntProp("Maximum number of observations to return."), defaultLimit),
			"offset":            mcp.WithDefault(mcp.IntProp("Number of observations to offset from first."), defaultOffset),
			"sort_order":        mcp.WithDefault(mcp.EnumProp("Sort order of observations.", "asc", "desc"), string(defaultSortOrder)),
			"observation_start": mcp.StringProp("Start date of observations. Format: YYYY-MM-DD."),
			"observation_end":   mcp.StringProp("End date of observations. Format: YYYY-MM-DD."),
			"units": mcp.WithDefault(mcp.EnumProp("Data value transformation.",
				"lin", "chg", "ch1", "pch", "pc1", "pca", "cch", "cca", "log"), string(defaultUnits)),
			"frequency": mcp.EnumProp("Frequency aggregation of observations. Defaults to no aggregation.",
				"d", "w", "bw", "m", "q", "sa", "a",
				"wef", "weth", "wew", "wetu", "wem", "wesu", "wesa", "bwew", "bwem"),
			"aggregation_method": mcp.WithDefault(mcp.EnumProp("Aggregation method for frequency.", "avg", "sum", "eop"), string(defaultAgg)),
			"output_type":        mcp.WithDefault(mcp.IntProp("Output type of observations: 1, 2, 3 or 4."), defaultOutputType),
			"vintage_dates":      mcp.StringProp("Comma-separated list of vintage dates."),
		}, "series_id")

	return mcp.Tool{
		Name:        NameGetSeriesObservations,
		Description: "Get observations for a FRED economic data series.",
		Parameters:  params,
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args observationsArgs
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}

			q := args.toQuery()
			resp, err := deps.Client.SeriesObservations(ctx, q)
			if err != nil {
				return "", err
			}
			obs, err := fred.ExtractObservations(resp)
			if err != nil {
				return "", err
			}

			log := deps.logger()
			log.Info("fetched series",
				zap.String("series_id", q.SeriesID),
				zap.Int("observations", len(obs)))
			deps.publish("series_fetched", map[string]any{
				"series_id":    q.SeriesID,
				"observations": len(obs),
			})

			if deps.SnapshotsEnabled && deps.Store != nil {
				res := deps.Store.Save(snapshot.NewRecord(q.SeriesID, resp, q.Limit))
				if res.Err != nil {
					log.Warn("snapshot write failed",
						zap.String("series_id", q.SeriesID),
						zap.Error(res.Err))
				} else {
					log.Debug("snapshot saved", zap.String("path", res.Path))
					deps.publish("snapshot_saved", map[string]any{
						"series_id": q.SeriesID,
						"path":      res.Path,
					})
				}
			}

			return marshalResult(obs)
		},
	}
}

// --- get_series_history ---

func getSeriesHistoryTool(deps *Deps) mcp.Tool {
	params := mcp.ObjectSchema("Parameters for a saved-history digest.",
		map[string]*mcp.JSONSchema{
			"series_id": mcp.StringProp("The id for a series."),
		}, "series_id")

	return mcp.Tool{
		Name:        NameGetSeriesHistory,
		Description: "Summarize locally saved snapshots for a series: capture times, date ranges and the most recent values.",
		Parameters:  params,
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			seriesID, err := seriesIDArg(raw)
			if err != nil {
				return "", err
			}
			records, err := deps.Store.LoadRecent(seriesID, deps.historyLimit())
			if err != nil {
				return "", err
			}
			return snapshot.FormatHistory(seriesID, records), nil
		},
	}
}

// --- list_history ---

func listHistoryTool(deps *Deps) mcp.Tool {
	params := mcp.ObjectSchema("Parameters for listing stored snapshot files.",
		map[string]*mcp.JSONSchema{
			"series_id": mcp.StringProp("The id for a series."),
		}, "series_id")

	return mcp.Tool{
		Name:        NameListHistory,
		Description: "List stored snapshot filenames for a series, newest first.",
		Parameters:  params,
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			seriesID, err := seriesIDArg(raw)
			if err != nil {
				return "", err
			}
			names, err := deps.Store.List(seriesID)
			if err != nil {
				return "", err
			}
			if names == nil {
				names = []string{}
			}
			return marshalResult(names)
		},
	}
}

// --- list_saved_series ---

func listSavedSeriesTool(deps *Deps) mcp.Tool {
	return mcp.Tool{
		Name:        NameListSavedSeries,
		Description: "List every series id with at least one stored snapshot.",
		Parameters:  mcp.ObjectSchema("No parameters.", map[string]*mcp.JSONSchema{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			ids, err := deps.Store.ListAllSeries()
			if err != nil {
				return "", err
			}
			if ids == nil {
				ids = []string{}
			}
			return marshalResult(ids)
		},
	}
}

// --- get_economic_news ---

func getEconomicNewsTool(deps *Deps) mcp.Tool {
	params := mcp.ObjectSchema("Parameters for recent economic news.",
		map[string]*mcp.JSONSchema{
			"limit": mcp.WithDefault(mcp.IntProp("Maximum number of articles to return."), defaultNewsLimit),
		})

	return mcp.Tool{
		Name:        NameGetEconomicNews,
		Description: "Get recent macroeconomic news from Federal Reserve and statistical-agency feeds.",
		Parameters:  params,
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Limit flexInt `json:"limit"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			articles, err := deps.News.Recent(ctx, args.Limit.or(defaultNewsLimit))
			if err != nil {
				return "", err
			}
			if articles == nil {
				articles = []news.Article{}
			}
			return marshalResult(articles)
		},
	}
}

// --- Shared helpers ---

// decodeArgs unmarshals raw tool arguments. A nil/empty payload is an empty
// argument set, not an error.
func decodeArgs(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &fred.ArgumentError{Field: "arguments", Reason: err.Error()}
	}
	return nil
}

func seriesIDArg(raw json.RawMessage) (string, error) {
	var args struct {
		SeriesID string `json:"series_id"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.SeriesID) == "" {
		return "", &fred.ArgumentError{Field: "series_id", Reason: "must be a non-empty string"}
	}
	return args.SeriesID, nil
}

func marshalResult(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}
