package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/sheets"
)

const recordsCacheKey = "records"

// ErrInvalidBucket is returned when a selected bucket index is outside
// the series.
var ErrInvalidBucket = errors.New("bucket index out of range")

// RecordCache holds the loaded record snapshot.
type RecordCache interface {
	GetOrLoad(key string, load func() ([]core.Record, error)) ([]core.Record, error)
}

// Query selects the range, granularity, grouping and filter of an
// analytics view. A resolvable Preset wins over From/To.
type Query struct {
	From   string
	To     string
	Preset analytics.Preset
	Mode   analytics.BucketMode
	Group  analytics.Grouping
	Person string
	// Bucket, when set, narrows the group totals to that bucket.
	Bucket *int
}

// Result is everything the dashboard shows for one query.
type Result struct {
	Empty          bool                   `json:"empty"`
	Start          core.Date              `json:"start"`
	End            core.Date              `json:"end"`
	Mode           analytics.BucketMode   `json:"mode"`
	Options        []analytics.BucketMode `json:"options"`
	Series         analytics.BucketSeries `json:"series"`
	Total          core.Money             `json:"total"`
	AveragePerDay  core.Money             `json:"average_per_day"`
	Group          analytics.Grouping     `json:"group"`
	Groups         []analytics.Share      `json:"groups"`
	GroupStats     analytics.Stats        `json:"group_stats"`
	TopGroup       string                 `json:"top_group"`
	TopTotal       core.Money             `json:"top_total"`
	SelectedBucket *analytics.Bucket      `json:"selected_bucket,omitempty"`
}

// AnalyticsService loads records once per cache lifetime and runs the
// engine over them.
type AnalyticsService struct {
	lister   sheets.RecordLister
	cache    RecordCache
	settings Settings
	now      func() time.Time
}

// NewAnalyticsService wires the service. cache may be nil.
func NewAnalyticsService(lister sheets.RecordLister, cache RecordCache, settings Settings) *AnalyticsService {
	return &AnalyticsService{
		lister:   lister,
		cache:    cache,
		settings: settings.normalize(),
		now:      time.Now,
	}
}

func (s *AnalyticsService) today() core.Date {
	return core.Today(s.now())
}

func (s *AnalyticsService) records(ctx context.Context) ([]core.Record, error) {
	load := func() ([]core.Record, error) {
		recs, err := s.lister.ListRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		slog.DebugContext(ctx, "Records loaded", "count", len(recs))
		return recs, nil
	}
	if s.cache == nil {
		return load()
	}
	return s.cache.GetOrLoad(recordsCacheKey, load)
}

// resolve picks the range of q: the preset when it resolves, otherwise
// From/To over the data extent.
func (s *AnalyticsService) resolve(records []core.Record, q Query) (core.Date, core.Date, bool) {
	if q.Preset != "" {
		if start, end, ok := analytics.ResolvePreset(q.Preset, s.today()); ok {
			return start, end, true
		}
	}
	return analytics.ResolveRange(records, s.settings.InputFormats, q.From, q.To)
}

// Analyze computes the bar series and the group view of q. The two
// aggregations run concurrently.
func (s *AnalyticsService) Analyze(ctx context.Context, q Query) (Result, error) {
	all, err := s.records(ctx)
	if err != nil {
		return Result{}, err
	}
	if q.Group == "" {
		q.Group = analytics.GroupCategory
	}

	// The default range is the extent of the person's own records.
	records := analytics.FilterRecords(all, analytics.Filter{Person: q.Person})
	start, end, ok := s.resolve(records, q)
	if !ok {
		return Result{Empty: true, Group: q.Group, Series: analytics.BucketSeries{}}, nil
	}
	mode := analytics.PickMode(q.Mode, start, end)

	res := Result{
		Start:   start,
		End:     end,
		Mode:    mode,
		Options: analytics.GranularityOptions(start, end),
		Group:   q.Group,
	}

	groupStart, groupEnd := start, end
	if q.Bucket != nil {
		buckets := analytics.Bucketize(start, end, mode)
		if *q.Bucket < 0 || *q.Bucket >= len(buckets) {
			return Result{}, fmt.Errorf("bucket %d of %d: %w", *q.Bucket, len(buckets), ErrInvalidBucket)
		}
		b := buckets[*q.Bucket]
		res.SelectedBucket = &b
		groupStart, groupEnd = b.Start, b.End
	}

	var groups analytics.GroupTotals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res.Series = analytics.AggregateByBucket(records, start, end, mode, s.settings.InputFormats)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		groups, res.GroupStats = analytics.AggregateByGroup(records, groupStart, groupEnd, q.Group, s.settings.InputFormats)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if n := res.Series.Stats.InvalidAmount; n > 0 {
		slog.WarnContext(ctx, "Records with malformed amounts counted as zero", "count", n)
	}

	res.Total = res.Series.Total()
	res.AveragePerDay = analytics.AveragePerDay(res.Total, start, end)
	res.Groups = analytics.Shares(groups)
	res.TopGroup, res.TopTotal, _ = analytics.TopGroup(groups)
	return res, nil
}

// Records returns the records of person within the range given by from
// and to. Blank bounds default to the data extent.
func (s *AnalyticsService) Records(ctx context.Context, from, to, person string) ([]core.Record, error) {
	all, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	records := analytics.FilterRecords(all, analytics.Filter{Person: person})
	if strings.TrimSpace(from) == "" && strings.TrimSpace(to) == "" {
		return records, nil
	}
	start, end, ok := analytics.ResolveRange(records, s.settings.InputFormats, from, to)
	if !ok {
		return nil, nil
	}
	return analytics.FilterByDate(records, start, end, s.settings.InputFormats), nil
}

// Overview compares this month with the last and returns the trailing
// monthly series.
func (s *AnalyticsService) Overview(ctx context.Context, months int) (analytics.Overview, error) {
	all, err := s.records(ctx)
	if err != nil {
		return analytics.Overview{}, err
	}
	if months <= 0 {
		months = analytics.DefaultOverviewMonths
	}
	return analytics.MonthlyOverview(all, s.today(), s.settings.InputFormats, months), nil
}

// Summary renders the analytics of q and the month overview as text with
// display-formatted money.
func (s *AnalyticsService) Summary(ctx context.Context, q Query) (string, error) {
	res, err := s.Analyze(ctx, q)
	if err != nil {
		return "", err
	}
	ov, err := s.Overview(ctx, 0)
	if err != nil {
		return "", err
	}

	money := func(m core.Money) string {
		return core.FormatMoney(m, s.settings.Currency, s.settings.Locale)
	}
	var b strings.Builder
	if res.Empty {
		b.WriteString("No expenses recorded.\n")
	} else {
		date := func(d core.Date) string { return core.FormatDate(d, s.settings.DateFormat) }
		fmt.Fprintf(&b, "Period: %s - %s\n", date(res.Start), date(res.End))
		fmt.Fprintf(&b, "Total: %s\n", money(res.Total))
		fmt.Fprintf(&b, "Average per day: %s\n", money(res.AveragePerDay))
		if res.TopGroup == analytics.NoGroup {
			fmt.Fprintf(&b, "Top %s: %s\n", res.Group, analytics.NoGroup)
		} else {
			fmt.Fprintf(&b, "Top %s: %s (%s)\n", res.Group, res.TopGroup, money(res.TopTotal))
		}
	}
	fmt.Fprintf(&b, "This month: %s\n", money(ov.ThisMonth))
	fmt.Fprintf(&b, "Last month: %s\n", money(ov.LastMonth))
	fmt.Fprintf(&b, "Month over month: %s\n", ov.Change.String())
	return b.String(), nil
}
