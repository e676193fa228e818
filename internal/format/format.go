package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stravagram/stravagram/internal/service/strava"
)

const (
	activityURL = "https://www.strava.com/activities/"
	athleteURL  = "https://www.strava.com/athletes/"
)

// Scope selects which stat sections make it into the message.
type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeYear Scope = "year"
)

// Formatter turns typed provider payloads into MarkdownV2 messages. It is
// pure: same input, same locale, byte-identical output. Fields missing from
// the payload are left out of the message, never reported as errors.
type Formatter struct {
	locales map[string]Locale
}

func New() (*Formatter, error) {
	locales, err := loadLocales()
	if err != nil {
		return nil, err
	}

	return &Formatter{locales: locales}, nil
}

func (f *Formatter) locale(lang string) Locale {
	if loc, ok := f.locales[lang]; ok {
		return loc
	}
	return f.locales[DefaultLang]
}

// Message returns a canned bot reply for the locale, formatted with args.
func (f *Formatter) Message(lang string, key string, args ...any) string {
	tpl, ok := f.locale(lang).Messages[key]
	if !ok {
		tpl = f.locales[DefaultLang].Messages[key]
	}
	if len(args) == 0 {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}

// Stats renders per-category totals. Categories with no activities are
// skipped; an all-empty account gets the dedicated message.
func (f *Formatter) Stats(stats strava.AthleteStats, scope Scope, lang string) string {
	loc := f.locale(lang)

	sections := []struct {
		key    string
		totals strava.ActivityTotals
	}{
		{"all_ride", stats.AllRideTotals},
		{"all_run", stats.AllRunTotals},
		{"ytd_ride", stats.YTDRideTotals},
		{"ytd_run", stats.YTDRunTotals},
	}
	if scope == ScopeYear {
		sections = sections[2:]
	}

	var b strings.Builder
	for _, s := range sections {
		if s.totals.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "`%s`\n", loc.Stats[s.key])
		fmt.Fprintf(&b, "*%s:* %d\n", loc.Stats["count"], s.totals.Count)
		fmt.Fprintf(&b, "*%s:* %s km\n", loc.Stats["distance"], distanceKm(s.totals.Distance))
		fmt.Fprintf(&b, "*%s:* `%s`\n", loc.Stats["moving_time"], duration(s.totals.MovingTime))
		fmt.Fprintf(&b, "*%s:* `%s`\n", loc.Stats["elapsed_time"], duration(s.totals.ElapsedTime))
		fmt.Fprintf(&b, "*%s:* %s m\n", loc.Stats["elevation_gain"], esc(fmt.Sprintf("%.0f", s.totals.ElevationGain)))
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return f.Message(lang, "no_stats_data")
	}
	return b.String()
}

// Activities renders a chronological summary list with per-activity links.
func (f *Formatter) Activities(activities []strava.ActivitySummary, lang string) string {
	loc := f.locale(lang)

	var b strings.Builder
	for _, a := range activities {
		fmt.Fprintf(&b, "*%s* \\| `%s`\n", localDate(a.StartDateLocal), esc(strings.TrimSpace(a.Name)))
		fmt.Fprintf(&b, "%s km %s \\| %s: /activity%d\n\n",
			distanceKm(a.Distance), esc(strings.ToLower(a.Type)), loc.Activity["more_data"], a.ID)
	}

	return b.String()
}

// Activity renders the full detail of one activity.
func (f *Formatter) Activity(a strava.Activity, lang string) string {
	loc := f.locale(lang)
	kind := strings.ToLower(a.Type)

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* \\| `%s`\n", localDate(a.StartDateLocal), esc(strings.TrimSpace(a.Name)))
	if a.Description != "" {
		fmt.Fprintf(&b, "_%s_\n", esc(a.Description))
	}
	fmt.Fprintf(&b, "`%s km` %s with `%s m` %s\n",
		distanceKm(a.Distance), esc(kind), esc(fmt.Sprintf("%.0f", a.TotalElevationGain)), loc.Activity["elevation"])

	if a.AverageSpeed > 0 && a.MaxSpeed > 0 {
		if kind == "run" {
			fmt.Fprintf(&b, "*%s:* `%s` \\| *%s:* `%s`\n",
				loc.Activity["average_pace"], pace(a.AverageSpeed),
				loc.Activity["maximum_pace"], pace(a.MaxSpeed))
		} else {
			fmt.Fprintf(&b, "*%s:* `%s km/h` \\| *%s:* `%s km/h`\n",
				loc.Activity["average_speed"], speedKmh(a.AverageSpeed),
				loc.Activity["maximum_speed"], speedKmh(a.MaxSpeed))
		}
	}

	fmt.Fprintf(&b, "*%s:* `%s` \\| *%s:* `%s`\n",
		loc.Activity["moving_time"], duration(a.MovingTime),
		loc.Activity["elapsed_time"], duration(a.ElapsedTime))

	if a.ElapsedTime > 0 {
		idle := a.ElapsedTime - a.MovingTime
		fmt.Fprintf(&b, "*%s:* `%s` \\| *%s:* `%s %%`\n",
			loc.Activity["idle_time"], duration(idle),
			loc.Activity["idle_percent"], percent(idle, a.ElapsedTime))
	}

	if a.DeviceName != "" {
		fmt.Fprintf(&b, "*%s:* %s\n", loc.Activity["device"], esc(a.DeviceName))
	}
	if a.Gear != nil {
		name := a.Gear.Nickname
		if name == "" {
			name = a.Gear.Name
		}
		if name != "" {
			fmt.Fprintf(&b, "*%s:* %s\n", loc.Activity["gear"], esc(name))
		}
	}

	fmt.Fprintf(&b, "[%s](%s%d)\n\n", loc.Activity["view_on_strava"], activityURL, a.ID)
	fmt.Fprintf(&b, "*%s:* /download%d", loc.Activity["download_gpx"], a.ID)

	return b.String()
}

// Segment renders one segment detail.
func (f *Formatter) Segment(s strava.Segment, lang string) string {
	loc := f.locale(lang)

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* \\| %s\n", esc(strings.TrimSpace(s.Name)), esc(strings.ToLower(s.ActivityType)))
	fmt.Fprintf(&b, "*%s:* `%s km`\n", loc.Segment["distance"], distanceKm(s.Distance))
	fmt.Fprintf(&b, "*%s:* `%s %%` \\| *%s:* `%s %%`\n",
		loc.Segment["average_grade"], esc(fmt.Sprintf("%.1f", s.AverageGrade)),
		loc.Segment["maximum_grade"], esc(fmt.Sprintf("%.1f", s.MaximumGrade)))

	location := joinNonEmpty(", ", s.City, s.State, s.Country)
	if location != "" {
		fmt.Fprintf(&b, "*%s:* %s\n", loc.Segment["location"], esc(location))
	}

	return b.String()
}

// StarredSegments renders the starred list with per-segment links.
func (f *Formatter) StarredSegments(segments []strava.Segment, lang string) string {
	loc := f.locale(lang)

	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "*%s*\n", esc(strings.TrimSpace(s.Name)))
		fmt.Fprintf(&b, "%s km %s \\| %s: /segment%d\n\n",
			distanceKm(s.Distance), esc(strings.ToLower(s.ActivityType)), loc.Segment["more_data"], s.ID)
	}

	return b.String()
}

// Gear renders one gear detail.
func (f *Formatter) Gear(g strava.Gear, lang string) string {
	loc := f.locale(lang)

	name := g.Nickname
	if name == "" {
		name = g.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", esc(name))

	if g.BrandName != "" {
		fmt.Fprintf(&b, "*%s:* %s\n", loc.Gear["brand"], esc(g.BrandName))
	}
	if g.ModelName != "" {
		fmt.Fprintf(&b, "*%s:* %s\n", loc.Gear["model"], esc(g.ModelName))
	}
	fmt.Fprintf(&b, "*%s:* `%s km`\n", loc.Gear["distance"], distanceKm(g.Distance))
	if g.Description != "" {
		fmt.Fprintf(&b, "_%s_\n", esc(g.Description))
	}

	return b.String()
}

// Users renders the admin report: every stored athlete id linked to its
// Strava profile, in insertion order.
func (f *Formatter) Users(stravaIDs []int64, lang string) string {
	loc := f.locale(lang)

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", loc.Users["header"])
	for _, id := range stravaIDs {
		s := strconv.FormatInt(id, 10)
		fmt.Fprintf(&b, "[%s](%s%s)\n", s, athleteURL, s)
	}

	return b.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
