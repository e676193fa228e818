package strava

// Typed subsets of the Strava REST payloads. Only fields the formatter and
// GPX builder actually consume are mapped; everything else is dropped at
// decode time.

// Totals for one activity category within one scope (all-time or YTD),
// as returned by /athletes/{id}/stats.
type ActivityTotals struct {
	Count         int     `json:"count"`
	Distance      float64 `json:"distance"`
	MovingTime    int64   `json:"moving_time"`
	ElapsedTime   int64   `json:"elapsed_time"`
	ElevationGain float64 `json:"elevation_gain"`
}

type AthleteStats struct {
	AllRideTotals ActivityTotals `json:"all_ride_totals"`
	AllRunTotals  ActivityTotals `json:"all_run_totals"`
	YTDRideTotals ActivityTotals `json:"ytd_ride_totals"`
	YTDRunTotals  ActivityTotals `json:"ytd_run_totals"`
}

// One entry of /athlete/activities.
type ActivitySummary struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Distance       float64 `json:"distance"`
	StartDateLocal string  `json:"start_date_local"`
}

type Gear struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Nickname    string  `json:"nickname"`
	BrandName   string  `json:"brand_name"`
	ModelName   string  `json:"model_name"`
	Distance    float64 `json:"distance"`
	Description string  `json:"description"`
}

// Full activity detail from /activities/{id}.
type Activity struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Type               string  `json:"type"`
	Distance           float64 `json:"distance"`
	AverageSpeed       float64 `json:"average_speed"`
	MaxSpeed           float64 `json:"max_speed"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	MovingTime         int64   `json:"moving_time"`
	ElapsedTime        int64   `json:"elapsed_time"`
	StartDateLocal     string  `json:"start_date_local"`
	DeviceName         string  `json:"device_name"`
	Gear               *Gear   `json:"gear"`
}

type Segment struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	ActivityType string  `json:"activity_type"`
	Distance     float64 `json:"distance"`
	AverageGrade float64 `json:"average_grade"`
	MaximumGrade float64 `json:"maximum_grade"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Country      string  `json:"country"`
	Starred      bool    `json:"starred"`
}
