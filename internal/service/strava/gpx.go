package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/stravagram/stravagram/internal/apperrors"
)

const startDateLayout = "2006-01-02T15:04:05Z"

// TrackPoint is one GPS fix reassembled from the parallel latlng, time and
// altitude streams of an activity.
type TrackPoint struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Elevation float64
}

// CreateGPX fetches the three activity streams, zips them into track points
// and serializes a single-track single-segment GPX document. All-or-nothing:
// any failed fetch or stream length mismatch fails the export, no partial
// file is produced.
func (c *Client) CreateGPX(ctx context.Context, activityID int64) ([]byte, error) {
	points, err := c.trackPoints(ctx, activityID)
	if err != nil {
		return nil, err
	}

	segment := gpx.GPXTrackSegment{}
	for _, p := range points {
		segment.Points = append(segment.Points, gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
				Elevation: *gpx.NewNullableFloat64(p.Elevation),
			},
			Timestamp: p.Time,
		})
	}

	doc := &gpx.GPX{
		Creator: "stravagram",
		Tracks: []gpx.GPXTrack{
			{Name: fmt.Sprintf("activity %d", activityID), Segments: []gpx.GPXTrackSegment{segment}},
		},
	}

	out, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("serializing gpx: %w", err)
	}

	return out, nil
}

// trackPoints resolves the activity start time and merges the three streams.
// The streams carry no ordering dependency between themselves but all offsets
// are relative to the activity start.
func (c *Client) trackPoints(ctx context.Context, activityID int64) ([]TrackPoint, error) {
	activity, err := c.Activity(ctx, activityID)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(startDateLayout, activity.StartDateLocal)
	if err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", activity.StartDateLocal, apperrors.ErrMalformedData)
	}

	var latlng [][]float64
	if err := c.decodeStream(ctx, activityID, "latlng", &latlng); err != nil {
		return nil, err
	}

	var offsets []float64
	if err := c.decodeStream(ctx, activityID, "time", &offsets); err != nil {
		return nil, err
	}

	var altitude []float64
	if err := c.decodeStream(ctx, activityID, "altitude", &altitude); err != nil {
		return nil, err
	}

	if len(latlng) != len(offsets) || len(offsets) != len(altitude) {
		return nil, fmt.Errorf("stream lengths differ (%d/%d/%d): %w",
			len(latlng), len(offsets), len(altitude), apperrors.ErrMalformedData)
	}

	points := make([]TrackPoint, 0, len(altitude))
	for i, pair := range latlng {
		if len(pair) != 2 {
			return nil, fmt.Errorf("latlng sample %d malformed: %w", i, apperrors.ErrMalformedData)
		}
		points = append(points, TrackPoint{
			Time:      start.Add(time.Duration(offsets[i] * float64(time.Second))),
			Latitude:  pair[0],
			Longitude: pair[1],
			Elevation: altitude[i],
		})
	}

	return points, nil
}

func (c *Client) decodeStream(ctx context.Context, activityID int64, key string, out any) error {
	raw, err := c.streamData(ctx, activityID, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s stream: %w", key, apperrors.ErrMalformedData)
	}

	return nil
}
