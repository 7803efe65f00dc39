package queryengine

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
	"github.com/livetocode/vehicle-fleet-poc/internal/timeutil"
)

const timeAlignmentMinutes = 10

// normalisedWindow holds both representations the executor needs: the
// lexicographically-sortable string form for predicate pushdown and the
// precise instants for per-row refinement.
type normalisedWindow struct {
	fromStr     string
	toStr       string
	fromInstant time.Time
	toInstant   time.Time
}

func normaliseWindow(fromDate, toDate string) (normalisedWindow, error) {
	from, err := time.Parse(time.RFC3339, fromDate)
	if err != nil {
		return normalisedWindow{}, engineerr.Wrap(engineerr.InvalidArgument, "parse from_date", err)
	}
	to, err := time.Parse(time.RFC3339, toDate)
	if err != nil {
		return normalisedWindow{}, engineerr.Wrap(engineerr.InvalidArgument, "parse to_date", err)
	}

	fromLower, _, err := timeutil.Align(from, timeAlignmentMinutes)
	if err != nil {
		return normalisedWindow{}, err
	}
	toLower, _, err := timeutil.Align(to, timeAlignmentMinutes)
	if err != nil {
		return normalisedWindow{}, err
	}

	w := normalisedWindow{
		fromStr:     timeutil.Format(fromLower),
		toStr:       timeutil.Format(toLower),
		fromInstant: fromLower,
		toInstant:   toLower,
	}
	if w.fromStr >= w.toStr {
		return normalisedWindow{}, engineerr.New(engineerr.InvalidArgument, "from_date must be strictly before to_date after alignment")
	}
	return w, nil
}

func parseGeometry(raw json.RawMessage) (orb.Geometry, error) {
	if len(raw) == 0 {
		return nil, engineerr.New(engineerr.InvalidArgument, "parse geometry: empty")
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.InvalidArgument, "parse geometry", err)
	}
	return g.Geometry(), nil
}

// effectiveLimit applies the limit=0 open-question resolution: a literal
// zero is treated as 1 (at least one row is probed), default is 100.
func effectiveLimit(limit *int) int {
	if limit == nil {
		return 100
	}
	if *limit <= 0 {
		return 1
	}
	return *limit
}

func effectiveTimeoutMs(reqTimeout *int64, defaultMs int) int64 {
	if reqTimeout != nil {
		return *reqTimeout
	}
	return int64(defaultMs)
}
