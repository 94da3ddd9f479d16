package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"cityscope/internal/district/models"
)

// metricTable describes one per-district metric table. Columns exclude id
// and district_id, which every table shares.
type metricTable struct {
	name       string
	columns    []string
	scan       func(row rowScanner, into *models.Metrics) error
	insertArgs func(m models.Metrics) [][]any
}

var metricTables = map[models.MetricKind]metricTable{
	models.MetricSocialLife: {
		name:    "social_life",
		columns: []string{"normalized_score", "raw_score", "rows"},
		scan: func(row rowScanner, into *models.Metrics) error {
			var r models.SocialLife
			if err := row.Scan(&r.ID, &r.DistrictID, &r.NormalizedScore, &r.RawScore, &r.Rows); err != nil {
				return err
			}
			into.SocialLife = append(into.SocialLife, r)
			return nil
		},
		insertArgs: func(m models.Metrics) (out [][]any) {
			for _, r := range m.SocialLife {
				out = append(out, []any{r.NormalizedScore, r.RawScore, r.Rows})
			}
			return out
		},
	},
	models.MetricDistrictRhythm: {
		name:    "district_rhythm",
		columns: []string{"rhythm_score", "peak_hour", "activity_amplitude", "avg_activity"},
		scan: func(row rowScanner, into *models.Metrics) error {
			var r models.DistrictRhythm
			if err := row.Scan(&r.ID, &r.DistrictID, &r.RhythmScore, &r.PeakHour, &r.ActivityAmplitude, &r.AvgActivity); err != nil {
				return err
			}
			into.DistrictRhythm = append(into.DistrictRhythm, r)
			return nil
		},
		insertArgs: func(m models.Metrics) (out [][]any) {
			for _, r := range m.DistrictRhythm {
				out = append(out, []any{r.RhythmScore, r.PeakHour, r.ActivityAmplitude, r.AvgActivity})
			}
			return out
		},
	},
	models.MetricGreenPlaces: {
		name:    "green_places",
		columns: []string{"green_life_score", "total_obs", "green_obs", "unique_users", "green_ratio"},
		scan: func(row rowScanner, into *models.Metrics) error {
			var r models.GreenPlaces
			if err := row.Scan(&r.ID, &r.DistrictID, &r.GreenLifeScore, &r.TotalObs, &r.GreenObs, &r.UniqueUsers, &r.GreenRatio); err != nil {
				return err
			}
			into.GreenPlaces = append(into.GreenPlaces, r)
			return nil
		},
		insertArgs: func(m models.Metrics) (out [][]any) {
			for _, r := range m.GreenPlaces {
				out = append(out, []any{r.GreenLifeScore, r.TotalObs, r.GreenObs, r.UniqueUsers, r.GreenRatio})
			}
			return out
		},
	},
	models.MetricDigitalNoise: {
		name:    "digital_noise",
		columns: []string{"digital_noise_score", "total_obs", "avg_tech_weight", "noise_index_raw", "unique_users"},
		scan: func(row rowScanner, into *models.Metrics) error {
			var r models.DigitalNoise
			if err := row.Scan(&r.ID, &r.DistrictID, &r.DigitalNoiseScore, &r.TotalObs, &r.AvgTechWeight, &r.NoiseIndexRaw, &r.UniqueUsers); err != nil {
				return err
			}
			into.DigitalNoise = append(into.DigitalNoise, r)
			return nil
		},
		insertArgs: func(m models.Metrics) (out [][]any) {
			for _, r := range m.DigitalNoise {
				out = append(out, []any{r.DigitalNoiseScore, r.TotalObs, r.AvgTechWeight, r.NoiseIndexRaw, r.UniqueUsers})
			}
			return out
		},
	},
	models.MetricSocialAvailability: {
		name:    "social_availability",
		columns: []string{"social_availability_score", "active_hours"},
		scan: func(row rowScanner, into *models.Metrics) error {
			var r models.SocialAvailability
			if err := row.Scan(&r.ID, &r.DistrictID, &r.SocialAvailabilityScore, &r.ActiveHours); err != nil {
				return err
			}
			into.SocialAvailability = append(into.SocialAvailability, r)
			return nil
		},
		insertArgs: func(m models.Metrics) (out [][]any) {
			for _, r := range m.SocialAvailability {
				out = append(out, []any{r.SocialAvailabilityScore, r.ActiveHours})
			}
			return out
		},
	},
	models.MetricLifeBalance: {
		name: "life_balance",
		columns: []string{"life_balance_score", "presence_ratio", "inverse_noise", "life_balance_raw",
			"total_obs", "unique_users", "avg_tech_weight", "noise_index_raw", "digital_noise_score"},
		scan: func(row rowScanner, into *models.Metrics) error {
			var r models.LifeBalance
			if err := row.Scan(&r.ID, &r.DistrictID, &r.LifeBalanceScore, &r.PresenceRatio, &r.InverseNoise,
				&r.LifeBalanceRaw, &r.TotalObs, &r.UniqueUsers, &r.AvgTechWeight, &r.NoiseIndexRaw, &r.DigitalNoiseScore); err != nil {
				return err
			}
			into.LifeBalance = append(into.LifeBalance, r)
			return nil
		},
		insertArgs: func(m models.Metrics) (out [][]any) {
			for _, r := range m.LifeBalance {
				out = append(out, []any{r.LifeBalanceScore, r.PresenceRatio, r.InverseNoise, r.LifeBalanceRaw,
					r.TotalObs, r.UniqueUsers, r.AvgTechWeight, r.NoiseIndexRaw, r.DigitalNoiseScore})
			}
			return out
		},
	},
	models.MetricSafety: {
		name:    "safety",
		columns: []string{"incidents", "incident_norm", "safety_index", "safety_level"},
		scan: func(row rowScanner, into *models.Metrics) error {
			var r models.Safety
			if err := row.Scan(&r.ID, &r.DistrictID, &r.Incidents, &r.IncidentNorm, &r.SafetyIndex, &r.SafetyLevel); err != nil {
				return err
			}
			into.Safety = append(into.Safety, r)
			return nil
		},
		insertArgs: func(m models.Metrics) (out [][]any) {
			for _, r := range m.Safety {
				out = append(out, []any{r.Incidents, r.IncidentNorm, r.SafetyIndex, r.SafetyLevel})
			}
			return out
		},
	},
	models.MetricAggregates: {
		name:    "district_aggregates",
		columns: []string{"daypart", "score_0_100", "unique_users", "presence_count_avg", "green_presence_ratio_avg"},
		scan: func(row rowScanner, into *models.Metrics) error {
			var (
				r       models.DaypartAggregate
				daypart sql.NullString
			)
			if err := row.Scan(&r.ID, &r.DistrictID, &daypart, &r.Score, &r.UniqueUsers, &r.PresenceCountAvg, &r.GreenPresenceRatioAvg); err != nil {
				return err
			}
			if daypart.Valid {
				dp := models.Daypart(daypart.String)
				r.Daypart = &dp
			}
			into.Aggregates = append(into.Aggregates, r)
			return nil
		},
		insertArgs: func(m models.Metrics) (out [][]any) {
			for _, r := range m.Aggregates {
				var daypart sql.NullString
				if r.Daypart != nil {
					daypart = sql.NullString{String: string(*r.Daypart), Valid: true}
				}
				out = append(out, []any{daypart, r.Score, r.UniqueUsers, r.PresenceCountAvg, r.GreenPresenceRatioAvg})
			}
			return out
		},
	},
}

func (t metricTable) selectColumns() string {
	return "id, district_id, " + strings.Join(t.columns, ", ")
}

func lookupTable(kind models.MetricKind) (metricTable, error) {
	t, ok := metricTables[kind]
	if !ok {
		return metricTable{}, fmt.Errorf("unknown metric kind %q", kind)
	}
	return t, nil
}

// MetricRows loads the kind's rows for the given districts in one query.
func (s *PostgresStore) MetricRows(ctx context.Context, kind models.MetricKind, districtIDs []int64) (models.Metrics, error) {
	table, err := lookupTable(kind)
	if err != nil {
		return models.Metrics{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+table.selectColumns()+` FROM `+table.name+` WHERE district_id = ANY($1) ORDER BY id ASC`,
		pq.Array(districtIDs))
	if err != nil {
		return models.Metrics{}, fmt.Errorf("load %s: %w", table.name, err)
	}
	return collectMetrics(rows, table)
}

// ListMetricRows returns one page of the kind's rows, newest first.
func (s *PostgresStore) ListMetricRows(ctx context.Context, kind models.MetricKind, page models.Page) (models.Metrics, int, error) {
	table, err := lookupTable(kind)
	if err != nil {
		return models.Metrics{}, 0, err
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+table.name).Scan(&total); err != nil {
		return models.Metrics{}, 0, fmt.Errorf("count %s: %w", table.name, err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+table.selectColumns()+` FROM `+table.name+` ORDER BY id DESC LIMIT $1 OFFSET $2`,
		page.Size, page.Offset())
	if err != nil {
		return models.Metrics{}, 0, fmt.Errorf("list %s: %w", table.name, err)
	}
	m, err := collectMetrics(rows, table)
	if err != nil {
		return models.Metrics{}, 0, err
	}
	return m, total, nil
}

func collectMetrics(rows *sql.Rows, table metricTable) (models.Metrics, error) {
	defer rows.Close()
	var m models.Metrics
	for rows.Next() {
		if err := table.scan(rows, &m); err != nil {
			return models.Metrics{}, fmt.Errorf("scan %s: %w", table.name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return models.Metrics{}, fmt.Errorf("iterate %s: %w", table.name, err)
	}
	return m, nil
}
