package models

// MetricKind names one of the per-district metric tables.
type MetricKind string

const (
	MetricSocialLife         MetricKind = "social_life"
	MetricDistrictRhythm     MetricKind = "district_rhythm"
	MetricGreenPlaces        MetricKind = "green_places"
	MetricDigitalNoise       MetricKind = "digital_noise"
	MetricSocialAvailability MetricKind = "social_availability"
	MetricLifeBalance        MetricKind = "life_balance"
	MetricSafety             MetricKind = "safety"
	MetricAggregates         MetricKind = "aggregates"
)

// MetricKinds lists every kind in detail-loading order.
var MetricKinds = []MetricKind{
	MetricSocialLife,
	MetricDistrictRhythm,
	MetricGreenPlaces,
	MetricDigitalNoise,
	MetricSocialAvailability,
	MetricLifeBalance,
	MetricSafety,
	MetricAggregates,
}

func ParseMetricKind(s string) (MetricKind, bool) {
	for _, k := range MetricKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Daypart is a coarse time-of-day bucket for aggregates.
type Daypart string

const (
	DaypartMorning Daypart = "MORNING"
	DaypartNoon    Daypart = "NOON"
	DaypartEvening Daypart = "EVENING"
	DaypartNight   Daypart = "NIGHT"
)

type SocialLife struct {
	ID              int64    `json:"id"`
	DistrictID      int64    `json:"district_id"`
	NormalizedScore float64  `json:"normalized_score"`
	RawScore        *float64 `json:"raw_score,omitempty"`
	Rows            *int     `json:"rows,omitempty"`
}

type DistrictRhythm struct {
	ID                int64    `json:"id"`
	DistrictID        int64    `json:"district_id"`
	RhythmScore       float64  `json:"rhythm_score"`
	PeakHour          *int     `json:"peak_hour,omitempty"`
	ActivityAmplitude *float64 `json:"activity_amplitude,omitempty"`
	AvgActivity       *float64 `json:"avg_activity,omitempty"`
}

type GreenPlaces struct {
	ID             int64    `json:"id"`
	DistrictID     int64    `json:"district_id"`
	GreenLifeScore float64  `json:"green_life_score"`
	TotalObs       *int     `json:"total_obs,omitempty"`
	GreenObs       *int     `json:"green_obs,omitempty"`
	UniqueUsers    *int     `json:"unique_users,omitempty"`
	GreenRatio     *float64 `json:"green_ratio,omitempty"`
}

type DigitalNoise struct {
	ID                int64    `json:"id"`
	DistrictID        int64    `json:"district_id"`
	DigitalNoiseScore float64  `json:"digital_noise_score"`
	TotalObs          *int     `json:"total_obs,omitempty"`
	AvgTechWeight     *float64 `json:"avg_tech_weight,omitempty"`
	NoiseIndexRaw     *float64 `json:"noise_index_raw,omitempty"`
	UniqueUsers       *int     `json:"unique_users,omitempty"`
}

type SocialAvailability struct {
	ID                      int64   `json:"id"`
	DistrictID              int64   `json:"district_id"`
	SocialAvailabilityScore float64 `json:"social_availability_score"`
	ActiveHours             *int    `json:"active_hours,omitempty"`
}

type LifeBalance struct {
	ID                int64    `json:"id"`
	DistrictID        int64    `json:"district_id"`
	LifeBalanceScore  float64  `json:"life_balance_score"`
	PresenceRatio     *float64 `json:"presence_ratio,omitempty"`
	InverseNoise      *float64 `json:"inverse_noise,omitempty"`
	LifeBalanceRaw    *float64 `json:"life_balance_raw,omitempty"`
	TotalObs          *int     `json:"total_obs,omitempty"`
	UniqueUsers       *int     `json:"unique_users,omitempty"`
	AvgTechWeight     *float64 `json:"avg_tech_weight,omitempty"`
	NoiseIndexRaw     *float64 `json:"noise_index_raw,omitempty"`
	DigitalNoiseScore *float64 `json:"digital_noise_score,omitempty"`
}

// Safety rows are fully populated; SafetyLevel is a human label such as
// "High risk".
type Safety struct {
	ID           int64   `json:"id"`
	DistrictID   int64   `json:"district_id"`
	Incidents    int     `json:"incidents"`
	IncidentNorm float64 `json:"incident_norm"`
	SafetyIndex  float64 `json:"safety_index"`
	SafetyLevel  string  `json:"safety_level"`
}

type DaypartAggregate struct {
	ID                    int64    `json:"id"`
	DistrictID            int64    `json:"district_id"`
	Daypart               *Daypart `json:"daypart,omitempty"`
	Score                 *float64 `json:"score_0_100,omitempty"`
	UniqueUsers           *int     `json:"unique_users,omitempty"`
	PresenceCountAvg      *float64 `json:"presence_count_avg,omitempty"`
	GreenPresenceRatioAvg *float64 `json:"green_presence_ratio_avg,omitempty"`
}

// Merge appends every row of other onto m.
func (m *Metrics) Merge(other Metrics) {
	m.SocialLife = append(m.SocialLife, other.SocialLife...)
	m.DistrictRhythm = append(m.DistrictRhythm, other.DistrictRhythm...)
	m.GreenPlaces = append(m.GreenPlaces, other.GreenPlaces...)
	m.DigitalNoise = append(m.DigitalNoise, other.DigitalNoise...)
	m.SocialAvailability = append(m.SocialAvailability, other.SocialAvailability...)
	m.LifeBalance = append(m.LifeBalance, other.LifeBalance...)
	m.Safety = append(m.Safety, other.Safety...)
	m.Aggregates = append(m.Aggregates, other.Aggregates...)
}

// ForDistrict returns the rows that belong to districtID. Slices are never
// nil so detail responses render empty arrays.
func (m Metrics) ForDistrict(districtID int64) Metrics {
	return Metrics{
		SocialLife:         filter(m.SocialLife, districtID, func(r SocialLife) int64 { return r.DistrictID }),
		DistrictRhythm:     filter(m.DistrictRhythm, districtID, func(r DistrictRhythm) int64 { return r.DistrictID }),
		GreenPlaces:        filter(m.GreenPlaces, districtID, func(r GreenPlaces) int64 { return r.DistrictID }),
		DigitalNoise:       filter(m.DigitalNoise, districtID, func(r DigitalNoise) int64 { return r.DistrictID }),
		SocialAvailability: filter(m.SocialAvailability, districtID, func(r SocialAvailability) int64 { return r.DistrictID }),
		LifeBalance:        filter(m.LifeBalance, districtID, func(r LifeBalance) int64 { return r.DistrictID }),
		Safety:             filter(m.Safety, districtID, func(r Safety) int64 { return r.DistrictID }),
		Aggregates:         filter(m.Aggregates, districtID, func(r DaypartAggregate) int64 { return r.DistrictID }),
	}
}

// Rows returns the slice held for kind, or nil for an unknown kind.
func (m Metrics) Rows(kind MetricKind) any {
	switch kind {
	case MetricSocialLife:
		return nonNil(m.SocialLife)
	case MetricDistrictRhythm:
		return nonNil(m.DistrictRhythm)
	case MetricGreenPlaces:
		return nonNil(m.GreenPlaces)
	case MetricDigitalNoise:
		return nonNil(m.DigitalNoise)
	case MetricSocialAvailability:
		return nonNil(m.SocialAvailability)
	case MetricLifeBalance:
		return nonNil(m.LifeBalance)
	case MetricSafety:
		return nonNil(m.Safety)
	case MetricAggregates:
		return nonNil(m.Aggregates)
	}
	return nil
}

func filter[T any](rows []T, districtID int64, key func(T) int64) []T {
	out := make([]T, 0)
	for _, r := range rows {
		if key(r) == districtID {
			out = append(out, r)
		}
	}
	return out
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
