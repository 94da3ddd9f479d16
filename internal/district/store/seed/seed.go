// Package seed carries the bundled Warsaw district catalog used by the
// in-memory store and the seed command.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cityscope/internal/district/models"
)

//go:embed districts.json
var districtsJSON []byte

// Record is one district with its metric measurements as shipped in
// districts.json. Codes are stored verbatim, including the historical
// underscore codes that do not equal normalize.Code(Name).
type Record struct {
	Name               string                   `json:"name"`
	Code               string                   `json:"code"`
	SocialLife         *socialLifeRecord        `json:"social_life"`
	DistrictRhythm     *rhythmRecord            `json:"district_rhythm"`
	GreenPlaces        *greenPlacesRecord       `json:"green_places"`
	DigitalNoise       *digitalNoiseRecord      `json:"digital_noise"`
	SocialAvailability *socialAvailRecord       `json:"social_availability"`
	LifeBalance        *lifeBalanceRecord       `json:"life_balance"`
	Safety             *safetyRecord            `json:"safety"`
	Dayparts           []daypartAggregateRecord `json:"dayparts"`
}

type socialLifeRecord struct {
	Rows       int     `json:"rows"`
	Score      float64 `json:"score"`
	Normalized float64 `json:"normalized"`
}

type rhythmRecord struct {
	PeakHour          int     `json:"peak_hour"`
	ActivityAmplitude float64 `json:"activity_amplitude"`
	AvgActivity       float64 `json:"avg_activity"`
	Normalized        float64 `json:"normalized"`
}

type greenPlacesRecord struct {
	TotalObs       int     `json:"total_obs"`
	GreenObs       int     `json:"green_obs"`
	UniqueUsers    int     `json:"unique_users"`
	GreenRatio     float64 `json:"green_ratio"`
	GreenLifeScore float64 `json:"green_life_score"`
}

type digitalNoiseRecord struct {
	TotalObs          int     `json:"total_obs"`
	UniqueUsers       int     `json:"unique_users"`
	AvgTechWeight     float64 `json:"avg_tech_weight"`
	NoiseIndexRaw     float64 `json:"noise_index_raw"`
	DigitalNoiseScore float64 `json:"digital_noise_score"`
}

type socialAvailRecord struct {
	ActiveHours             int     `json:"active_hours"`
	SocialAvailabilityScore float64 `json:"social_availability_score"`
}

type lifeBalanceRecord struct {
	TotalObs          int     `json:"total_obs"`
	UniqueUsers       int     `json:"unique_users"`
	AvgTechWeight     float64 `json:"avg_tech_weight"`
	NoiseIndexRaw     float64 `json:"noise_index_raw"`
	DigitalNoiseScore float64 `json:"digital_noise_score"`
	PresenceRatio     float64 `json:"presence_ratio"`
	InverseNoise      float64 `json:"inverse_noise"`
	LifeBalanceRaw    float64 `json:"life_balance_raw"`
	LifeBalanceScore  float64 `json:"life_balance_score"`
}

type safetyRecord struct {
	Incidents    int     `json:"incidents"`
	IncidentNorm float64 `json:"incident_norm"`
	SafetyIndex  float64 `json:"safety_index"`
	SafetyLevel  string  `json:"safety_level"`
}

type daypartAggregateRecord struct {
	Daypart     models.Daypart `json:"daypart"`
	Score       float64        `json:"score_0_100"`
	UniqueUsers int            `json:"unique_users"`
}

// Load decodes the bundled catalog in insertion order.
func Load() ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(districtsJSON, &records); err != nil {
		return nil, fmt.Errorf("decode seed districts: %w", err)
	}
	return records, nil
}

// MustLoad is Load for static wiring; the embedded file is validated by tests.
func MustLoad() []Record {
	records, err := Load()
	if err != nil {
		panic(err)
	}
	return records
}

// District returns the catalog row for the record without an ID.
func (r Record) District() *models.District {
	return &models.District{Name: r.Name, Code: r.Code}
}

// Metrics returns the record's measurements attached to districtID. Row IDs
// are left zero for the store to assign.
func (r Record) Metrics(districtID int64) models.Metrics {
	var m models.Metrics
	if v := r.SocialLife; v != nil {
		m.SocialLife = append(m.SocialLife, models.SocialLife{
			DistrictID:      districtID,
			NormalizedScore: v.Normalized,
			RawScore:        ptr(v.Score),
			Rows:            ptr(v.Rows),
		})
	}
	if v := r.DistrictRhythm; v != nil {
		m.DistrictRhythm = append(m.DistrictRhythm, models.DistrictRhythm{
			DistrictID:        districtID,
			RhythmScore:       v.Normalized,
			PeakHour:          ptr(v.PeakHour),
			ActivityAmplitude: ptr(v.ActivityAmplitude),
			AvgActivity:       ptr(v.AvgActivity),
		})
	}
	if v := r.GreenPlaces; v != nil {
		m.GreenPlaces = append(m.GreenPlaces, models.GreenPlaces{
			DistrictID:     districtID,
			GreenLifeScore: v.GreenLifeScore,
			TotalObs:       ptr(v.TotalObs),
			GreenObs:       ptr(v.GreenObs),
			UniqueUsers:    ptr(v.UniqueUsers),
			GreenRatio:     ptr(v.GreenRatio),
		})
	}
	if v := r.DigitalNoise; v != nil {
		m.DigitalNoise = append(m.DigitalNoise, models.DigitalNoise{
			DistrictID:        districtID,
			DigitalNoiseScore: v.DigitalNoiseScore,
			TotalObs:          ptr(v.TotalObs),
			AvgTechWeight:     ptr(v.AvgTechWeight),
			NoiseIndexRaw:     ptr(v.NoiseIndexRaw),
			UniqueUsers:       ptr(v.UniqueUsers),
		})
	}
	if v := r.SocialAvailability; v != nil {
		m.SocialAvailability = append(m.SocialAvailability, models.SocialAvailability{
			DistrictID:              districtID,
			SocialAvailabilityScore: v.SocialAvailabilityScore,
			ActiveHours:             ptr(v.ActiveHours),
		})
	}
	if v := r.LifeBalance; v != nil {
		m.LifeBalance = append(m.LifeBalance, models.LifeBalance{
			DistrictID:        districtID,
			LifeBalanceScore:  v.LifeBalanceScore,
			PresenceRatio:     ptr(v.PresenceRatio),
			InverseNoise:      ptr(v.InverseNoise),
			LifeBalanceRaw:    ptr(v.LifeBalanceRaw),
			TotalObs:          ptr(v.TotalObs),
			UniqueUsers:       ptr(v.UniqueUsers),
			AvgTechWeight:     ptr(v.AvgTechWeight),
			NoiseIndexRaw:     ptr(v.NoiseIndexRaw),
			DigitalNoiseScore: ptr(v.DigitalNoiseScore),
		})
	}
	if v := r.Safety; v != nil {
		m.Safety = append(m.Safety, models.Safety{
			DistrictID:   districtID,
			Incidents:    v.Incidents,
			IncidentNorm: v.IncidentNorm,
			SafetyIndex:  v.SafetyIndex,
			SafetyLevel:  v.SafetyLevel,
		})
	}
	for _, dp := range r.Dayparts {
		m.Aggregates = append(m.Aggregates, models.DaypartAggregate{
			DistrictID:  districtID,
			Daypart:     ptr(dp.Daypart),
			Score:       ptr(dp.Score),
			UniqueUsers: ptr(dp.UniqueUsers),
		})
	}
	return m
}

func ptr[T any](v T) *T { return &v }
