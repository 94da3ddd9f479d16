package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityscope/internal/district/models"
	"cityscope/internal/district/normalize"
)

func TestLoad(t *testing.T) {
	records, err := Load()
	require.NoError(t, err)
	require.Len(t, records, 18)

	// stored decomposed, as in the source migration
	assert.Equal(t, "s\u0301ro\u0301dmies\u0301cie", records[0].Name)
	assert.Equal(t, "srodmiescie", records[0].Code)

	codes := make(map[string]bool, len(records))
	for _, r := range records {
		assert.False(t, codes[r.Code], "duplicate code %q", r.Code)
		codes[r.Code] = true

		m := r.Metrics(1)
		assert.Len(t, m.Aggregates, 3, "dayparts of %q", r.Code)
		for _, a := range m.Aggregates {
			require.NotNil(t, a.Score)
			assert.GreaterOrEqual(t, *a.Score, 0.0)
			assert.LessOrEqual(t, *a.Score, 100.0)
		}
	}
}

func TestLoadLastRecordDayparts(t *testing.T) {
	records, err := Load()
	require.NoError(t, err)
	last := records[len(records)-1].Metrics(18)

	require.Len(t, last.Aggregates, 3)
	var scores []float64
	var users []int
	for _, a := range last.Aggregates {
		scores = append(scores, *a.Score)
		users = append(users, *a.UniqueUsers)
	}
	assert.Equal(t, []float64{87.0, 56.2, 41.9}, scores)
	assert.Equal(t, []int{21, 21, 14}, users)
}

func TestHistoricalCodesBreakDerivation(t *testing.T) {
	var drifted []string
	for _, r := range MustLoad() {
		if normalize.Code(r.Name) != r.Code {
			drifted = append(drifted, r.Code)
		}
	}
	assert.ElementsMatch(t, []string{"praga_poludnie", "praga_polnoc"}, drifted)
}

func TestRecordMetrics(t *testing.T) {
	m := MustLoad()[0].Metrics(7)

	require.Len(t, m.SocialLife, 1)
	assert.Equal(t, int64(7), m.SocialLife[0].DistrictID)
	assert.InDelta(t, 99.1, m.SocialLife[0].NormalizedScore, 1e-9)
	assert.Equal(t, 361, *m.SocialLife[0].Rows)

	require.Len(t, m.Safety, 1)
	assert.Equal(t, models.Safety{
		DistrictID:   7,
		Incidents:    410,
		IncidentNorm: 1.0,
		SafetyIndex:  0.0,
		SafetyLevel:  "High risk",
	}, m.Safety[0])

	require.Len(t, m.Aggregates, 3)
	assert.Equal(t, models.DaypartMorning, *m.Aggregates[0].Daypart)
	assert.Len(t, m.DistrictRhythm, 1)
	assert.Len(t, m.GreenPlaces, 1)
	assert.Len(t, m.DigitalNoise, 1)
	assert.Len(t, m.SocialAvailability, 1)
	assert.Len(t, m.LifeBalance, 1)
}
