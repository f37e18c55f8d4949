package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_Valid(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"zero multiplier", func(p *Policy) { p.UrbanMultiplier = 0 }},
		{"negative speed", func(p *Policy) { p.AverageSpeedKmh = -1 }},
		{"missing tier", func(p *Policy) { delete(p.RiskBufferPct, RiskMed) }},
		{"decreasing tiers", func(p *Policy) { p.RiskBufferPct[RiskHigh] = 5 }},
		{"negative low tier", func(p *Policy) { p.RiskBufferPct[RiskLow] = -10 }},
		{"negative max buffer", func(p *Policy) { p.MaxBufferMinutes = -1 }},
		{"inverted window", func(p *Policy) { p.WorkStart, p.WorkEnd = 17*time.Hour, 8*time.Hour }},
		{"window past midnight", func(p *Policy) { p.WorkEnd = 25 * time.Hour }},
		{"seconds in window", func(p *Policy) { p.WorkStart = 8*time.Hour + 30*time.Second }},
		{"no zone", func(p *Policy) { p.Location = nil }},
		{"no offsets", func(p *Policy) { p.StartOffsets = nil }},
		{"unsorted offsets", func(p *Policy) { p.StartOffsets = []time.Duration{2 * time.Hour, time.Hour} }},
		{"negative offset", func(p *Policy) { p.StartOffsets = []time.Duration{-time.Hour} }},
		{"penalty above one", func(p *Policy) { p.UnknownOriginPenalty = 1.5 }},
		{"zero penalty divisor", func(p *Policy) { p.DistancePenaltyKm = 0 }},
		{"floor above one", func(p *Policy) { p.ConfidenceFloor = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestPolicyClone_Independent(t *testing.T) {
	p := DefaultPolicy()
	c := p.clone()
	p.RiskBufferPct[RiskLow] = 99
	p.StartOffsets[0] = time.Hour
	assert.Equal(t, 10, c.RiskBufferPct[RiskLow])
	assert.Equal(t, time.Duration(0), c.StartOffsets[0])
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("08:00")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, d)

	d, err = ParseClock("17:45")
	require.NoError(t, err)
	assert.Equal(t, 17*time.Hour+45*time.Minute, d)

	d, err = ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	for _, bad := range []string{"", "8", "25:00", "12:60", "noon"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "08:05", FormatClock(8*time.Hour+5*time.Minute))
}

func TestParseRiskTier(t *testing.T) {
	for _, s := range []string{"low", "med", "high"} {
		r, ok := ParseRiskTier(s)
		assert.True(t, ok)
		assert.Equal(t, RiskTier(s), r)
	}
	for _, s := range []string{"", "medium", "HIGH"} {
		_, ok := ParseRiskTier(s)
		assert.False(t, ok, s)
	}
}
