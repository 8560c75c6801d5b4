package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_ExperienceFactorTiers(t *testing.T) {
	cases := []struct {
		hours    int
		expected float64
	}{
		{1500, 40},
		{1001, 40},
		{1000, 30},
		{501, 30},
		{500, 20},
		{101, 20},
		{100, 10},
		{50, 10},
		{0, 10},
	}

	for _, tc := range cases {
		_, analysis := Score(Payload{GameplayHours: tc.hours})
		assert.Equal(t, tc.expected, analysis.Factors["gameplay_hours"].Score,
			"hours=%d", tc.hours)
	}
}

func TestScore_IsDeterministic(t *testing.T) {
	p := Payload{
		GameplayHours: 750,
		Reason:        strings.Repeat("teamwork and community passion. ", 8),
		Contribution:  "I want to help and mentor newer players whenever I am around.",
		Availability:  12,
		Experience:    "Five years of ranked play across two titles.",
	}

	score1, analysis1 := Score(p)
	score2, analysis2 := Score(p)

	assert.Equal(t, score1, score2)
	assert.Equal(t, analysis1, analysis2)
}

func TestScore_PerfectApplication(t *testing.T) {
	// 1200 hours, a long reason with 4 vocabulary matches, a long
	// contribution with 2 matches, and 25h/week should land every factor
	// at its cap.
	reason := strings.Repeat("x", 210) + " competitive teamwork improve community"
	contribution := strings.Repeat("y", 120) + " happy to help and teach others"

	p := Payload{
		GameplayHours: 1200,
		Reason:        reason,
		Contribution:  contribution,
		Availability:  25,
		Experience:    strings.Repeat("z", 200),
	}

	score, analysis := Score(p)

	require.Equal(t, 100.0, score)
	assert.Equal(t, 40.0, analysis.Factors["gameplay_hours"].Score)
	assert.Equal(t, 30.0, analysis.Factors["motivation"].Score)
	assert.Equal(t, 20.0, analysis.Factors["contribution"].Score)
	assert.Equal(t, 10.0, analysis.Factors["availability"].Score)
	assert.Equal(t, RecommendStrongApprove, analysis.Recommendation)
	assert.Equal(t, 0.95, analysis.Confidence)
}

func TestScore_EmptyPayloadNeverFails(t *testing.T) {
	score, analysis := Score(Payload{})

	// Floor contributions: 10 + 5 + 5 + 2.
	assert.Equal(t, 22.0, score)
	assert.Equal(t, RecommendReject, analysis.Recommendation)
	assert.Equal(t, 0.50, analysis.Confidence)
	assert.NotEmpty(t, analysis.Weaknesses)
}

func TestScore_MotivationNeedsBothLengthAndKeywords(t *testing.T) {
	long := strings.Repeat("a", 250)

	// Long but no vocabulary matches: falls through to the length-only tier.
	_, analysis := Score(Payload{Reason: long})
	assert.Equal(t, 10.0, analysis.Factors["motivation"].Score)

	// Keywords but too short.
	_, analysis = Score(Payload{Reason: "teamwork community improve"})
	assert.Equal(t, 5.0, analysis.Factors["motivation"].Score)

	// Both.
	_, analysis = Score(Payload{Reason: long + " teamwork community improve"})
	assert.Equal(t, 30.0, analysis.Factors["motivation"].Score)
}

func TestScore_RecommendationThresholds(t *testing.T) {
	// availability>=20 (10) + hours>1000 (40) + motivation top (30) = 80+
	// boundaries are easier to pin through crafted payloads per tier.
	cases := []struct {
		name    string
		payload Payload
		want    string
	}{
		{
			// hours 30 + motivation 10 + availability 2 + contribution floor 5 = 47
			name: "interview tier",
			payload: Payload{
				GameplayHours: 600,
				Reason:        strings.Repeat("a", 60),
				Availability:  3,
			},
			want: RecommendInterview,
		},
		{
			// hours 40 + motivation 20 + availability 2 + contribution floor 5 = 67
			name: "approve tier",
			payload: Payload{
				GameplayHours: 1100,
				Reason:        strings.Repeat("a", 120) + " teamwork community",
				Availability:  2,
			},
			want: RecommendApprove,
		},
		{
			name:    "reject tier",
			payload: Payload{},
			want:    RecommendReject,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, analysis := Score(tc.payload)
			assert.Equal(t, tc.want, analysis.Recommendation)
		})
	}
}

func TestScore_ConfidenceTiers(t *testing.T) {
	cases := []struct {
		totalLen int
		want     float64
	}{
		{600, 0.95},
		{400, 0.85},
		{200, 0.70},
		{100, 0.50},
	}

	for _, tc := range cases {
		_, analysis := Score(Payload{Experience: strings.Repeat("e", tc.totalLen)})
		assert.Equal(t, tc.want, analysis.Confidence, "totalLen=%d", tc.totalLen)
	}
}
