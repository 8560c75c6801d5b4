package application

import (
	"strings"
	"unicode/utf8"
)

// Recommendation tiers derived from the final score. Advisory only: the
// review workflow never branches on them.
const (
	RecommendStrongApprove = "Highly recommended for approval"
	RecommendApprove       = "Recommended for approval"
	RecommendInterview     = "Consider for approval with interview"
	RecommendReject        = "Not recommended"
)

// FactorScore is the contribution of one factor to the total score.
type FactorScore struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Analysis is the structured breakdown that accompanies a score.
type Analysis struct {
	Factors        map[string]FactorScore `json:"factors"`
	Strengths      []string               `json:"strengths"`
	Weaknesses     []string               `json:"weaknesses"`
	Confidence     float64                `json:"confidence"`
	FinalScore     float64                `json:"final_score"`
	Recommendation string                 `json:"recommendation"`
}

// Vocabularies matched case-insensitively against the free-text answers.
var (
	motivationKeywords = []string{
		"competitive", "teamwork", "improve", "learn", "community",
		"passion", "dedicated", "skilled", "strategic", "professional",
	}
	contributionKeywords = []string{
		"help", "teach", "mentor", "organize", "lead",
		"content", "stream", "coach", "guide", "support",
	}
)

// Score evaluates a validated payload against the weighted additive model:
// experience (max 40), motivation (max 30), contribution (max 20),
// availability (max 10), total clamped to 100. The function is pure and
// deterministic; it never fails.
func Score(p Payload) (float64, Analysis) {
	analysis := Analysis{
		Factors:    make(map[string]FactorScore, 4),
		Strengths:  []string{},
		Weaknesses: []string{},
	}
	score := 0.0

	// Experience factor: tiered on reported gameplay hours.
	switch {
	case p.GameplayHours > 1000:
		score += 40
		analysis.Factors["gameplay_hours"] = FactorScore{Score: 40, Reason: "Extensive gaming experience"}
		analysis.Strengths = append(analysis.Strengths, "Very experienced gamer")
	case p.GameplayHours > 500:
		score += 30
		analysis.Factors["gameplay_hours"] = FactorScore{Score: 30, Reason: "Good gaming experience"}
		analysis.Strengths = append(analysis.Strengths, "Experienced gamer")
	case p.GameplayHours > 100:
		score += 20
		analysis.Factors["gameplay_hours"] = FactorScore{Score: 20, Reason: "Moderate gaming experience"}
	default:
		score += 10
		analysis.Factors["gameplay_hours"] = FactorScore{Score: 10, Reason: "Limited gaming experience"}
		analysis.Weaknesses = append(analysis.Weaknesses, "Limited gaming hours")
	}

	// Motivation factor: free-text length combined with vocabulary matches.
	reasonLen := utf8.RuneCountInString(p.Reason)
	reasonMatches := countKeywords(p.Reason, motivationKeywords)
	switch {
	case reasonLen > 200 && reasonMatches >= 3:
		score += 30
		analysis.Factors["motivation"] = FactorScore{Score: 30, Reason: "Excellent motivation"}
		analysis.Strengths = append(analysis.Strengths, "Strong motivation and clear goals")
	case reasonLen > 100 && reasonMatches >= 2:
		score += 20
		analysis.Factors["motivation"] = FactorScore{Score: 20, Reason: "Good motivation"}
		analysis.Strengths = append(analysis.Strengths, "Good understanding of community")
	case reasonLen > 50:
		score += 10
		analysis.Factors["motivation"] = FactorScore{Score: 10, Reason: "Basic motivation"}
	default:
		score += 5
		analysis.Factors["motivation"] = FactorScore{Score: 5, Reason: "Weak motivation"}
		analysis.Weaknesses = append(analysis.Weaknesses, "Lacks detailed motivation")
	}

	// Contribution factor: same pattern against the contribution vocabulary.
	contribLen := utf8.RuneCountInString(p.Contribution)
	contribMatches := countKeywords(p.Contribution, contributionKeywords)
	switch {
	case contribLen > 100 && contribMatches >= 2:
		score += 20
		analysis.Factors["contribution"] = FactorScore{Score: 20, Reason: "Valuable contributions planned"}
		analysis.Strengths = append(analysis.Strengths, "Ready to contribute actively")
	case contribLen > 50 && contribMatches >= 1:
		score += 15
		analysis.Factors["contribution"] = FactorScore{Score: 15, Reason: "Some contributions planned"}
	default:
		score += 5
		analysis.Factors["contribution"] = FactorScore{Score: 5, Reason: "Limited contribution clarity"}
		analysis.Weaknesses = append(analysis.Weaknesses, "Unclear contribution plans")
	}

	// Availability factor: tiered on reported weekly hours.
	switch {
	case p.Availability >= 20:
		score += 10
		analysis.Factors["availability"] = FactorScore{Score: 10, Reason: "High availability"}
		analysis.Strengths = append(analysis.Strengths, "Highly available for events")
	case p.Availability >= 10:
		score += 7
		analysis.Factors["availability"] = FactorScore{Score: 7, Reason: "Good availability"}
	case p.Availability >= 5:
		score += 4
		analysis.Factors["availability"] = FactorScore{Score: 4, Reason: "Moderate availability"}
	default:
		score += 2
		analysis.Factors["availability"] = FactorScore{Score: 2, Reason: "Low availability"}
		analysis.Weaknesses = append(analysis.Weaknesses, "Limited time availability")
	}

	// Confidence is derived purely from how much the applicant wrote.
	totalLen := reasonLen + contribLen + utf8.RuneCountInString(p.Experience)
	switch {
	case totalLen > 500:
		analysis.Confidence = 0.95
	case totalLen > 300:
		analysis.Confidence = 0.85
	case totalLen > 150:
		analysis.Confidence = 0.70
	default:
		analysis.Confidence = 0.50
	}

	if score > 100 {
		score = 100
	}
	analysis.FinalScore = score

	switch {
	case score >= 80:
		analysis.Recommendation = RecommendStrongApprove
	case score >= 60:
		analysis.Recommendation = RecommendApprove
	case score >= 40:
		analysis.Recommendation = RecommendInterview
	default:
		analysis.Recommendation = RecommendReject
	}

	return score, analysis
}

func countKeywords(text string, vocabulary []string) int {
	lowered := strings.ToLower(text)
	matches := 0
	for _, kw := range vocabulary {
		if strings.Contains(lowered, kw) {
			matches++
		}
	}
	return matches
}
