package services

import (
	"sort"

	"github.com/SundayYogurt/trainer_service/internal/domain"
)

// Evaluation is the gate verdict for one profile. Missing is sorted.
type Evaluation struct {
	Eligible bool
	Missing  []domain.RequirementTag
}

type ComplianceGate interface {
	Evaluate(profile *domain.TrainerProfile) Evaluation
	Requirements() []domain.RequirementTag
}

type complianceGate struct {
	required []domain.RequirementTag
}

// NewComplianceGate builds a gate over the given requirement tags. An empty
// list falls back to domain.DefaultRequirements.
func NewComplianceGate(required []domain.RequirementTag) ComplianceGate {
	if len(required) == 0 {
		required = domain.DefaultRequirements
	}
	seen := make(map[domain.RequirementTag]struct{}, len(required))
	tags := make([]domain.RequirementTag, 0, len(required))
	for _, r := range required {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		tags = append(tags, r)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return &complianceGate{required: tags}
}

func (g *complianceGate) Evaluate(profile *domain.TrainerProfile) Evaluation {
	missing := make([]domain.RequirementTag, 0)
	for _, r := range g.required {
		if profile == nil || !r.Satisfied(profile) {
			missing = append(missing, r)
		}
	}
	return Evaluation{Eligible: len(missing) == 0, Missing: missing}
}

func (g *complianceGate) Requirements() []domain.RequirementTag {
	out := make([]domain.RequirementTag, len(g.required))
	copy(out, g.required)
	return out
}
