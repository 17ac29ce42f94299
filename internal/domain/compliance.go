package domain

import "strings"

type RequirementTag string

const (
	RequirementSafeSport           RequirementTag = "safesport_verified"
	RequirementW9                  RequirementTag = "w9_submitted"
	RequirementBackground          RequirementTag = "background_verified"
	RequirementContractorAgreement RequirementTag = "contractor_agreement_signed"
)

// DefaultRequirements is the activation policy when none is configured.
// Background checks are tracked but optional.
var DefaultRequirements = []RequirementTag{RequirementSafeSport, RequirementW9}

func ParseRequirementTag(s string) (RequirementTag, bool) {
	tag := RequirementTag(strings.ToLower(strings.TrimSpace(s)))
	switch tag {
	case RequirementSafeSport, RequirementW9, RequirementBackground, RequirementContractorAgreement:
		return tag, true
	}
	return "", false
}

// Satisfied reports whether the profile carries the requirement.
func (t RequirementTag) Satisfied(p *TrainerProfile) bool {
	switch t {
	case RequirementSafeSport:
		return p.SafeSportVerified
	case RequirementW9:
		return p.W9Submitted
	case RequirementBackground:
		return p.BackgroundVerified
	case RequirementContractorAgreement:
		return p.ContractorAgreementSigned
	}
	return false
}
