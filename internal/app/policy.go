package app

import (
	"strings"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/moderation"
)

// BuildPolicy materializes the moderation policy from configuration,
// starting from the production defaults.
func BuildPolicy(cfg ModerationConfig) moderation.Policy {
	policy := moderation.DefaultPolicy()
	policy.AutoModeration = cfg.AutoModeration
	if cfg.Threshold > 0 {
		policy.Threshold = cfg.Threshold
	}
	if cfg.SuspensionDays > 0 {
		policy.SuspensionDays = cfg.SuspensionDays
	}

	for name, weight := range cfg.Weights {
		reportType := models.ReportType(strings.ToUpper(strings.TrimSpace(name)))
		if reportType.Valid() && weight > 0 {
			policy.Weights[reportType] = weight
		}
	}
	return policy
}
