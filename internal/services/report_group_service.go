package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/okastudio/platewatch/pkg/errors"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/moderation"
	"gorm.io/gorm"
)

const maxGroupPageSize = 100

// ReportGroupDTO is one moderation queue entry: every open report against a
// single target collapsed into a scored group.
type ReportGroupDTO struct {
	Target           models.Target              `json:"target"`
	Count            int                        `json:"count"`
	Score            float64                    `json:"score"`
	MostSevereType   models.ReportType          `json:"most_severe_type"`
	ExceedsThreshold bool                       `json:"exceeds_threshold"`
	Breakdown        map[models.ReportType]int  `json:"breakdown"`
	LatestReportAt   time.Time                  `json:"latest_report_at"`
	Recipe           *RecipeSnapshot            `json:"recipe,omitempty"`
	User             *UserSnapshot              `json:"user,omitempty"`
}

// ReportGroupDetailDTO expands a group with its individual reports.
type ReportGroupDetailDTO struct {
	ReportGroupDTO
	Reports []ReportDTO `json:"reports"`
}

// ReportGroupService builds the grouped moderation queue: reports aggregated
// per target, scored, sorted by urgency, and enriched with target context.
type ReportGroupService struct {
	db      *gorm.DB
	policy  moderation.Policy
	users   UserDirectory
	recipes RecipeCatalog
}

func NewReportGroupService(db *gorm.DB, policy moderation.Policy, users UserDirectory, recipes RecipeCatalog) (*ReportGroupService, error) {
	if db == nil {
		return nil, errors.New("report group service requires database handle")
	}
	if users == nil || recipes == nil {
		return nil, errors.New("report group service requires user and recipe collaborators")
	}
	return &ReportGroupService{db: db, policy: policy, users: users, recipes: recipes}, nil
}

type ListGroupsInput struct {
	Page   int
	Size   int
	Status string
	Type   string
	Action string
}

// ListGroups returns one page of the grouped queue, most urgent first:
// weighted score descending, then report count, then recency.
func (s *ReportGroupService) ListGroups(ctx context.Context, input ListGroupsInput) ([]ReportGroupDTO, int64, error) {
	ctx = ensureContext(ctx)
	page, size := normalizePagination(input.Page, input.Size, maxGroupPageSize)

	query := s.db.WithContext(ctx).Model(&models.Report{})

	status := strings.ToUpper(strings.TrimSpace(input.Status))
	if status == "" {
		status = string(models.ReportStatusPending)
	}
	if status != "ALL" {
		query = query.Where("status = ?", status)
	}
	if reportType := strings.ToUpper(strings.TrimSpace(input.Type)); reportType != "" {
		query = query.Where("type = ?", reportType)
	}
	if action := strings.ToUpper(strings.TrimSpace(input.Action)); action != "" {
		query = query.Where("action_taken = ?", action)
	}

	var reports []models.Report
	if err := query.Order("created_at ASC").Find(&reports).Error; err != nil {
		return nil, 0, fmt.Errorf("report group service: list: %w", err)
	}

	groups := s.buildGroups(ctx, reports)
	total := int64(len(groups))

	start := (page - 1) * size
	if start >= len(groups) {
		return []ReportGroupDTO{}, total, nil
	}
	end := start + size
	if end > len(groups) {
		end = len(groups)
	}
	return groups[start:end], total, nil
}

// GetGroupDetail returns one group with its member reports, newest first.
func (s *ReportGroupService) GetGroupDetail(ctx context.Context, target models.Target) (*ReportGroupDetailDTO, error) {
	ctx = ensureContext(ctx)
	if target.ID == "" {
		return nil, apperrors.NewBadRequest("group target is required")
	}

	query := s.db.WithContext(ctx).Model(&models.Report{})
	query = scopeToTarget(query, target)

	var reports []models.Report
	if err := query.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("report group service: detail: %w", err)
	}
	if len(reports) == 0 {
		return nil, apperrors.ErrReportNotFound
	}

	groups := s.buildGroups(ctx, reports)
	detail := &ReportGroupDetailDTO{
		ReportGroupDTO: groups[0],
		Reports:        make([]ReportDTO, 0, len(reports)),
	}
	for i := range reports {
		dto := toReportDTO(&reports[i])
		if reporter, err := s.users.GetUser(ctx, reports[i].ReporterID); err == nil {
			dto.ReporterUsername = reporter.Username
		}
		detail.Reports = append(detail.Reports, dto)
	}
	return detail, nil
}

// buildGroups folds a report slice into scored, sorted, enriched groups.
func (s *ReportGroupService) buildGroups(ctx context.Context, reports []models.Report) []ReportGroupDTO {
	byTarget := make(map[string]*ReportGroupDTO)
	order := make([]string, 0)

	for i := range reports {
		target := reports[i].Target()
		if target.ID == "" {
			continue
		}
		key := target.Key()
		group, ok := byTarget[key]
		if !ok {
			group = &ReportGroupDTO{
				Target:    target,
				Breakdown: make(map[models.ReportType]int),
			}
			byTarget[key] = group
			order = append(order, key)
		}
		group.Count++
		group.Breakdown[reports[i].Type]++
		if reports[i].CreatedAt.After(group.LatestReportAt) {
			group.LatestReportAt = reports[i].CreatedAt
		}
	}

	groups := make([]ReportGroupDTO, 0, len(order))
	for _, key := range order {
		group := byTarget[key]
		group.Score = s.policy.WeightedScore(group.Breakdown)
		if severe, ok := s.policy.MostSevereType(group.Breakdown); ok {
			group.MostSevereType = severe
		}
		group.ExceedsThreshold = s.policy.Exceeds(group.Score)
		s.enrich(ctx, group)
		groups = append(groups, *group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Score != groups[j].Score {
			return groups[i].Score > groups[j].Score
		}
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].LatestReportAt.After(groups[j].LatestReportAt)
	})
	return groups
}

// enrich attaches target context. A vanished target leaves the group bare
// rather than failing the whole queue.
func (s *ReportGroupService) enrich(ctx context.Context, group *ReportGroupDTO) {
	switch group.Target.Kind {
	case models.TargetRecipe:
		if recipe, err := s.recipes.GetRecipe(ctx, group.Target.ID); err == nil {
			group.Recipe = recipe
		}
	case models.TargetUser:
		if user, err := s.users.GetUser(ctx, group.Target.ID); err == nil {
			group.User = user
		}
	}
}
