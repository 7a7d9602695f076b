package services

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/models"
	"docuvault/utils"
)

// PermissionService stores per-directory rule sets and evaluates them along
// the ancestor chain. Denies dominate: a deny anywhere on the chain cannot
// be overridden by an allow deeper down.
type PermissionService struct {
	perms  PermissionStore
	dirs   DirectoryStore
	audits AuditStore
	tx     TxRunner
}

func NewPermissionService(perms PermissionStore, dirs DirectoryStore, audits AuditStore, tx TxRunner) *PermissionService {
	return &PermissionService{perms: perms, dirs: dirs, audits: audits, tx: tx}
}

// Get returns the directory's own rule set. A directory without one gets an
// empty config at version 0 rather than NotFound, so callers can always PUT
// against what they read.
func (s *PermissionService) Get(ctx context.Context, directoryID primitive.ObjectID) (*models.PermissionConfig, error) {
	dir, err := s.dirs.FindByID(ctx, directoryID)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, utils.NotFoundf("directory not found")
	}

	cfg, err := s.perms.Get(ctx, directoryID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &models.PermissionConfig{
			DirectoryID: directoryID,
			Rules:       []models.PermissionRule{},
			Version:     0,
		}
	}
	return cfg, nil
}

// Set replaces the directory's rule set wholesale and bumps the version.
func (s *PermissionService) Set(ctx context.Context, actor string, directoryID primitive.ObjectID, rules []models.PermissionRule) (*models.PermissionConfig, error) {
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	var saved *models.PermissionConfig
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		dir, err := s.dirs.FindByID(txCtx, directoryID)
		if err != nil {
			return err
		}
		if dir == nil {
			return utils.NotFoundf("directory not found")
		}

		cfg, err := s.perms.Replace(txCtx, directoryID, rules)
		if err != nil {
			return err
		}

		if err := s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditPermissionSet,
			"permission_config", directoryID.Hex(), map[string]interface{}{
				"version":    cfg.Version,
				"rule_count": len(rules),
			})); err != nil {
			return err
		}

		saved = cfg
		return nil
	})
	return saved, err
}

// Delete removes the directory's own rule set; inherited rules keep
// applying.
func (s *PermissionService) Delete(ctx context.Context, actor string, directoryID primitive.ObjectID) error {
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.perms.Delete(txCtx, directoryID); err != nil {
			return err
		}
		return s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditPermissionDelete,
			"permission_config", directoryID.Hex(), nil))
	})
}

// Evaluate answers whether the subject may perform the action on the
// directory, walking the ancestor chain root to self with deny-overrides.
func (s *PermissionService) Evaluate(ctx context.Context, directoryID primitive.ObjectID, subject models.Subject, action string) (*models.Decision, error) {
	if action == "" {
		return nil, utils.Validationf("action is required")
	}

	configs, err := s.chainConfigs(ctx, directoryID)
	if err != nil {
		return nil, err
	}

	var allowed, denied bool
	for _, cfg := range configs {
		for _, rule := range cfg.Rules {
			if rule.Action != action || !subject.Matches(rule) {
				continue
			}
			switch rule.Effect {
			case models.EffectDeny:
				denied = true
			case models.EffectAllow:
				allowed = true
			}
		}
	}
	return &models.Decision{Allowed: allowed && !denied, Denied: denied}, nil
}

// Effective returns the merged rule set a directory inherits, root to self,
// one entry per (subject type, subject id, action). A deny recorded anywhere
// on the chain stays a deny in the merge. With a subject given, only rules
// matching that subject are reported.
func (s *PermissionService) Effective(ctx context.Context, directoryID primitive.ObjectID, subject *models.Subject) ([]models.PermissionRule, error) {
	configs, err := s.chainConfigs(ctx, directoryID)
	if err != nil {
		return nil, err
	}

	type ruleKey struct {
		subjectType models.SubjectType
		subjectID   string
		action      string
	}
	merged := make(map[ruleKey]models.PermissionRule)
	for _, cfg := range configs {
		for _, rule := range cfg.Rules {
			if subject != nil && !subject.Matches(rule) {
				continue
			}
			key := ruleKey{rule.SubjectType, rule.SubjectID, rule.Action}
			if prev, ok := merged[key]; ok && prev.Effect == models.EffectDeny {
				continue
			}
			merged[key] = rule
		}
	}

	rules := make([]models.PermissionRule, 0, len(merged))
	for _, rule := range merged {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.SubjectType != b.SubjectType {
			return a.SubjectType < b.SubjectType
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		return a.Action < b.Action
	})
	return rules, nil
}

// ApplyTemplate is reserved for named permission templates.
func (s *PermissionService) ApplyTemplate(ctx context.Context, actor string, directoryID primitive.ObjectID, template string) error {
	return utils.NewError(utils.KindNotImplemented, "permission templates are not implemented")
}

// chainConfigs loads the permission configs along the ancestor chain in
// root→self order, two queries total regardless of depth.
func (s *PermissionService) chainConfigs(ctx context.Context, directoryID primitive.ObjectID) ([]models.PermissionConfig, error) {
	dir, err := s.dirs.FindByID(ctx, directoryID)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, utils.NotFoundf("directory not found")
	}

	chain, err := resolveChain(ctx, s.dirs, dir)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(chain))
	for _, d := range chain {
		ids = append(ids, d.ID)
	}
	configs, err := s.perms.GetByDirectoryIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byDir := make(map[primitive.ObjectID]models.PermissionConfig, len(configs))
	for _, cfg := range configs {
		byDir[cfg.DirectoryID] = cfg
	}

	ordered := make([]models.PermissionConfig, 0, len(configs))
	for _, d := range chain {
		if cfg, ok := byDir[d.ID]; ok {
			ordered = append(ordered, cfg)
		}
	}
	return ordered, nil
}

func validateRules(rules []models.PermissionRule) error {
	for i, rule := range rules {
		switch rule.SubjectType {
		case models.SubjectRole, models.SubjectUser, models.SubjectGroup:
		default:
			return utils.Validationf("rule %d: unknown subject type %q", i, rule.SubjectType)
		}
		if rule.SubjectID == "" {
			return utils.Validationf("rule %d: subject id is required", i)
		}
		if rule.Action == "" {
			return utils.Validationf("rule %d: action is required", i)
		}
		switch rule.Effect {
		case models.EffectAllow, models.EffectDeny:
		default:
			return utils.Validationf("rule %d: unknown effect %q", i, rule.Effect)
		}
	}
	return nil
}
