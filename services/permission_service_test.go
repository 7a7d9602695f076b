package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/models"
	"docuvault/utils"
)

type permEnv struct {
	*dirEnv
	svc *PermissionService
}

func newPermEnv(t *testing.T) *permEnv {
	t.Helper()
	env := newDirEnv(t)
	return &permEnv{
		dirEnv: env,
		svc:    NewPermissionService(env.perms, env.dirs, env.audits, memTxRunner{}),
	}
}

func allow(st models.SubjectType, subjectID, action string) models.PermissionRule {
	return models.PermissionRule{SubjectType: st, SubjectID: subjectID, Action: action, Effect: models.EffectAllow}
}

func deny(st models.SubjectType, subjectID, action string) models.PermissionRule {
	return models.PermissionRule{SubjectType: st, SubjectID: subjectID, Action: action, Effect: models.EffectDeny}
}

func TestSetPermissionsBumpsVersion(t *testing.T) {
	env := newPermEnv(t)
	ctx := context.Background()

	docs := env.mustCreate(t, "Docs", nil)

	cfg, err := env.svc.Set(ctx, "admin", docs.ID, []models.PermissionRule{
		allow(models.SubjectRole, "staff", "read"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.Version)

	cfg, err = env.svc.Set(ctx, "admin", docs.ID, []models.PermissionRule{
		allow(models.SubjectRole, "staff", "read"),
		allow(models.SubjectRole, "staff", "write"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), cfg.Version)
	assert.Len(t, cfg.Rules, 2)

	events := env.audits.byAction(models.AuditPermissionSet)
	require.Len(t, events, 2)
	assert.Equal(t, docs.ID.Hex(), events[0].ResourceID)
}

func TestGetPermissionsSynthesizesEmptyConfig(t *testing.T) {
	env := newPermEnv(t)
	ctx := context.Background()

	docs := env.mustCreate(t, "Docs", nil)

	cfg, err := env.svc.Get(ctx, docs.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Version)
	assert.Empty(t, cfg.Rules)

	_, err = env.svc.Get(ctx, primitive.NewObjectID())
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestSetPermissionsValidatesRules(t *testing.T) {
	env := newPermEnv(t)
	ctx := context.Background()

	docs := env.mustCreate(t, "Docs", nil)

	bad := []models.PermissionRule{
		{SubjectType: "team", SubjectID: "x", Action: "read", Effect: models.EffectAllow},
		{SubjectType: models.SubjectRole, SubjectID: "", Action: "read", Effect: models.EffectAllow},
		{SubjectType: models.SubjectRole, SubjectID: "x", Action: "", Effect: models.EffectAllow},
		{SubjectType: models.SubjectRole, SubjectID: "x", Action: "read", Effect: "maybe"},
	}
	for i, rule := range bad {
		_, err := env.svc.Set(ctx, "admin", docs.ID, []models.PermissionRule{rule})
		assert.Equal(t, utils.KindValidation, utils.KindOf(err), "rule %d", i)
	}
}

func TestEvaluateInheritsFromAncestors(t *testing.T) {
	env := newPermEnv(t)
	ctx := context.Background()

	docs := env.mustCreate(t, "Docs", nil)
	hr := env.mustCreate(t, "HR", &docs.ID)
	policies := env.mustCreate(t, "Policies", &hr.ID)

	_, err := env.svc.Set(ctx, "admin", docs.ID, []models.PermissionRule{
		allow(models.SubjectRole, "staff", "read"),
	})
	require.NoError(t, err)

	staff := models.Subject{ID: "u1", Roles: []string{"staff"}}

	// The root allow reaches a grandchild with no config of its own.
	decision, err := env.svc.Evaluate(ctx, policies.ID, staff, "read")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.False(t, decision.Denied)

	// No matching rule means default deny without an explicit deny.
	decision, err = env.svc.Evaluate(ctx, policies.ID, staff, "write")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.False(t, decision.Denied)
}

func TestEvaluateDenyOverridesAllow(t *testing.T) {
	env := newPermEnv(t)
	ctx := context.Background()

	docs := env.mustCreate(t, "Docs", nil)
	hr := env.mustCreate(t, "HR", &docs.ID)
	policies := env.mustCreate(t, "Policies", &hr.ID)

	_, err := env.svc.Set(ctx, "admin", docs.ID, []models.PermissionRule{
		allow(models.SubjectRole, "staff", "read"),
	})
	require.NoError(t, err)
	_, err = env.svc.Set(ctx, "admin", hr.ID, []models.PermissionRule{
		deny(models.SubjectGroup, "contractors", "read"),
	})
	require.NoError(t, err)
	// A deeper allow cannot lift the deny recorded above it.
	_, err = env.svc.Set(ctx, "admin", policies.ID, []models.PermissionRule{
		allow(models.SubjectGroup, "contractors", "read"),
	})
	require.NoError(t, err)

	contractor := models.Subject{ID: "u2", Roles: []string{"staff"}, Groups: []string{"contractors"}}
	decision, err := env.svc.Evaluate(ctx, policies.ID, contractor, "read")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.Denied)

	// A plain staff member without the group keeps access.
	staff := models.Subject{ID: "u3", Roles: []string{"staff"}}
	decision, err = env.svc.Evaluate(ctx, policies.ID, staff, "read")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestEvaluateMatchesUserAndGroupSubjects(t *testing.T) {
	env := newPermEnv(t)
	ctx := context.Background()

	docs := env.mustCreate(t, "Docs", nil)
	_, err := env.svc.Set(ctx, "admin", docs.ID, []models.PermissionRule{
		allow(models.SubjectUser, "u1", "write"),
		allow(models.SubjectGroup, "legal", "read"),
	})
	require.NoError(t, err)

	decision, err := env.svc.Evaluate(ctx, docs.ID, models.Subject{ID: "u1"}, "write")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = env.svc.Evaluate(ctx, docs.ID, models.Subject{ID: "u2"}, "write")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	decision, err = env.svc.Evaluate(ctx, docs.ID, models.Subject{ID: "u2", Groups: []string{"legal"}}, "read")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestEffectiveMergesChainWithStickyDeny(t *testing.T) {
	env := newPermEnv(t)
	ctx := context.Background()

	docs := env.mustCreate(t, "Docs", nil)
	hr := env.mustCreate(t, "HR", &docs.ID)

	_, err := env.svc.Set(ctx, "admin", docs.ID, []models.PermissionRule{
		deny(models.SubjectRole, "intern", "read"),
		allow(models.SubjectRole, "staff", "read"),
	})
	require.NoError(t, err)
	_, err = env.svc.Set(ctx, "admin", hr.ID, []models.PermissionRule{
		allow(models.SubjectRole, "intern", "read"),
		allow(models.SubjectRole, "staff", "write"),
	})
	require.NoError(t, err)

	rules, err := env.svc.Effective(ctx, hr.ID, nil)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	byKey := make(map[string]models.Effect)
	for _, r := range rules {
		byKey[r.SubjectID+"/"+r.Action] = r.Effect
	}
	// The ancestor deny survives the child's allow.
	assert.Equal(t, models.EffectDeny, byKey["intern/read"])
	assert.Equal(t, models.EffectAllow, byKey["staff/read"])
	assert.Equal(t, models.EffectAllow, byKey["staff/write"])
}

func TestDeletePermissionsLeavesInheritanceIntact(t *testing.T) {
	env := newPermEnv(t)
	ctx := context.Background()

	docs := env.mustCreate(t, "Docs", nil)
	hr := env.mustCreate(t, "HR", &docs.ID)

	_, err := env.svc.Set(ctx, "admin", docs.ID, []models.PermissionRule{
		allow(models.SubjectRole, "staff", "read"),
	})
	require.NoError(t, err)
	_, err = env.svc.Set(ctx, "admin", hr.ID, []models.PermissionRule{
		deny(models.SubjectRole, "staff", "read"),
	})
	require.NoError(t, err)

	staff := models.Subject{ID: "u1", Roles: []string{"staff"}}
	decision, err := env.svc.Evaluate(ctx, hr.ID, staff, "read")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	require.NoError(t, env.svc.Delete(ctx, "admin", hr.ID))

	// With its own deny gone the inherited allow applies again.
	decision, err = env.svc.Evaluate(ctx, hr.ID, staff, "read")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	assert.Len(t, env.audits.byAction(models.AuditPermissionDelete), 1)
}

func TestApplyTemplateNotImplemented(t *testing.T) {
	env := newPermEnv(t)

	docs := env.mustCreate(t, "Docs", nil)
	err := env.svc.ApplyTemplate(context.Background(), "admin", docs.ID, "default")
	assert.Equal(t, utils.KindNotImplemented, utils.KindOf(err))
}
