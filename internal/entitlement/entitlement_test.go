package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrBool(b bool) *bool         { return &b }

func TestResolve_LifetimeAlwaysHasAccess(t *testing.T) {
	tests := []struct {
		name            string
		trialEnd        *time.Time
		subscriptionEnd *time.Time
		at              time.Time
	}{
		{name: "no dates", at: now},
		{name: "expired trial and subscription", trialEnd: ptrTime(now.AddDate(0, -2, 0)), subscriptionEnd: ptrTime(now.AddDate(0, -1, 0)), at: now},
		{name: "far future clock", trialEnd: ptrTime(now), at: now.AddDate(100, 0, 0)},
		{name: "distant past clock", subscriptionEnd: ptrTime(now), at: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Profile{
				Plan:            models.PlanFree,
				IsLifetime:      ptrBool(true),
				TrialEnd:        tt.trialEnd,
				SubscriptionEnd: tt.subscriptionEnd,
			}

			st := Resolve(p, tt.at, 0)

			assert.True(t, st.HasFullAccess)
			assert.True(t, st.IsLifetime)
			assert.True(t, st.IsPro)
			assert.Equal(t, models.StatusPro, st.Status)
			assert.Equal(t, models.PlanTypeLifetime, st.PlanType)
		})
	}
}

func TestResolve_TrialEndEqualNowIsInactive(t *testing.T) {
	p := &models.Profile{Plan: models.PlanFree, TrialEnd: ptrTime(now)}

	st := Resolve(p, now, 0)

	assert.False(t, st.IsTrialActive)
	assert.False(t, st.HasFullAccess)
	assert.Equal(t, models.StatusExpired, st.Status)
}

func TestResolve_SubscriptionEndEqualNowIsInactive(t *testing.T) {
	p := &models.Profile{Plan: models.PlanFree, SubscriptionEnd: ptrTime(now)}

	st := Resolve(p, now, 0)

	assert.False(t, st.IsSubscriptionActive)
	assert.Equal(t, models.StatusExpired, st.Status)
}

func TestResolve_TrialExpiresWhenClockAdvances(t *testing.T) {
	p := &models.Profile{Plan: models.PlanFree, TrialEnd: ptrTime(now.Add(24 * time.Hour))}

	before := Resolve(p, now, 1)
	assert.Equal(t, models.StatusTrial, before.Status)
	assert.True(t, before.HasFullAccess)

	after := Resolve(p, now.Add(25*time.Hour), 1)
	assert.Equal(t, models.StatusExpired, after.Status)
	assert.False(t, after.HasFullAccess)

	// меняются только признаки, зависящие от окончания пробного периода
	before.Status, after.Status = "", ""
	before.HasFullAccess, after.HasFullAccess = false, false
	before.IsTrialActive, after.IsTrialActive = false, false
	assert.Equal(t, before, after)
}

func TestResolve_ActiveSubscriptionIsMonthlyPro(t *testing.T) {
	p := &models.Profile{
		Plan:            models.PlanFree,
		IsPro:           false,
		IsLifetime:      ptrBool(false),
		SubscriptionEnd: ptrTime(now.AddDate(0, 0, 5)),
	}

	st := Resolve(p, now, 0)

	assert.Equal(t, models.StatusPro, st.Status)
	assert.Equal(t, models.PlanTypeMonthly, st.PlanType)
	assert.True(t, st.IsSubscriptionActive)
	assert.False(t, st.IsPro)
	assert.True(t, st.HasFullAccess)
}

func TestResolve_FlagCombinations(t *testing.T) {
	tests := []struct {
		name       string
		profile    models.Profile
		wantStatus models.PlanStatus
		wantPlan   models.PlanType
		wantAccess bool
	}{
		{
			name:       "fresh signup",
			profile:    models.Profile{Plan: models.PlanFree, TrialEnd: ptrTime(now.AddDate(0, 0, 30))},
			wantStatus: models.StatusTrial,
			wantPlan:   models.PlanTypeFree,
			wantAccess: true,
		},
		{
			name:       "legacy plan pro without other flags",
			profile:    models.Profile{Plan: models.PlanPro},
			wantStatus: models.StatusPro,
			wantPlan:   models.PlanTypeMonthly,
			wantAccess: true,
		},
		{
			name:       "is_pro without plan",
			profile:    models.Profile{Plan: models.PlanFree, IsPro: true},
			wantStatus: models.StatusPro,
			wantPlan:   models.PlanTypeFree,
			wantAccess: true,
		},
		{
			name:       "pro flag and running trial",
			profile:    models.Profile{Plan: models.PlanPro, IsPro: true, TrialEnd: ptrTime(now.AddDate(0, 0, 3))},
			wantStatus: models.StatusPro,
			wantPlan:   models.PlanTypeMonthly,
			wantAccess: true,
		},
		{
			name:       "null is_lifetime treated as false",
			profile:    models.Profile{Plan: models.PlanFree, IsLifetime: nil},
			wantStatus: models.StatusExpired,
			wantPlan:   models.PlanTypeFree,
			wantAccess: false,
		},
		{
			name:       "expired everything",
			profile:    models.Profile{Plan: models.PlanFree, TrialEnd: ptrTime(now.AddDate(0, 0, -1)), SubscriptionEnd: ptrTime(now.AddDate(0, 0, -1))},
			wantStatus: models.StatusExpired,
			wantPlan:   models.PlanTypeFree,
			wantAccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Resolve(&tt.profile, now, 0)

			assert.Equal(t, tt.wantStatus, st.Status)
			assert.Equal(t, tt.wantPlan, st.PlanType)
			assert.Equal(t, tt.wantAccess, st.HasFullAccess)
			assert.False(t, st.Provisional)
		})
	}
}

func TestResolve_DaysRemainingComesFromServer(t *testing.T) {
	p := &models.Profile{Plan: models.PlanFree, TrialEnd: ptrTime(now.AddDate(0, 0, 20))}

	assert.Equal(t, 7, Resolve(p, now, 7).DaysRemaining)
	assert.Equal(t, 0, Resolve(p, now, -2).DaysRemaining)
}

func TestResolve_MissingProfileIsPermissiveButNotMutable(t *testing.T) {
	st := Resolve(nil, now, 0)

	assert.True(t, st.HasFullAccess)
	assert.Equal(t, models.StatusTrial, st.Status)
	assert.Equal(t, DefaultTrialDays, st.DaysRemaining)
	assert.True(t, st.Provisional)
	assert.False(t, st.Locked())
	assert.False(t, st.CanMutate())
}

func TestStatus_CanMutate(t *testing.T) {
	trial := Resolve(&models.Profile{TrialEnd: ptrTime(now.Add(time.Hour))}, now, 1)
	expired := Resolve(&models.Profile{TrialEnd: ptrTime(now.Add(-time.Hour))}, now, 0)

	assert.True(t, trial.CanMutate())
	assert.False(t, expired.CanMutate())
	assert.True(t, expired.Locked())
}

func TestSnapshot_Resolve(t *testing.T) {
	profile := &models.Profile{TrialEnd: ptrTime(now.Add(-time.Hour))}

	tests := []struct {
		name            string
		snapshot        Snapshot
		wantProvisional bool
		wantAccess      bool
	}{
		{name: "loading", snapshot: Snapshot{State: Loading}, wantProvisional: true, wantAccess: true},
		{name: "missing", snapshot: Snapshot{State: Missing}, wantProvisional: true, wantAccess: true},
		{name: "loaded expired", snapshot: Snapshot{State: Loaded, Profile: profile}, wantProvisional: false, wantAccess: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := tt.snapshot.Resolve(now)
			assert.Equal(t, tt.wantProvisional, st.Provisional)
			assert.Equal(t, tt.wantAccess, st.HasFullAccess)
		})
	}
}
