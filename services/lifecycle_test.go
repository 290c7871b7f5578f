package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otadmin/models"
)

func TestApproveEntry_WithoutOverrideCopiesComputedMinutes(t *testing.T) {
	// GIVEN: a pending weekday entry computed at 150 normal minutes
	// WHEN: it is approved with no overrides
	// THEN: approved minutes mirror the computed ones and no override is flagged
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")

	got, err := f.ot.ApproveEntry(ctx(), entry.ID, ApproveRequest{Reason: ptr(" ok ")}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, entry.ComputedTotalMinutes(), got.ApprovedTotalMinutes)
	assert.Equal(t, 150, got.ApprovedNormalMinutes)
	assert.False(t, got.IsApprovedOverride)
	assert.Equal(t, "ok", got.DecisionReason)
	require.NotNil(t, got.DecidedBy)
	assert.Equal(t, f.actor.UserID, *got.DecidedBy)
	assert.NotNil(t, got.DecidedAt)
	assert.Equal(t, 2, got.Version)
	require.NotNil(t, got.Employee)
	assert.Equal(t, "ana", got.Employee.Name)

	approved := f.auditRows(t, models.AuditApprove)
	require.Len(t, approved, 1)
	assert.Equal(t, entryRef(entry.ID), approved[0].EntityID)
	assert.Equal(t, string(models.StatusPending), approved[0].Diff.Before["status"])
	assert.Equal(t, false, approved[0].Diff.After["isApprovedOverride"])
}

func TestApproveEntry_OverrideFlagAndTotal(t *testing.T) {
	cases := []struct {
		name         string
		req          ApproveRequest
		wantOverride bool
		want         [4]int // normal, double, triple, total
	}{
		{"none", ApproveRequest{}, false, [4]int{150, 0, 0, 150}},
		{"double only", ApproveRequest{ApprovedDoubleMinutes: ptr(30)}, true, [4]int{150, 30, 0, 180}},
		{"explicit zero", ApproveRequest{ApprovedNormalMinutes: ptr(0)}, true, [4]int{0, 0, 0, 0}},
		{"all three", ApproveRequest{
			ApprovedNormalMinutes: ptr(60),
			ApprovedDoubleMinutes: ptr(15),
			ApprovedTripleMinutes: ptr(45),
		}, true, [4]int{60, 15, 45, 120}},
		{"reason is not an override", ApproveRequest{Reason: ptr("fine")}, false, [4]int{150, 0, 0, 150}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")

			got, err := f.ot.ApproveEntry(ctx(), entry.ID, tc.req, f.actor)
			require.NoError(t, err)

			assert.Equal(t, tc.wantOverride, got.IsApprovedOverride)
			assert.Equal(t, tc.want, [4]int{
				got.ApprovedNormalMinutes,
				got.ApprovedDoubleMinutes,
				got.ApprovedTripleMinutes,
				got.ApprovedTotalMinutes,
			})
			assert.Equal(t, got.ApprovedNormalMinutes+got.ApprovedDoubleMinutes+got.ApprovedTripleMinutes, got.ApprovedTotalMinutes)
			// Computed buckets stay as they were.
			assert.Equal(t, 150, got.NormalMinutes)
		})
	}
}

func TestApproveEntry_NegativeOverride(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")

	_, err := f.ot.ApproveEntry(ctx(), entry.ID, ApproveRequest{ApprovedTripleMinutes: ptr(-15)}, f.actor)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, models.StatusPending, f.reload(t, entry.ID).Status)
}

func TestApproveEntry_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.ot.ApproveEntry(ctx(), 404, ApproveRequest{}, f.actor)
	assert.True(t, IsNotFound(err))
}

func TestApproveEntry_ConcurrentCallsDecideOnce(t *testing.T) {
	// GIVEN: one pending entry
	// WHEN: two approvers race to approve it
	// THEN: exactly one wins, the other sees a conflict
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.ot.ApproveEntry(ctx(), entry.ID, ApproveRequest{}, f.actor)
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	got := f.reload(t, entry.ID)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, 2, got.Version)
	assert.Len(t, f.auditRows(t, models.AuditApprove), 1)
}

func TestCasUpdate_StaleVersionIsAConflict(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")

	// Someone else edits between our read and our write.
	require.NoError(t, f.db.Model(&models.OvertimeEntry{}).Where("id = ?", entry.ID).
		Update("version", 2).Error)

	err := f.ot.casUpdate(ctx(), &entry, models.AuditApprove, map[string]any{"status": models.StatusApproved})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, models.StatusPending, f.reload(t, entry.ID).Status)
}

func TestRejectEntry(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")

	_, err := f.ot.RejectEntry(ctx(), entry.ID, "   ", f.actor)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	got, err := f.ot.RejectEntry(ctx(), entry.ID, " not authorised ", f.actor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "not authorised", got.DecisionReason)
	assert.NotNil(t, got.DecidedAt)
	assert.Zero(t, got.ApprovedTotalMinutes)
	assert.Equal(t, 150, got.NormalMinutes)

	rejected := f.auditRows(t, models.AuditReject)
	require.Len(t, rejected, 1)
	assert.Equal(t, "not authorised", rejected[0].Diff.After["decisionReason"])
}

func TestRejectEntry_CheckOrder(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")
	_, err := f.ot.ApproveEntry(ctx(), entry.ID, ApproveRequest{}, f.actor)
	require.NoError(t, err)

	_, err = f.ot.RejectEntry(ctx(), 404, "", f.actor)
	assert.True(t, IsNotFound(err), "missing entry is reported before the reason")

	_, err = f.ot.RejectEntry(ctx(), entry.ID, "", f.actor)
	assert.True(t, IsConflict(err), "decided entry is reported before the reason")
}

func TestDecidedEntriesAreImmutable(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")
	_, err := f.ot.ApproveEntry(ctx(), entry.ID, ApproveRequest{ApprovedNormalMinutes: ptr(120)}, f.actor)
	require.NoError(t, err)
	before := f.reload(t, entry.ID)

	_, err = f.ot.UpdateEntry(ctx(), entry.ID, EntryPatch{OutTime: ptr("20:00")}, f.actor)
	assert.True(t, IsConflict(err))
	_, err = f.ot.ApproveEntry(ctx(), entry.ID, ApproveRequest{ApprovedNormalMinutes: ptr(30)}, f.actor)
	assert.True(t, IsConflict(err))
	_, err = f.ot.RejectEntry(ctx(), entry.ID, "changed my mind", f.actor)
	assert.True(t, IsConflict(err))

	after := f.reload(t, entry.ID)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.OutTime, after.OutTime)
	assert.Equal(t, before.NormalMinutes, after.NormalMinutes)
	assert.Equal(t, 120, after.ApprovedTotalMinutes)
	assert.True(t, after.IsApprovedOverride)
}

func TestUpdateEntry_RecomputesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")
	patch := EntryPatch{OutTime: ptr("22:10"), Reason: ptr("late truck")}

	first, err := f.ot.UpdateEntry(ctx(), entry.ID, patch, f.actor)
	require.NoError(t, err)
	second, err := f.ot.UpdateEntry(ctx(), entry.ID, patch, f.actor)
	require.NoError(t, err)

	// 15:30 -> 22:10 is 400 raw minutes, 340 after the break, floored to 330.
	assert.Equal(t, 330, first.NormalMinutes)
	assert.True(t, first.IsNight)
	assert.Equal(t, first.NormalMinutes, second.NormalMinutes)
	assert.Equal(t, first.DoubleMinutes, second.DoubleMinutes)
	assert.Equal(t, first.TripleMinutes, second.TripleMinutes)
	assert.Equal(t, first.IsNight, second.IsNight)
	assert.Equal(t, "06:30", second.InTime)
	assert.Equal(t, "late truck", second.Reason)
	assert.Equal(t, models.StatusPending, second.Status)
	assert.Equal(t, 3, second.Version)

	updates := f.auditRows(t, models.AuditUpdate)
	require.Len(t, updates, 2)
	befores := []any{updates[0].Diff.Before["outTime"], updates[1].Diff.Before["outTime"]}
	assert.ElementsMatch(t, []any{"18:00", "22:10"}, befores)
	for _, u := range updates {
		assert.Equal(t, "22:10", u.Diff.After["outTime"])
	}
}

func TestUpdateEntry_SwitchToNoShiftClearsTimes(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, "Shift 1", "06:30", "18:00")

	got, err := f.ot.UpdateEntry(ctx(), entry.ID, EntryPatch{Shift: ptr(models.NoShift)}, f.actor)
	require.NoError(t, err)
	assert.Empty(t, got.InTime)
	assert.Empty(t, got.OutTime)
	assert.Zero(t, got.ComputedTotalMinutes())
}

func TestUpdateEntry_Validation(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.employees[0], testDate, models.NoShift, "", "")

	_, err := f.ot.UpdateEntry(ctx(), entry.ID, EntryPatch{Shift: ptr("Shift 1")}, f.actor)
	assert.True(t, IsValidation(err), "times are required once a shift is set")

	_, err = f.ot.UpdateEntry(ctx(), entry.ID, EntryPatch{Shift: ptr(" ")}, f.actor)
	assert.True(t, IsValidation(err))

	_, err = f.ot.UpdateEntry(ctx(), entry.ID, EntryPatch{
		Shift: ptr("Shift 1"), InTime: ptr("6.30"), OutTime: ptr("18:00"),
	}, f.actor)
	assert.True(t, IsValidation(err))

	_, err = f.ot.UpdateEntry(ctx(), 404, EntryPatch{}, f.actor)
	assert.True(t, IsNotFound(err))

	assert.Equal(t, 1, f.reload(t, entry.ID).Version)
}
