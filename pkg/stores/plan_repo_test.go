package stores

import (
	"context"
	"testing"
	"time"
)

func setupPlanRepos(t *testing.T) (*ParkRepo, *PlanRepo) {
	t.Helper()
	mgr := setupTestManager(t)
	return NewParkRepo(mgr, 0), NewPlanRepo(mgr)
}

func mustUpsertPark(t *testing.T, parks *ParkRepo, reference string) *Park {
	t.Helper()
	park, err := parks.Upsert(context.Background(), testPark(reference, "Park "+reference))
	if err != nil {
		t.Fatalf("failed to upsert park %s: %v", reference, err)
	}
	return park
}

func TestPlanCreate(t *testing.T) {
	parks, plans := setupPlanRepos(t)
	ctx := context.Background()
	park := mustUpsertPark(t, parks, "K-0039")

	plan, err := plans.Create(ctx, PlanCreate{
		ParkID:      park.ID,
		PlannedDate: "2026-09-12",
		Notes:       strPtr("first activation"),
	})
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	if plan.Status != PlanStatusDraft {
		t.Errorf("expected draft status, got %s", plan.Status)
	}
	if plan.Park == nil || plan.Park.Reference != "K-0039" {
		t.Error("expected joined park snapshot on the created plan")
	}
	if !plan.CreatedAt.Equal(plan.UpdatedAt) {
		t.Error("expected created_at to equal updated_at on creation")
	}
}

func TestPlanCreateMissingPark(t *testing.T) {
	_, plans := setupPlanRepos(t)
	ctx := context.Background()

	_, err := plans.Create(ctx, PlanCreate{ParkID: 9999, PlannedDate: "2026-09-12"})
	if !IsConstraint(err) {
		t.Fatalf("expected constraint error for missing park, got %v", err)
	}

	// No row may be inserted on failure.
	found, err := plans.Find(ctx, PlanFindOptions{})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no plans after failed create, got %d", len(found))
	}
}

func TestPlanUpdatePartial(t *testing.T) {
	parks, plans := setupPlanRepos(t)
	ctx := context.Background()
	park := mustUpsertPark(t, parks, "K-0039")

	hours := 2.5
	plan, err := plans.Create(ctx, PlanCreate{
		ParkID:        park.ID,
		PlannedDate:   "2026-09-12",
		PlannedTime:   strPtr("14:00"),
		DurationHours: &hours,
		Notes:         strPtr("original"),
	})
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	updated, err := plans.Update(ctx, plan.ID, PlanUpdate{Notes: strPtr("changed")})
	if err != nil {
		t.Fatalf("failed to update plan: %v", err)
	}

	if updated.Notes == nil || *updated.Notes != "changed" {
		t.Errorf("expected notes changed, got %v", updated.Notes)
	}
	if !updated.UpdatedAt.After(plan.UpdatedAt) {
		t.Error("expected updated_at to be refreshed")
	}
	// Every other field keeps its pre-update value.
	if updated.PlannedDate != plan.PlannedDate {
		t.Errorf("planned_date changed: %s -> %s", plan.PlannedDate, updated.PlannedDate)
	}
	if updated.PlannedTime == nil || *updated.PlannedTime != "14:00" {
		t.Errorf("planned_time changed: %v", updated.PlannedTime)
	}
	if updated.DurationHours == nil || *updated.DurationHours != hours {
		t.Errorf("duration_hours changed: %v", updated.DurationHours)
	}
	if updated.Status != plan.Status {
		t.Errorf("status changed: %s -> %s", plan.Status, updated.Status)
	}
	if !updated.CreatedAt.Equal(plan.CreatedAt) {
		t.Error("created_at must not change on update")
	}
}

func TestPlanUpdateMissing(t *testing.T) {
	_, plans := setupPlanRepos(t)

	_, err := plans.Update(context.Background(), 424242, PlanUpdate{Notes: strPtr("x")})
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestPlanUpdateRejectsUnknownStatus(t *testing.T) {
	parks, plans := setupPlanRepos(t)
	ctx := context.Background()
	park := mustUpsertPark(t, parks, "K-0039")

	plan, err := plans.Create(ctx, PlanCreate{ParkID: park.ID, PlannedDate: "2026-09-12"})
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	bogus := PlanStatus("archived")
	_, err = plans.Update(ctx, plan.ID, PlanUpdate{Status: &bogus})
	if !IsConstraint(err) {
		t.Errorf("expected constraint error for unknown status, got %v", err)
	}
}

func TestPlanFind(t *testing.T) {
	parks, plans := setupPlanRepos(t)
	ctx := context.Background()
	park := mustUpsertPark(t, parks, "K-0039")

	past := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	soon := time.Now().AddDate(0, 0, 2).Format("2006-01-02")
	later := time.Now().AddDate(0, 0, 9).Format("2006-01-02")

	for _, date := range []string{later, past, soon} {
		if _, err := plans.Create(ctx, PlanCreate{ParkID: park.ID, PlannedDate: date}); err != nil {
			t.Fatalf("failed to create plan for %s: %v", date, err)
		}
	}

	cancelled := PlanStatusCancelled
	finalized := PlanStatusFinalized
	all, err := plans.Find(ctx, PlanFindOptions{})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(all))
	}
	// Ascending planned-date order.
	if all[0].PlannedDate != past || all[2].PlannedDate != later {
		t.Errorf("expected ascending date order, got %s .. %s", all[0].PlannedDate, all[2].PlannedDate)
	}

	if _, err := plans.Update(ctx, all[0].ID, PlanUpdate{Status: &cancelled}); err != nil {
		t.Fatalf("failed to cancel plan: %v", err)
	}
	if _, err := plans.Update(ctx, all[1].ID, PlanUpdate{Status: &finalized}); err != nil {
		t.Fatalf("failed to finalize plan: %v", err)
	}

	upcoming, err := plans.Find(ctx, PlanFindOptions{Upcoming: true})
	if err != nil {
		t.Fatalf("find upcoming failed: %v", err)
	}
	if len(upcoming) != 2 {
		t.Errorf("expected 2 upcoming plans, got %d", len(upcoming))
	}

	byStatus, err := plans.Find(ctx, PlanFindOptions{Status: &finalized})
	if err != nil {
		t.Fatalf("find by status failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].Status != PlanStatusFinalized {
		t.Errorf("expected 1 finalized plan, got %+v", byStatus)
	}

	limited, err := plans.Find(ctx, PlanFindOptions{Limit: 1})
	if err != nil {
		t.Fatalf("find with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 plan with limit, got %d", len(limited))
	}

	for _, p := range all {
		if p.Park == nil || p.Park.ID != park.ID {
			t.Error("expected every plan to carry its owning park")
		}
	}
}

func TestPlanFindByIDMissing(t *testing.T) {
	_, plans := setupPlanRepos(t)

	plan, err := plans.FindByID(context.Background(), 31337)
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if plan != nil {
		t.Error("expected nil for missing plan id")
	}
}

func TestPlanDelete(t *testing.T) {
	parks, plans := setupPlanRepos(t)
	ctx := context.Background()
	park := mustUpsertPark(t, parks, "K-0039")

	plan, err := plans.Create(ctx, PlanCreate{ParkID: park.ID, PlannedDate: "2026-09-12"})
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	if err := plans.Delete(ctx, plan.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := plans.Delete(ctx, plan.ID); !IsNotFound(err) {
		t.Errorf("expected not-found error for second delete, got %v", err)
	}
}

func TestParkDeleteCascadesToPlans(t *testing.T) {
	parks, plans := setupPlanRepos(t)
	ctx := context.Background()

	doomed := mustUpsertPark(t, parks, "K-0039")
	kept := mustUpsertPark(t, parks, "K-0041")

	if _, err := plans.Create(ctx, PlanCreate{ParkID: doomed.ID, PlannedDate: "2026-09-12"}); err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}
	survivor, err := plans.Create(ctx, PlanCreate{ParkID: kept.ID, PlannedDate: "2026-09-13"})
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	if err := parks.DeleteByReference(ctx, "K-0039"); err != nil {
		t.Fatalf("failed to delete park: %v", err)
	}

	remaining, err := plans.Find(ctx, PlanFindOptions{})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 surviving plan, got %d", len(remaining))
	}
	if remaining[0].ID != survivor.ID {
		t.Errorf("wrong plan survived the cascade: %d", remaining[0].ID)
	}
}
