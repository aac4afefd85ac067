package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/charter-booking/internal/model"
)

func newBlockService(t *testing.T) (*fixture, *BlockService) {
	t.Helper()
	f := newFixture(t)
	return f, NewBlockService(f.store, f.store)
}

func TestCreateBlock_RoleAndInputChecks(t *testing.T) {
	f, svc := newBlockService(t)
	ctx := context.Background()
	in := CreateBlockInput{BoatID: &f.boat.ID, StartDate: "2030-06-10", StartTime: ptr("08:00"), EndDate: "2030-06-10", EndTime: ptr("12:00"), Reason: "survey"}

	_, err := svc.CreateBlock(ctx, f.agent, in)
	assert.Equal(t, KindForbidden, KindOf(err))

	power := model.Actor{UserID: 12, Role: model.RolePowerAgent, CompanyID: 1}
	b, err := svc.CreateBlock(ctx, power, in)
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, power.UserID, b.CreatedBy)

	bad := in
	bad.EndTime = ptr("07:00")
	_, err = svc.CreateBlock(ctx, f.manager, bad)
	assert.Equal(t, KindValidation, KindOf(err), "end before start")

	bad = in
	bad.StartDate = "10/06/2030"
	_, err = svc.CreateBlock(ctx, f.manager, bad)
	assert.Equal(t, KindValidation, KindOf(err))

	bad = in
	bad.BoatID = ptr(uint64(4242))
	_, err = svc.CreateBlock(ctx, f.manager, bad)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListBlocks_MergesGlobalAndBoatBlocks(t *testing.T) {
	f, svc := newBlockService(t)
	ctx := context.Background()
	other := f.addBoat(t, 1, "Blue Marlin", 8)

	own, err := svc.CreateBlock(ctx, f.manager, CreateBlockInput{BoatID: &f.boat.ID, StartDate: "2030-06-10", EndDate: "2030-06-10", Reason: "paint"})
	require.NoError(t, err)
	global, err := svc.CreateBlock(ctx, f.manager, CreateBlockInput{StartDate: "2030-06-11", StartTime: ptr("22:00"), EndDate: "2030-06-12", EndTime: ptr("02:00"), Reason: "regatta"})
	require.NoError(t, err)
	_, err = svc.CreateBlock(ctx, f.manager, CreateBlockInput{BoatID: &other.ID, StartDate: "2030-06-10", EndDate: "2030-06-10", Reason: "other"})
	require.NoError(t, err)
	_, err = svc.CreateBlock(ctx, f.manager, CreateBlockInput{BoatID: &f.boat.ID, StartDate: "2030-07-01", EndDate: "2030-07-02", Reason: "later"})
	require.NoError(t, err)

	got, err := svc.ListBlocks(ctx, f.agent, model.DateRange{From: "2030-06-10", To: "2030-06-12"}, &f.boat.ID)
	require.NoError(t, err)
	ids := make([]uint64, 0, len(got))
	for _, b := range got {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []uint64{own.ID, global.ID}, ids)

	all, err := svc.ListBlocks(ctx, f.agent, model.DateRange{From: "2030-06-10", To: "2030-06-12"}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// the overnight block reaches into the 12th
	late, err := svc.ListBlocks(ctx, f.agent, model.DateRange{From: "2030-06-12", To: "2030-06-12"}, nil)
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, global.ID, late[0].ID)

	_, err = svc.ListBlocks(ctx, f.agent, model.DateRange{From: "2030-06-12", To: "2030-06-10"}, nil)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDeleteBlock_Permissions(t *testing.T) {
	f, svc := newBlockService(t)
	ctx := context.Background()
	b, err := svc.CreateBlock(ctx, f.manager, CreateBlockInput{StartDate: "2030-06-10", EndDate: "2030-06-10", Reason: "storm"})
	require.NoError(t, err)

	for _, role := range []string{model.RoleAgent, model.RoleCaptain} {
		err := svc.DeleteBlock(ctx, model.Actor{UserID: 20, Role: role, CompanyID: 1}, b.ID)
		assert.Equal(t, KindForbidden, KindOf(err), role)
	}

	stranger := model.Actor{UserID: 30, Role: model.RoleAdmin, CompanyID: 2}
	assert.Equal(t, KindNotFound, KindOf(svc.DeleteBlock(ctx, stranger, b.ID)))

	require.NoError(t, svc.DeleteBlock(ctx, model.Actor{UserID: 21, Role: model.RolePowerAgent, CompanyID: 1}, b.ID))
	assert.Equal(t, KindNotFound, KindOf(svc.DeleteBlock(ctx, f.manager, b.ID)))

	// the slot is bookable again
	f.hold(t, &f.boat.ID, window(10, 12))
}
