package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle-system/internal/status"
	"raffle-system/models"
)

const sessionTTL = 24 * time.Hour

func newSessionService(t *testing.T) (*SessionService, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return NewSessionService(db, decimal.NewFromInt(5), sessionTTL), mock
}

func TestIdentify_Success(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectHSet("session:s1",
		"name", "Ana Silva",
		"contact", "(11) 98110-2244",
		"state", models.StateBrowse,
	).SetVal(3)
	mock.ExpectExpire("session:s1", sessionTTL).SetVal(true)

	identity, err := svc.Identify(context.Background(), "s1", "  Ana Silva  ", "11981102244")

	require.NoError(t, err)
	assert.True(t, identity.Identified)
	assert.Equal(t, "Ana Silva", identity.Name)
	assert.Equal(t, "(11) 98110-2244", identity.Contact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentify_EmptyName(t *testing.T) {
	svc, mock := newSessionService(t)

	_, err := svc.Identify(context.Background(), "s1", "   ", "11981102244")

	assert.ErrorIs(t, err, status.ErrEmptyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentify_InvalidContact(t *testing.T) {
	svc, mock := newSessionService(t)

	_, err := svc.Identify(context.Background(), "s1", "Ana", "119811")

	assert.ErrorIs(t, err, status.ErrInvalidContact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentity_Remembered(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectHGetAll("session:s1").SetVal(map[string]string{
		"name":    "Ana Silva",
		"contact": "(11) 98110-2244",
		"state":   models.StateBrowse,
	})

	identity, err := svc.Identity(context.Background(), "s1")

	require.NoError(t, err)
	assert.True(t, identity.Identified)
	assert.Equal(t, "(11) 98110-2244", identity.Contact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentity_Anonymous(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectHGetAll("session:s2").SetVal(map[string]string{})

	identity, err := svc.Identity(context.Background(), "s2")

	require.NoError(t, err)
	assert.False(t, identity.Identified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetIdentity(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectDel("session:s1", "selection:s1").SetVal(2)

	assert.NoError(t, svc.ResetIdentity(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleNumber_Select(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectSIsMember("selection:s1", "5").SetVal(false)
	mock.ExpectSAdd("selection:s1", "5").SetVal(1)
	mock.ExpectExpire("selection:s1", sessionTTL).SetVal(true)

	selected, err := svc.ToggleNumber(context.Background(), "s1", 5, models.StatusAvailable)

	require.NoError(t, err)
	assert.True(t, selected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleNumber_Deselect(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectSIsMember("selection:s1", "5").SetVal(true)
	mock.ExpectSRem("selection:s1", "5").SetVal(1)

	selected, err := svc.ToggleNumber(context.Background(), "s1", 5, models.StatusAvailable)

	require.NoError(t, err)
	assert.False(t, selected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleNumber_UnavailableIsNoOp(t *testing.T) {
	svc, mock := newSessionService(t)

	selected, err := svc.ToggleNumber(context.Background(), "s1", 5, models.StatusReserved)

	require.NoError(t, err)
	assert.False(t, selected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReview_SnapshotsTotal(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectSMembers("selection:s1").SetVal([]string{"17", "5"})
	mock.ExpectHSet("session:s1", "state", models.StateReview).SetVal(0)

	snapshot, err := svc.Review(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, []int{5, 17}, snapshot.Numbers)
	assert.Equal(t, 2, snapshot.Count)
	assert.Equal(t, "10.00", snapshot.Total.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReview_EmptySelection(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectSMembers("selection:s1").SetVal([]string{})

	_, err := svc.Review(context.Background(), "s1")

	assert.ErrorIs(t, err, status.ErrEmptySelection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteReservation(t *testing.T) {
	svc, mock := newSessionService(t)

	mock.ExpectDel("selection:s1").SetVal(1)
	mock.ExpectHSet("session:s1", "state", models.StateSubmitted).SetVal(0)

	assert.NoError(t, svc.CompleteReservation(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSplitMine(t *testing.T) {
	tickets := []models.Ticket{
		{Number: 5, Status: models.StatusReserved, BuyerContact: "(11) 98110-2244"},
		{Number: 17, Status: models.StatusPaid, BuyerContact: "(11) 98110-2244"},
		{Number: 42, Status: models.StatusPaid, BuyerContact: "(21) 98888-7777"},
		{Number: 99, Status: models.StatusAvailable},
	}

	mine := SplitMine(tickets, "(11) 98110-2244")

	require.Len(t, mine.Pending, 1)
	assert.Equal(t, 5, mine.Pending[0].Number)
	require.Len(t, mine.Confirmed, 1)
	assert.Equal(t, 17, mine.Confirmed[0].Number)

	// The match is on the stored string, digits alone do not qualify.
	assert.Empty(t, SplitMine(tickets, "11981102244").Pending)
	assert.Empty(t, SplitMine(tickets, "").Confirmed)
}
