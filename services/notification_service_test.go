package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/repositories"
)

func newNotificationFixture(t *testing.T) (*memStore, sqlmock.Sqlmock, NotificationService) {
	t.Helper()
	store := newMemStore()
	db, mock := newTxDB(t)
	svc := NewNotificationService(db, fakeNotificationRepo{store}, fakeUserRepo{store}, fakeEventRepo{store},
		fakeParticipantRepo{store}, true, nil)
	return store, mock, svc
}

func TestSendInvite(t *testing.T) {
	store, _, svc := newNotificationFixture(t)
	sender := store.addUser("ali", "Ali Veli")
	target := store.addUser("mehmet", "Mehmet Can")
	event := store.addEvent(sender.ID, 10, time.Now().Add(time.Hour))
	ctx := context.Background()

	n, err := svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: "Mehmet", EventID: &event.ID})
	require.NoError(t, err)
	assert.Equal(t, target.ID, n.UserID)
	assert.Equal(t, models.NotificationInvite, n.Type)
	assert.Equal(t, models.InviteTitle, n.Title)
	assert.Equal(t, models.DefaultInviteMessage, n.Message)
	assert.False(t, n.IsRead)

	n, err = svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: "mehmet", Message: strPtr("gel oyna")})
	require.NoError(t, err)
	assert.Equal(t, "gel oyna", n.Message)
	assert.Nil(t, n.RelatedID)
}

func TestSendInviteErrors(t *testing.T) {
	store, _, svc := newNotificationFixture(t)
	sender := store.addUser("ali", "Ali Veli")
	store.addUser("mehmet", "Mehmet Can")
	ctx := context.Background()

	_, err := svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: "ali"})
	assert.ErrorIs(t, err, ErrCannotInviteSelf)
	_, err = svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: "mehmet", EventID: intPtr(404)})
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: " "})
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Empty(t, store.notifications)
}

func TestAcceptInviteJoinsEvent(t *testing.T) {
	store, mock, svc := newNotificationFixture(t)
	sender := store.addUser("ali", "Ali Veli")
	target := store.addUser("mehmet", "Mehmet Can")
	event := store.addEvent(sender.ID, 10, time.Now().Add(time.Hour))
	ctx := context.Background()
	expectCommits(mock, 1)

	invite, err := svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: "mehmet", EventID: &event.ID})
	require.NoError(t, err)

	p, err := svc.AcceptInvite(ctx, invite.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, event.ID, p.EventID)
	assert.Equal(t, 2, store.countJoined(event.ID))
	assert.True(t, store.notifications[invite.ID].IsRead)
}

func TestAcceptInviteRollsBackOnJoinFailure(t *testing.T) {
	store, mock, svc := newNotificationFixture(t)
	sender := store.addUser("ali", "Ali Veli")
	target := store.addUser("mehmet", "Mehmet Can")
	event := store.addEvent(sender.ID, 10, time.Now().Add(time.Hour))
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: "mehmet", EventID: &event.ID})
	require.NoError(t, err)

	t.Run("join fails", func(t *testing.T) {
		store.fail["participant.Upsert"] = errors.New("connection reset")
		defer delete(store.fail, "participant.Upsert")
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.AcceptInvite(ctx, invite.ID, target.ID)
		assert.Error(t, err)
		assert.False(t, store.notifications[invite.ID].IsRead)
		assert.Equal(t, 1, store.countJoined(event.ID))
	})

	t.Run("event already full", func(t *testing.T) {
		store.events[event.ID].MaxParticipants = 1
		defer func() { store.events[event.ID].MaxParticipants = 10 }()
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.AcceptInvite(ctx, invite.ID, target.ID)
		assert.ErrorIs(t, err, ErrEventFull)
		assert.False(t, store.notifications[invite.ID].IsRead)
	})

	t.Run("mark read fails", func(t *testing.T) {
		store.fail["notification.MarkRead"] = errors.New("deadlock detected")
		defer delete(store.fail, "notification.MarkRead")
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.AcceptInvite(ctx, invite.ID, target.ID)
		assert.Error(t, err)
		assert.False(t, store.notifications[invite.ID].IsRead)
	})
}

// Against the Postgres repositories: the participant insert and the failing
// mark-read share one transaction, which is rolled back instead of committed.
func TestAcceptInviteRollsBackJoinWhenMarkReadFails(t *testing.T) {
	db, mock := newTxDB(t)
	svc := NewNotificationService(db,
		repositories.NewPostgresNotificationRepository(db),
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresEventRepository(db),
		repositories.NewPostgresParticipantRepository(db),
		true, nil)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM notifications\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "sender_id", "type", "title", "message", "related_id", "is_read", "created_at"}).
			AddRow(7, 2, 1, "invite", "Maç daveti", "Ali seni davet etti", 3, false, now))
	mock.ExpectQuery(`FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organizer_id", "title", "subtitle", "category", "type", "event_date", "location",
			"description", "price", "max_participants", "badge_text", "icon", "image_url", "status", "created_at"}).
			AddRow(3, 1, "Halı saha", nil, "Futbol", "friendly", now.Add(24*time.Hour), "Kadıköy", "", 150.0, 10, nil, nil, nil, "upcoming", now))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(3, 2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM event_participants`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO event_participants`).
		WithArgs(3, 2, models.ParticipantStatusJoined, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"joined_at"}).AddRow(now))
	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE`).
		WithArgs(7, 2).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	participant, err := svc.AcceptInvite(context.Background(), 7, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.Nil(t, participant)
	// newTxDB verifies that no Commit was issued.
}

func TestAcceptInviteOfAnotherUser(t *testing.T) {
	store, mock, svc := newNotificationFixture(t)
	sender := store.addUser("ali", "Ali Veli")
	store.addUser("mehmet", "Mehmet Can")
	intruder := store.addUser("ayse", "Ayşe Yılmaz")
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, sender.ID, SendInviteInput{Username: "mehmet"})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.AcceptInvite(ctx, invite.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	assert.ErrorIs(t, svc.MarkRead(ctx, invite.ID, intruder.ID), ErrNotificationNotFound)
	assert.False(t, store.notifications[invite.ID].IsRead)
}

func TestAcceptInviteWithoutEvent(t *testing.T) {
	store, mock, svc := newNotificationFixture(t)
	sender := store.addUser("ali", "Ali Veli")
	target := store.addUser("mehmet", "Mehmet Can")
	expectCommits(mock, 1)

	invite, err := svc.SendInvite(context.Background(), sender.ID, SendInviteInput{Username: "mehmet"})
	require.NoError(t, err)

	p, err := svc.AcceptInvite(context.Background(), invite.ID, target.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.True(t, store.notifications[invite.ID].IsRead)
}

func TestListNotificationsFilter(t *testing.T) {
	store, _, svc := newNotificationFixture(t)
	user := store.addUser("mehmet", "Mehmet Can")
	repo := fakeNotificationRepo{store}
	for _, typ := range []models.NotificationType{models.NotificationInvite, models.NotificationSystem, models.NotificationAlert} {
		require.NoError(t, repo.Create(context.Background(), &models.Notification{UserID: user.ID, Type: typ, Title: string(typ)}))
	}

	tests := []struct {
		filter string
		want   int
	}{
		{"", 3},
		{"all", 3},
		{"Invites", 1},
		{"system", 2},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			list, err := svc.ListNotifications(context.Background(), user.ID, tt.filter)
			require.NoError(t, err)
			assert.Len(t, list, tt.want)
		})
	}

	_, err := svc.ListNotifications(context.Background(), user.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidNotificationFilter)
}
