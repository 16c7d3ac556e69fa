package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/spormatch/models"
)

type eventFixture struct {
	store        *memStore
	mock         sqlmock.Sqlmock
	events       EventService
	participants ParticipantService
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	store := newMemStore()
	db, mock := newTxDB(t)
	return &eventFixture{
		store: store,
		mock:  mock,
		events: NewEventService(db, fakeEventRepo{store}, fakeParticipantRepo{store}, fakeResultRepo{store},
			fakeNotificationRepo{store}, fakeUserRepo{store}, nil),
		participants: NewParticipantService(db, fakeEventRepo{store}, fakeParticipantRepo{store}, true, nil),
	}
}

func TestCreateEventDefaults(t *testing.T) {
	f := newEventFixture(t)
	organizer := f.store.addUser("ali", "Ali Veli")
	expectCommits(f.mock, 1)

	event, err := f.events.CreateEvent(context.Background(), organizer.ID, CreateEventInput{
		Title:     "  Akşam maçı ",
		EventDate: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, "Akşam maçı", event.Title)
	assert.Equal(t, models.DefaultEventCategory, event.Category)
	assert.Equal(t, models.DefaultEventType, event.Type)
	assert.Equal(t, models.DefaultMaxPlayers, event.MaxParticipants)
	assert.Equal(t, models.StatusUpcoming, event.Status)
	assert.Equal(t, 1, f.store.countJoined(event.ID), "organizer joins own event")
}

func TestCreateEventValidation(t *testing.T) {
	f := newEventFixture(t)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		input CreateEventInput
		want  error
	}{
		{"blank title", CreateEventInput{Title: "  ", EventDate: future}, ErrEventTitleRequired},
		{"missing date", CreateEventInput{Title: "Maç"}, ErrEventDateRequired},
		{"negative capacity", CreateEventInput{Title: "Maç", EventDate: future, MaxParticipants: intPtr(-1)}, ErrEventInvalidCapacity},
		{"negative price", CreateEventInput{Title: "Maç", EventDate: future, Price: -5}, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.CreateEvent(context.Background(), 1, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateEventUnknownOrganizerRollsBack(t *testing.T) {
	f := newEventFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.events.CreateEvent(context.Background(), 77, CreateEventInput{Title: "Maç", EventDate: time.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.store.events)
}

func TestRecordResultByNonOrganizer(t *testing.T) {
	f := newEventFixture(t)
	organizer := f.store.addUser("ali", "Ali Veli")
	player := f.store.addUser("mehmet", "Mehmet Can")
	event := f.store.addEvent(organizer.ID, 10, time.Now().Add(time.Hour))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.events.RecordResult(context.Background(), event.ID, player.ID, RecordResultInput{Score: "3-2"})
	assert.ErrorIs(t, err, ErrNotEventOrganizer)

	assert.Equal(t, models.StatusUpcoming, f.store.events[event.ID].Status)
	assert.Empty(t, f.store.results)
}

func TestRecordResultErrors(t *testing.T) {
	f := newEventFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.events.RecordResult(context.Background(), 404, 1, RecordResultInput{Score: "1-0"})
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.events.RecordResult(context.Background(), 404, 1, RecordResultInput{Score: "  "})
	assert.ErrorIs(t, err, ErrScoreRequired)
}

func TestRecordResultNormalizesOutcome(t *testing.T) {
	f := newEventFixture(t)
	organizer := f.store.addUser("ali", "Ali Veli")
	event := f.store.addEvent(organizer.ID, 10, time.Now().Add(time.Hour))
	expectCommits(f.mock, 2)

	res, err := f.events.RecordResult(context.Background(), event.ID, organizer.ID, RecordResultInput{Score: "2-2"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMatchResult, res.Result)

	// Recording again replaces the stored result.
	res, err = f.events.RecordResult(context.Background(), event.ID, organizer.ID, RecordResultInput{Score: "3-2", Result: "win"})
	require.NoError(t, err)
	assert.Equal(t, "WIN", res.Result)
	assert.Equal(t, "3-2", f.store.results[event.ID].Score)
}

func TestEventLifecycleScenario(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	u1 := f.store.addUser("ali", "Ali Veli")
	u2 := f.store.addUser("mehmet", "Mehmet Can")
	expectCommits(f.mock, 3)

	event, err := f.events.CreateEvent(ctx, u1.ID, CreateEventInput{
		Title:           "Pazar maçı",
		EventDate:       time.Now().Add(72 * time.Hour),
		MaxParticipants: intPtr(10),
	})
	require.NoError(t, err)

	cards, err := f.events.Explore(ctx, u2.ID, "all")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, 1, cards[0].CurrentParticipants)
	assert.Equal(t, 10, cards[0].Progress)
	assert.False(t, cards[0].IsJoined)

	_, err = f.participants.Join(ctx, event.ID, u2.ID, nil)
	require.NoError(t, err)

	details, err := f.events.GetEvent(ctx, event.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, details.IsJoined)
	assert.False(t, details.IsOrganizer)
	assert.Len(t, details.Participants, 2)
	require.NotNil(t, details.Organizer)
	assert.Equal(t, u1.ID, details.Organizer.ID)
	assert.Nil(t, details.Result)

	_, err = f.events.RecordResult(ctx, event.ID, u1.ID, RecordResultInput{Score: "3-2"})
	require.NoError(t, err)

	cards, err = f.events.Explore(ctx, u2.ID, "")
	require.NoError(t, err)
	assert.Empty(t, cards)

	for _, user := range []*models.User{u1, u2} {
		matches, err := f.events.Matches(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, matches.Upcoming)
		require.Len(t, matches.Past, 1)
		assert.Equal(t, event.ID, matches.Past[0].ID)
		require.NotNil(t, matches.Past[0].Score)
		assert.Equal(t, "3-2", *matches.Past[0].Score)
	}

	details, err = f.events.GetEvent(ctx, event.ID, u1.ID)
	require.NoError(t, err)
	assert.True(t, details.IsOrganizer)
	require.NotNil(t, details.Result)
	assert.Equal(t, "3-2", details.Result.Score)
}

func TestExploreSweepsStartedEvents(t *testing.T) {
	f := newEventFixture(t)
	organizer := f.store.addUser("ali", "Ali Veli")
	stale := f.store.addEvent(organizer.ID, 10, time.Now().Add(-2*time.Hour))
	fresh := f.store.addEvent(organizer.ID, 10, time.Now().Add(2*time.Hour))
	f.store.events[fresh.ID].Category = "Basketbol"

	cards, err := f.events.Explore(context.Background(), organizer.ID, "Tümü")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, fresh.ID, cards[0].ID)
	assert.True(t, cards[0].IsJoined)
	assert.Equal(t, models.StatusPast, f.store.events[stale.ID].Status)

	cards, err = f.events.Explore(context.Background(), organizer.ID, "Futbol")
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestDashboard(t *testing.T) {
	f := newEventFixture(t)
	u1 := f.store.addUser("ali", "Ali Veli")
	u2 := f.store.addUser("mehmet", "Mehmet Can")
	for i := 0; i < 3; i++ {
		f.store.addEvent(u1.ID, 10, time.Now().Add(time.Duration(i+1)*time.Hour))
	}
	notifications := fakeNotificationRepo{f.store}
	for i := 0; i < 6; i++ {
		require.NoError(t, notifications.Create(context.Background(), &models.Notification{
			UserID: u2.ID, Type: models.NotificationSystem, Title: "Hi", Message: "system",
		}))
	}

	d, err := f.events.Dashboard(context.Background(), u2.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, d.UnreadNotifications)
	assert.Len(t, d.LookingForPlayers, dashboardLookingLimit)
	assert.Len(t, d.Activities, dashboardActivityLimit)
	assert.Len(t, d.UpcomingEvents, 3)
}

func TestDashboardLookingForPlayersIncludesUnlimitedEvents(t *testing.T) {
	f := newEventFixture(t)
	organizer := f.store.addUser("ali", "Ali Veli")
	viewer := f.store.addUser("mehmet", "Mehmet Can")
	full := f.store.addEvent(organizer.ID, 1, time.Now().Add(time.Hour))
	unlimited := f.store.addEvent(organizer.ID, 0, time.Now().Add(2*time.Hour))

	d, err := f.events.Dashboard(context.Background(), viewer.ID)
	require.NoError(t, err)
	ids := make([]int, 0, len(d.LookingForPlayers))
	for _, c := range d.LookingForPlayers {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int{unlimited.ID}, ids)
	assert.NotContains(t, ids, full.ID)
}

func TestSweepPastEvents(t *testing.T) {
	f := newEventFixture(t)
	organizer := f.store.addUser("ali", "Ali Veli")
	f.store.addEvent(organizer.ID, 10, time.Now().Add(-time.Hour))
	f.store.addEvent(organizer.ID, 10, time.Now().Add(time.Hour))

	n, err := f.events.SweepPastEvents(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = f.events.SweepPastEvents(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNormalizeHelpers(t *testing.T) {
	assert.Equal(t, "", normalizeCategory(" ALL "))
	assert.Equal(t, "", normalizeCategory("tümü"))
	assert.Equal(t, "Futbol", normalizeCategory(" Futbol "))
	assert.Equal(t, "DRAW", normalizeResult(""))
	assert.Equal(t, "LOSS", normalizeResult(" loss"))
}
