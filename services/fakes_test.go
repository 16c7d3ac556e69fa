package services

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/repositories"
	"github.com/Dosada05/spormatch/storage"
)

// memStore is an in-memory stand-in for the database shared by the fake repositories.
type memStore struct {
	mu sync.Mutex

	fail map[string]error

	nextID        int
	users         map[int]*models.User
	events        map[int]*models.Event
	participants  map[[2]int]*models.EventParticipant
	results       map[int]*models.MatchResult
	conversations map[int]*models.Conversation
	convMembers   map[[2]int]*models.ConversationParticipant
	messages      []*models.Message
	notifications map[int]*models.Notification
	teams         map[int]*models.Team
	teamMembers   map[[2]int]*models.TeamMember

	cursorMoves int
}

func newMemStore() *memStore {
	return &memStore{
		fail:          map[string]error{},
		users:         map[int]*models.User{},
		events:        map[int]*models.Event{},
		participants:  map[[2]int]*models.EventParticipant{},
		results:       map[int]*models.MatchResult{},
		conversations: map[int]*models.Conversation{},
		convMembers:   map[[2]int]*models.ConversationParticipant{},
		notifications: map[int]*models.Notification{},
		teams:         map[int]*models.Team{},
		teamMembers:   map[[2]int]*models.TeamMember{},
	}
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *memStore) injected(op string) error {
	return m.fail[op]
}

func (m *memStore) addUser(username, fullName string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Username: username, Email: username + "@spormatch.app", FullName: fullName}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addEvent(organizerID int, maxParticipants int, date time.Time) *models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &models.Event{
		ID: m.id(), OrganizerID: organizerID, Title: "Halı saha", Category: "Futbol", Type: "friendly",
		EventDate: date, MaxParticipants: maxParticipants, Status: models.StatusUpcoming, CreatedAt: time.Now(),
	}
	m.events[e.ID] = e
	m.participants[[2]int{e.ID, organizerID}] = &models.EventParticipant{EventID: e.ID, UserID: organizerID, Status: models.ParticipantStatusJoined}
	return e
}

func (m *memStore) countJoined(eventID int) int {
	n := 0
	for k := range m.participants {
		if k[0] == eventID {
			n++
		}
	}
	return n
}

func (m *memStore) summary(userID int) *models.UserSummary {
	u := m.users[userID]
	if u == nil {
		return nil
	}
	return &models.UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

// --- users ---

type fakeUserRepo struct{ *memStore }

func (r fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if u.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	user.ID = r.id()
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r fakeUserRepo) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == identifier || u.Username == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r fakeUserRepo) Update(ctx context.Context, id int, upd models.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if upd.Username != nil {
		for _, other := range r.users {
			if other.ID != id && other.Username == *upd.Username {
				return repositories.ErrUserUsernameConflict
			}
		}
		u.Username = *upd.Username
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Bio != nil {
		u.Bio = upd.Bio
	}
	if upd.Position != nil {
		u.Position = upd.Position
	}
	return nil
}

func (r fakeUserRepo) UpdatePushToken(ctx context.Context, id int, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PushToken = &token
	return nil
}

func (r fakeUserRepo) CountExisting(ctx context.Context, ids []int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := r.users[id]; ok {
			n++
		}
	}
	return n, nil
}

// --- events ---

type fakeEventRepo struct{ *memStore }

func (r fakeEventRepo) Create(ctx context.Context, exec repositories.SQLExecutor, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[event.OrganizerID]; !ok {
		return repositories.ErrEventOrganizerInvalid
	}
	event.ID = r.id()
	event.CreatedAt = time.Now()
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, repositories.ErrEventNotFound
}

func (r fakeEventRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Event, error) {
	return r.GetByID(ctx, id)
}

func (r fakeEventRepo) MarkPastByOrganizer(ctx context.Context, exec repositories.SQLExecutor, eventID, organizerID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok || e.OrganizerID != organizerID {
		return false, nil
	}
	e.Status = models.StatusPast
	return true, nil
}

func (r fakeEventRepo) SweepPast(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.events {
		if e.Status == models.StatusUpcoming && e.EventDate.Before(now) {
			e.Status = models.StatusPast
			n++
		}
	}
	return n, nil
}

func (r fakeEventRepo) cards(viewerID int, keep func(e *models.Event, joined int) bool, limit int) []models.EventCard {
	ids := make([]int, 0, len(r.events))
	for id := range r.events {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	cards := make([]models.EventCard, 0)
	for _, id := range ids {
		e := r.events[id]
		joined := r.countJoined(id)
		if e.Status != models.StatusUpcoming || !keep(e, joined) {
			continue
		}
		_, isJoined := r.participants[[2]int{id, viewerID}]
		c := models.EventCard{
			ID: e.ID, Title: e.Title, Category: e.Category, Type: e.Type, EventDate: e.EventDate,
			MaxParticipants: e.MaxParticipants, CurrentParticipants: joined, IsJoined: isJoined,
		}
		c.FillProgress()
		cards = append(cards, c)
		if limit > 0 && len(cards) == limit {
			break
		}
	}
	return cards
}

func (r fakeEventRepo) ListExplore(ctx context.Context, viewerID int, category string) ([]models.EventCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cards(viewerID, func(e *models.Event, _ int) bool {
		return category == "" || e.Category == category
	}, 0), nil
}

func (r fakeEventRepo) ListLookingForPlayers(ctx context.Context, viewerID int, limit int) ([]models.EventCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cards(viewerID, func(e *models.Event, joined int) bool {
		return e.MaxParticipants == 0 || joined < e.MaxParticipants
	}, limit), nil
}

func (r fakeEventRepo) ListUpcoming(ctx context.Context, viewerID int, limit int) ([]models.EventCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cards(viewerID, func(*models.Event, int) bool { return true }, limit), nil
}

func (r fakeEventRepo) ListUserMatches(ctx context.Context, userID int, status models.EventStatus, limit int) ([]models.MatchSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MatchSummary, 0)
	for _, e := range r.events {
		if e.Status != status {
			continue
		}
		if _, ok := r.participants[[2]int{e.ID, userID}]; !ok {
			continue
		}
		m := models.MatchSummary{
			ID: e.ID, Title: e.Title, Category: e.Category, EventDate: e.EventDate, Status: e.Status,
			Role: models.RoleParticipant, CurrentParticipants: r.countJoined(e.ID), MaxParticipants: e.MaxParticipants,
		}
		if e.OrganizerID == userID {
			m.Role = models.RoleOrganizer
		}
		if res, ok := r.results[e.ID]; ok {
			score, result := res.Score, res.Result
			m.Score, m.Result = &score, &result
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- participants ---

type fakeParticipantRepo struct{ *memStore }

func (r fakeParticipantRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, p *models.EventParticipant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("participant.Upsert"); err != nil {
		return err
	}
	if _, ok := r.users[p.UserID]; !ok {
		return repositories.ErrParticipantUserInvalid
	}
	key := [2]int{p.EventID, p.UserID}
	if existing, ok := r.participants[key]; ok {
		existing.Status = p.Status
		existing.Position = p.Position
		p.JoinedAt = existing.JoinedAt
		return nil
	}
	p.JoinedAt = time.Now()
	cp := *p
	r.participants[key] = &cp
	return nil
}

func (r fakeParticipantRepo) Delete(ctx context.Context, eventID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, [2]int{eventID, userID})
	return nil
}

func (r fakeParticipantRepo) Exists(ctx context.Context, exec repositories.SQLExecutor, eventID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[[2]int{eventID, userID}]
	return ok, nil
}

func (r fakeParticipantRepo) CountJoined(ctx context.Context, exec repositories.SQLExecutor, eventID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countJoined(eventID), nil
}

func (r fakeParticipantRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.EventParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.EventParticipant, 0)
	for k, p := range r.participants {
		if k[0] != eventID {
			continue
		}
		cp := *p
		cp.IsOrganizer = r.events[eventID] != nil && r.events[eventID].OrganizerID == p.UserID
		cp.User = r.summary(p.UserID)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// --- match results ---

type fakeResultRepo struct{ *memStore }

func (r fakeResultRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, result *models.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	result.RecordedAt = time.Now()
	cp := *result
	r.results[result.EventID] = &cp
	return nil
}

func (r fakeResultRepo) GetByEventID(ctx context.Context, eventID int) (*models.MatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[eventID]; ok {
		cp := *res
		return &cp, nil
	}
	return nil, repositories.ErrMatchResultNotFound
}

// --- conversations ---

type fakeConversationRepo struct{ *memStore }

func (r fakeConversationRepo) CreateDirect(ctx context.Context, exec repositories.SQLExecutor, conv *models.Conversation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.DirectKey != nil && *c.DirectKey == *conv.DirectKey {
			*conv = *c
			return false, nil
		}
	}
	conv.ID = r.id()
	conv.Type = models.ConversationDirect
	conv.CreatedAt = time.Now()
	conv.LastMessageTime = conv.CreatedAt
	cp := *conv
	r.conversations[conv.ID] = &cp
	return true, nil
}

func (r fakeConversationRepo) CreateGroup(ctx context.Context, exec repositories.SQLExecutor, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv.ID = r.id()
	conv.Type = models.ConversationGroup
	conv.CreatedAt = time.Now()
	conv.LastMessageTime = conv.CreatedAt
	cp := *conv
	r.conversations[conv.ID] = &cp
	return nil
}

func (r fakeConversationRepo) GetByID(ctx context.Context, id int) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conversations[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, repositories.ErrConversationNotFound
}

func (r fakeConversationRepo) UpdateName(ctx context.Context, id int, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return repositories.ErrConversationNotFound
	}
	c.Name = &name
	return nil
}

func (r fakeConversationRepo) UpdateLastMessage(ctx context.Context, exec repositories.SQLExecutor, id int, content string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return repositories.ErrConversationNotFound
	}
	c.LastMessage = &content
	c.LastMessageTime = at
	return nil
}

func (r fakeConversationRepo) ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ConversationSummary, 0)
	for _, c := range r.conversations {
		me, ok := r.convMembers[[2]int{c.ID, userID}]
		if !ok {
			continue
		}
		s := models.ConversationSummary{ID: c.ID, Type: c.Type, LastMessage: derefString(c.LastMessage), LastMessageTime: c.LastMessageTime}
		if c.Type == models.ConversationGroup {
			s.Title = derefString(c.Name)
			s.AvatarURL = derefString(c.ImageURL)
		} else {
			for k := range r.convMembers {
				if k[0] == c.ID && k[1] != userID {
					other := k[1]
					s.OtherUserID = &other
					s.Title = r.users[other].FullName
				}
			}
		}
		for _, m := range r.messages {
			if m.ConversationID == c.ID && m.SenderID != userID && m.ID > me.LastReadMessageID {
				s.UnreadCount++
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageTime.After(out[j].LastMessageTime) })
	return out, nil
}

func (r fakeConversationRepo) AddParticipants(ctx context.Context, exec repositories.SQLExecutor, conversationID int, userIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range userIDs {
		key := [2]int{conversationID, id}
		if _, ok := r.convMembers[key]; !ok {
			r.convMembers[key] = &models.ConversationParticipant{ConversationID: conversationID, UserID: id, JoinedAt: time.Now()}
		}
	}
	return nil
}

func (r fakeConversationRepo) AddParticipant(ctx context.Context, conversationID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int{conversationID, userID}
	if _, ok := r.convMembers[key]; ok {
		return repositories.ErrConversationParticipantExists
	}
	r.convMembers[key] = &models.ConversationParticipant{ConversationID: conversationID, UserID: userID, JoinedAt: time.Now()}
	return nil
}

func (r fakeConversationRepo) RemoveParticipant(ctx context.Context, conversationID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int{conversationID, userID}
	if _, ok := r.convMembers[key]; !ok {
		return repositories.ErrConversationParticipantNotFound
	}
	delete(r.convMembers, key)
	return nil
}

func (r fakeConversationRepo) GetParticipant(ctx context.Context, conversationID, userID int) (*models.ConversationParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.convMembers[[2]int{conversationID, userID}]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repositories.ErrConversationParticipantNotFound
}

func (r fakeConversationRepo) ListParticipants(ctx context.Context, conversationID int) ([]*models.ConversationParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ConversationParticipant, 0)
	for k, p := range r.convMembers {
		if k[0] == conversationID {
			cp := *p
			cp.User = r.summary(p.UserID)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r fakeConversationRepo) AdvanceReadCursor(ctx context.Context, exec repositories.SQLExecutor, conversationID, userID int, messageID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.convMembers[[2]int{conversationID, userID}]
	if !ok || p.LastReadMessageID >= messageID {
		return false, nil
	}
	p.LastReadMessageID = messageID
	r.cursorMoves++
	return true, nil
}

// --- messages ---

type fakeMessageRepo struct{ *memStore }

func (r fakeMessageRepo) Create(ctx context.Context, exec repositories.SQLExecutor, msg *models.Message) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ClientToken != nil {
		for _, m := range r.messages {
			if m.ConversationID == msg.ConversationID && m.SenderID == msg.SenderID &&
				m.ClientToken != nil && *m.ClientToken == *msg.ClientToken {
				msg.ID, msg.Content, msg.CreatedAt = m.ID, m.Content, m.CreatedAt
				return false, nil
			}
		}
	}
	msg.ID = int64(r.id())
	msg.CreatedAt = time.Now()
	cp := *msg
	r.messages = append(r.messages, &cp)
	return true, nil
}

func (r fakeMessageRepo) LatestID(ctx context.Context, exec repositories.SQLExecutor, conversationID int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.ID > latest {
			latest = m.ID
		}
	}
	return latest, nil
}

func (r fakeMessageRepo) ListForViewer(ctx context.Context, conversationID, viewerID int) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var viewerCursor int64
	if p, ok := r.convMembers[[2]int{conversationID, viewerID}]; ok {
		viewerCursor = p.LastReadMessageID
	}
	out := make([]*models.Message, 0)
	for _, m := range r.messages {
		if m.ConversationID != conversationID {
			continue
		}
		cp := *m
		cp.IsMe = m.SenderID == viewerID
		if cp.IsMe {
			cp.IsRead = true
			for k, p := range r.convMembers {
				if k[0] == conversationID && k[1] != viewerID && p.LastReadMessageID < m.ID {
					cp.IsRead = false
				}
			}
		} else {
			cp.IsRead = m.ID <= viewerCursor
		}
		out = append(out, &cp)
	}
	return out, nil
}

// --- notifications ---

type fakeNotificationRepo struct{ *memStore }

func (r fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.id()
	n.CreatedAt = time.Now().Add(time.Duration(n.ID) * time.Millisecond)
	cp := *n
	r.notifications[n.ID] = &cp
	return nil
}

func (r fakeNotificationRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.notifications[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, repositories.ErrNotificationNotFound
}

func (r fakeNotificationRepo) MarkRead(ctx context.Context, exec repositories.SQLExecutor, id, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("notification.MarkRead"); err != nil {
		return err
	}
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return repositories.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (r fakeNotificationRepo) ListForUser(ctx context.Context, userID int, filter models.NotificationFilter, limit int) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Notification, 0)
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		switch filter {
		case models.FilterInvites:
			if n.Type != models.NotificationInvite {
				continue
			}
		case models.FilterSystem:
			if n.Type != models.NotificationSystem && n.Type != models.NotificationAlert {
				continue
			}
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeNotificationRepo) CountUnread(ctx context.Context, userID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notif := range r.notifications {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

// --- teams ---

type fakeTeamRepo struct{ *memStore }

func (r fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.id()
	team.CreatedAt = time.Now()
	cp := *team
	r.teams[team.ID] = &cp
	return nil
}

func (r fakeTeamRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member.JoinedAt = time.Now()
	cp := *member
	r.teamMembers[[2]int{member.TeamID, member.UserID}] = &cp
	return nil
}

func (r fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	for k := range r.teamMembers {
		if k[0] == id {
			cp.MemberCount++
		}
	}
	return &cp, nil
}

func (r fakeTeamRepo) List(ctx context.Context) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, 0, len(r.teams))
	for _, t := range r.teams {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r fakeTeamRepo) ListMembers(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.TeamMember, 0)
	for k, m := range r.teamMembers {
		if k[0] == teamID {
			cp := *m
			cp.User = r.summary(m.UserID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- realtime and storage ---

type recordingPublisher struct {
	mu      sync.Mutex
	sent    []*models.Message
	revoked [][2]int // {conversationID, userID}
}

func (p *recordingPublisher) RevokeMember(ctx context.Context, conversationID, userID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, [2]int{conversationID, userID})
	return nil
}

func (p *recordingPublisher) PublishMessage(ctx context.Context, msg *models.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *msg
	p.sent = append(p.sent, &cp)
	return nil
}

type memUploader struct {
	objects map[string][]byte
}

func (u *memUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memUploader) Delete(ctx context.Context, key string) error {
	delete(u.objects, key)
	return nil
}

func (u *memUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

// newTxDB returns a sqlmock-backed *sql.DB used only for transaction boundaries.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func expectCommits(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}
