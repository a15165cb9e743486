package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gatherhub/gatherhub/pkg/queue"
)

// In-memory repository fakes shared by the service tests.

type fakeCommunityRepo struct {
	mu          sync.Mutex
	communities map[int64]*entity.Community
	nextID      int64
	affected    map[int64][]int64 // community -> extra event ids reported by cascade
	events      *fakeEventRepo    // cascaded to when set
}

func newFakeCommunityRepo() *fakeCommunityRepo {
	return &fakeCommunityRepo{
		communities: make(map[int64]*entity.Community),
		affected:    make(map[int64][]int64),
	}
}

func (f *fakeCommunityRepo) Create(_ context.Context, c *entity.Community) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.Active = true
	c.CreatedAt = time.Now()
	copied := *c
	f.communities[c.ID] = &copied
	return nil
}

func (f *fakeCommunityRepo) GetByID(_ context.Context, id int64) (*entity.Community, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.communities[id]
	if !ok {
		return nil, entity.ErrCommunityNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCommunityRepo) Update(_ context.Context, c *entity.Community) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.communities[c.ID]
	if !ok || stored.DeletedAt != nil {
		return entity.ErrCommunityNotFound
	}
	copied := *c
	f.communities[c.ID] = &copied
	return nil
}

func (f *fakeCommunityRepo) GetAll(_ context.Context) ([]*entity.Community, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Community
	for _, c := range f.communities {
		if c.DeletedAt == nil {
			copied := *c
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeCommunityRepo) Deactivate(_ context.Context, id, actorID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.communities[id]
	if !ok || c.DeletedAt != nil {
		return nil, entity.ErrCommunityNotFound
	}
	now := time.Now()
	c.Active = false
	c.DeactivatedAt = &now
	c.DeactivatedBy = &actorID

	var ids []int64
	if f.events != nil {
		ids = f.events.hideByCommunity(id)
	}
	return append(ids, f.affected[id]...), nil
}

func (f *fakeCommunityRepo) Reactivate(_ context.Context, id, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.communities[id]
	if !ok || c.DeletedAt != nil {
		return entity.ErrCommunityNotFound
	}
	c.Active = true
	c.DeactivatedAt = nil
	c.DeactivatedBy = nil
	return nil
}

func (f *fakeCommunityRepo) SoftDelete(_ context.Context, id, actorID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.communities[id]
	if !ok || c.DeletedAt != nil {
		return nil, entity.ErrCommunityNotFound
	}
	now := time.Now()
	c.Active = false
	c.DeletedAt = &now
	c.DeletedBy = &actorID

	var ids []int64
	if f.events != nil {
		ids = f.events.softDeleteByCommunity(id, now)
	}
	return append(ids, f.affected[id]...), nil
}

type fakeMembershipRepo struct {
	mu            sync.Mutex
	memberships   map[[2]int64]*entity.Membership // (community, user)
	nextID        int64
	communityTags map[int64][]string    // user -> tags, unscoped
	scopedTags    map[[2]int64][]string // (user, community) -> tags
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{
		memberships:   make(map[[2]int64]*entity.Membership),
		communityTags: make(map[int64][]string),
		scopedTags:    make(map[[2]int64][]string),
	}
}

func (f *fakeMembershipRepo) Upsert(_ context.Context, m *entity.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{m.CommunityID, m.UserID}
	if existing, ok := f.memberships[key]; ok {
		existing.Role = m.Role
		m.ID = existing.ID
		return nil
	}
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	copied := *m
	f.memberships[key] = &copied
	return nil
}

func (f *fakeMembershipRepo) Get(_ context.Context, communityID, userID int64) (*entity.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[[2]int64{communityID, userID}]
	if !ok {
		return nil, entity.ErrMembershipNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMembershipRepo) Delete(_ context.Context, communityID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{communityID, userID}
	if _, ok := f.memberships[key]; !ok {
		return entity.ErrMembershipNotFound
	}
	delete(f.memberships, key)
	return nil
}

func (f *fakeMembershipRepo) GetByCommunity(_ context.Context, communityID int64) ([]*entity.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Membership
	for key, m := range f.memberships {
		if key[0] == communityID {
			copied := *m
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeMembershipRepo) GetByUser(_ context.Context, userID int64) ([]*entity.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Membership
	for key, m := range f.memberships {
		if key[1] == userID {
			copied := *m
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeMembershipRepo) CollectCommunityTags(_ context.Context, userID, communityID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if communityID != 0 {
		return f.scopedTags[[2]int64{userID, communityID}], nil
	}
	return f.communityTags[userID], nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[int64]*entity.Event
	nextID int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int64]*entity.Event)}
}

func (f *fakeEventRepo) Create(_ context.Context, e *entity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e.ID = f.nextID
	e.Active = true
	e.CreatedAt = time.Now()
	copied := *e
	f.events[e.ID] = &copied
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEventRepo) Update(_ context.Context, e *entity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.events[e.ID]
	if !ok || stored.CancelledAt != nil || stored.DeletedAt != nil {
		return entity.ErrEventNotFound
	}
	copied := *e
	f.events[e.ID] = &copied
	return nil
}

func (f *fakeEventRepo) Cancel(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.CancelledAt != nil || e.DeletedAt != nil {
		return entity.ErrEventNotFound
	}
	now := time.Now()
	e.Active = false
	e.CancelledAt = &now
	return nil
}

func (f *fakeEventRepo) GetByCommunity(_ context.Context, communityID int64) ([]*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Event
	for _, e := range f.events {
		if e.CommunityID == communityID && e.Active && e.DeletedAt == nil {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeEventRepo) GetUpcoming(_ context.Context, from time.Time, limit int) ([]*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Event
	for _, e := range f.events {
		if e.StartTime.After(from) && e.Active && e.DeletedAt == nil && len(result) < limit {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeEventRepo) SearchByText(_ context.Context, query string, limit int) ([]*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	query = strings.ToLower(query)
	var result []*entity.Event
	for _, e := range f.events {
		if !e.Active || e.DeletedAt != nil || len(result) >= limit {
			continue
		}
		if strings.Contains(strings.ToLower(e.Title), query) ||
			strings.Contains(strings.ToLower(e.Description), query) {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeEventRepo) GetWithEmbedding(_ context.Context, limit int) ([]*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Event
	for _, e := range f.events {
		if e.Embedding != nil && e.Active && e.DeletedAt == nil && len(result) < limit {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeEventRepo) UpdateEmbedding(_ context.Context, id int64, vector []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return entity.ErrEventNotFound
	}
	e.Embedding = vector
	return nil
}

func (f *fakeEventRepo) GetMissingEmbedding(_ context.Context, limit int) ([]*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Event
	for _, e := range f.events {
		if e.Embedding == nil && e.Active && e.DeletedAt == nil && len(result) < limit {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeEventRepo) GetNeedingReminder(_ context.Context, from, to time.Time) ([]*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Event
	for _, e := range f.events {
		if e.ReminderSent || !e.Active || e.DeletedAt != nil {
			continue
		}
		if !e.StartTime.Before(from) && e.StartTime.Before(to) {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeEventRepo) MarkReminderSent(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.events[id]; ok {
		e.ReminderSent = true
	}
	return nil
}

// hideByCommunity mirrors the deactivation cascade: visible events of the
// community lose their active flag and nothing else.
func (f *fakeEventRepo) hideByCommunity(communityID int64) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, e := range f.events {
		if e.CommunityID == communityID && e.Active && e.DeletedAt == nil {
			e.Active = false
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// softDeleteByCommunity mirrors the deletion cascade: every not-yet-deleted
// event of the community gets the community's deletion timestamp.
func (f *fakeEventRepo) softDeleteByCommunity(communityID int64, at time.Time) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, e := range f.events {
		if e.CommunityID == communityID && e.DeletedAt == nil {
			e.Active = false
			deletedAt := at
			e.DeletedAt = &deletedAt
			ids = append(ids, e.ID)
		}
	}
	return ids
}

type fakeRSVPRepo struct {
	mu              sync.Mutex
	rsvps           map[[2]int64]*entity.RSVP // (event, user)
	nextID          int64
	upsertErrs      []error            // consumed first, one per call
	goingTags       map[int64][]string // user -> tags, unscoped
	scopedGoingTags map[[2]int64][]string
	goingContacts   map[int64][]*entity.RSVPContact
}

func newFakeRSVPRepo() *fakeRSVPRepo {
	return &fakeRSVPRepo{
		rsvps:           make(map[[2]int64]*entity.RSVP),
		goingTags:       make(map[int64][]string),
		scopedGoingTags: make(map[[2]int64][]string),
		goingContacts:   make(map[int64][]*entity.RSVPContact),
	}
}

func (f *fakeRSVPRepo) Upsert(_ context.Context, r *entity.RSVP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.upsertErrs) > 0 {
		err := f.upsertErrs[0]
		f.upsertErrs = f.upsertErrs[1:]
		if err != nil {
			return err
		}
	}
	key := [2]int64{r.EventID, r.UserID}
	if existing, ok := f.rsvps[key]; ok {
		existing.Status = r.Status
		existing.Guests = r.Guests
		r.ID = existing.ID
		return nil
	}
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now()
	copied := *r
	f.rsvps[key] = &copied
	return nil
}

func (f *fakeRSVPRepo) GetByEventAndUser(_ context.Context, eventID, userID int64) (*entity.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rsvps[[2]int64{eventID, userID}]
	if !ok {
		return nil, entity.ErrRSVPNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRSVPRepo) GetByEvent(_ context.Context, eventID int64) ([]*entity.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.RSVP
	for key, r := range f.rsvps {
		if key[0] == eventID {
			copied := *r
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeRSVPRepo) Delete(_ context.Context, eventID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{eventID, userID}
	if _, ok := f.rsvps[key]; !ok {
		return entity.ErrRSVPNotFound
	}
	delete(f.rsvps, key)
	return nil
}

func (f *fakeRSVPRepo) CountGoing(_ context.Context, eventID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int
	for key, r := range f.rsvps {
		if key[0] == eventID && r.Status == entity.RSVPStatusGoing {
			count++
		}
	}
	return count, nil
}

func (f *fakeRSVPRepo) GetGoingContacts(_ context.Context, eventID int64) ([]*entity.RSVPContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.goingContacts[eventID], nil
}

func (f *fakeRSVPRepo) CollectGoingEventTags(_ context.Context, userID, communityID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if communityID != 0 {
		return f.scopedGoingTags[[2]int64{userID, communityID}], nil
	}
	return f.goingTags[userID], nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[int64]*entity.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[int64]*entity.Profile)}
}

func (f *fakeProfileRepo) Upsert(_ context.Context, p *entity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.profiles[p.UserID] = &copied
	return nil
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID int64) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, entity.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

type fakeActivityRepo struct {
	mu         sync.Mutex
	activities []*entity.Activity
}

func (f *fakeActivityRepo) Create(_ context.Context, a *entity.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *a
	f.activities = append(f.activities, &copied)
	return nil
}

func (f *fakeActivityRepo) GetByCommunity(_ context.Context, communityID int64, limit int) ([]*entity.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entity.Activity
	for _, a := range f.activities {
		if a.CommunityID == communityID && len(result) < limit {
			result = append(result, a)
		}
	}
	return result, nil
}

// fakePublisher records published tasks and optionally fails.
type fakePublisher struct {
	mu     sync.Mutex
	tasks  []*queue.Task
	failed bool
}

func (f *fakePublisher) Publish(_ context.Context, task *queue.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return errFailedPublish
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakePublisher) taskTypes() []queue.TaskType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]queue.TaskType, 0, len(f.tasks))
	for _, t := range f.tasks {
		types = append(types, t.Type)
	}
	return types
}

var errFailedPublish = errors.New("queue unavailable")
