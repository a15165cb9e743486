package service

import (
	"context"
	"testing"

	"github.com/gatherhub/gatherhub/config"
	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagFixture struct {
	membershipRepo *fakeMembershipRepo
	rsvpRepo       *fakeRSVPRepo
	profileRepo    *fakeProfileRepo
	svc            TagService
}

func newTagFixture(t *testing.T, limit int) *tagFixture {
	t.Helper()
	f := &tagFixture{
		membershipRepo: newFakeMembershipRepo(),
		rsvpRepo:       newFakeRSVPRepo(),
		profileRepo:    newFakeProfileRepo(),
	}
	f.svc = NewTagService(f.membershipRepo, f.rsvpRepo, f.profileRepo, config.TagsConfig{Limit: limit})
	return f
}

func TestGetPersonalizedTags(t *testing.T) {
	ctx := context.Background()

	t.Run("user with no data gets empty list", func(t *testing.T) {
		f := newTagFixture(t, 10)

		tags, err := f.svc.GetPersonalizedTags(ctx, 42, 0)
		require.NoError(t, err)
		require.NotNil(t, tags)
		assert.Empty(t, tags)
	})

	t.Run("community tags outrank profile interests", func(t *testing.T) {
		f := newTagFixture(t, 10)
		f.membershipRepo.communityTags[42] = []string{"golang"}
		require.NoError(t, f.profileRepo.Upsert(ctx, &entity.Profile{
			UserID:    42,
			Interests: []string{"chess"},
		}))

		tags, err := f.svc.GetPersonalizedTags(ctx, 42, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"golang", "chess"}, tags)
	})

	t.Run("all sources merge by priority", func(t *testing.T) {
		f := newTagFixture(t, 10)
		f.membershipRepo.communityTags[42] = []string{"golang"}
		f.rsvpRepo.goingTags[42] = []string{"meetup"}
		require.NoError(t, f.profileRepo.Upsert(ctx, &entity.Profile{
			UserID:          42,
			Interests:       []string{"chess"},
			CustomInterests: []string{"bouldering"},
			ExperienceLevel: "senior",
			Location:        "berlin",
		}))

		tags, err := f.svc.GetPersonalizedTags(ctx, 42, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"golang", "meetup", "chess", "bouldering", "senior", "berlin"}, tags)
	})

	t.Run("duplicate across sources keeps highest priority", func(t *testing.T) {
		f := newTagFixture(t, 10)
		f.membershipRepo.communityTags[42] = []string{"Golang"}
		require.NoError(t, f.profileRepo.Upsert(ctx, &entity.Profile{
			UserID:    42,
			Interests: []string{"golang", "chess"},
		}))

		tags, err := f.svc.GetPersonalizedTags(ctx, 42, 0)
		require.NoError(t, err)
		// single entry, membership casing wins
		assert.Equal(t, []string{"Golang", "chess"}, tags)
	})

	t.Run("limit caps the list", func(t *testing.T) {
		f := newTagFixture(t, 2)
		f.membershipRepo.communityTags[42] = []string{"a", "b", "c", "d"}

		tags, err := f.svc.GetPersonalizedTags(ctx, 42, 0)
		require.NoError(t, err)
		assert.Len(t, tags, 2)
	})

	t.Run("community scope narrows membership and rsvp sources", func(t *testing.T) {
		f := newTagFixture(t, 10)
		f.membershipRepo.communityTags[42] = []string{"golang", "chess"}
		f.membershipRepo.scopedTags[[2]int64{42, 7}] = []string{"golang"}
		f.rsvpRepo.goingTags[42] = []string{"meetup", "picnic"}
		f.rsvpRepo.scopedGoingTags[[2]int64{42, 7}] = []string{"meetup"}
		require.NoError(t, f.profileRepo.Upsert(ctx, &entity.Profile{
			UserID:    42,
			Interests: []string{"bouldering"},
		}))

		tags, err := f.svc.GetPersonalizedTags(ctx, 42, 7)
		require.NoError(t, err)
		// profile interests still contribute under a scope
		assert.Equal(t, []string{"golang", "meetup", "bouldering"}, tags)
	})

	t.Run("missing profile contributes nothing", func(t *testing.T) {
		f := newTagFixture(t, 10)
		f.membershipRepo.communityTags[42] = []string{"golang"}

		tags, err := f.svc.GetPersonalizedTags(ctx, 42, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"golang"}, tags)
	})
}
