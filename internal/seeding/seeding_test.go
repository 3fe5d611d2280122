package seeding_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/denlabs/denengine/internal/domain/model"
	"github.com/denlabs/denengine/internal/seeding"
)

// memWriter collects seeded rows in memory.
type memWriter struct {
	profiles     []model.Profile
	posts        []model.Post
	interactions []model.Interaction
}

func (m *memWriter) InsertProfile(_ context.Context, p model.Profile) error {
	m.profiles = append(m.profiles, p)
	return nil
}

func (m *memWriter) InsertPost(_ context.Context, p model.Post) error {
	m.posts = append(m.posts, p)
	return nil
}

func (m *memWriter) InsertInteraction(_ context.Context, in model.Interaction) error {
	m.interactions = append(m.interactions, in)
	return nil
}

func TestSeederRun(t *testing.T) {
	Convey("Given a seeder with a fixed configuration", t, func() {
		w := &memWriter{}
		s := seeding.New(w, seeding.Config{
			Users:               5,
			PostsPerUser:        3,
			InteractionsPerUser: 4,
			Seed:                7,
		})

		Convey("When running", func() {
			written, err := s.Run(context.Background())

			Convey("Then the configured volumes are written", func() {
				So(err, ShouldBeNil)
				So(w.profiles, ShouldHaveLength, 5)
				So(w.posts, ShouldHaveLength, 15)
				So(w.interactions, ShouldHaveLength, 20)
				So(written, ShouldEqual, 20)
			})

			Convey("Then every interaction has a valid shape", func() {
				So(err, ShouldBeNil)
				known := map[model.InteractionType]bool{
					model.InteractionLike:     true,
					model.InteractionUnlike:   true,
					model.InteractionFollow:   true,
					model.InteractionUnfollow: true,
				}
				for _, in := range w.interactions {
					So(in.ID, ShouldNotBeEmpty)
					So(in.UserID, ShouldNotBeEmpty)
					So(in.TargetUserID, ShouldNotBeEmpty)
					So(known[in.Type], ShouldBeTrue)
					if in.Type == model.InteractionLike || in.Type == model.InteractionUnlike {
						So(in.PostID, ShouldNotBeEmpty)
					} else {
						So(in.PostID, ShouldBeEmpty)
					}
				}
			})

			Convey("Then post authors are seeded profiles", func() {
				So(err, ShouldBeNil)
				ids := make(map[string]bool, len(w.profiles))
				for _, p := range w.profiles {
					ids[p.ID] = true
				}
				for _, post := range w.posts {
					So(ids[post.UserID], ShouldBeTrue)
				}
			})
		})

		Convey("When running twice with the same seed", func() {
			_, err := s.Run(context.Background())
			So(err, ShouldBeNil)

			w2 := &memWriter{}
			_, err = seeding.New(w2, seeding.Config{
				Users:               5,
				PostsPerUser:        3,
				InteractionsPerUser: 4,
				Seed:                7,
			}).Run(context.Background())

			Convey("Then the interaction kinds repeat deterministically", func() {
				So(err, ShouldBeNil)
				So(len(w2.interactions), ShouldEqual, len(w.interactions))
				for i := range w.interactions {
					So(w2.interactions[i].Type, ShouldEqual, w.interactions[i].Type)
					So(w2.interactions[i].Direction, ShouldEqual, w.interactions[i].Direction)
				}
			})
		})
	})
}

func TestDefaultConfig(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := seeding.DefaultConfig()

		Convey("Then it describes a small non-empty data set", func() {
			So(cfg.Users, ShouldBeGreaterThan, 0)
			So(cfg.PostsPerUser, ShouldBeGreaterThan, 0)
			So(cfg.InteractionsPerUser, ShouldBeGreaterThan, 0)
		})
	})
}
