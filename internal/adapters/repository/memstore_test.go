package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/unowhq/forma/internal/adapters/repository"
	"github.com/unowhq/forma/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func seedCourse(ctx context.Context, store *repository.MemoryStore) {
	So(store.CreateCourse(ctx, model.Course{
		ID:        "course-1",
		Title:     "Go Fundamentals",
		TrainerID: "trainer-1",
		Sections: []model.Section{
			{ID: "sec-1", CourseID: "course-1", Title: "Basics", Position: 1},
			{ID: "sec-2", CourseID: "course-1", Title: "Concurrency", Position: 2},
		},
	}), ShouldBeNil)
	So(store.CreateSession(ctx, model.Session{
		ID: "sess-1", CourseID: "course-1", StartsAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}), ShouldBeNil)
	So(store.CreateSession(ctx, model.Session{
		ID: "sess-2", CourseID: "course-1", StartsAt: time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC),
	}), ShouldBeNil)
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := repository.NewMemoryStore(ctx)

		Convey("When a user is created", func() {
			u := model.User{ID: "u-1", Email: "a@example.com", Role: model.RoleLearner}
			So(store.CreateUser(ctx, u), ShouldBeNil)

			Convey("Then it is found by email and by ID", func() {
				byEmail, err := store.UserByEmail(ctx, "a@example.com")
				So(err, ShouldBeNil)
				So(byEmail.ID, ShouldEqual, "u-1")

				byID, err := store.UserByID(ctx, "u-1")
				So(err, ShouldBeNil)
				So(byID.Email, ShouldEqual, "a@example.com")
			})

			Convey("And a second user with the same email is rejected", func() {
				err := store.CreateUser(ctx, model.User{ID: "u-2", Email: "a@example.com"})
				So(err, ShouldWrap, repository.ErrDuplicate)
			})

			Convey("And updates persist", func() {
				u.Verified = true
				u.RefreshToken = "rt"
				So(store.UpdateUser(ctx, u), ShouldBeNil)

				got, err := store.UserByID(ctx, "u-1")
				So(err, ShouldBeNil)
				So(got.Verified, ShouldBeTrue)
				So(got.RefreshToken, ShouldEqual, "rt")
			})
		})

		Convey("When looking up an unknown user", func() {
			_, err := store.UserByID(ctx, "nope")

			Convey("Then it reports not found", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When several roles are stored", func() {
			So(store.CreateUser(ctx, model.User{ID: "u-1", Email: "l@example.com", Role: model.RoleLearner}), ShouldBeNil)
			So(store.CreateUser(ctx, model.User{ID: "u-2", Email: "t@example.com", Role: model.RoleTrainer}), ShouldBeNil)
			So(store.CreateUser(ctx, model.User{ID: "u-3", Email: "l2@example.com", Role: model.RoleLearner}), ShouldBeNil)

			Convey("Then role counts add up", func() {
				counts := store.CountByRole(ctx)
				So(counts[model.RoleLearner], ShouldEqual, 2)
				So(counts[model.RoleTrainer], ShouldEqual, 1)
			})
		})
	})
}

func TestMemoryStore_Attendance(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded course", t, func() {
		store := repository.NewMemoryStore(ctx)
		seedCourse(ctx, store)

		Convey("When a subject signs a session", func() {
			a := model.AttendanceRecord{ID: "att-1", SubjectID: "u-1", SessionID: "sess-1", SignedAt: time.Now()}
			So(store.CreateAttendance(ctx, a), ShouldBeNil)

			Convey("Then it appears for the subject, session, and course", func() {
				So(len(store.AttendanceBySubject(ctx, "u-1")), ShouldEqual, 1)
				So(len(store.AttendanceBySession(ctx, "sess-1")), ShouldEqual, 1)
				So(len(store.AttendanceByCourse(ctx, "course-1")), ShouldEqual, 1)
			})

			Convey("And signing the same session twice is rejected", func() {
				dup := model.AttendanceRecord{ID: "att-2", SubjectID: "u-1", SessionID: "sess-1"}
				So(store.CreateAttendance(ctx, dup), ShouldWrap, repository.ErrDuplicate)
			})

			Convey("And presence starts out pending", func() {
				got, err := store.AttendanceByID(ctx, "att-1")
				So(err, ShouldBeNil)
				So(got.Resolved(), ShouldBeFalse)
			})

			Convey("And the trainer ruling sticks", func() {
				at := time.Now()
				So(store.SetPresence(ctx, "att-1", true, at), ShouldBeNil)

				got, err := store.AttendanceByID(ctx, "att-1")
				So(err, ShouldBeNil)
				So(got.IsPresent(), ShouldBeTrue)
				So(got.ValidatedAt, ShouldNotBeNil)
			})
		})

		Convey("When signing an unknown session", func() {
			a := model.AttendanceRecord{ID: "att-1", SubjectID: "u-1", SessionID: "ghost"}

			Convey("Then creation fails", func() {
				So(store.CreateAttendance(ctx, a), ShouldWrap, repository.ErrNotFound)
			})
		})
	})
}

func TestMemoryStore_FeedbackUpsert(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store", t, func() {
		store := repository.NewMemoryStore(ctx)

		Convey("When feedback is submitted twice for one attendance", func() {
			first := model.FeedbackRecord{
				ID: "fb-1", SubjectID: "u-1", AttendanceID: "att-1", CourseID: "course-1",
				Clarity: 8, CreatedAt: time.Now(),
			}
			created, err := store.UpsertFeedback(ctx, first)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)

			second := first
			second.ID = "fb-2"
			second.Clarity = 6
			created, err = store.UpsertFeedback(ctx, second)
			So(err, ShouldBeNil)

			Convey("Then the second write overwrites, never duplicates", func() {
				So(created, ShouldBeFalse)
				So(len(store.FeedbackByCourse(ctx, "course-1")), ShouldEqual, 1)
			})

			Convey("And the record keeps its original identity", func() {
				got, err := store.FeedbackByAttendance(ctx, "u-1", "att-1")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, "fb-1")
				So(got.Clarity, ShouldEqual, 6)
			})
		})
	})
}

func TestMemoryStore_Validations(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store", t, func() {
		store := repository.NewMemoryStore(ctx)

		Convey("When a validation is upserted", func() {
			v := model.SkillValidationRecord{
				ID: "val-1", SubjectID: "u-1", AttendanceID: "att-1", CourseID: "course-1",
				SkillsBefore: map[string]float64{"sec-1": 4},
				SkillsAfter:  map[string]float64{"sec-1": 8},
			}
			created, err := store.UpsertValidation(ctx, v)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)

			Convey("Then mutating the caller's map does not leak in", func() {
				v.SkillsAfter["sec-1"] = 1
				got, err := store.ValidationByAttendance(ctx, "u-1", "att-1")
				So(err, ShouldBeNil)
				So(got.SkillsAfter["sec-1"], ShouldEqual, 8)
			})

			Convey("And course queries find it", func() {
				So(len(store.ValidationsByCourse(ctx, "course-1")), ShouldEqual, 1)
				So(len(store.ValidationsBySubject(ctx, "u-1")), ShouldEqual, 1)
			})
		})
	})
}

func TestMemoryStore_History(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with a small history capacity", t, func() {
		store := repository.NewMemoryStore(ctx, repository.WithHistoryCapacity(3))

		Convey("When more entries than the capacity arrive", func() {
			for i := 0; i < 5; i++ {
				So(store.AppendHistory(ctx, model.HistoryEntry{
					ID:     string(rune('a' + i)),
					Action: "login",
				}), ShouldBeNil)
			}

			Convey("Then only the newest entries survive, newest first", func() {
				So(store.HistoryCount(ctx), ShouldEqual, 3)
				entries, err := store.History(ctx, 10)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)
				So(entries[0].ID, ShouldEqual, "e")
				So(entries[2].ID, ShouldEqual, "c")
			})
		})

		Convey("When a non-positive limit is requested", func() {
			_, err := store.History(ctx, 0)

			Convey("Then it is rejected", func() {
				So(err, ShouldWrap, repository.ErrInvalidLimit)
			})
		})
	})
}
