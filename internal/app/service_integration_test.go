package service_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/unowhq/forma/internal/adapters/repository"
	service "github.com/unowhq/forma/internal/app"
	"github.com/unowhq/forma/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with a full course run", t, func() {
		mail := newCaptureMailer()
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(1_000),
			service.WithMailer(mail),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		signup := func(email, name string, role model.Role) model.User {
			u, err := svc.Signup(ctx, model.User{Email: email, Name: name, Role: role}, "secret-pw")
			So(err, ShouldBeNil)
			return u
		}

		trainer := signup("taylor@forma.test", "Taylor", model.RoleTrainer)
		rival := signup("robin@forma.test", "Robin", model.RoleTrainer)
		learner1 := signup("lea@forma.test", "Lea", model.RoleLearner)
		learner2 := signup("sam@forma.test", "Sam", model.RoleLearner)
		signup("ada@forma.test", "Ada", model.RoleAdmin)

		course, err := svc.CreateCourse(ctx, model.Course{
			Title:     "Welding Basics",
			TrainerID: trainer.ID,
			Sections:  []model.Section{{Title: "Safety"}, {Title: "Technique"}},
		})
		So(err, ShouldBeNil)
		safety := course.Sections[0].ID
		technique := course.Sections[1].ID

		sess, err := svc.CreateSession(ctx, model.Session{
			CourseID: course.ID,
			StartsAt: time.Now(),
			EndsAt:   time.Now().Add(2 * time.Hour),
		})
		So(err, ShouldBeNil)

		att1, err := svc.SignAttendance(ctx, model.AttendanceRecord{SubjectID: learner1.ID, SessionID: sess.ID})
		So(err, ShouldBeNil)
		att2, err := svc.SignAttendance(ctx, model.AttendanceRecord{SubjectID: learner2.ID, SessionID: sess.ID})
		So(err, ShouldBeNil)

		Convey("When a learner signs the same session twice", func() {
			_, err := svc.SignAttendance(ctx, model.AttendanceRecord{SubjectID: learner1.ID, SessionID: sess.ID})

			Convey("Then the second sign-off should be rejected", func() {
				So(err, ShouldWrap, repository.ErrDuplicate)
			})
		})

		Convey("When the trainer rules on both sign-offs", func() {
			ruled1, err := svc.ValidateAttendance(ctx, trainer.ID, att1.ID, true)
			So(err, ShouldBeNil)
			_, err = svc.ValidateAttendance(ctx, trainer.ID, att2.ID, false)
			So(err, ShouldBeNil)

			Convey("Then the ruling should be recorded", func() {
				So(ruled1.Present, ShouldNotBeNil)
				So(*ruled1.Present, ShouldBeTrue)
				So(ruled1.ValidatedAt, ShouldNotBeNil)
			})

			Convey("And another trainer cannot rule on this course", func() {
				_, err := svc.ValidateAttendance(ctx, rival.ID, att1.ID, true)
				So(err, ShouldWrap, service.ErrForbidden)
			})

			Convey("And the full aggregation pipeline holds together", func() {
				global := 4
				_, err := svc.SubmitFeedback(ctx, model.FeedbackRecord{
					SubjectID:    learner1.ID,
					AttendanceID: att1.ID,
					Clarity:      8,
					Objectives:   7,
					Level:        6,
					Trainer:      9,
					Materials:    8,
					GlobalRating: &global,
					Comments:     "Great session",
				})
				So(err, ShouldBeNil)

				_, err = svc.SubmitValidation(ctx, model.SkillValidationRecord{
					SubjectID:    learner1.ID,
					AttendanceID: att1.ID,
					SkillsBefore: map[string]float64{safety: 4, technique: 6},
					SkillsAfter:  map[string]float64{safety: 8, technique: 8},
				})
				So(err, ShouldBeNil)

				_, err = svc.SubmitTrainerEvaluation(ctx, model.TrainerEvaluation{
					TrainerID:          trainer.ID,
					CourseID:           course.ID,
					ObjectivesClarity:  8,
					ContentMastery:     8,
					PaceAdequacy:       8,
					MethodsVariety:     8,
					ParticipantsEngage: 8,
					RoomSuitability:    8,
					EquipmentAdequacy:  8,
					ScheduleConvenient: 8,
					GroupSizeAdequacy:  8,
				})
				So(err, ShouldBeNil)

				Convey("Then trainer stats should cover the course", func() {
					out, err := svc.TrainerStats(ctx, trainer.ID)
					So(err, ShouldBeNil)
					So(len(out), ShouldEqual, 1)

					cs := out[0]
					So(cs.CourseID, ShouldEqual, course.ID)
					So(cs.AttendanceRate, ShouldAlmostEqual, 50, 0.001)
					So(cs.ParticipantCount, ShouldEqual, 2)
					So(cs.FeedbackCount, ShouldEqual, 1)
					So(cs.Comments, ShouldContain, "Great session")
					So(len(cs.SessionTrend), ShouldEqual, 1)
					So(cs.SessionTrend[0].AttendanceRate, ShouldAlmostEqual, 50, 0.001)
					So(cs.FeedbackAverages["clarity"], ShouldAlmostEqual, 8, 0.001)
				})

				Convey("Then learner stats should earn a certificate", func() {
					out, err := svc.LearnerStats(ctx, learner1.ID)
					So(err, ShouldBeNil)
					So(out.CourseCount, ShouldEqual, 1)
					So(out.CertificateCount, ShouldEqual, 1)

					cs := out.Courses[0]
					So(cs.AttendanceRate, ShouldAlmostEqual, 100, 0.001)
					So(cs.SkillsBefore, ShouldAlmostEqual, 50, 0.001)
					So(cs.SkillsAfter, ShouldAlmostEqual, 80, 0.001)
					So(cs.SkillsScore, ShouldAlmostEqual, 60, 0.001)
					So(len(cs.Sections), ShouldEqual, 2)
					So(cs.Sections[0].Title, ShouldEqual, "Safety")
					So(cs.Sections[0].ProgressPercent, ShouldEqual, 67)
					So(cs.Sections[1].ProgressPercent, ShouldEqual, 50)
				})

				Convey("And the absent learner earns none", func() {
					out, err := svc.LearnerStats(ctx, learner2.ID)
					So(err, ShouldBeNil)
					So(out.CourseCount, ShouldEqual, 1)
					So(out.CertificateCount, ShouldEqual, 0)
				})

				Convey("Then validation progress should measure headroom covered", func() {
					out, err := svc.ValidationProgress(ctx, learner1.ID)
					So(err, ShouldBeNil)
					So(len(out), ShouldEqual, 1)
					So(out[0].CourseID, ShouldEqual, course.ID)
					So(out[0].Title, ShouldEqual, "Welding Basics")
					So(out[0].ProgressPercent, ShouldEqual, 60)
				})

				Convey("Then admin stats should weight the composite", func() {
					out, err := svc.AdminStats(ctx)
					So(err, ShouldBeNil)
					So(len(out), ShouldEqual, 1)

					cs := out[0]
					So(cs.AttendanceRate, ShouldAlmostEqual, 50, 0.001)
					So(cs.Satisfaction, ShouldAlmostEqual, 80, 0.001)
					So(cs.ValidationProgress, ShouldAlmostEqual, 50, 0.001)
					So(cs.FeedbackEvaluationRate, ShouldAlmostEqual, 100, 0.001)
					// 0.4*50 + 0.3*80 + 0.3*50
					So(cs.CompositeScore, ShouldAlmostEqual, 59, 0.001)
				})

				Convey("Then the evaluation summary should carry its composite", func() {
					out, err := svc.TrainerEvaluation(ctx, trainer.ID, course.ID)
					So(err, ShouldBeNil)
					So(out.Evaluation.ObjectivesClarity, ShouldEqual, 8)
					// 0.4*80 + 0.3*60 + 0.2*80 + 0.1*80
					So(out.CompositeScore, ShouldAlmostEqual, 74, 0.001)
				})

				Convey("Then global stats should rank course and trainer", func() {
					out, err := svc.GlobalStats(ctx)
					So(err, ShouldBeNil)
					So(out.LearnerCount, ShouldEqual, 2)
					So(out.TrainerCount, ShouldEqual, 2)
					So(out.AdminCount, ShouldEqual, 1)

					So(out.BestCourse, ShouldNotBeNil)
					So(out.BestCourse.CourseID, ShouldEqual, course.ID)
					So(out.BestTrainer, ShouldNotBeNil)
					So(out.BestTrainer.TrainerID, ShouldEqual, trainer.ID)
					So(out.BestTrainer.Name, ShouldEqual, "Taylor")

					So(len(out.MonthlyTrend), ShouldEqual, 6)
					So(out.MonthlyTrend[5].AttendanceRate, ShouldAlmostEqual, 50, 0.001)
					So(out.MonthlyTrend[5].Satisfaction, ShouldAlmostEqual, 80, 0.001)
					So(out.MonthlyTrend[5].ValidationRate, ShouldAlmostEqual, 50, 0.001)
				})

				Convey("And the audit trail should record the run", func() {
					// Let the audit workers drain the queue.
					time.Sleep(300 * time.Millisecond)

					entries, err := svc.History(ctx, 100)
					So(err, ShouldBeNil)

					actions := make(map[string]int)
					for _, e := range entries {
						actions[e.Action]++
					}
					So(actions["user_registered"], ShouldEqual, 5)
					So(actions["course_created"], ShouldEqual, 1)
					So(actions["attendance_signed"], ShouldEqual, 2)
					So(actions["attendance_validated"], ShouldEqual, 2)
					So(actions["feedback_submitted"], ShouldEqual, 1)
					So(actions["validation_submitted"], ShouldEqual, 1)
					So(actions["evaluation_submitted"], ShouldEqual, 1)
				})
			})
		})

		Convey("When a rival trainer evaluates someone else's course", func() {
			_, err := svc.SubmitTrainerEvaluation(ctx, model.TrainerEvaluation{
				TrainerID:          rival.ID,
				CourseID:           course.ID,
				ObjectivesClarity:  8,
				ContentMastery:     8,
				PaceAdequacy:       8,
				MethodsVariety:     8,
				ParticipantsEngage: 8,
				RoomSuitability:    8,
				EquipmentAdequacy:  8,
				ScheduleConvenient: 8,
				GroupSizeAdequacy:  8,
			})

			Convey("Then it should be forbidden", func() {
				So(err, ShouldWrap, service.ErrForbidden)
			})
		})

		Convey("When an evaluation claims adaptation without details", func() {
			_, err := svc.SubmitTrainerEvaluation(ctx, model.TrainerEvaluation{
				TrainerID:          trainer.ID,
				CourseID:           course.ID,
				ObjectivesClarity:  8,
				ContentMastery:     8,
				PaceAdequacy:       8,
				MethodsVariety:     8,
				ParticipantsEngage: 8,
				RoomSuitability:    8,
				EquipmentAdequacy:  8,
				ScheduleConvenient: 8,
				GroupSizeAdequacy:  8,
				Adapted:            true,
			})

			Convey("Then it should be rejected", func() {
				var verr *model.ValidationError
				So(err, ShouldNotBeNil)
				So(err, ShouldHaveSameTypeAs, verr)
			})
		})
	})
}
