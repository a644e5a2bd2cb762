package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"scheddy/internal/domain/scoring"
)

func TestScore(t *testing.T) {
	Convey("Given the default scorer", t, func() {
		s := scoring.NewJaccardScorer()

		Convey("When identical texts are compared", func() {
			So(s.Score("gym workout", "gym workout"), ShouldEqual, 1.0)
		})

		Convey("When casing and punctuation differ", func() {
			So(s.Score("Gym workout!", "gym workout"), ShouldEqual, 1.0)
		})

		Convey("When stopwords pad one side", func() {
			Convey("Then the score ignores them", func() {
				So(s.Score("a session at the gym", "gym session"), ShouldEqual, 1.0)
			})
		})

		Convey("When texts share some words", func() {
			got := s.Score("deep work block", "deep focus block")

			Convey("Then the score is partial", func() {
				So(got, ShouldBeGreaterThan, 0)
				So(got, ShouldBeLessThan, 1)
			})
		})

		Convey("When texts share nothing", func() {
			So(s.Score("gym workout", "quarterly tax filing"), ShouldEqual, 0)
		})

		Convey("When one side is empty", func() {
			So(s.Score("", "gym workout"), ShouldEqual, 0)
			So(s.Score("gym workout", ""), ShouldEqual, 0)
		})
	})

	Convey("Given a scorer with custom stopwords", t, func() {
		s := scoring.NewJaccardScorer(scoring.WithStopwords([]string{"weekly"}))

		Convey("Then the custom word is ignored and defaults are not", func() {
			So(s.Score("weekly review", "review"), ShouldEqual, 1.0)
			So(s.Score("the review", "review"), ShouldBeLessThan, 1.0)
		})
	})
}
