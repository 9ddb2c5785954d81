package api_test

import (
	"errors"
	"testing"

	"github.com/okian/taskflow/internal/adapters/http/api"
	"github.com/smartystreets/goconvey/convey"
)

func TestErrorHelpers(t *testing.T) {
	convey.Convey("Given a cause", t, func() {
		cause := errors.New("boom")

		convey.Convey("When wrapping with an operation", func() {
			err := api.Wrap("api.op", cause)

			convey.Convey("Then the message is prefixed and the cause is kept", func() {
				convey.So(err.Error(), convey.ShouldEqual, "api.op: boom")
				convey.So(errors.Is(err, cause), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When wrapping with a kind", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)

			convey.Convey("Then both kind and cause match", func() {
				convey.So(err.Error(), convey.ShouldEqual, "api.op: bad request: boom")
				convey.So(errors.Is(err, api.ErrBadRequest), convey.ShouldBeTrue)
				convey.So(errors.Is(err, cause), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When raising a bare kind", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)

			convey.Convey("Then only the kind matches", func() {
				convey.So(err.Error(), convey.ShouldEqual, "api.op: backpressure")
				convey.So(errors.Is(err, api.ErrBackpressure), convey.ShouldBeTrue)
				convey.So(errors.Is(err, cause), convey.ShouldBeFalse)
			})
		})

		convey.Convey("Then wrapping nil yields nil", func() {
			convey.So(api.Wrap("api.op", nil), convey.ShouldBeNil)
		})
	})
}
