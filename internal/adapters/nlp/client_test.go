package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"scheddy/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func completionWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestClientExtract(t *testing.T) {
	ctx := context.Background()

	Convey("Given a completions endpoint that answers with intent JSON", t, func() {
		srv := httptest.NewServer(completionWith(`{"action":"create_event","title":"gym","duration":"1h","priority":"medium"}`))
		defer srv.Close()

		c, err := NewClient(srv.URL, "test-key")
		So(err, ShouldBeNil)

		Convey("When a turn is extracted", func() {
			fields, err := c.Extract(ctx, "schedule gym for an hour", nil)

			Convey("Then the field map comes back decoded", func() {
				So(err, ShouldBeNil)
				So(fields["action"], ShouldEqual, "create_event")
				So(fields["title"], ShouldEqual, "gym")
				So(fields["duration"], ShouldEqual, "1h")
			})
		})
	})

	Convey("Given a model that wraps its answer in markdown fences", t, func() {
		srv := httptest.NewServer(completionWith("```json\n{\"action\":\"check_goals\"}\n```"))
		defer srv.Close()

		c, err := NewClient(srv.URL, "")
		So(err, ShouldBeNil)

		Convey("When a turn is extracted", func() {
			fields, err := c.Extract(ctx, "how are my goals", nil)

			Convey("Then the fences are stripped", func() {
				So(err, ShouldBeNil)
				So(fields["action"], ShouldEqual, "check_goals")
			})
		})
	})

	Convey("Given a misbehaving endpoint", t, func() {
		Convey("When the endpoint returns a server error", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL, "")
			So(err, ShouldBeNil)

			_, err = c.Extract(ctx, "anything", nil)
			So(errors.Is(err, ErrBadResponse), ShouldBeTrue)
		})

		Convey("When the answer is not JSON", func() {
			srv := httptest.NewServer(completionWith("sure, I scheduled that for you!"))
			defer srv.Close()

			c, err := NewClient(srv.URL, "")
			So(err, ShouldBeNil)

			_, err = c.Extract(ctx, "anything", nil)
			So(errors.Is(err, ErrBadResponse), ShouldBeTrue)
		})

		Convey("When there are no choices", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL, "")
			So(err, ShouldBeNil)

			_, err = c.Extract(ctx, "anything", nil)
			So(errors.Is(err, ErrEmptyResponse), ShouldBeTrue)
		})
	})

	Convey("Given no endpoint", t, func() {
		_, err := NewClient("", "key")
		So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
	})
}
