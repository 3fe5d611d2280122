package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/denlabs/denengine/internal/adapters/http/api"
	"github.com/denlabs/denengine/internal/adapters/repository"
	"github.com/denlabs/denengine/internal/domain/model"
	"github.com/denlabs/denengine/internal/domain/types"
	"github.com/denlabs/denengine/pkg/logger"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeDeps is a canned Dependencies implementation.
type fakeDeps struct {
	queued    bool
	duplicate bool
	allCount  int
	allErr    error

	refreshCount int
	refreshErr   error
	refreshedFor string

	feed    []types.FeedItem
	feedErr error
	feedFor string

	profile    model.Profile
	profileErr error
}

func (f *fakeDeps) EnqueueRefresh(_ context.Context, userID string) (bool, bool) {
	f.refreshedFor = userID
	return f.queued, f.duplicate
}

func (f *fakeDeps) EnqueueAll(context.Context) (int, error) {
	return f.allCount, f.allErr
}

func (f *fakeDeps) Refresh(_ context.Context, userID string) (int, error) {
	f.refreshedFor = userID
	return f.refreshCount, f.refreshErr
}

func (f *fakeDeps) ExploreFeed(_ context.Context, userID string, _ int) ([]types.FeedItem, error) {
	f.feedFor = userID
	return f.feed, f.feedErr
}

func (f *fakeDeps) Profile(context.Context, string) (model.Profile, error) {
	return f.profile, f.profileErr
}

// fakeStats satisfies StatsProvider.
type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newMux(deps *fakeDeps) *http.ServeMux {
	mux := http.NewServeMux()
	auth := api.NewAuthenticator(testSecret)
	srv := api.NewServer(deps, fakeStats{}, auth, 20, 100)
	srv.Register(context.Background(), mux)
	return mux
}

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if sub != "" {
		claims["sub"] = sub
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(mux *http.ServeMux, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestAuthentication(t *testing.T) {
	Convey("Given a registered API", t, func() {
		mux := newMux(&fakeDeps{queued: true})

		Convey("When the Authorization header is missing", func() {
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-refresh", "")

			Convey("Then the request is rejected with 401", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
				So(decodeBody(t, rec)["code"], ShouldEqual, "unauthorized")
			})
		})

		Convey("When the token is signed with the wrong secret", func() {
			token := signToken(t, "wrong-secret", "alice")
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-refresh", token)

			Convey("Then the request is rejected with 401", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the token is expired", func() {
			claims := jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Hour).Unix()}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			So(err, ShouldBeNil)
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-refresh", token)

			Convey("Then the request is rejected with 401", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the token carries no subject", func() {
			token := signToken(t, testSecret, "")
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-refresh", token)

			Convey("Then the request is rejected with 401", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the token carries an unexpected audience", func() {
			claims := jwt.MapClaims{
				"sub": "alice",
				"aud": "some-other-service",
				"exp": time.Now().Add(time.Hour).Unix(),
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			So(err, ShouldBeNil)
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-refresh", token)

			Convey("Then the audience is not checked and the request passes", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
			})
		})
	})
}

func TestEnqueueRefreshEndpoint(t *testing.T) {
	Convey("Given an authenticated caller", t, func() {
		deps := &fakeDeps{}
		mux := newMux(deps)
		token := signToken(t, testSecret, "alice")

		Convey("When the job is queued", func() {
			deps.queued = true
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-refresh", token)

			Convey("Then 202 with the queued status returns", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				body := decodeBody(t, rec)
				So(body["status"], ShouldEqual, "queued")
				So(body["user_id"], ShouldEqual, "alice")
				So(deps.refreshedFor, ShouldEqual, "alice")
			})
		})

		Convey("When a job is already in flight", func() {
			deps.duplicate = true
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-refresh", token)

			Convey("Then 200 with the duplicate status returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(t, rec)["status"], ShouldEqual, "duplicate")
			})
		})

		Convey("When the queue is full", func() {
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-refresh", token)

			Convey("Then 429 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeBody(t, rec)["code"], ShouldEqual, "backpressure")
			})
		})

		Convey("When the method is not POST", func() {
			rec := doRequest(mux, http.MethodGet, "/v1/explore/enqueue-refresh", token)

			Convey("Then 404 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestEnqueueAllEndpoint(t *testing.T) {
	Convey("Given the bulk endpoint", t, func() {
		deps := &fakeDeps{allCount: 42}
		mux := newMux(deps)

		Convey("When fanning out without a token", func() {
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-all", "")

			Convey("Then it succeeds with the scheduled count", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				body := decodeBody(t, rec)
				So(body["status"], ShouldEqual, "all queued")
				So(body["user_count"], ShouldEqual, 42)
			})
		})

		Convey("When the fan-out fails", func() {
			deps.allErr = errors.New("store down")
			rec := doRequest(mux, http.MethodPost, "/v1/explore/enqueue-all", "")

			Convey("Then 500 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestRefreshEndpoint(t *testing.T) {
	Convey("Given an authenticated caller", t, func() {
		deps := &fakeDeps{refreshCount: 7}
		mux := newMux(deps)
		token := signToken(t, testSecret, "alice")

		Convey("When refreshing synchronously", func() {
			rec := doRequest(mux, http.MethodPost, "/v1/recommendations/refresh", token)

			Convey("Then 200 with the written count returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(t, rec)
				So(body["status"], ShouldEqual, "ok")
				So(body["count"], ShouldEqual, 7)
				So(deps.refreshedFor, ShouldEqual, "alice")
			})
		})

		Convey("When the pipeline fails", func() {
			deps.refreshErr = errors.New("scoring failed")
			rec := doRequest(mux, http.MethodPost, "/v1/recommendations/refresh", token)

			Convey("Then 500 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestExploreEndpoint(t *testing.T) {
	Convey("Given a feed with one item", t, func() {
		deps := &fakeDeps{feed: []types.FeedItem{{
			PostID:   "p1",
			AuthorID: "bob",
			Author:   "bob",
			Score:    2.5,
			Reason:   "interaction-based",
		}}}
		mux := newMux(deps)
		token := signToken(t, testSecret, "alice")

		Convey("When fetching the feed", func() {
			rec := doRequest(mux, http.MethodGet, "/v1/recommendations/explore", token)

			Convey("Then the items return for the caller", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var items []types.FeedItem
				So(json.Unmarshal(rec.Body.Bytes(), &items), ShouldBeNil)
				So(items, ShouldHaveLength, 1)
				So(items[0].PostID, ShouldEqual, "p1")
				So(deps.feedFor, ShouldEqual, "alice")
			})
		})

		Convey("When the limit is not a number", func() {
			rec := doRequest(mux, http.MethodGet, "/v1/recommendations/explore?limit=abc", token)

			Convey("Then 400 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit is zero", func() {
			rec := doRequest(mux, http.MethodGet, "/v1/recommendations/explore?limit=0", token)

			Convey("Then 400 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit exceeds the cap", func() {
			rec := doRequest(mux, http.MethodGet, "/v1/recommendations/explore?limit=101", token)

			Convey("Then 400 with the limit code returns", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeBody(t, rec)["code"], ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the feed read fails", func() {
			deps.feedErr = errors.New("store down")
			rec := doRequest(mux, http.MethodGet, "/v1/recommendations/explore", token)

			Convey("Then 500 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestProfileEndpoint(t *testing.T) {
	Convey("Given an authenticated caller", t, func() {
		deps := &fakeDeps{profile: model.Profile{ID: "alice", Username: "alice"}}
		mux := newMux(deps)
		token := signToken(t, testSecret, "alice")

		Convey("When fetching the profile", func() {
			rec := doRequest(mux, http.MethodGet, "/v1/profile", token)

			Convey("Then the profile returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(t, rec)["id"], ShouldEqual, "alice")
			})
		})

		Convey("When the profile does not exist", func() {
			deps.profileErr = repository.ErrNotFound
			rec := doRequest(mux, http.MethodGet, "/v1/profile", token)

			Convey("Then 404 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(decodeBody(t, rec)["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestRootAndOperationalEndpoints(t *testing.T) {
	Convey("Given a registered API", t, func() {
		mux := newMux(&fakeDeps{})

		Convey("When hitting the root", func() {
			rec := doRequest(mux, http.MethodGet, "/", "")

			Convey("Then the liveness document returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(t, rec)["status"], ShouldEqual, "API running")
			})
		})

		Convey("When hitting an unknown path", func() {
			rec := doRequest(mux, http.MethodGet, "/nope", "")

			Convey("Then 404 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When hitting /stats", func() {
			rec := doRequest(mux, http.MethodGet, "/stats", "")

			Convey("Then the stats snapshot returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(t, rec)["started"], ShouldEqual, true)
			})
		})

		Convey("When hitting /healthz", func() {
			rec := doRequest(mux, http.MethodGet, "/healthz", "")

			Convey("Then the metrics exposition returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "den_explore")
			})
		})
	})
}
