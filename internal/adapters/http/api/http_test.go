package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	api "github.com/devderby/devderby/internal/adapters/http/api"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/devderby/devderby/internal/domain/leaderboard"
	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/internal/engine"
)

type fakeDeps struct {
	standings  leaderboard.Standings
	players    map[string]model.PlayerScore
	events     []model.ScoreEvent
	commentary []model.GameCommentary
	roastErr   error
	roasted    []string
}

func (f *fakeDeps) Standings(_ context.Context) leaderboard.Standings { return f.standings }

func (f *fakeDeps) Player(_ context.Context, id string) (model.PlayerScore, error) {
	p, ok := f.players[id]
	if !ok {
		return model.PlayerScore{}, engine.ErrPlayerNotFound
	}
	return p, nil
}

func (f *fakeDeps) RecentEvents(_ context.Context, n int) []model.ScoreEvent {
	if n < len(f.events) {
		return f.events[:n]
	}
	return f.events
}

func (f *fakeDeps) RecentCommentary(_ context.Context, n int) []model.GameCommentary {
	if n < len(f.commentary) {
		return f.commentary[:n]
	}
	return f.commentary
}

func (f *fakeDeps) RequestRoast(_ context.Context, target string) error {
	if f.roastErr != nil {
		return f.roastErr
	}
	f.roasted = append(f.roasted, target)
	return nil
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"players": len(f.players)}
}

func newTestServer(deps *fakeDeps) http.Handler {
	return api.NewServer(deps, deps, 100).Router()
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given standings with three players", t, func() {
		entries := []leaderboard.Entry{
			{Rank: 1, PlayerID: "alice", DisplayName: "alice", TotalScore: 310},
			{Rank: 2, PlayerID: "bob", DisplayName: "bob", TotalScore: 270},
			{Rank: 3, PlayerID: "carol", DisplayName: "carol", TotalScore: 90},
		}
		deps := &fakeDeps{standings: leaderboard.Standings{
			Entries:  entries,
			Leader:   &entries[0],
			RunnerUp: &entries[1],
			ScoreGap: 40,
		}}
		router := newTestServer(deps)

		Convey("When fetching the full board", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil))

			Convey("Then all entries return with the gap", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var body struct {
					Entries  []leaderboard.Entry `json:"entries"`
					ScoreGap int                 `json:"score_gap"`
					Total    int                 `json:"total"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Entries, ShouldHaveLength, 3)
				So(body.ScoreGap, ShouldEqual, 40)
				So(body.Total, ShouldEqual, 3)
			})
		})

		Convey("When limiting the board", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=2", nil))

			Convey("Then only the top entries return but the total stands", func() {
				var body struct {
					Entries []leaderboard.Entry `json:"entries"`
					Total   int                 `json:"total"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Entries, ShouldHaveLength, 2)
				So(body.Entries[0].PlayerID, ShouldEqual, "alice")
				So(body.Total, ShouldEqual, 3)
			})
		})

		Convey("When the limit is garbage", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=banana", nil))

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit is negative", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=-1", nil))

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given an empty board", t, func() {
		router := newTestServer(&fakeDeps{})

		Convey("When fetching the leaderboard", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil))

			Convey("Then entries is an empty array, not null", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"entries":[]`)
			})
		})
	})
}

func TestPlayerEndpoint(t *testing.T) {
	Convey("Given one known player", t, func() {
		deps := &fakeDeps{players: map[string]model.PlayerScore{
			"alice": {ID: "alice", DisplayName: "alice", TotalScore: 310, Streak: 4},
		}}
		router := newTestServer(deps)

		Convey("When fetching the player", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/players/alice", nil))

			Convey("Then the record returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var p model.PlayerScore
				So(json.Unmarshal(rec.Body.Bytes(), &p), ShouldBeNil)
				So(p.TotalScore, ShouldEqual, 310)
				So(p.Streak, ShouldEqual, 4)
			})
		})

		Convey("When fetching an unknown player", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/players/ghost", nil))

			Convey("Then 404 with an error body", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(rec.Body.String(), ShouldContainSubstring, "player_not_found")
			})
		})
	})
}

func TestEventsAndCommentaryEndpoints(t *testing.T) {
	Convey("Given recent events and commentary", t, func() {
		deps := &fakeDeps{
			events: []model.ScoreEvent{
				{ID: "e1", PlayerID: "alice", EventType: model.EventTypeCommit, Points: 10},
			},
			commentary: []model.GameCommentary{
				{ID: "c1", Trigger: model.TriggerLeaderFlip, Content: "what a race"},
			},
		}
		router := newTestServer(deps)

		Convey("When fetching events", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

			Convey("Then the feed returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"e1"`)
			})
		})

		Convey("When fetching commentary", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/commentary", nil))

			Convey("Then the feed returns", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "what a race")
			})
		})
	})
}

func TestRoastEndpoint(t *testing.T) {
	Convey("Given a roastable engine", t, func() {
		deps := &fakeDeps{}
		router := newTestServer(deps)

		Convey("When posting a targeted roast", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/roast",
				strings.NewReader(`{"target_user":"alice"}`))
			router.ServeHTTP(rec, req)

			Convey("Then it is accepted and queued", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.roasted, ShouldResemble, []string{"alice"})
			})
		})

		Convey("When posting without a body", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/roast", nil))

			Convey("Then the whole board gets roasted", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.roasted, ShouldResemble, []string{""})
			})
		})

		Convey("When posting malformed JSON", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/roast", strings.NewReader("{nope"))
			router.ServeHTTP(rec, req)

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given an engine on cooldown", t, func() {
		deps := &fakeDeps{roastErr: engine.ErrRoastCooldown}
		router := newTestServer(deps)

		Convey("When posting a roast", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/roast", nil))

			Convey("Then 429 returns", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(rec.Body.String(), ShouldContainSubstring, "roast_cooldown")
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a router", t, func() {
		router := newTestServer(&fakeDeps{players: map[string]model.PlayerScore{"alice": {}}})

		Convey("When probing health", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it answers ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"ok"`)
			})
		})

		Convey("When fetching stats", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then counters return", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"players":1`)
			})
		})

		Convey("When scraping metrics", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then the exposition endpoint answers", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
