package upstream_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leetscore/internal/config"
	"leetscore/internal/models"
	"leetscore/internal/upstream"
	"leetscore/internal/upstream/upstreamtest"
)

func ptr(f float64) *float64 { return &f }

func newClient(endpoint string) *upstream.Client {
	return upstream.NewClient(config.UpstreamConfig{
		Endpoint:  endpoint,
		Timeout:   2 * time.Second,
		UserAgent: "leetscore-test",
	})
}

func TestFetchUserData_Found(t *testing.T) {
	srv := upstreamtest.New(map[string]upstreamtest.User{
		"alice": {Easy: 10, Medium: 4, Hard: 1, Rating: ptr(1650.5), LastAC: 1700000000},
	})
	defer srv.Close()

	out := newClient(srv.Endpoint()).FetchUserData("alice")

	found, ok := out.(upstream.Found)
	if !ok {
		t.Fatalf("outcome: got %T (%v), want Found", out, out)
	}
	if got := models.CountFor(found.Data.Profile, models.DifficultyMedium); got != 4 {
		t.Errorf("medium: got %d, want 4", got)
	}
	if found.Data.Rating == nil || *found.Data.Rating != 1650.5 {
		t.Errorf("rating: got %v", found.Data.Rating)
	}
	if found.Data.Recent == nil || found.Data.Recent.Timestamp != 1700000000 {
		t.Errorf("recent: got %+v", found.Data.Recent)
	}
	if srv.Requests() != 3 {
		t.Errorf("requests: got %d, want 3", srv.Requests())
	}
}

func TestFetchUserData_NoContestNoActivity(t *testing.T) {
	srv := upstreamtest.New(map[string]upstreamtest.User{"newbie": {Easy: 1}})
	defer srv.Close()

	found, ok := newClient(srv.Endpoint()).FetchUserData("newbie").(upstream.Found)
	if !ok {
		t.Fatal("want Found")
	}
	if found.Data.Rating != nil || found.Data.Recent != nil {
		t.Errorf("want nil rating and recent, got %v %v", found.Data.Rating, found.Data.Recent)
	}
}

func TestFetchUserData_NotFound(t *testing.T) {
	srv := upstreamtest.New(nil)
	defer srv.Close()

	out := newClient(srv.Endpoint()).FetchUserData("ghost_user_1234")
	if _, ok := out.(upstream.NotFound); !ok {
		t.Fatalf("outcome: got %T (%v), want NotFound", out, out)
	}
}

func TestFetchUserData_AnyQueryFailureFailsFetch(t *testing.T) {
	for _, op := range []string{"getUserProfile", "getUserContestRanking", "getACSubmissions"} {
		t.Run(op, func(t *testing.T) {
			srv := upstreamtest.New(map[string]upstreamtest.User{"alice": {Easy: 1}})
			defer srv.Close()
			srv.FailOperation(op, http.StatusServiceUnavailable)

			out := newClient(srv.Endpoint()).FetchUserData("alice")
			failure, ok := out.(upstream.Failure)
			if !ok {
				t.Fatalf("outcome: got %T, want Failure", out)
			}
			var upErr *upstream.Error
			if !errors.As(failure.Err, &upErr) {
				t.Fatalf("error type: got %T", failure.Err)
			}
			if upErr.Kind != upstream.KindStatus || upErr.StatusCode != http.StatusServiceUnavailable || upErr.Operation != op {
				t.Errorf("got %+v", upErr)
			}
			if len(upErr.Messages) != 1 || upErr.Messages[0] != "upstream unavailable" {
				t.Errorf("messages: got %v", upErr.Messages)
			}
		})
	}
}

func TestFetchUserData_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
		want upstream.ErrorKind
	}{
		{"not json", `<html>oops</html>`, upstream.KindMalformed},
		{"no data", `{}`, upstream.KindMalformed},
		{"errors only", `{"errors":[{"message":"rate limited"}]}`, upstream.KindGraphQL},
		{"wrong shape", `{"data":{"matchedUser":"yes"}}`, upstream.KindMalformed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			out := newClient(srv.URL).FetchUserData("alice")
			failure, ok := out.(upstream.Failure)
			if !ok {
				t.Fatalf("outcome: got %T, want Failure", out)
			}
			var upErr *upstream.Error
			if !errors.As(failure.Err, &upErr) || upErr.Kind != tc.want {
				t.Errorf("error: got %v, want kind %s", failure.Err, tc.want)
			}
		})
	}
}

func TestFetchUserData_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	out := newClient(endpoint).FetchUserData("alice")
	failure, ok := out.(upstream.Failure)
	if !ok {
		t.Fatalf("outcome: got %T, want Failure", out)
	}
	var upErr *upstream.Error
	if !errors.As(failure.Err, &upErr) || upErr.Kind == upstream.KindStatus {
		t.Errorf("error: got %v", failure.Err)
	}
}

func TestFetchUserData_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := upstream.NewClient(config.UpstreamConfig{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	failure, ok := c.FetchUserData("alice").(upstream.Failure)
	if !ok {
		t.Fatal("want Failure")
	}
	var upErr *upstream.Error
	if !errors.As(failure.Err, &upErr) || upErr.Kind != upstream.KindTimeout {
		t.Errorf("error: got %v, want timeout", failure.Err)
	}
}

func TestFetchContest(t *testing.T) {
	srv := upstreamtest.New(map[string]upstreamtest.User{
		"rated":   {Rating: ptr(2100)},
		"unrated": {},
	})
	defer srv.Close()
	c := newClient(srv.Endpoint())

	res, err := c.FetchContest("rated")
	if err != nil || res.Rating == nil || *res.Rating != 2100 {
		t.Fatalf("rated: got %+v, %v", res, err)
	}

	res, err = c.FetchContest("unrated")
	if err != nil || res.Rating != nil || len(res.Errors) != 0 {
		t.Fatalf("unrated: got %+v, %v", res, err)
	}

	res, err = c.FetchContest("ghost")
	if err != nil {
		t.Fatalf("ghost: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("ghost errors: got %v", res.Errors)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(res.Body, &payload); err != nil || payload["errors"] == nil {
		t.Errorf("body should carry the upstream payload, got %s", res.Body)
	}
}

func TestFetchProblemStats_PassesPayloadThrough(t *testing.T) {
	srv := upstreamtest.New(map[string]upstreamtest.User{"alice": {Easy: 3}})
	defer srv.Close()

	raw, err := newClient(srv.Endpoint()).FetchProblemStats("alice")
	if err != nil {
		t.Fatalf("FetchProblemStats: %v", err)
	}
	var payload struct {
		Data struct {
			AllQuestionsCount []models.DifficultyCount `json:"allQuestionsCount"`
			MatchedUser       struct {
				SubmitStatsGlobal struct {
					AcSubmissionNum []models.DifficultyCount `json:"acSubmissionNum"`
				} `json:"submitStatsGlobal"`
			} `json:"matchedUser"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if models.CountFor(payload.Data.AllQuestionsCount, models.DifficultyHard) != 700 {
		t.Errorf("allQuestionsCount: got %v", payload.Data.AllQuestionsCount)
	}
	if models.CountFor(payload.Data.MatchedUser.SubmitStatsGlobal.AcSubmissionNum, models.DifficultyEasy) != 3 {
		t.Errorf("solved: got %v", payload.Data.MatchedUser.SubmitStatsGlobal.AcSubmissionNum)
	}
}

func TestPing(t *testing.T) {
	srv := upstreamtest.New(nil)
	defer srv.Close()
	if err := newClient(srv.Endpoint()).Ping(); err != nil {
		t.Errorf("405 should count as reachable: %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	if err := newClient(down.URL).Ping(); err == nil {
		t.Error("502 should count as unreachable")
	}
}
