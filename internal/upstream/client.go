// Package upstream talks to the LeetCode GraphQL API.
package upstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"leetscore/internal/config"
	"leetscore/internal/logger"
	"leetscore/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
)

// Client issues GraphQL queries. It keeps no per-user state between calls and
// is safe for concurrent use.
type Client struct {
	http     *fiber.Client
	endpoint string
	referer  string
	timeout  time.Duration
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// response is a parsed upstream reply that was at least well-formed JSON
type response struct {
	status int
	body   []byte
	envelope
}

// NewClient creates a new GraphQL client
func NewClient(cfg config.UpstreamConfig) *Client {
	referer := cfg.Endpoint
	if u, err := url.Parse(cfg.Endpoint); err == nil {
		referer = u.Scheme + "://" + u.Host
	}
	return &Client{
		http:     &fiber.Client{UserAgent: cfg.UserAgent},
		endpoint: cfg.Endpoint,
		referer:  referer,
		timeout:  cfg.Timeout,
	}
}

// FetchUserData runs the profile, contest and recent-submission queries
// concurrently. Any failing query fails the whole fetch.
func (c *Client) FetchUserData(username string) Outcome {
	var (
		profile profileData
		contest contestData
		recent  recentAcData
		g       errgroup.Group
	)
	vars := map[string]interface{}{"username": username}

	g.Go(func() error { return c.query("getUserProfile", profileQuery, vars, &profile) })
	g.Go(func() error { return c.query("getUserContestRanking", contestQuery, vars, &contest) })
	g.Go(func() error {
		return c.query("getACSubmissions", recentAcQuery, map[string]interface{}{"username": username, "limit": 1}, &recent)
	})

	if err := g.Wait(); err != nil {
		logger.Debug("fetch %s failed: %v", username, err)
		return Failure{Err: err}
	}

	if profile.MatchedUser == nil {
		return NotFound{Rating: contest.rating(), Recent: recent.latest()}
	}
	return Found{Data: models.UserData{
		Profile: profile.MatchedUser.SubmitStats.AcSubmissionNum,
		Rating:  contest.rating(),
		Recent:  recent.latest(),
	}}
}

// ContestResult is the raw contest lookup. When Errors is non-empty Body holds
// the upstream payload verbatim.
type ContestResult struct {
	Rating *float64
	Errors []GraphQLError
	Body   []byte
}

// FetchContest looks up the contest rating alone
func (c *Client) FetchContest(username string) (*ContestResult, error) {
	op := "getUserContestRanking"
	resp, err := c.post(op, contestQuery, map[string]interface{}{"username": username})
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return &ContestResult{Errors: resp.Errors, Body: resp.body}, nil
	}
	var data contestData
	if err := resp.decode(op, &data); err != nil {
		return nil, err
	}
	return &ContestResult{Rating: data.rating(), Body: resp.body}, nil
}

// FetchProblemStats returns the upstream solved-vs-total payload unchanged
func (c *Client) FetchProblemStats(username string) (json.RawMessage, error) {
	resp, err := c.post("getUserProblemsSolved", problemsSolvedQuery, map[string]interface{}{"username": username})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.body), nil
}

// Ping checks that the endpoint answers at all. Any status below 500 counts as
// reachable since GraphQL endpoints commonly reject bare GETs.
func (c *Client) Ping() error {
	code, _, errs := c.http.Get(c.endpoint).Timeout(c.timeout).Bytes()
	if len(errs) > 0 {
		return transportError("ping", errs[0])
	}
	if code >= 500 {
		return &Error{Operation: "ping", Kind: KindStatus, StatusCode: code}
	}
	return nil
}

func (c *Client) query(op, doc string, vars map[string]interface{}, out interface{}) error {
	resp, err := c.post(op, doc, vars)
	if err != nil {
		return err
	}
	return resp.decode(op, out)
}

// post sends one GraphQL request. It fails on transport errors, non-2xx
// statuses and bodies that are not JSON; GraphQL-level errors are left to the
// caller.
func (c *Client) post(op, doc string, vars map[string]interface{}) (*response, error) {
	code, body, errs := c.http.Post(c.endpoint).
		Timeout(c.timeout).
		Set("Referer", c.referer).
		JSON(graphQLRequest{Query: doc, Variables: vars}).
		Bytes()
	if len(errs) > 0 {
		return nil, transportError(op, errs[0])
	}

	resp := &response{status: code, body: body}
	parseErr := json.Unmarshal(body, &resp.envelope)

	if code < 200 || code >= 300 {
		return nil, &Error{Operation: op, Kind: KindStatus, StatusCode: code, Messages: messages(resp.Errors)}
	}
	if parseErr != nil {
		return nil, &Error{Operation: op, Kind: KindMalformed, StatusCode: code, Err: parseErr}
	}
	return resp, nil
}

func (r *response) decode(op string, out interface{}) error {
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		if len(r.Errors) > 0 {
			return &Error{Operation: op, Kind: KindGraphQL, StatusCode: r.status, Messages: messages(r.Errors)}
		}
		return &Error{Operation: op, Kind: KindMalformed, StatusCode: r.status, Err: errors.New("response has no data")}
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return &Error{Operation: op, Kind: KindMalformed, StatusCode: r.status, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func transportError(op string, err error) *Error {
	kind := KindTransport
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
		kind = KindTimeout
	}
	return &Error{Operation: op, Kind: kind, Err: err}
}
