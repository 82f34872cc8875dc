// Package upstreamtest provides an in-process fake of the LeetCode GraphQL
// endpoint for tests.
package upstreamtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"leetscore/internal/models"
)

// User is a fake account
type User struct {
	Easy, Medium, Hard int
	Rating             *float64
	LastAC             int64 // epoch seconds, 0 for none
}

// Server answers the four queries the client sends
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[string]User
	failOps   map[string]int
	failUsers map[string]int
	requests  atomic.Int64
}

// New starts a fake endpoint serving users
func New(users map[string]User) *Server {
	s := &Server{
		users:     users,
		failOps:   map[string]int{},
		failUsers: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Endpoint is the GraphQL URL
func (s *Server) Endpoint() string {
	return s.URL + "/graphql"
}

// FailOperation makes every request for op answer with status
func (s *Server) FailOperation(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOps[op] = status
}

// FailUser makes the next n requests for username answer 502
func (s *Server) FailUser(username string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUsers[username] = n
}

// Requests is the number of POSTs received so far
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

var operations = []string{"getUserProblemsSolved", "getUserProfile", "getUserContestRanking", "getACSubmissions"}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.requests.Add(1)

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	username, _ := req.Variables["username"].(string)

	op := ""
	for _, name := range operations {
		if strings.Contains(req.Query, name) {
			op = name
			break
		}
	}

	s.mu.Lock()
	status := s.failOps[op]
	if status == 0 && s.failUsers[username] > 0 {
		s.failUsers[username]--
		status = http.StatusBadGateway
	}
	user, exists := s.users[username]
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		w.Write([]byte(`{"errors":[{"message":"upstream unavailable"}]}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(respond(op, user, exists))
}

func profile(u User) []models.DifficultyCount {
	return []models.DifficultyCount{
		{Difficulty: models.DifficultyAll, Count: u.Easy + u.Medium + u.Hard},
		{Difficulty: models.DifficultyEasy, Count: u.Easy},
		{Difficulty: models.DifficultyMedium, Count: u.Medium},
		{Difficulty: models.DifficultyHard, Count: u.Hard},
	}
}

func respond(op string, u User, exists bool) map[string]interface{} {
	missing := []map[string]string{{"message": "That user does not exist."}}

	switch op {
	case "getUserProfile":
		if !exists {
			return map[string]interface{}{"data": map[string]interface{}{"matchedUser": nil}, "errors": missing}
		}
		return map[string]interface{}{"data": map[string]interface{}{
			"matchedUser": map[string]interface{}{"submitStats": map[string]interface{}{"acSubmissionNum": profile(u)}},
		}}
	case "getUserContestRanking":
		if !exists {
			return map[string]interface{}{"data": map[string]interface{}{"userContestRanking": nil}, "errors": missing}
		}
		var ranking interface{}
		if u.Rating != nil {
			ranking = map[string]interface{}{"rating": *u.Rating}
		}
		return map[string]interface{}{"data": map[string]interface{}{"userContestRanking": ranking}}
	case "getACSubmissions":
		list := []map[string]string{}
		if exists && u.LastAC != 0 {
			list = append(list, map[string]string{"id": "1", "title": "Two Sum", "timestamp": strconv.FormatInt(u.LastAC, 10)})
		}
		return map[string]interface{}{"data": map[string]interface{}{"recentAcSubmissionList": list}}
	case "getUserProblemsSolved":
		var matched interface{}
		if exists {
			matched = map[string]interface{}{"submitStatsGlobal": map[string]interface{}{"acSubmissionNum": profile(u)}}
		}
		return map[string]interface{}{"data": map[string]interface{}{
			"allQuestionsCount": profile(User{Easy: 800, Medium: 1600, Hard: 700}),
			"matchedUser":       matched,
		}}
	default:
		return map[string]interface{}{"errors": []map[string]string{{"message": "unknown operation"}}}
	}
}
