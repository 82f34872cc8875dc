package upstream

import "leetscore/internal/models"

const profileQuery = `
query getUserProfile($username: String!) {
  matchedUser(username: $username) {
    submitStats {
      acSubmissionNum {
        difficulty
        count
      }
    }
  }
}`

const contestQuery = `
query getUserContestRanking($username: String!) {
  userContestRanking(username: $username) {
    rating
  }
}`

const recentAcQuery = `
query getACSubmissions($username: String!, $limit: Int) {
  recentAcSubmissionList(username: $username, limit: $limit) {
    id
    title
    timestamp
  }
}`

const problemsSolvedQuery = `
query getUserProblemsSolved($username: String!) {
  allQuestionsCount {
    difficulty
    count
  }
  matchedUser(username: $username) {
    submitStatsGlobal {
      acSubmissionNum {
        difficulty
        count
      }
    }
  }
}`

type profileData struct {
	MatchedUser *struct {
		SubmitStats struct {
			AcSubmissionNum []models.DifficultyCount `json:"acSubmissionNum"`
		} `json:"submitStats"`
	} `json:"matchedUser"`
}

type contestData struct {
	UserContestRanking *struct {
		Rating *float64 `json:"rating"`
	} `json:"userContestRanking"`
}

func (d contestData) rating() *float64 {
	if d.UserContestRanking == nil {
		return nil
	}
	return d.UserContestRanking.Rating
}

type recentAcData struct {
	RecentAcSubmissionList []struct {
		Title     string              `json:"title"`
		Timestamp models.EpochSeconds `json:"timestamp"`
	} `json:"recentAcSubmissionList"`
}

func (d recentAcData) latest() *models.RecentSubmission {
	if len(d.RecentAcSubmissionList) == 0 || d.RecentAcSubmissionList[0].Timestamp == 0 {
		return nil
	}
	return &models.RecentSubmission{Timestamp: int64(d.RecentAcSubmissionList[0].Timestamp)}
}
