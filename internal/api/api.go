// Package api is the HTTP surface. Handlers are thin glue: they parse
// requests, call into the services and translate errors; all quiz semantics
// live in the service packages.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/gummama/quizhub/internal/achievement"
	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
	"github.com/gummama/quizhub/internal/event"
	"github.com/gummama/quizhub/internal/leaderboard"
	"github.com/gummama/quizhub/internal/quizbank"
	"github.com/gummama/quizhub/internal/randomize"
	"github.com/gummama/quizhub/internal/results"
	"github.com/gummama/quizhub/internal/score"
	"github.com/gummama/quizhub/internal/session"
)

type Config struct {
	Router   gin.IRouter
	EventBus *event.Bus

	Bank         *quizbank.Bank
	Session      *session.Service
	Score        *score.Service
	Results      *results.Service
	Achievements *achievement.Service
	Leaderboard  *leaderboard.Service

	Redis        Redis
	PubsubPrefix string

	QuestionsPerQuiz int
	ExamQuestions    int
	ExamName         string
	Strict           bool
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	bank *quizbank.Bank
	qss  *session.Service
	ss   *score.Service
	rs   *results.Service
	as   *achievement.Service
	ls   *leaderboard.Service

	redis  Redis
	prefix string

	questionsPerQuiz int
	examQuestions    int
	examName         string
	strict           bool

	now func() time.Time
}

func New(c Config) *API {
	a := &API{
		bank:             c.Bank,
		qss:              c.Session,
		ss:               c.Score,
		rs:               c.Results,
		as:               c.Achievements,
		ls:               c.Leaderboard,
		redis:            c.Redis,
		prefix:           c.PubsubPrefix,
		questionsPerQuiz: c.QuestionsPerQuiz,
		examQuestions:    c.ExamQuestions,
		examName:         c.ExamName,
		strict:           c.Strict,
		now:              time.Now,
	}

	g := c.Router.Group("/api")
	g.GET("/quizzes", a.listQuizzes)
	g.POST("/attempts", a.startAttempt)
	g.GET("/attempts/:id", a.getAttempt)
	g.PUT("/attempts/:id/answers/:index", a.recordAnswer)
	g.POST("/attempts/:id/submit", a.submitAttempt)
	g.GET("/sessions", a.listSessions)
	g.DELETE("/sessions/:id", a.deleteSession)
	g.GET("/users/:name/results", a.userResults)
	g.GET("/users/:name/stats", a.userStats)
	g.GET("/users/:name/achievements", a.userAchievements)
	g.GET("/leaderboard", a.getLeaderboard)

	if c.EventBus != nil {
		c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
		})
	}

	return a
}

func writeError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", e)
	}
	c.JSON(e.HTTPStatusCode(), gin.H{"error": e.Message})
}

// QuestionView omits the correct answer and explanation; those only appear
// in the post-submit review.
type QuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type AttemptView struct {
	SessionID      string         `json:"session_id"`
	UserName       string         `json:"user_name"`
	QuizName       string         `json:"quiz_name"`
	Questions      []QuestionView `json:"questions"`
	Answers        []string       `json:"answers"`
	IsExam         bool           `json:"is_exam"`
	Submitted      bool           `json:"submitted"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
}

func (a *API) attemptView(at *domain.Attempt) AttemptView {
	v := AttemptView{
		SessionID:      at.SessionID,
		UserName:       at.UserName,
		QuizName:       at.QuizName,
		Questions:      make([]QuestionView, 0, len(at.Questions)),
		Answers:        at.Answers,
		IsExam:         at.IsExam,
		Submitted:      at.Submitted,
		ElapsedSeconds: a.now().Sub(at.StartTime).Seconds(),
	}
	for _, q := range at.Questions {
		v.Questions = append(v.Questions, QuestionView{Question: q.Prompt, Options: q.Options})
	}
	return v
}

type LoadFailureView struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

func (a *API) listQuizzes(c *gin.Context) {
	names, err := a.bank.List()
	if err != nil {
		writeError(c, err)
		return
	}

	_, failures, err := a.bank.LoadAll(false)
	if err != nil {
		writeError(c, err)
		return
	}

	fv := make([]LoadFailureView, 0, len(failures))
	for _, f := range failures {
		fv = append(fv, LoadFailureView{Source: f.Source, Error: f.Err.Error()})
	}

	c.JSON(http.StatusOK, gin.H{
		"quizzes":  names,
		"failures": fv,
	})
}

type StartAttemptRequest struct {
	UserName string `json:"user_name"`
	QuizName string `json:"quiz_name"`
	Exam     bool   `json:"exam"`
}

func (a *API) startAttempt(c *gin.Context) {
	var req StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.InvalidArgument("invalid request body: %v", err))
		return
	}

	var (
		questions []domain.Question
		quizName  string
	)
	if req.Exam {
		all, _, err := a.bank.LoadAll(a.strict)
		if err != nil {
			writeError(c, err)
			return
		}
		questions = randomize.Pick(all, a.examQuestions)
		quizName = a.examName
	} else {
		set, err := a.bank.Load(req.QuizName)
		if err != nil {
			writeError(c, err)
			return
		}
		questions = randomize.Pick(set.Questions, a.questionsPerQuiz)
		quizName = set.Name
	}

	at, err := a.qss.Start(c.Request.Context(), session.StartRequest{
		UserName:  req.UserName,
		QuizName:  quizName,
		Questions: questions,
		IsExam:    req.Exam,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a.attemptView(at))
}

func (a *API) getAttempt(c *gin.Context) {
	at, err := a.qss.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.attemptView(at))
}

type RecordAnswerRequest struct {
	Answer string `json:"answer"`
}

func (a *API) recordAnswer(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeError(c, errors.InvalidArgument("answer index %q is not a number", c.Param("index")))
		return
	}

	var req RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.InvalidArgument("invalid request body: %v", err))
		return
	}

	ctx := c.Request.Context()
	at, err := a.qss.Resume(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if err := a.qss.Answer(ctx, at, index, req.Answer); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": at.SessionID,
		"answered":   at.Answered(),
		"total":      len(at.Questions),
	})
}

type ReviewEntry struct {
	Question      string   `json:"question"`
	YourAnswer    string   `json:"your_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	Correct       bool     `json:"correct"`
	Explanation   string   `json:"explanation,omitempty"`
	Resources     []string `json:"resources,omitempty"`
}

type AchievementView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SubmitResponse struct {
	SessionID        string            `json:"session_id"`
	QuizName         string            `json:"quiz_name"`
	CorrectCount     int               `json:"correct_count"`
	Total            int               `json:"total"`
	ScorePercent     string            `json:"score_percent"`
	ElapsedSeconds   float64           `json:"elapsed_seconds"`
	Review           []ReviewEntry     `json:"review"`
	CompletedQuizzes int               `json:"completed_quizzes"`
	AverageScore     string            `json:"average_score"`
	Achievements     []AchievementView `json:"achievements"`
}

func (a *API) submitAttempt(c *gin.Context) {
	ctx := c.Request.Context()

	at, err := a.qss.Resume(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	alreadySubmitted := at.Submitted
	if err := a.qss.Submit(ctx, at); err != nil {
		writeError(c, err)
		return
	}

	sc := a.ss.Score(at)
	summary := a.ss.Apply(at.UserName, at.QuizName, sc.Percent)

	// Re-submitting a submitted attempt returns the score again without
	// recording a second result row or re-reporting badges.
	var newlyEarned []domain.Achievement
	if !alreadySubmitted {
		// Diff against held badges before Record: persistence runs off the
		// result event and would otherwise race this read.
		newlyEarned, err = a.as.NewlyEarned(ctx, at.UserName, sc.Percent, at.QuizName)
		if err != nil {
			writeError(c, err)
			return
		}

		err := a.rs.Record(ctx, domain.CompletedResult{
			UserName:     at.UserName,
			QuizName:     at.QuizName,
			Score:        sc.Percent,
			TimeTaken:    sc.Elapsed.Seconds(),
			TotalQuizzes: summary.CompletedQuizzes,
			AverageScore: summary.AverageScore,
			Timestamp:    a.now(),
		})
		if err != nil {
			writeError(c, err)
			return
		}
	}

	resp := SubmitResponse{
		SessionID:        at.SessionID,
		QuizName:         at.QuizName,
		CorrectCount:     sc.CorrectCount,
		Total:            sc.Total,
		ScorePercent:     sc.Percent.StringFixed(2),
		ElapsedSeconds:   sc.Elapsed.Seconds(),
		Review:           make([]ReviewEntry, 0, len(at.Questions)),
		CompletedQuizzes: summary.CompletedQuizzes,
		AverageScore:     summary.AverageScore.StringFixed(2),
		Achievements:     []AchievementView{},
	}

	for i, q := range at.Questions {
		resp.Review = append(resp.Review, ReviewEntry{
			Question:      q.Prompt,
			YourAnswer:    at.Answers[i],
			CorrectAnswer: q.CorrectAnswer,
			Correct:       at.Answers[i] == q.CorrectAnswer,
			Explanation:   q.Explanation,
			Resources:     q.Resources,
		})
	}

	for _, earned := range newlyEarned {
		resp.Achievements = append(resp.Achievements, AchievementView{
			Name:        earned.Name,
			Description: earned.Description,
		})
	}

	c.JSON(http.StatusOK, resp)
}

type SessionView struct {
	SessionID string    `json:"session_id"`
	UserName  string    `json:"user_name"`
	QuizName  string    `json:"quiz_name"`
	Answered  int       `json:"answered"`
	Total     int       `json:"total"`
	SavedAt   time.Time `json:"saved_at"`
}

func (a *API) listSessions(c *gin.Context) {
	summaries, err := a.qss.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]SessionView, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, SessionView{
			SessionID: s.SessionID,
			UserName:  s.UserName,
			QuizName:  s.QuizName,
			Answered:  s.Answered,
			Total:     s.Total,
			SavedAt:   s.SavedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (a *API) deleteSession(c *gin.Context) {
	if err := a.qss.Abandon(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ResultView struct {
	QuizName  string    `json:"quiz_name"`
	Score     string    `json:"score"`
	TimeTaken float64   `json:"time_taken"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *API) userResults(c *gin.Context) {
	rows, err := a.rs.Query(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]ResultView, 0, len(rows))
	for _, r := range rows {
		out = append(out, ResultView{
			QuizName:  r.QuizName,
			Score:     r.Score.StringFixed(2),
			TimeTaken: r.TimeTaken,
			Timestamp: r.Timestamp,
		})
	}

	c.JSON(http.StatusOK, gin.H{"user_name": c.Param("name"), "results": out})
}

func (a *API) userStats(c *gin.Context) {
	stats, err := a.rs.UserStats(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_name":     stats.UserName,
		"best_score":    stats.BestScore.StringFixed(2),
		"average_score": stats.AverageScore.StringFixed(2),
		"attempts":      stats.Attempts,
	})
}

func (a *API) userAchievements(c *gin.Context) {
	rows, err := a.as.ListByUser(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	type achievementRow struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		EarnedAt    time.Time `json:"earned_at"`
	}

	out := make([]achievementRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, achievementRow{Name: r.Name, Description: r.Description, EarnedAt: r.EarnedAt})
	}

	c.JSON(http.StatusOK, gin.H{"user_name": c.Param("name"), "achievements": out})
}

type LeaderboardEntryView struct {
	Rank         int    `json:"rank"`
	UserName     string `json:"user_name"`
	BestScore    string `json:"best_score"`
	AverageScore string `json:"average_score"`
	Attempts     int    `json:"attempts"`
}

func (a *API) getLeaderboard(c *gin.Context) {
	rows, err := a.ls.GetLeaderboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]LeaderboardEntryView, 0, len(rows))
	for i, r := range rows {
		out = append(out, LeaderboardEntryView{
			Rank:         i + 1,
			UserName:     r.UserName,
			BestScore:    r.BestScore.StringFixed(2),
			AverageScore: r.AverageScore.StringFixed(2),
			Attempts:     r.Attempts,
		})
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": out})
}
