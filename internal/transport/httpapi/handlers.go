package httpapi

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/pricing"
	"github.com/xtding233/gacha-simulator/internal/wire"
)

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "pools": len(s.svc.GetAllPools())})
}

func (s *Server) listPools(c *gin.Context) {
	pools := s.svc.GetAllPools()
	out := make([]any, len(pools))
	for i, p := range pools {
		out[i] = wire.PoolToMap(p)
	}
	reply(c, gin.H{"pools": out, "default_pool_id": s.svc.Catalog().DefaultPoolID()})
}

type setPoolRequest struct {
	AutoReset *bool `json:"auto_reset"`
}

func (s *Server) setPool(c *gin.Context) {
	var req setPoolRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}
	autoReset := s.opts.AutoReset
	if req.AutoReset != nil {
		autoReset = *req.AutoReset
	}

	id := sessionID(c)
	if !s.svc.SetCurrentPool(id, c.Param("id"), autoReset) {
		fail(c, http.StatusNotFound, "pool not found")
		return
	}
	pool, _ := s.svc.GetCurrentPool(id)
	reply(c, gin.H{"pool": wire.PoolToMap(pool)})
}

func (s *Server) currentPool(c *gin.Context) {
	pool, found := s.svc.GetCurrentPool(sessionID(c))
	if !found {
		fail(c, http.StatusNotFound, "no pool selected")
		return
	}
	reply(c, gin.H{"pool": wire.PoolToMap(pool)})
}

func (s *Server) pullSingle(c *gin.Context) {
	id := sessionID(c)
	rec := s.svc.PullSingle(id)
	reply(c, gin.H{
		"result":       wire.RecordToMap(rec),
		"stats":        wire.StatisticsToMap(s.svc.GetStatistics(id)),
		"tokens_spent": s.svc.TokensFor(1),
	})
}

type pullMultiRequest struct {
	Count *int `json:"count"`
}

// pullMulti clamps count to [1, max_single_pull] and returns at most
// max_return_results of the newest records.
func (s *Server) pullMulti(c *gin.Context) {
	var req pullMultiRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}
	count := 10
	if req.Count != nil {
		count = clamp(*req.Count, 1, s.opts.MaxSinglePull)
	}

	id := sessionID(c)
	recs := s.svc.PullMulti(id, count)
	truncated := len(recs) > s.opts.MaxReturnResults
	if truncated {
		recs = recs[len(recs)-s.opts.MaxReturnResults:]
	}
	reply(c, gin.H{
		"count":        count,
		"results":      wire.RecordsToList(recs),
		"truncated":    truncated,
		"stats":        wire.StatisticsToMap(s.svc.GetStatistics(id)),
		"tokens_spent": s.svc.TokensFor(count),
	})
}

func (s *Server) stats(c *gin.Context) {
	reply(c, gin.H{"stats": wire.StatisticsToMap(s.svc.GetStatistics(sessionID(c)))})
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

func (s *Server) history(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "invalid limit")
		return
	}
	limit := q.Limit
	if s.opts.MaxHistory > 0 && (limit == 0 || limit > s.opts.MaxHistory) {
		limit = s.opts.MaxHistory
	}
	reply(c, gin.H{"history": wire.RecordsToList(s.svc.GetPullHistory(sessionID(c), limit))})
}

func (s *Server) export(c *gin.Context) {
	reply(c, gin.H{"data": s.svc.Export(sessionID(c))})
}

func (s *Server) reset(c *gin.Context) {
	s.svc.Reset(sessionID(c))
	reply(c, gin.H{"message": "pull data reset"})
}

type simulateQuery struct {
	Trials int    `form:"trials" binding:"omitempty,min=1"`
	Goal   string `form:"goal" binding:"omitempty,oneof=first_hit fixed_budget"`
	Budget int    `form:"budget" binding:"omitempty,min=1"`
}

func (s *Server) simulate(c *gin.Context) {
	q := simulateQuery{Trials: 1000, Goal: string(gacha.GoalFirstHit), Budget: 90}
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}
	trials := min(q.Trials, s.opts.MaxTrials)
	budget := min(q.Budget, s.opts.MaxSinglePull)
	st := s.svc.Simulate(gacha.TrialGoal(q.Goal), trials, budget)

	body := gin.H{"goal": q.Goal, "simulation": st}
	if q.Goal == string(gacha.GoalFirstHit) {
		body["mean_tokens"] = st.Mean * float64(s.svc.TokensFor(1))
	} else {
		body["budget"] = budget
		body["tokens_spent"] = s.svc.TokensFor(budget)
	}
	reply(c, body)
}

type shopQuery struct {
	Draws     int  `form:"draws"`
	Cents     int  `form:"cents"`
	FirstTime bool `form:"first_time"`
}

func (s *Server) shopPlan(c *gin.Context) {
	var q shopQuery
	if err := c.ShouldBindQuery(&q); err != nil || q.Draws < 1 {
		fail(c, http.StatusBadRequest, "draws must be a positive integer")
		return
	}
	draws := min(q.Draws, s.opts.MaxSinglePull)
	need, plan, err := s.svc.PlanForDraws(draws, q.FirstTime)
	if err != nil {
		s.shopError(c, err)
		return
	}
	reply(c, gin.H{"draws": draws, "tokens_needed": need, "token_name": s.svc.TokenName(), "plan": plan})
}

func (s *Server) shopBudget(c *gin.Context) {
	var q shopQuery
	if err := c.ShouldBindQuery(&q); err != nil || q.Cents < 1 {
		fail(c, http.StatusBadRequest, "cents must be a positive integer")
		return
	}
	plan, draws, err := s.svc.PlanForBudget(q.Cents, q.FirstTime)
	if err != nil {
		s.shopError(c, err)
		return
	}
	reply(c, gin.H{"draws": draws, "token_name": s.svc.TokenName(), "plan": plan})
}

func (s *Server) shopError(c *gin.Context, err error) {
	if errors.Is(err, pricing.ErrOutOfRange) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, "shop planning failed")
}
