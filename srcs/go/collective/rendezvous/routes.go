package rendezvous

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lsds/accbind/srcs/go/config"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
)

func (s *Server) newEngine() *gin.Engine {
	e := gin.New()
	e.Use(s.observe(), gin.Recovery())

	e.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if config.EnableMetrics {
		e.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := e.Group(apiPrefix)
	{
		jobs := v1.Group("/jobs/:job")
		jobs.DELETE("", s.deleteJobHandler)
		jobs.POST("/splits/:seq", s.joinHandler)
		jobs.GET("/splits/:seq", s.waitHandler)
		jobs.DELETE("/splits/:seq", s.releaseHandler)
	}
	return e
}

// observe logs every request and records its latency.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		t0 := time.Now()
		c.Next()
		d := time.Since(t0)
		route := c.FullPath()
		if len(route) == 0 {
			route = "unmatched"
		}
		code := strconv.Itoa(c.Writer.Status())
		s.metrics.RequestDuration.WithLabelValues(c.Request.Method, route, code).Observe(d.Seconds())
		log.Debugf("%s %s %s took %s", c.Request.Method, c.Request.URL.Path, code, d)
	}
}

func abort(c *gin.Context, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		log.Debugf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func intParam(val, name string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(errBadRequest, "invalid %s %q", name, val)
	}
	return n, nil
}

func (s *Server) joinHandler(c *gin.Context) {
	seq, err := intParam(c.Param("seq"), "seq")
	if err != nil {
		abort(c, err)
		return
	}
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.Wrap(errBadRequest, err.Error()))
		return
	}
	if err := (plan.ProcessIdentity{Rank: req.Rank, Size: req.Size}).Validate(); err != nil {
		abort(c, err)
		return
	}
	r, err := s.join(c.Param("job"), seq, req)
	if err != nil {
		abort(c, err)
		return
	}
	if !r.Complete() {
		c.JSON(http.StatusAccepted, PendingResponse{Seq: seq, Joined: r.Joined(), Size: r.Size})
		return
	}
	s.replyGroup(c, r.GroupOf, req.Rank)
}

// waitHandler holds the request until the round completes, the wait
// elapses or the client goes away.
func (s *Server) waitHandler(c *gin.Context) {
	seq, err := intParam(c.Param("seq"), "seq")
	if err != nil {
		abort(c, err)
		return
	}
	rank, err := intParam(c.Query("rank"), "rank")
	if err != nil {
		abort(c, err)
		return
	}
	r, err := s.round(c.Param("job"), seq)
	if err != nil {
		abort(c, err)
		return
	}
	if wait := parseWait(c.Query("wait")); wait > 0 {
		tm := time.NewTimer(wait)
		defer tm.Stop()
		select {
		case <-r.Done():
		case <-tm.C:
		case <-c.Request.Context().Done():
		}
	}
	if !r.Complete() {
		c.JSON(http.StatusAccepted, PendingResponse{Seq: seq, Joined: r.Joined(), Size: r.Size})
		return
	}
	s.replyGroup(c, r.GroupOf, rank)
}

func (s *Server) replyGroup(c *gin.Context, groupOf func(int) (*plan.NodeGroup, error), rank int) {
	g, err := groupOf(rank)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) releaseHandler(c *gin.Context) {
	seq, err := intParam(c.Param("seq"), "seq")
	if err != nil {
		abort(c, err)
		return
	}
	rank, err := intParam(c.Query("rank"), "rank")
	if err != nil {
		abort(c, err)
		return
	}
	if err := s.release(c.Param("job"), seq, rank); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteJobHandler(c *gin.Context) {
	job := c.Param("job")
	if !s.deleteJob(job) {
		abort(c, errors.Wrapf(errUnknownJob, "%s", job))
		return
	}
	log.Debugf("job %s deleted", job)
	c.Status(http.StatusNoContent)
}
