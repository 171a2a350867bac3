package rendezvous

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/lsds/accbind/srcs/go/collective"
	"github.com/lsds/accbind/srcs/go/config"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
)

const applicationJSON = `application/json`

// Client runs collectives of one job through a rendezvous server. Each
// SplitByKey call uses the next round of the job, so all processes of the
// job must call it in the same order.
type Client struct {
	base string
	job  string
	poll time.Duration
	http *retryablehttp.Client

	sync.Mutex
	seq int
}

func NewClient(base, job string) *Client {
	hc := retryablehttp.NewClient()
	hc.Logger = log.Leveled{L: log.Std()}
	hc.RetryMax = 8
	hc.RetryWaitMin = 100 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	return &Client{
		base: strings.TrimRight(base, "/"),
		job:  job,
		poll: config.PollInterval,
		http: hc,
	}
}

func (c *Client) nextSeq() int {
	c.Lock()
	defer c.Unlock()
	seq := c.seq
	c.seq++
	return seq
}

func (c *Client) SplitByKey(ctx context.Context, self plan.ProcessIdentity, key plan.NodeKey, label string) (*collective.Group, error) {
	seq := c.nextSeq()
	req := JoinRequest{Rank: self.Rank, Size: self.Size, Key: key, Label: label}
	var g plan.NodeGroup
	done, err := c.call(ctx, http.MethodPost, splitPath(c.job, seq), req, &g)
	for err == nil && !done {
		q := splitPath(c.job, seq) + "?rank=" + itoa(self.Rank) + "&wait=" + c.poll.String()
		done, err = c.call(ctx, http.MethodGet, q, nil, &g)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, collective.Interrupted(ctx, "rendezvous split")
		}
		return nil, err
	}
	return collective.NewGroup(g, func() { c.release(seq, self.Rank) }), nil
}

func (c *Client) release(seq, rank int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := c.call(ctx, http.MethodDelete, splitPath(c.job, seq)+"?rank="+itoa(rank), nil, nil); err != nil {
		log.Warnf("failed to free group of round %d: %v", seq, err)
	}
}

// DeleteJob drops the job and all its rounds from the server.
func (c *Client) DeleteJob(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodDelete, jobPath(c.job), nil, nil)
	return err
}

// call reports false while the server answers 202.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) (bool, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, errors.Wrap(err, "marshal request")
		}
		payload = bytes.NewReader(data)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return false, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", applicationJSON)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return false, errors.Wrapf(err, "decode response of %s %s", method, path)
			}
		}
		return true, nil
	case http.StatusNoContent:
		return true, nil
	case http.StatusAccepted:
		return false, nil
	}
	var e ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		e.Error = "undecodable error response"
	}
	return false, errorOf(resp.StatusCode, e)
}

// Healthy reports whether the server at base answers its health check.
func Healthy(ctx context.Context, base string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
