package rendezvous

import (
	"fmt"
	"net/http"

	"github.com/lsds/accbind/srcs/go/collective"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
)

const apiPrefix = `/api/v1`

// JoinRequest is the body of a join: the caller's identity and key.
type JoinRequest struct {
	Rank  int          `json:"rank"`
	Size  int          `json:"size"`
	Key   plan.NodeKey `json:"key"`
	Label string       `json:"label,omitempty"`
}

// PendingResponse is returned with 202 while a round is incomplete.
type PendingResponse struct {
	Seq    int `json:"seq"`
	Joined int `json:"joined"`
	Size   int `json:"size"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	codeBadRequest      = `bad_request`
	codeSizeMismatch    = `size_mismatch`
	codeKeyMismatch     = `key_mismatch`
	codeInvalidIdentity = `invalid_identity`
	codeUnknownJob      = `unknown_job`
	codeUnknownRound    = `unknown_round`
	codeUnknownRank     = `unknown_rank`
	codeInternal        = `internal`
)

var errBadRequest = errors.New("bad request")

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, collective.ErrSizeMismatch):
		return http.StatusConflict, codeSizeMismatch
	case errors.Is(err, collective.ErrKeyMismatch):
		return http.StatusConflict, codeKeyMismatch
	case errors.Is(err, plan.ErrInvalidIdentity):
		return http.StatusBadRequest, codeInvalidIdentity
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, errUnknownJob):
		return http.StatusNotFound, codeUnknownJob
	case errors.Is(err, errUnknownRound):
		return http.StatusNotFound, codeUnknownRound
	case errors.Is(err, plan.ErrMissingRank):
		return http.StatusNotFound, codeUnknownRank
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// errorOf turns an error response back into the sentinel it came from.
func errorOf(status int, e ErrorResponse) error {
	var sentinel error
	switch e.Code {
	case codeSizeMismatch:
		sentinel = collective.ErrSizeMismatch
	case codeKeyMismatch:
		sentinel = collective.ErrKeyMismatch
	case codeInvalidIdentity:
		sentinel = plan.ErrInvalidIdentity
	case codeUnknownJob:
		sentinel = errUnknownJob
	case codeUnknownRound:
		sentinel = errUnknownRound
	case codeUnknownRank:
		sentinel = plan.ErrMissingRank
	default:
		return errors.Errorf("rendezvous: %s (%d %s)", e.Error, status, http.StatusText(status))
	}
	return errors.Wrap(sentinel, e.Error)
}

func splitPath(job string, seq int) string {
	return fmt.Sprintf("%s/jobs/%s/splits/%d", apiPrefix, job, seq)
}

func jobPath(job string) string {
	return fmt.Sprintf("%s/jobs/%s", apiPrefix, job)
}
