package plan

import (
	"fmt"

	"github.com/pkg/errors"
)

// ProcessIdentity is the position of a process in the global process group.
// It never changes during the life of a process.
type ProcessIdentity struct {
	Rank int `json:"rank"`
	Size int `json:"size"`
}

var ErrInvalidIdentity = errors.New("invalid process identity")

func (p ProcessIdentity) Validate() error {
	if p.Size <= 0 || p.Rank < 0 || p.Rank >= p.Size {
		return errors.Wrapf(ErrInvalidIdentity, "rank %d of %d", p.Rank, p.Size)
	}
	return nil
}

func (p ProcessIdentity) String() string {
	return fmt.Sprintf("%d/%d", p.Rank, p.Size)
}
