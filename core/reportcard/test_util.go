package reportcard

import (
	"time"

	"github.com/schoolerp/erp/core"
)

// NewServiceMock returns a service whose clock is frozen at `now`.
func NewServiceMock(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config, now time.Time) ServiceInterface {
	svc := newService(repo, mailSvc, logger, conf)
	svc.nowFunc = func() time.Time { return now }
	return svc
}
