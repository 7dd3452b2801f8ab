package root

import (
	"github.com/nimbusdesk/nimbusdesk-saas/apps/cli/cmd/auth"
	"github.com/nimbusdesk/nimbusdesk-saas/apps/cli/cmd/bootstrap"
	"github.com/nimbusdesk/nimbusdesk-saas/apps/cli/cmd/plans"
	"github.com/nimbusdesk/nimbusdesk-saas/apps/cli/cmd/signup"
	"github.com/nimbusdesk/nimbusdesk-saas/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(tenant.Command())
	Root().AddCommand(signup.Command())
	Root().AddCommand(plans.Command())
}
