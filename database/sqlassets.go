package sqlassets

import _ "embed"

//go:embed schema/platform/control_plane.sql
var ControlPlaneSQL string

//go:embed schema/platform/seed.sql
var SeedSQL string

//go:embed schema/functions/check_slug_available.sql
var CheckSlugAvailableSQL string

//go:embed schema/functions/provision_tenant.sql
var ProvisionTenantSQL string
