package users

import (
	"fmt"
	"slices"
	"strings"
)

// Role is one of the fixed dashboard roles.
type Role string

const (
	RoleMinister Role = "minister" // National oversight
	RoleCEO      Role = "ceo"      // Utility chief executive
	RoleManager  Role = "manager"  // Regional operations
	RoleOperator Role = "operator" // Site level, can ingest readings
	RoleAnalyst  Role = "analyst"  // Read-only analytics and reports
	RolePublic   Role = "public"   // Public dashboard and map only
)

// Permission names as the backend checks them.
const (
	PermViewNationalDashboard = "view:national_dashboard"
	PermViewRegionalDashboard = "view:regional_dashboard"
	PermViewSiteDashboard     = "view:site_dashboard"
	PermViewPublicDashboard   = "view:public_dashboard"
	PermViewKPIs              = "view:kpis"
	PermViewAlerts            = "view:alerts"
	PermViewReports           = "view:reports"
	PermViewMap               = "view:map"
	PermViewMetrics           = "view:metrics"
	PermExportReports         = "export:reports"
	PermManageUsers           = "manage:users"
	PermManageProjects        = "manage:projects"
	PermManageOperators       = "manage:operators"
	PermCreateMetrics         = "create:metrics"
	PermCreateReadings        = "create:readings"
	PermUploadData            = "upload:data"
)

var permissions = map[Role][]string{
	RoleMinister: {PermViewNationalDashboard, PermViewKPIs, PermViewAlerts, PermViewReports, PermViewMap, PermExportReports, PermManageUsers},
	RoleCEO:      {PermViewRegionalDashboard, PermViewKPIs, PermViewAlerts, PermViewReports, PermViewMap, PermViewMetrics, PermExportReports, PermManageProjects, PermManageOperators},
	RoleManager:  {PermViewRegionalDashboard, PermViewMetrics, PermViewAlerts, PermViewMap, PermManageProjects, PermExportReports},
	RoleOperator: {PermViewSiteDashboard, PermViewMetrics, PermViewAlerts, PermCreateMetrics, PermCreateReadings, PermUploadData},
	RoleAnalyst:  {PermViewRegionalDashboard, PermViewMetrics, PermViewKPIs, PermViewReports, PermViewMap, PermExportReports},
	RolePublic:   {PermViewPublicDashboard, PermViewMap},
}

// AllRoles returns the closed role set, most privileged first.
func AllRoles() []Role {
	return []Role{RoleMinister, RoleCEO, RoleManager, RoleOperator, RoleAnalyst, RolePublic}
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := permissions[r]
	return ok
}

// Permissions returns a copy of the role's permission list.
func (r Role) Permissions() []string {
	return slices.Clone(permissions[r])
}

// Can reports whether the role grants permission.
func (r Role) Can(permission string) bool {
	return slices.Contains(permissions[r], permission)
}
