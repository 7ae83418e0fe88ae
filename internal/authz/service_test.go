package authz

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:authz_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func mustEnforce(t *testing.T, svc *Service, adminID uint, obj, act string) bool {
	t.Helper()
	allow, err := svc.EnforceAdmin(adminID, obj, act)
	if err != nil {
		t.Fatalf("enforce %s %s failed: %v", act, obj, err)
	}
	return allow
}

func TestEnforceAdminViaRole(t *testing.T) {
	svc := newTestService(t)
	if err := svc.GrantRolePolicy("pickers", "/admin/fulfillments/:id", "GET"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(7, []string{"pickers"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	// 路由参数经 keyMatch2 匹配，版本前缀在判定前剥掉，动作大小写不敏感
	if !mustEnforce(t, svc, 7, "/api/v1/admin/fulfillments/15", "get") {
		t.Fatalf("expected role policy to allow")
	}
	if mustEnforce(t, svc, 7, "/api/v1/admin/fulfillments/15", "POST") {
		t.Fatalf("expected unmatched action to deny")
	}
	if mustEnforce(t, svc, 8, "/api/v1/admin/fulfillments/15", "GET") {
		t.Fatalf("expected admin without role to deny")
	}
}

func TestSetAdminRolesReplacesPrevious(t *testing.T) {
	svc := newTestService(t)
	if err := svc.GrantRolePolicy("pickers", "/admin/fulfillments", "GET"); err != nil {
		t.Fatalf("grant pickers policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("billing", "/admin/invoices", "GET"); err != nil {
		t.Fatalf("grant billing policy failed: %v", err)
	}

	if err := svc.SetAdminRoles(2, []string{"pickers"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"billing"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}

	roles, err := svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:billing" {
		t.Fatalf("roles want [role:billing] got %v", roles)
	}
	if mustEnforce(t, svc, 2, "/admin/fulfillments", "GET") {
		t.Fatalf("expected replaced role permission revoked")
	}
	if !mustEnforce(t, svc, 2, "/admin/invoices", "GET") {
		t.Fatalf("expected new role permission granted")
	}
}

func TestDeleteRoleClearsPoliciesAndMembers(t *testing.T) {
	svc := newTestService(t)
	if err := svc.GrantRolePolicy("pickers", "/admin/fulfillments", "GET"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(5, []string{"pickers"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	if err := svc.DeleteRole("pickers"); err != nil {
		t.Fatalf("delete role failed: %v", err)
	}
	if mustEnforce(t, svc, 5, "/admin/fulfillments", "GET") {
		t.Fatalf("expected deleted role to deny")
	}
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	for _, role := range roles {
		if role == "role:pickers" {
			t.Fatalf("deleted role still listed: %v", roles)
		}
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "admin/orders", want: "/admin/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, tc := range cases {
		if got := NormalizeObject(tc.in); got != tc.want {
			t.Fatalf("normalize object in=%q want=%q got=%q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	got, err := NormalizeRole(" shift lead ")
	if err != nil {
		t.Fatalf("normalize role failed: %v", err)
	}
	if got != "role:shift_lead" {
		t.Fatalf("role want role:shift_lead got %s", got)
	}
	if got, err = NormalizeRole("role:finance"); err != nil || got != "role:finance" {
		t.Fatalf("prefixed role want role:finance got %s (%v)", got, err)
	}
	if _, err = NormalizeRole("  "); err == nil {
		t.Fatalf("blank role should fail")
	}
	if _, err = NormalizeRole("role:"); err == nil {
		t.Fatalf("bare prefix should fail")
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := newTestService(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 可重入
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	want := map[string]bool{
		"role:readonly_auditor":  true,
		"role:catalog_manager":   true,
		"role:fulfillment_staff": true,
		"role:support":           true,
		"role:finance":           true,
	}
	for _, role := range roles {
		delete(want, role)
	}
	if len(want) != 0 {
		t.Fatalf("builtin roles missing: %v", want)
	}

	if err := svc.SetAdminRoles(3, []string{"fulfillment_staff"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}
	if !mustEnforce(t, svc, 3, "/admin/fulfillments/12/start", "POST") {
		t.Fatalf("expected fulfillment staff to start picking")
	}
	// readonly_auditor 继承只给 GET
	if !mustEnforce(t, svc, 3, "/admin/settings", "GET") {
		t.Fatalf("expected inherited readonly GET")
	}
	if mustEnforce(t, svc, 3, "/admin/settings", "PUT") {
		t.Fatalf("expected inherited readonly to deny writes")
	}
	if mustEnforce(t, svc, 3, "/admin/products", "POST") {
		t.Fatalf("expected catalog writes denied for fulfillment staff")
	}
}
