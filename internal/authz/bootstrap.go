package authz

import "fmt"

// RoleSeed 预置角色定义。Immutable 的角色不可经接口删除。
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 店面后台的预置角色矩阵，
// 除审计角色外均继承 readonly_auditor 的只读权限
func BuiltinRoleSeeds() []RoleSeed {
	auditor := RoleSeed{
		Role:      "readonly_auditor",
		Policies:  []Policy{{Object: "/admin/*", Action: "GET"}},
		Immutable: true,
	}
	return []RoleSeed{
		auditor,
		{
			Role:     "catalog_manager",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/products", Action: "*"},
				{Object: "/admin/products/:id", Action: "*"},
				{Object: "/admin/products/:id/stock", Action: "PATCH"},
				{Object: "/admin/categories", Action: "*"},
				{Object: "/admin/categories/:id", Action: "*"},
				{Object: "/admin/vendors", Action: "*"},
				{Object: "/admin/vendors/:id", Action: "*"},
				{Object: "/admin/posts", Action: "*"},
				{Object: "/admin/posts/:id", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role:     "fulfillment_staff",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/fulfillments", Action: "GET"},
				{Object: "/admin/fulfillments/:id", Action: "GET"},
				{Object: "/admin/fulfillments/:id/start", Action: "POST"},
				{Object: "/admin/fulfillments/:id/complete", Action: "POST"},
				{Object: "/admin/fulfillments/:id/cancel", Action: "POST"},
				{Object: "/admin/fulfillments/:id/items/:itemId", Action: "PATCH"},
			},
			Immutable: true,
		},
		{
			Role:     "support",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id/status", Action: "PATCH"},
				{Object: "/admin/users", Action: "GET"},
				{Object: "/admin/users/:id", Action: "GET"},
				{Object: "/admin/payments", Action: "GET"},
				{Object: "/admin/payments/:id", Action: "GET"},
				{Object: "/admin/invoices", Action: "GET"},
				{Object: "/admin/invoices/:id", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/payments", Action: "GET"},
				{Object: "/admin/payments/:id", Action: "GET"},
				{Object: "/admin/payments/:id/sync", Action: "POST"},
				{Object: "/admin/payment-channels", Action: "*"},
				{Object: "/admin/payment-channels/:id", Action: "*"},
				{Object: "/admin/invoices", Action: "*"},
				{Object: "/admin/invoices/:id", Action: "*"},
				{Object: "/admin/invoices/:id/void", Action: "POST"},
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略（可重入，已有规则不重复写入）
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("authz: link builtin inheritance: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("authz: builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("authz: add builtin policy: %w", err)
			}
		}
	}
	return nil
}
