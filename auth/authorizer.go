package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"spirits-storefront/model"
)

// rbacModel matches request paths with keyMatch2 (":id" and "*" segments)
// and methods with an anchored regular expression. Roles inherit through g.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

var defaultPolicies = [][]string{
	{"customer", "/api/account", "^(GET|PATCH)$"},
	{"customer", "/api/account/password", "^POST$"},
	{"customer", "/api/account/addresses", "^(GET|POST)$"},
	{"customer", "/api/account/addresses/:id", "^(PUT|DELETE)$"},
	{"customer", "/api/orders", "^GET$"},
	{"customer", "/api/orders/:id", "^GET$"},
	{"customer", "/api/orders/:id/cancel", "^POST$"},
	{"customer", "/api/cart", "^(GET|DELETE)$"},
	{"customer", "/api/cart/items", "^POST$"},
	{"customer", "/api/cart/items/:id", "^(PUT|DELETE)$"},
	{"customer", "/api/checkout", "^POST$"},
	{"customer", "/api/products/:id/reviews", "^POST$"},
	{"admin", "/api/admin/*", ".*"},
}

var defaultGroupings = [][]string{
	{string(model.RoleAdmin), string(model.RoleCustomer)},
}

// Authorizer decides whether a role may call a method on a path.
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewAuthorizer loads the policy from policyFile (casbin CSV) or, when it
// is empty, uses the built-in storefront policy.
func NewAuthorizer(policyFile string) (*Authorizer, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	if policyFile != "" {
		e, err := casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(policyFile))
		if err != nil {
			return nil, fmt.Errorf("load policy %s: %w", policyFile, err)
		}
		return &Authorizer{enforcer: e}, nil
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}
	if _, err := e.AddGroupingPolicies(defaultGroupings); err != nil {
		return nil, fmt.Errorf("add role inheritance: %w", err)
	}
	return &Authorizer{enforcer: e}, nil
}

func (a *Authorizer) Authorize(role model.Role, path, method string) (bool, error) {
	return a.enforcer.Enforce(string(role), path, method)
}
