package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

// Rule grants access to requests matching Method and Pattern. Pattern is a
// slash separated glob: "*" matches one segment, "**" matches the rest of the
// path. An empty Method matches every method.
type Rule struct {
	Method  string
	Pattern string
	Public  bool
	Roles   []models.Role
}

// Permit builds a rule restricted to roles. No roles means any authenticated caller.
func Permit(method, pattern string, roles ...models.Role) Rule {
	return Rule{Method: method, Pattern: pattern, Roles: roles}
}

// Public builds a rule open to anonymous callers.
func Public(method, pattern string) Rule {
	return Rule{Method: method, Pattern: pattern, Public: true}
}

// Policy is an ordered rule table. The first matching rule decides; requests
// matching no rule require authentication.
type Policy struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	segments []string
}

// NewPolicy compiles rules in order.
func NewPolicy(rules ...Rule) *Policy {
	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		p.rules = append(p.rules, compiledRule{Rule: r, segments: split(r.Pattern)})
	}
	return p
}

// Decide returns nil when principal may call method on path.
func (p *Policy) Decide(method, path string, principal *models.Principal) error {
	rule, ok := p.match(method, path)
	if ok && rule.Public {
		return nil
	}
	if principal == nil {
		return appErrors.ErrUnauthorized
	}
	if !ok || len(rule.Roles) == 0 {
		return nil
	}
	for _, role := range rule.Roles {
		if principal.Role == role {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

func (p *Policy) match(method, path string) (compiledRule, bool) {
	segments := split(path)
	for _, rule := range p.rules {
		if rule.Method != "" && !strings.EqualFold(rule.Method, method) {
			continue
		}
		if globMatch(rule.segments, segments) {
			return rule, true
		}
	}
	return compiledRule{}, false
}

// Authorize enforces the policy against the principal attached by Authenticate.
func Authorize(policy *Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Decide(c.Request.Method, c.Request.URL.Path, PrincipalFrom(c)); err != nil {
			response.Abort(c, err)
			return
		}
		c.Next()
	}
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func globMatch(pattern, segments []string) bool {
	for i, part := range pattern {
		if part == "**" {
			return true
		}
		if i >= len(segments) {
			return false
		}
		if part != "*" && part != segments[i] {
			return false
		}
	}
	return len(pattern) == len(segments)
}
