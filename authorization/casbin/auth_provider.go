package casbin

import (
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	"github.com/nasermirzaei89/nexus/authorization"
)

// ObjectAny in a policy object field matches every object of the domain.
const ObjectAny = "*"

//go:embed model.conf
var casbinModelContent string

type AuthorizationProvider struct {
	enforcer *casbin.Enforcer
}

var _ authorization.AuthorizationProvider = (*AuthorizationProvider)(nil)

func NewAuthorizationProvider(persistAdapter persist.Adapter) (*AuthorizationProvider, error) {
	casbinModel, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(casbinModel, persistAdapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)

	err = enforcer.LoadPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to load db policy: %w", err)
	}

	return &AuthorizationProvider{
		enforcer: enforcer,
	}, nil
}

func (ap *AuthorizationProvider) CheckAccess(
	_ context.Context,
	req authorization.CheckAccessRequest,
) (*authorization.CheckAccessResponse, error) {
	if req.Object == "" {
		req.Object = ObjectAny
	}

	allowed, explain, err := ap.enforcer.EnforceEx(req.Subject, req.Domain, req.Object, req.Action)
	if err != nil {
		return nil, fmt.Errorf("failed to check permission: %w", err)
	}

	return &authorization.CheckAccessResponse{
		Allowed: allowed,
		Reason:  strings.Join(explain, ", "),
	}, nil
}

func (ap *AuthorizationProvider) AddToGroup(_ context.Context, sub string, groups ...string) error {
	for _, group := range groups {
		err := addGroupingPolicyIfNotExists(ap.enforcer, sub, group)
		if err != nil {
			return fmt.Errorf("failed to add grouping policy: %w", err)
		}
	}

	return nil
}

func (ap *AuthorizationProvider) InGroup(_ context.Context, sub, group string) (bool, error) {
	ok, err := ap.enforcer.HasGroupingPolicy(sub, group)
	if err != nil {
		return false, fmt.Errorf("failed to check grouping policy: %w", err)
	}

	return ok, nil
}

// AddPolicyFromCSV merges policy lines in casbin csv format into the stored policy. Existing rules are skipped, so
// the same content can be applied on every start.
func (ap *AuthorizationProvider) AddPolicyFromCSV(_ context.Context, casbinPolicyContent string) error {
	err := addPolicyFromString(ap.enforcer, casbinPolicyContent)
	if err != nil {
		return fmt.Errorf("failed to load csv policy: %w", err)
	}

	return nil
}

func addPolicyFromString(enforcer *casbin.Enforcer, policyFileContent string) error {
	reader := csv.NewReader(strings.NewReader(policyFileContent))

	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read policy content: %w", err)
	}

	for _, record := range records {
		record = normalizePolicyRecord(record)
		if len(record) == 0 || record[0] == "" {
			continue
		}

		err = addPolicyFromRecord(enforcer, record)
		if err != nil {
			return fmt.Errorf("failed to add policy from record: %w", err)
		}
	}

	return nil
}

func normalizePolicyRecord(record []string) []string {
	normalized := make([]string, len(record))
	for i := range record {
		normalized[i] = strings.TrimSpace(record[i])
	}

	return normalized
}

// UnknownPolicyTypeError is returned for a policy line that is neither a "p" rule nor a "g" grouping.
type UnknownPolicyTypeError struct {
	PolicyType string
	Line       string
}

func (err UnknownPolicyTypeError) Error() string {
	return fmt.Sprintf("unknown policy type %q in line %q", err.PolicyType, err.Line)
}

func addPolicyFromRecord(enforcer *casbin.Enforcer, record []string) error {
	switch record[0] {
	case "p":
		err := addPolicyIfNotExists(enforcer, record[1:]...)
		if err != nil {
			return fmt.Errorf("failed to add policy if not exists: %w", err)
		}

	case "g":
		err := addGroupingPolicyIfNotExists(enforcer, record[1:]...)
		if err != nil {
			return fmt.Errorf("failed to add grouping policy if not exists: %w", err)
		}
	default:
		return UnknownPolicyTypeError{PolicyType: record[0], Line: strings.Join(record, ", ")}
	}

	return nil
}

func toArgs(params []string) []any {
	args := make([]any, len(params))
	for i := range args {
		args[i] = params[i]
	}

	return args
}

func addPolicyIfNotExists(enforcer *casbin.Enforcer, params ...string) error {
	args := toArgs(params)

	exists, err := enforcer.HasPolicy(args...)
	if err != nil {
		return fmt.Errorf("failed to check policy: %w", err)
	}

	if exists {
		return nil
	}

	_, err = enforcer.AddPolicy(args...)
	if err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}

	return nil
}

func addGroupingPolicyIfNotExists(enforcer *casbin.Enforcer, params ...string) error {
	args := toArgs(params)

	exists, err := enforcer.HasGroupingPolicy(args...)
	if err != nil {
		return fmt.Errorf("failed to check policy: %w", err)
	}

	if exists {
		return nil
	}

	_, err = enforcer.AddGroupingPolicy(args...)
	if err != nil {
		return fmt.Errorf("failed to add grouping policy: %w", err)
	}

	return nil
}
