package registry

import (
	"fmt"
	"sort"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/pkg/errors"
	"github.com/caseflow/caseflow-api/pkg/security"
)

// OperatorSeed is one configured operator. Either CredentialHash (a
// bcrypt hash) or Credential (hashed at load) must be set.
type OperatorSeed struct {
	ID             string
	Name           string
	Role           string
	HomeLocation   string
	Credential     string
	CredentialHash string
}

// OperatorDirectory is the static credential-lookup collaborator. Loaded
// once at process start, immutable for the process lifetime.
type OperatorDirectory struct {
	operators map[string]*model.Operator
	hasher    security.SecretHasher
}

func NewOperatorDirectory(seeds []OperatorSeed, hasher security.SecretHasher) (*OperatorDirectory, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no operators configured")
	}
	operators := make(map[string]*model.Operator, len(seeds))
	for _, seed := range seeds {
		if seed.ID == "" {
			return nil, fmt.Errorf("operator with empty id")
		}
		if seed.HomeLocation == "" {
			return nil, fmt.Errorf("operator %s has no home location", seed.ID)
		}
		if _, exists := operators[seed.ID]; exists {
			return nil, fmt.Errorf("duplicate operator %s", seed.ID)
		}
		hash := seed.CredentialHash
		if hash == "" {
			if seed.Credential == "" {
				return nil, fmt.Errorf("operator %s has no credential", seed.ID)
			}
			var err error
			hash, err = hasher.Hash(seed.Credential)
			if err != nil {
				return nil, fmt.Errorf("failed to hash credential for operator %s: %w", seed.ID, err)
			}
		}
		operators[seed.ID] = &model.Operator{
			ID:             seed.ID,
			Name:           seed.Name,
			Role:           seed.Role,
			HomeLocation:   seed.HomeLocation,
			CredentialHash: hash,
		}
	}
	return &OperatorDirectory{operators: operators, hasher: hasher}, nil
}

// Lookup fails explicitly on unknown operator ids.
func (d *OperatorDirectory) Lookup(id string) (*model.Operator, error) {
	op, ok := d.operators[id]
	if !ok {
		return nil, errors.NotFound("operator", fmt.Errorf("unknown operator %q", id))
	}
	return op, nil
}

// VerifyCredential reports whether the claimed secret matches the
// operator's stored credential.
func (d *OperatorDirectory) VerifyCredential(op *model.Operator, secret string) bool {
	return d.hasher.Compare(op.CredentialHash, secret) == nil
}

func (d *OperatorDirectory) List() []*model.Operator {
	out := make([]*model.Operator, 0, len(d.operators))
	for _, op := range d.operators {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
