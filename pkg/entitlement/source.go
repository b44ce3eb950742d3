package entitlement

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source defines how the entitlement table is loaded at startup.
type Source interface {
	Load(ctx context.Context) (Table, error)
}

type staticSource struct {
	table Table
}

// NewStaticSource returns a Source backed by the given table.
// Panics if the table lacks a free entry since LimitsFor falls back to it.
func NewStaticSource(table Table) Source {
	if _, ok := table[PlanFree]; !ok {
		panic("entitlement: table must define the free plan")
	}
	return &staticSource{table: table}
}

func (s *staticSource) Load(context.Context) (Table, error) {
	cp := make(Table, len(s.table))
	for plan, limits := range s.table {
		features := make([]Feature, len(limits.Features))
		copy(features, limits.Features)
		cp[plan] = Limits{RequestQuota: limits.RequestQuota, Features: features}
	}
	return cp, nil
}

type fileSource struct {
	path string
}

// NewFileSource returns a Source that reads the entitlement table from a YAML
// file. The file maps plan IDs to limits:
//
//	simple:
//	  request_quota: 1000
//	  features: [basic]
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Load(context.Context) (Table, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadTable, err)
	}

	var raw map[Plan]Limits
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrFailedToLoadTable, err)
	}

	table := Table(raw)
	if err := Validate(table); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate checks the table for configuration mistakes that would otherwise
// surface as runtime authorization bugs.
func Validate(table Table) error {
	if _, ok := table[PlanFree]; !ok {
		return errors.Join(ErrInvalidTable, errors.New("missing free plan entry"))
	}
	for plan, limits := range table {
		if !plan.Valid() {
			return errors.Join(ErrInvalidTable, fmt.Errorf("unknown plan %q", plan))
		}
		if limits.RequestQuota < Unlimited {
			return errors.Join(ErrInvalidTable,
				fmt.Errorf("plan %q has negative quota %d", plan, limits.RequestQuota))
		}
	}
	return nil
}
