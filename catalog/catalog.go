// Package catalog holds the regulation requirement sets. A Catalog is loaded
// once at startup and is read-only afterwards, so it is safe for concurrent use.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"clausecheck-backend/models"

	"gopkg.in/yaml.v3"
)

//go:embed regulations.yaml
var defaultRegulations []byte

// Catalog is the immutable set of supported regulations
type Catalog struct {
	regulations []models.Regulation
	byCode      map[models.RegulationCode]int
}

type catalogFile struct {
	Regulations []models.Regulation `yaml:"regulations"`
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultRegulations)
}

// Load reads a catalog from path, or the embedded default when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regulations file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse regulations: %w", err)
	}
	return New(f.Regulations)
}

// New validates regulations and builds a catalog from them.
// The slices are copied so later changes by the caller are not observed.
func New(regulations []models.Regulation) (*Catalog, error) {
	if len(regulations) == 0 {
		return nil, fmt.Errorf("catalog defines no regulations")
	}

	c := &Catalog{byCode: make(map[models.RegulationCode]int, len(regulations))}
	seenReq := make(map[string]bool)

	for _, reg := range regulations {
		code, ok := models.ParseRegulationCode(string(reg.Code))
		if !ok {
			return nil, fmt.Errorf("unknown regulation code %q", reg.Code)
		}
		if _, dup := c.byCode[code]; dup {
			return nil, fmt.Errorf("regulation %s defined twice", code)
		}
		if len(reg.Requirements) == 0 {
			return nil, fmt.Errorf("regulation %s has no requirements", code)
		}

		out := models.Regulation{
			Code:         code,
			Name:         reg.Name,
			Requirements: make([]models.Requirement, 0, len(reg.Requirements)),
		}
		for _, req := range reg.Requirements {
			if req.ID == "" || strings.TrimSpace(req.Description) == "" {
				return nil, fmt.Errorf("regulation %s has a requirement without id or description", code)
			}
			if seenReq[req.ID] {
				return nil, fmt.Errorf("requirement id %q is not unique", req.ID)
			}
			seenReq[req.ID] = true

			if req.Severity.Rank() == 0 {
				return nil, fmt.Errorf("requirement %s: invalid severity %q", req.ID, req.Severity)
			}
			if len(req.ApplicableCategories) == 0 {
				return nil, fmt.Errorf("requirement %s has no applicable categories", req.ID)
			}
			cats := make([]models.ClauseCategory, 0, len(req.ApplicableCategories))
			for _, cat := range req.ApplicableCategories {
				if !cat.Valid() || cat == models.CategoryUnclassified {
					return nil, fmt.Errorf("requirement %s: unknown category %q", req.ID, cat)
				}
				cats = append(cats, cat)
			}

			out.Requirements = append(out.Requirements, models.Requirement{
				ID:                   req.ID,
				RegulationCode:       code,
				Description:          strings.TrimSpace(req.Description),
				ApplicableCategories: cats,
				Severity:             req.Severity,
			})
		}

		c.byCode[code] = len(c.regulations)
		c.regulations = append(c.regulations, out)
	}

	return c, nil
}

// Regulations returns every regulation in catalog order
func (c *Catalog) Regulations() []models.Regulation {
	out := make([]models.Regulation, len(c.regulations))
	copy(out, c.regulations)
	return out
}

// Regulation looks up a single regulation
func (c *Catalog) Regulation(code models.RegulationCode) (models.Regulation, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return models.Regulation{}, false
	}
	return c.regulations[i], true
}

// Resolve validates requested codes and returns their regulations in request order.
// Duplicates are dropped. Any unknown code fails the whole request.
func (c *Catalog) Resolve(codes []string) ([]models.Regulation, error) {
	if len(codes) == 0 {
		return nil, models.NewError(models.KindInvalidRequest, "at least one regulation is required")
	}

	var unknown []string
	seen := make(map[models.RegulationCode]bool, len(codes))
	regs := make([]models.Regulation, 0, len(codes))

	for _, raw := range codes {
		code, ok := models.ParseRegulationCode(raw)
		if !ok {
			unknown = append(unknown, raw)
			continue
		}
		reg, ok := c.Regulation(code)
		if !ok {
			unknown = append(unknown, raw)
			continue
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		regs = append(regs, reg)
	}

	if len(unknown) > 0 {
		return nil, models.NewError(models.KindUnknownRegulation, "unknown regulation code(s): %s", strings.Join(unknown, ", "))
	}
	return regs, nil
}
