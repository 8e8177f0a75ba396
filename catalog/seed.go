package catalog

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"spirits-storefront/model"
)

// seedFile is the on-disk layout of a catalog seed.
type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	SKU         string   `yaml:"sku"`
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Brand       string   `yaml:"brand"`
	Category    string   `yaml:"category"`
	Region      string   `yaml:"region"`
	Description string   `yaml:"description"`
	Price       float64  `yaml:"price"`
	ABV         float64  `yaml:"abv"`
	VolumeML    int      `yaml:"volume_ml"`
	AgeYears    int      `yaml:"age_years"`
	ImageURL    string   `yaml:"image_url"`
	Tags        []string `yaml:"tags"`
	Stock       int      `yaml:"stock"`
	Featured    bool     `yaml:"featured"`
}

// LoadSeedFile reads a YAML catalog and returns active products ready to
// insert. Duplicate SKUs or slugs are rejected.
func LoadSeedFile(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data.
func ParseSeed(data []byte) ([]model.Product, error) {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	skus := map[string]bool{}
	slugs := map[string]bool{}
	out := make([]model.Product, 0, len(sf.Products))
	for i, sp := range sf.Products {
		p := model.Product{
			SKU:         strings.TrimSpace(sp.SKU),
			Slug:        sp.Slug,
			Name:        strings.TrimSpace(sp.Name),
			Brand:       strings.TrimSpace(sp.Brand),
			Category:    strings.ToLower(strings.TrimSpace(sp.Category)),
			Region:      strings.TrimSpace(sp.Region),
			Description: sp.Description,
			PriceCents:  int64(math.Round(sp.Price * 100)),
			ABV:         sp.ABV,
			VolumeML:    sp.VolumeML,
			AgeYears:    sp.AgeYears,
			ImageURL:    sp.ImageURL,
			Tags:        sp.Tags,
			Stock:       sp.Stock,
			Featured:    sp.Featured,
			Active:      true,
		}
		if p.Slug == "" {
			p.Slug = Slugify(p.Name)
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		if err := ValidateProduct(p); err != nil {
			return nil, fmt.Errorf("product %d (%s): %w", i, p.Name, err)
		}
		if skus[p.SKU] {
			return nil, fmt.Errorf("product %d: duplicate sku %q", i, p.SKU)
		}
		if slugs[p.Slug] {
			return nil, fmt.Errorf("product %d: duplicate slug %q", i, p.Slug)
		}
		skus[p.SKU], slugs[p.Slug] = true, true
		out = append(out, p)
	}
	return out, nil
}

// ValidateProduct checks the fields every listed product must carry. Facet
// fields may not contain commas since filters split on them.
func ValidateProduct(p model.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("name is required")
	case p.SKU == "":
		return fmt.Errorf("sku is required")
	case p.Category == "":
		return fmt.Errorf("category is required")
	case p.Slug == "":
		return fmt.Errorf("slug is required")
	case p.PriceCents < 0:
		return fmt.Errorf("price must be >= 0")
	case p.Stock < 0:
		return fmt.Errorf("stock must be >= 0")
	case p.ABV < 0 || p.ABV > 100:
		return fmt.Errorf("abv must be between 0 and 100")
	case p.VolumeML < 0:
		return fmt.Errorf("volume must be >= 0")
	case strings.Contains(p.Category, ","):
		return fmt.Errorf("category must not contain a comma")
	case strings.Contains(p.Brand, ","):
		return fmt.Errorf("brand must not contain a comma")
	case strings.Contains(p.Region, ","):
		return fmt.Errorf("region must not contain a comma")
	}
	return nil
}

// Slugify lowercases s and joins its letters and digits with dashes:
// "Lagavulin 16 Year Old" becomes "lagavulin-16-year-old".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}
