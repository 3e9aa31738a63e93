package service

import (
	"context"
	"time"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/repo"
	"github.com/Bourhlef-Y/fivemarket/internal/util"
)

// ListingService translates user-selected facets into a database query
// over approved resources.
type ListingService struct {
	Repo *repo.GormRepo
}

// FilterConfig is the recognized facet set, "all" (or empty) meaning no
// constraint for that facet.
type FilterConfig struct {
	Framework    string
	Category     string
	ResourceType string
	PriceCeiling float64
	FreeOnly     bool
	Recency      string
	Popularity   string
	Sort         string
}

var (
	knownFrameworks = map[string]bool{"ESX": true, "QBCore": true, "Standalone": true}
	knownCategories = map[string]bool{"Police": true, "Civilian": true, "UI": true, "Jobs": true, "Vehicles": true}
	knownRecencies  = map[string]bool{"week": true, "month": true, "3months": true, "older": true}
	knownPopularity = map[string]bool{"high": true, "medium": true, "new": true}
)

// Popularity bucket bounds, in downloads.
const (
	popularHighMin   = 100
	popularMediumMin = 10
)

// Compose validates the facets and builds the repo-level filter spec.
// Only approved resources are ever eligible.
func Compose(cfg FilterConfig, now time.Time) (repo.ListSpec, error) {
	fe := fault.FieldErrors{}

	spec := repo.ListSpec{
		Status:       models.StatusApproved,
		PriceCeiling: cfg.PriceCeiling,
		FreeOnly:     cfg.FreeOnly,
		Sort:         cfg.Sort,
	}

	if cfg.Framework != "" && cfg.Framework != "all" {
		if !knownFrameworks[cfg.Framework] {
			fe["framework"] = "unknown framework"
		}
		spec.Framework = cfg.Framework
	}
	if cfg.Category != "" && cfg.Category != "all" {
		if !knownCategories[cfg.Category] {
			fe["category"] = "unknown category"
		}
		spec.Category = cfg.Category
	}
	if cfg.ResourceType != "" && cfg.ResourceType != "all" {
		t := models.ResourceType(cfg.ResourceType)
		if t != models.TypeEscrow && t != models.TypeDirect {
			fe["resource_type"] = "unknown resource type"
		}
		spec.Type = t
	}
	if cfg.PriceCeiling < 0 {
		fe["price_ceiling"] = "price ceiling must not be negative"
	}

	if cfg.Recency != "" && cfg.Recency != "all" {
		if !knownRecencies[cfg.Recency] {
			fe["recency"] = "unknown recency bucket"
		} else {
			switch cfg.Recency {
			case "week":
				after := now.AddDate(0, 0, -7)
				spec.CreatedAfter = &after
			case "month":
				after := now.AddDate(0, -1, 0)
				spec.CreatedAfter = &after
			case "3months":
				after := now.AddDate(0, -3, 0)
				spec.CreatedAfter = &after
			case "older":
				before := now.AddDate(0, -3, 0)
				spec.CreatedBefore = &before
			}
		}
	}

	if cfg.Popularity != "" && cfg.Popularity != "all" {
		if !knownPopularity[cfg.Popularity] {
			fe["popularity"] = "unknown popularity bucket"
		} else {
			switch cfg.Popularity {
			case "high":
				min := uint(popularHighMin)
				spec.MinDownloads = &min
			case "medium":
				min, max := uint(popularMediumMin), uint(popularHighMin-1)
				spec.MinDownloads = &min
				spec.MaxDownloads = &max
			case "new":
				max := uint(popularMediumMin - 1)
				spec.MaxDownloads = &max
			}
		}
	}

	if len(fe) > 0 {
		return repo.ListSpec{}, fe
	}
	return spec, nil
}

type Page struct {
	Items      []models.Resource `json:"data"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	Total      int64             `json:"total"`
	TotalPages int64             `json:"total_pages"`
}

func (s *ListingService) List(ctx context.Context, cfg FilterConfig, page, size int) (*Page, error) {
	spec, err := Compose(cfg, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	offset, size := util.Calculate(page, size)
	total, items, err := s.Repo.ListResources(ctx, spec, offset, size)
	if err != nil {
		return nil, fault.Upstreamf("list resources: %v", err)
	}

	return &Page{
		Items:      items,
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: (total + int64(size) - 1) / int64(size),
	}, nil
}
