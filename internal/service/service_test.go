package service

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/repo"
	"github.com/Bourhlef-Y/fivemarket/internal/validate"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))

	return &repo.GormRepo{DB: db}
}

func buyerActor() models.Actor  { return models.Actor{ID: uuid.New(), Role: models.RoleBuyer} }
func sellerActor() models.Actor { return models.Actor{ID: uuid.New(), Role: models.RoleSeller} }
func adminActor() models.Actor  { return models.Actor{ID: uuid.New(), Role: models.RoleAdmin} }

var testDescription = strings.Repeat("A complete description of this resource. ", 3)

func validImage(thumb bool) ImageInput {
	return ImageInput{
		URL:         "https://cdn.example.com/shot.png",
		Meta:        validate.ImageMeta{Filename: "shot.png", MIME: "image/png", Size: 1024},
		IsThumbnail: thumb,
	}
}

// seedResource writes a resource directly through the repo, bypassing
// the lifecycle, so tests can start from any status.
func seedResource(t *testing.T, r *repo.GormRepo, author models.Actor, status models.ResourceStatus, typ models.ResourceType, price float64) *models.Resource {
	t.Helper()

	res := &models.Resource{
		AuthorID:    author.ID,
		Title:       "Police MDT",
		Description: testDescription,
		Price:       price,
		Type:        typ,
		Framework:   "ESX",
		Category:    "Police",
		Status:      status,
		Images: []models.ResourceImage{
			{URL: "https://cdn.example.com/shot.png", IsThumbnail: true, Position: 0},
		},
	}
	if typ == models.TypeDirect {
		res.FileURL = "https://files.example.com/police-mdt.zip"
	} else {
		res.Escrow = &models.EscrowInfo{RequiresCfxID: true}
	}
	require.NoError(t, r.CreateResource(context.Background(), res))
	return res
}

func newResourceSvc(r *repo.GormRepo) *ResourceService {
	return &ResourceService{Repo: r, Limits: validate.DefaultLimits()}
}
