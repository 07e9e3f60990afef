package repo

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/saastools-backend/pkg/db/dbtest"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
)

func TestBaseDBBindsContext(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, ctx, bound.Statement.Context)

	assert.Same(t, conn, base.DB(nil))
}

func TestFirstOrNil(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	require.NoError(t, conn.Create(&models.Tool{Slug: "price-optimization", Name: "Price", Price: decimal.NewFromInt(50), IsActive: true}).Error)

	found, err := FirstOrNil[models.Tool](conn.WithContext(ctx).Where("slug = ?", "price-optimization"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Price", found.Name)

	missing, err := FirstOrNil[models.Tool](conn.WithContext(ctx).Where("slug = ?", "nope"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertOverwritesListedColumnsOnly(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)
	ctx := context.Background()

	first := &models.Tool{Slug: "keyword-research", Name: "Keywords", Description: "v1", Price: decimal.NewFromInt(5), IsActive: true}
	require.NoError(t, base.Upsert(ctx, first, "slug", "name", "price"))

	second := &models.Tool{Slug: "keyword-research", Name: "Keyword Research", Description: "v2", Price: decimal.NewFromInt(7), IsActive: true}
	require.NoError(t, base.Upsert(ctx, second, "slug", "name", "price"))

	var rows []models.Tool
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Keyword Research", rows[0].Name)
	assert.Equal(t, "v1", rows[0].Description)
	assert.True(t, rows[0].Price.Equal(decimal.NewFromInt(7)))
}
