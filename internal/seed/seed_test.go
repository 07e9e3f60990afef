package seed

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/content"
	"github.com/angelmondragon/saastools-backend/internal/email"
	"github.com/angelmondragon/saastools-backend/internal/tools"
	"github.com/angelmondragon/saastools-backend/internal/users"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db/dbtest"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/security"
)

func newSeeder(t *testing.T, conn *gorm.DB, adminEmail string) *Seeder {
	t.Helper()
	s, err := New(Params{
		Users:     users.NewRepository(conn),
		Tools:     tools.NewRepository(conn),
		Templates: email.NewRepository(conn),
		Content:   content.NewRepository(conn),
		Password: config.PasswordConfig{
			ArgonMemoryKB: 32768, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		},
		Logger:     logger.New(logger.Options{ServiceName: "seed-test", Output: io.Discard}),
		AdminEmail: adminEmail,
	})
	require.NoError(t, err)
	return s
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestRunIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	s := newSeeder(t, conn, "")

	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Run(ctx))

	assert.Equal(t, int64(2), count(t, conn, &models.User{}))
	assert.Equal(t, int64(3), count(t, conn, &models.Tool{}))
	assert.Equal(t, int64(3), count(t, conn, &models.EmailTemplate{}))
	assert.Equal(t, int64(1), count(t, conn, &models.LandingPageContent{}))

	var admin models.User
	require.NoError(t, conn.Where("email = ?", DefaultAdminEmail).First(&admin).Error)
	assert.Equal(t, enums.UserRoleAdmin, admin.Role)
	assert.True(t, admin.IsVerified)
	ok, err := security.VerifyPassword(DefaultAdminPassword, admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	var tool models.Tool
	require.NoError(t, conn.Where("slug = ?", models.KeywordResearchSlug).First(&tool).Error)
	assert.True(t, tool.IsActive)
	assert.Equal(t, "60", tool.AnnualPrice().String())
}

func TestRunKeepsExistingPassword(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	require.NoError(t, newSeeder(t, conn, "").Run(ctx))

	require.NoError(t, conn.Model(&models.User{}).
		Where("email = ?", DemoSellerEmail).
		Update("password_hash", "changed").Error)

	require.NoError(t, newSeeder(t, conn, "").Run(ctx))

	var seller models.User
	require.NoError(t, conn.Where("email = ?", DemoSellerEmail).First(&seller).Error)
	assert.Equal(t, "changed", seller.PasswordHash)
}

func TestRunUsesConfiguredAdminEmail(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, newSeeder(t, conn, " Owner@Example.com ").Run(context.Background()))

	var admin models.User
	require.NoError(t, conn.Where("role = ?", enums.UserRoleAdmin).First(&admin).Error)
	assert.Equal(t, "owner@example.com", admin.Email)
}

func TestEmailTemplatesCarryPlaceholders(t *testing.T) {
	templates, err := EmailTemplates()
	require.NoError(t, err)
	require.Len(t, templates, 3)

	want := map[string]string{
		email.TemplateWelcome:               "{{verificationUrl}}",
		email.TemplatePasswordReset:         "{{resetUrl}}",
		email.TemplateSubscriptionConfirmed: "{{toolName}}",
	}
	for _, tpl := range templates {
		placeholder, ok := want[tpl.Name]
		require.True(t, ok, tpl.Name)
		assert.True(t, strings.Contains(tpl.HTML, placeholder), tpl.Name)
		assert.True(t, strings.Contains(tpl.HTML, "{{name}}"), tpl.Name)
	}
}
