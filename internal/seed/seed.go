// Package seed loads the baseline catalog, email templates and demo accounts.
// Every step is safe to re-run.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/email"
	"github.com/angelmondragon/saastools-backend/internal/users"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/security"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	DefaultAdminEmail    = "admin@saastools.com"
	DefaultAdminPassword = "admin123"
	DemoSellerEmail      = "seller@example.com"
	DemoSellerPassword   = "seller123"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type toolStore interface {
	Upsert(ctx context.Context, tool *models.Tool) error
}

type templateStore interface {
	Upsert(ctx context.Context, tpl *models.EmailTemplate) error
}

type contentStore interface {
	Upsert(ctx context.Context, row *models.LandingPageContent) error
}

type Params struct {
	Users     userStore
	Tools     toolStore
	Templates templateStore
	Content   contentStore
	Password  config.PasswordConfig
	Logger    *logger.Logger

	AdminEmail    string
	AdminPassword string
	// SkipDemoSeller leaves the demo seller account out, for production seeds.
	SkipDemoSeller bool
}

type Seeder struct {
	p Params
}

func New(p Params) (*Seeder, error) {
	if p.Users == nil || p.Tools == nil || p.Templates == nil || p.Content == nil {
		return nil, fmt.Errorf("seed repositories are required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(p.AdminEmail) == "" {
		p.AdminEmail = DefaultAdminEmail
	}
	if p.AdminPassword == "" {
		p.AdminPassword = DefaultAdminPassword
	}
	return &Seeder{p: p}, nil
}

func (s *Seeder) Run(ctx context.Context) error {
	if err := s.ensureUser(ctx, s.p.AdminEmail, s.p.AdminPassword, "Admin User", enums.UserRoleAdmin); err != nil {
		return err
	}
	if !s.p.SkipDemoSeller {
		if err := s.ensureUser(ctx, DemoSellerEmail, DemoSellerPassword, "Demo Seller", enums.UserRoleSeller); err != nil {
			return err
		}
	}

	for _, tool := range Tools() {
		if err := s.p.Tools.Upsert(ctx, &tool); err != nil {
			return fmt.Errorf("seed tool %s: %w", tool.Slug, err)
		}
	}
	s.p.Logger.Info(s.p.Logger.WithField(ctx, "count", len(Tools())), "seed.tools")

	templates, err := EmailTemplates()
	if err != nil {
		return err
	}
	for _, tpl := range templates {
		if err := s.p.Templates.Upsert(ctx, &tpl); err != nil {
			return fmt.Errorf("seed template %s: %w", tpl.Name, err)
		}
	}
	s.p.Logger.Info(s.p.Logger.WithField(ctx, "count", len(templates)), "seed.email_templates")

	hero, err := HeroContent()
	if err != nil {
		return err
	}
	if err := s.p.Content.Upsert(ctx, hero); err != nil {
		return fmt.Errorf("seed landing content: %w", err)
	}
	s.p.Logger.Info(ctx, "seed.landing_content")
	return nil
}

// ensureUser creates the account only when the email is unused, so re-runs
// never reset a changed password.
func (s *Seeder) ensureUser(ctx context.Context, emailAddr, password, name string, role enums.UserRole) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	logCtx := s.p.Logger.WithFields(ctx, map[string]any{"email": emailAddr, "role": string(role)})

	existing, err := s.p.Users.FindByEmail(ctx, emailAddr)
	if err == nil && existing != nil {
		s.p.Logger.Info(logCtx, "seed.user_exists")
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup %s: %w", emailAddr, err)
	}

	hash, err := security.HashPassword(password, s.p.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.p.Users.Create(ctx, users.CreateUserDTO{
		Email:        emailAddr,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		IsVerified:   true,
	}); err != nil {
		return fmt.Errorf("create %s: %w", emailAddr, err)
	}
	s.p.Logger.Info(logCtx, "seed.user_created")
	return nil
}

// Tools is the launch catalog. Prices are monthly; subscriptions charge twelve months.
func Tools() []models.Tool {
	return []models.Tool{
		{
			Slug:        models.KeywordResearchSlug,
			Name:        models.KeywordResearchName,
			Description: "Find high-volume, low-competition keywords for Amazon and Flipkart. Get perfectly formatted backend search terms.",
			Icon:        "🔍",
			Price:       decimal.NewFromInt(5),
			IsActive:    true,
		},
		{
			Slug:        "competition-analysis",
			Name:        "Competition Analysis",
			Description: "Analyze competitor products, pricing strategies, and market positioning.",
			Icon:        "📊",
			Price:       decimal.NewFromInt(15),
			IsActive:    true,
		},
		{
			Slug:        "price-optimization",
			Name:        "Price Optimization",
			Description: "Get real-time pricing insights and recommendations to maximize profit margins.",
			Icon:        "💰",
			Price:       decimal.NewFromInt(50),
			IsActive:    true,
		},
	}
}

func EmailTemplates() ([]models.EmailTemplate, error) {
	defs := []struct {
		name    string
		subject string
		text    string
	}{
		{email.TemplateWelcome, "Welcome to SaaSTools - Verify Your Account", "Welcome to SaaSTools! Please verify your email at: {{verificationUrl}}"},
		{email.TemplatePasswordReset, "Reset Your SaaSTools Password", "Reset your password at: {{resetUrl}}"},
		{email.TemplateSubscriptionConfirmed, "Subscription Confirmed - {{toolName}}", "Your subscription to {{toolName}} is confirmed! Amount: ₹{{amount}}"},
	}

	out := make([]models.EmailTemplate, 0, len(defs))
	for _, def := range defs {
		html, err := templateFS.ReadFile("templates/" + def.name + ".html")
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", def.name, err)
		}
		out = append(out, models.EmailTemplate{
			Name:     def.name,
			Subject:  def.subject,
			HTML:     string(html),
			Text:     def.text,
			IsActive: true,
		})
	}
	return out, nil
}

func HeroContent() (*models.LandingPageContent, error) {
	body, err := json.Marshal(map[string]string{
		"title":    "Supercharge Your E-commerce Business",
		"subtitle": "Access powerful micro-tools designed specifically for Amazon & Flipkart sellers. Research keywords, analyze competition, and boost your sales.",
		"cta":      "Start Your Free Trial",
		"image":    "https://images.pexels.com/photos/3184291/pexels-photo-3184291.jpeg?auto=compress&cs=tinysrgb&w=800",
	})
	if err != nil {
		return nil, err
	}
	return &models.LandingPageContent{
		Section:  "hero",
		Content:  datatypes.JSON(body),
		IsActive: true,
	}, nil
}
