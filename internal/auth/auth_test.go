package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/CLDWare/evaluations-backend/config"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

func newTestAuth(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := models.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	cfg := &config.Config{Admin: config.AdminConfig{JWTSecret: "test-secret", SessionDuration: time.Hour}}
	return NewService(cfg, database), database
}

func TestEnsureAdmins(t *testing.T) {
	service, database := newTestAuth(t)
	ctx := context.Background()

	created, err := service.EnsureAdmins(ctx, []string{"Admin@Example.com", "second@example.com", " "}, "secret")
	if err != nil {
		t.Fatalf("EnsureAdmins failed: %v", err)
	}
	if created != 2 {
		t.Errorf("expected 2 admins created, got %d", created)
	}

	// running again keeps the existing records
	created, err = service.EnsureAdmins(ctx, []string{"admin@example.com"}, "other-password")
	if err != nil {
		t.Fatalf("EnsureAdmins failed: %v", err)
	}
	if created != 0 {
		t.Errorf("expected no new admins, got %d", created)
	}

	admin, err := gorm.G[models.Admin](database).Where("email = ?", "admin@example.com").First(ctx)
	if err != nil {
		t.Fatalf("expected lower-cased admin email to be stored: %v", err)
	}
	if admin.PasswordHash == "secret" {
		t.Error("expected the password to be hashed")
	}
}

func TestLoginAndValidate(t *testing.T) {
	service, _ := newTestAuth(t)
	ctx := context.Background()
	if _, err := service.EnsureAdmins(ctx, []string{"admin@example.com"}, "secret"); err != nil {
		t.Fatalf("EnsureAdmins failed: %v", err)
	}

	if _, err := service.Login(ctx, "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials for a wrong password, got %v", err)
	}
	if _, err := service.Login(ctx, "nobody@example.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials for an unknown email, got %v", err)
	}

	session, err := service.Login(ctx, " ADMIN@example.com ", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := service.Validate(session.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Email != "admin@example.com" || claims.AdminID != session.AdminID {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := service.Validate(session.Token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected a tampered token to be rejected, got %v", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	service, _ := newTestAuth(t)
	ctx := context.Background()
	if _, err := service.EnsureAdmins(ctx, []string{"admin@example.com"}, "secret"); err != nil {
		t.Fatalf("EnsureAdmins failed: %v", err)
	}

	now := time.Now()
	service.SetClock(func() time.Time { return now })
	session, err := service.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	service.SetClock(func() time.Time { return now.Add(2 * time.Hour) })
	if _, err := service.Validate(session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected an expired token to be rejected, got %v", err)
	}
}
