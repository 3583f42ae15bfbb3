package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/store"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/crypto/bcrypt"
)

// Property 1: Registration creates hashed passwords
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	repo := NewCustomerRepository()
	ctx := context.Background()

	properties := gopter.NewProperties(nil)
	properties.Property("passwords are stored as bcrypt hashes, not plaintext", prop.ForAll(
		func(email string, password string, name string) bool {
			s := store.NewMemory()

			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
			if err != nil {
				t.Logf("Failed to hash password: %v", err)
				return false
			}

			customer := &domain.Customer{
				ID:           uuid.NewString(),
				Email:        email,
				PasswordHash: string(hashedPassword),
				Name:         name,
				Role:         domain.RoleCustomer,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}

			err = s.Update(ctx, func(tx store.Tx) error {
				return repo.Create(tx, customer)
			})
			if err != nil {
				t.Logf("Failed to create customer: %v", err)
				return false
			}

			var retrieved *domain.Customer
			err = s.View(ctx, func(tx store.Tx) error {
				var err error
				retrieved, err = repo.FindByEmail(tx, email)
				return err
			})
			if err != nil {
				t.Logf("Failed to find customer: %v", err)
				return false
			}

			if retrieved.PasswordHash == password {
				t.Logf("Password was stored as plaintext!")
				return false
			}
			if err := bcrypt.CompareHashAndPassword([]byte(retrieved.PasswordHash), []byte(password)); err != nil {
				t.Logf("Stored password is not a valid bcrypt hash: %v", err)
				return false
			}
			return true
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCustomerRepository_DuplicateEmailIgnoresCase(t *testing.T) {
	repo := NewCustomerRepository()
	s := store.NewMemory()
	ctx := context.Background()

	err := s.Update(ctx, func(tx store.Tx) error {
		return repo.Create(tx, &domain.Customer{ID: "1", Email: "ada@example.com", Name: "Ada"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = s.Update(ctx, func(tx store.Tx) error {
		return repo.Create(tx, &domain.Customer{ID: "2", Email: "ADA@example.com", Name: "Ada Again"})
	})
	if !errors.Is(err, domain.ErrCustomerExists) {
		t.Errorf("expected ErrCustomerExists, got %v", err)
	}
}

func TestCustomerRepository_FindByIDNotFound(t *testing.T) {
	repo := NewCustomerRepository()
	err := store.NewMemory().View(context.Background(), func(tx store.Tx) error {
		_, err := repo.FindByID(tx, "missing")
		return err
	})
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}
