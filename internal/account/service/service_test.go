package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sgea/internal/account/models"
	accountstore "sgea/internal/account/store"
	"sgea/internal/jwtauth"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/requestcontext"
)

type AccountServiceSuite struct {
	suite.Suite
	accounts *accountstore.MemoryStore
	service  *Service
	ctx      context.Context
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.accounts = accountstore.NewMemoryStore()
	tokens := jwtauth.NewJWTService("test-signing-key", "sgea", "sgea-api")
	s.service = New(s.accounts, tokens, time.Hour, slog.Default())
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
}

func (s *AccountServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *AccountServiceSuite) validParams() SignupParams {
	return SignupParams{
		Username:    "mariana",
		Email:       "mariana@uni.edu",
		Password:    "correct-horse",
		FirstName:   "Mariana",
		LastName:    "Alves",
		Institution: "Federal University",
		Role:        models.RoleParticipant,
	}
}

func (s *AccountServiceSuite) TestSignup() {
	s.Run("creates account with hashed credential", func() {
		account, err := s.service.Signup(s.ctx, s.validParams())
		s.Require().NoError(err)
		s.Equal("mariana", account.Username)
		s.NotEqual("correct-horse", account.PasswordHash)
	})

	s.Run("rejects short password", func() {
		params := s.validParams()
		params.Password = "short"

		_, err := s.service.Signup(s.ctx, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("participant without institution is rejected", func() {
		params := s.validParams()
		params.Institution = ""

		_, err := s.service.Signup(s.ctx, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("organizer without institution is accepted", func() {
		params := s.validParams()
		params.Username = "coord"
		params.Email = "coord@uni.edu"
		params.Institution = ""
		params.Role = models.RoleOrganizer

		_, err := s.service.Signup(s.ctx, params)
		s.Require().NoError(err)
	})

	s.Run("duplicate username conflicts", func() {
		_, err := s.service.Signup(s.ctx, s.validParams())
		s.Require().NoError(err)

		params := s.validParams()
		params.Email = "other@uni.edu"
		_, err = s.service.Signup(s.ctx, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *AccountServiceSuite) TestLogin() {
	s.Run("accepts username or email", func() {
		_, err := s.service.Signup(s.ctx, s.validParams())
		s.Require().NoError(err)

		token, account, err := s.service.Login(s.ctx, "mariana", "correct-horse")
		s.Require().NoError(err)
		s.NotEmpty(token)
		s.Equal("mariana", account.Username)

		_, _, err = s.service.Login(s.ctx, "MARIANA@UNI.EDU", "correct-horse")
		s.Require().NoError(err)
	})

	s.Run("wrong password and unknown login look identical", func() {
		_, err := s.service.Signup(s.ctx, s.validParams())
		s.Require().NoError(err)

		_, _, errWrong := s.service.Login(s.ctx, "mariana", "nope-nope-nope")
		s.Require().Error(errWrong)
		s.True(dErrors.HasCode(errWrong, dErrors.CodeUnauthorized))

		_, _, errUnknown := s.service.Login(s.ctx, "ghost", "nope-nope-nope")
		s.Require().Error(errUnknown)
		s.True(dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))

		s.Equal(dErrors.MessageOf(errWrong), dErrors.MessageOf(errUnknown))
	})

	s.Run("token round-trips through the validator", func() {
		_, err := s.service.Signup(s.ctx, s.validParams())
		s.Require().NoError(err)

		token, account, err := s.service.Login(s.ctx, "mariana", "correct-horse")
		s.Require().NoError(err)

		tokens := jwtauth.NewJWTService("test-signing-key", "sgea", "sgea-api")
		claims, err := tokens.ValidateToken(token)
		s.Require().NoError(err)
		s.Equal(account.ID.String(), claims.UserID)
		s.Equal("participant", claims.Role)
	})
}

func (s *AccountServiceSuite) TestUpdateProfile() {
	s.Run("updates mutable fields only", func() {
		account, err := s.service.Signup(s.ctx, s.validParams())
		s.Require().NoError(err)

		ctx := requestcontext.WithAccount(s.ctx, account.ID, account.Username, string(account.Role))
		updated, err := s.service.UpdateProfile(ctx, UpdateProfileParams{
			FirstName:   "Mari",
			LastName:    "Alves",
			Phone:       "+55 11 90000-0000",
			Institution: "State University",
		})
		s.Require().NoError(err)
		s.Equal("Mari", updated.FirstName)
		s.Equal("State University", updated.Institution)
		s.Equal(account.Username, updated.Username)
	})

	s.Run("participant cannot drop institution", func() {
		account, err := s.service.Signup(s.ctx, s.validParams())
		s.Require().NoError(err)

		ctx := requestcontext.WithAccount(s.ctx, account.ID, account.Username, string(account.Role))
		_, err = s.service.UpdateProfile(ctx, UpdateProfileParams{Institution: ""})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}
