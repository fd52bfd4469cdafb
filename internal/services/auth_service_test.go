package services

import (
	"strings"

	"github.com/autoecole/enrollment-service/internal/models"
)

func (s *workflowSuite) TestRegisterAndLogin() {
	resp, err := s.auth.Register(s.ctx, &RegisterRequest{
		Email:     "  Sami@Example.com ",
		Password:  "correct-horse",
		FirstName: "Sami",
		LastName:  "Ben Ali",
	}, &FileUpload{FileName: "me.jpg", ContentType: "image/jpeg", Content: strings.NewReader("jpeg")})
	s.Require().NoError(err)
	s.Equal("bearer", resp.TokenType)
	s.NotEmpty(resp.AccessToken)
	s.Equal(models.RoleGuest, resp.User.Role)
	s.Equal("sami@example.com", resp.User.Email)
	s.Require().NotNil(resp.User.ProfilePhotoRef)

	claims, err := s.deps.Tokens.ValidateToken(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, claims.UserID)

	_, err = s.auth.Register(s.ctx, &RegisterRequest{
		Email: "sami@example.com", Password: "another-pass", FirstName: "S", LastName: "B",
	}, nil)
	s.ErrorIs(err, ErrEmailTaken)

	_, err = s.auth.Register(s.ctx, &RegisterRequest{Email: "bad", Password: "short"}, nil)
	s.ErrorIs(err, ErrValidation)

	login, err := s.auth.Login(s.ctx, &LoginRequest{Email: "SAMI@example.com", Password: "correct-horse"})
	s.Require().NoError(err)
	s.Equal(resp.User.ID, login.User.ID)

	_, err = s.auth.Login(s.ctx, &LoginRequest{Email: "sami@example.com", Password: "wrong-horse"})
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = s.auth.Login(s.ctx, &LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	s.ErrorIs(err, ErrInvalidCredentials)

	me, err := s.auth.CurrentUser(s.ctx, resp.User.ID)
	s.Require().NoError(err)
	s.Equal(resp.User.Email, me.Email)
}
