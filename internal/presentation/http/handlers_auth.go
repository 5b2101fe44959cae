package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/account"
	"folio/app/internal/domain/errs"
)

type userView struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type registerInput struct {
	Body struct {
		Email       string `json:"email" maxLength:"320"`
		Username    string `json:"username" maxLength:"64"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name,omitempty" maxLength:"200"`
	}
}

type registerOutput struct {
	Status int
	Body   userView
}

type loginInput struct {
	Body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
}

type loginOutput struct {
	Body struct {
		Token     string   `json:"token"`
		TokenType string   `json:"token_type"`
		User      userView `json:"user"`
	}
}

type profileOutput struct {
	Body userView
}

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        stdhttp.MethodPost,
		Path:          "/api/auth/register",
		Summary:       "Create an account",
		Tags:          []string{"auth"},
		DefaultStatus: stdhttp.StatusCreated,
	}, s.registerHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      stdhttp.MethodPost,
		Path:        "/api/auth/login",
		Summary:     "Exchange credentials for a bearer token",
		Tags:        []string{"auth"},
	}, s.loginHandler)

	huma.Get(s.api, "/api/auth/me", s.meHandler, func(op *huma.Operation) {
		op.Summary = "Current account"
		op.Tags = []string{"auth"}
		op.Security = bearerAuth
	})
}

func (s *Server) registerHandler(ctx context.Context, input *registerInput) (*registerOutput, error) {
	user, err := s.accounts.Register(ctx, input.Body.Email, input.Body.Username, input.Body.Password, input.Body.DisplayName)
	if err != nil {
		return nil, s.apiError(ctx, err, "registering account", logrus.Fields{"username": input.Body.Username})
	}

	return &registerOutput{Status: stdhttp.StatusCreated, Body: toUserView(user)}, nil
}

func (s *Server) loginHandler(ctx context.Context, input *loginInput) (*loginOutput, error) {
	token, user, err := s.accounts.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, s.apiError(ctx, err, "logging in", nil)
	}

	out := &loginOutput{}
	out.Body.Token = token
	out.Body.TokenType = "Bearer"
	out.Body.User = toUserView(user)
	return out, nil
}

func (s *Server) meHandler(ctx context.Context, _ *struct{}) (*profileOutput, error) {
	identity, ok := account.IdentityFromContext(ctx)
	if !ok {
		return nil, s.apiError(ctx, errs.ErrUnauthorized, "loading account", nil)
	}

	user, err := s.accounts.Profile(ctx, identity)
	if err != nil {
		return nil, s.apiError(ctx, err, "loading account", logrus.Fields{"user_id": identity.UserID})
	}

	return &profileOutput{Body: toUserView(user)}, nil
}

func toUserView(user *account.User) userView {
	return userView{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

// callerID returns the authenticated user's ID, or zero for anonymous requests.
func callerID(ctx context.Context) uint {
	identity, _ := account.IdentityFromContext(ctx)
	return identity.UserID
}
