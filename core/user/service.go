package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/schoolerp/erp/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists or ErrEmailExists if a user other than
		// `excludedUsers` already uses `username` or `email`.
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		QueryUsers(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	ServiceInterface interface {
		CheckUniqueness(uname, email string, exclUsers ...User) error
		Create(nu NewUser) (User, error)
		UpdateOrCreate(nu NewUser) (User, error)
		Query(filter QueryFilter, orderings []core.DBOrdering) ([]User, error)
		GetByID(id string) (User, error)
		GetByUsernameOrEmail(uname string) (User, error)
		SetLastLogin(usr User) (User, error)
		SetPassword(usr User, pwd string) (User, error)
		RequestPasswordReset(email string) error
		ResetPassword(data ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	return &service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:        uuid.NewString(),
		SchoolID:  nu.SchoolID,
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(context.Background(), usr)
}

// UpdateOrCreate updates the user matching `nu`'s username (or email), creating it when none exists.
func (svc *service) UpdateOrCreate(nu NewUser) (User, error) {
	uname := nu.Username
	if uname == "" {
		uname = nu.Email
	}
	usr, err := svc.GetByUsernameOrEmail(uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return svc.Create(nu)
		}
		return User{}, err
	}

	usr.SchoolID = nu.SchoolID
	usr.Name = nu.Name
	usr.Roles = nu.Roles
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if nu.Email != "" {
		usr.Email = nu.Email
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateUser(context.Background(), usr)
}

func (svc *service) Query(filter QueryFilter, orderings []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(context.Background(), filter, orderings)
}

func (svc *service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(context.Background(), id)
}

func (svc *service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(context.Background(), core.CleanString(uname, true /* lower */))
}

func (svc *service) SetLastLogin(usr User) (User, error) {
	now := time.Now().UTC()
	usr.LastLogin = &now
	return svc.repo.UpdateUser(context.Background(), usr)
}

func (svc *service) SetPassword(usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(context.Background(), usr)
}

func (svc *service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByUsernameOrEmail(email)
	if err != nil {
		return err
	}
	if usr.Email == "" || !usr.IsActive {
		return ErrNotFound
	}
	msg, err := svc.passwordResetMessage(usr)
	if err != nil {
		return err
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func (svc *service) passwordResetMessage(usr User) (*core.EmailMessage, error) {
	token, err := MakeToken(usr, svc.conf.SecretKey)
	if err != nil {
		return nil, errors.Wrap(err, "making password reset token")
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	}, nil
}

func (svc *service) ResetPassword(data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return errors.Wrap(err, "getting user")
	}
	if err := verifyToken(usr, data.Token, svc.conf.SecretKey, svc.conf.PasswordResetTimeout); err != nil {
		return core.NewValidationError(err)
	}
	_, err = svc.SetPassword(usr, data.Password)
	return errors.Wrap(err, fmt.Sprintf("resetting password of user %s", usr.ID))
}
