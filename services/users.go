package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"otadmin/models"
)

const (
	minUsernameLength = 3
	defaultInviteTTL  = 72 * time.Hour
)

// UserDirectory manages login accounts and the invite codes that create them.
type UserDirectory struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db, now: time.Now}
}

type UserInput struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type UserPatch struct {
	Role   *models.Role `json:"role,omitempty"`
	Active *bool        `json:"active,omitempty"`
}

func (d *UserDirectory) List(ctx context.Context, search string, role models.Role, page, limit int) (*Page[models.User], error) {
	page, limit = normalizePage(page, limit)

	q := d.db.WithContext(ctx).Model(&models.User{})
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	var items []models.User
	if err := q.Order("username asc").Offset((page - 1) * limit).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &Page[models.User]{Page: page, Limit: limit, Total: total, Items: items}, nil
}

func (d *UserDirectory) Create(ctx context.Context, in UserInput) (*models.User, error) {
	user, err := newUser(in)
	if err != nil {
		return nil, err
	}
	if err := d.insert(d.db.WithContext(ctx), user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes role and active flag. A role outside the declared set is a
// validation error, not a storage error.
func (d *UserDirectory) Update(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	user, err := d.get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Role != nil {
		if err := patch.Role.Validate(); err != nil {
			return nil, invalid("role", "%v", err)
		}
		fields["role"] = *patch.Role
	}
	if patch.Active != nil {
		fields["active"] = *patch.Active
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := d.db.WithContext(ctx).Model(user).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return d.get(ctx, id)
}

// ResetPassword sets a password chosen by an administrator. The owner has to
// replace it on their next login.
func (d *UserDirectory) ResetPassword(ctx context.Context, id uint, password string) error {
	user, err := d.get(ctx, id)
	if err != nil {
		return err
	}
	return d.setPassword(ctx, user, password, true)
}

// ChangePassword replaces the caller's own password after checking the
// current one, and clears any pending forced rotation.
func (d *UserDirectory) ChangePassword(ctx context.Context, id uint, current, next string) error {
	user, err := d.get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return invalid("currentPassword", "current password is incorrect")
	}
	if current == next {
		return invalid("newPassword", "must differ from the current password")
	}
	return d.setPassword(ctx, user, next, false)
}

func (d *UserDirectory) setPassword(ctx context.Context, user *models.User, password string, mustChange bool) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	err = d.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"password_hash":        hash,
		"must_change_password": mustChange,
	}).Error
	if err != nil {
		return fmt.Errorf("set password for user %d: %w", user.ID, err)
	}
	return nil
}

// CreateInvite issues a one-time registration code for role.
func (d *UserDirectory) CreateInvite(ctx context.Context, role models.Role, ttl time.Duration, createdBy uint) (*models.Invite, error) {
	if err := role.Validate(); err != nil {
		return nil, invalid("role", "%v", err)
	}
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	code, err := models.GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	invite := models.Invite{
		Code:      code,
		Role:      role,
		CreatedBy: createdBy,
		ExpiresAt: d.now().Add(ttl),
	}
	if err := d.db.WithContext(ctx).Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	return &invite, nil
}

// Register redeems an invite code. The code is claimed with a conditional
// update inside the same transaction as the user insert, so it works once.
func (d *UserDirectory) Register(ctx context.Context, code, username, password string) (*models.User, error) {
	var invite models.Invite
	err := d.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "invite", ID: "code"}
	}
	if err != nil {
		return nil, fmt.Errorf("load invite: %w", err)
	}
	if !invite.IsValid(d.now()) {
		return nil, &ConflictError{Entity: "invite", ID: invite.ID, Reason: "expired or already used"}
	}

	user, err := newUser(UserInput{Username: username, Password: password, Role: invite.Role})
	if err != nil {
		return nil, err
	}

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := d.insert(tx, user); err != nil {
			return err
		}
		res := tx.Model(&models.Invite{}).
			Where("id = ? AND used = ?", invite.ID, false).
			Updates(map[string]any{"used": true, "used_by": user.ID})
		if res.Error != nil {
			return fmt.Errorf("claim invite: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Entity: "invite", ID: invite.ID, Reason: "expired or already used"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (d *UserDirectory) get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

func (d *UserDirectory) insert(tx *gorm.DB, user *models.User) error {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if res.Error != nil {
		return fmt.Errorf("create user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Entity: "user", ID: user.Username, Reason: "username taken"}
	}
	return nil
}

func newUser(in UserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if len(username) < minUsernameLength {
		return nil, invalid("username", "must be at least %d characters", minUsernameLength)
	}
	if err := in.Role.Validate(); err != nil {
		return nil, invalid("role", "%v", err)
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	return &models.User{Username: username, PasswordHash: hash, Role: in.Role, Active: true}, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < models.MinPasswordLength {
		return "", invalid("password", "must be at least %d characters", models.MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
