package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// リセットtokenの有効期限
const resetTokenTTL = time.Hour

// メール送信の約束。実装はinfra/mail。
type Mailer interface {
	Send(ctx context.Context, to string, subject string, htmlBody string) error
}

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateSignup(name string, email string, password string) error
	ValidateLogin(email string, password string) error
	ValidateNewPassword(password string) error
}

// API返却用。password_hashは絶対に含めない。
type UserDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Contact string `json:"contact"`
}

type SignupOutput struct {
	User UserDTO `json:"user"`
}

type LoginOutput struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type MessageOutput struct {
	Message string `json:"message"`
}

type AuthUsecase struct {
	cfg       config.Config
	users     repo.UserRepository
	mailer    Mailer
	validator AuthValidator
	logger    *slog.Logger
}

func NewAuthUsecase(
	cfg config.Config,
	users repo.UserRepository,
	mailer Mailer,
	validator AuthValidator,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		mailer:    mailer,
		validator: validator,
		logger:    logger,
	}
}

// 購入者の会員登録
func (u *AuthUsecase) SignupBuyer(ctx context.Context, name, email, password, contact string) (SignupOutput, error) {
	return u.signup(ctx, name, email, password, contact, model.RoleBuyer)
}

// 管理者の会員登録
func (u *AuthUsecase) SignupAdmin(ctx context.Context, name, email, password, contact string) (SignupOutput, error) {
	return u.signup(ctx, name, email, password, contact, model.RoleAdmin)
}

func (u *AuthUsecase) signup(ctx context.Context, name, email, password, contact string, role model.Role) (SignupOutput, error) {
	if err := u.validator.ValidateSignup(name, email, password); err != nil {
		return SignupOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	//email重複は事前チェックしてConflictで返す（購入者も管理者も同じ扱い）
	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return SignupOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return SignupOutput{}, NewHTTPError(http.StatusConflict, "email already registered")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), u.cfg.BcryptCost)
	if err != nil {
		return SignupOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(pwHash),
		Role:         role,
		Contact:      contact,
	}

	if err := u.users.Create(ctx, user); err != nil {
		//事前チェックをすり抜けた同時登録はunique制約で落ちる
		return SignupOutput{}, NewHTTPError(http.StatusConflict, "email already registered")
	}

	return SignupOutput{User: toUserDTO(user)}, nil
}

// ログイン。「存在しない」「パスワード違い」は同じエラーにする（情報を漏らさない）。
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (LoginOutput, error) {
	if err := u.validator.ValidateLogin(email, password); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//bcrypt照合（定数時間比較）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := u.issueAccessToken(user)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return LoginOutput{
		Token: token,
		User:  toUserDTO(user),
	}, nil
}

// リセット申請。tokenのhashだけ保存して、平文はメールでだけ渡す。
// メール送信に失敗したらtokenを取り消す（届かないtokenを有効のまま残さない）。
func (u *AuthUsecase) ForgotPassword(ctx context.Context, email string) (MessageOutput, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return MessageOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return MessageOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	plain, hash, err := newResetToken()
	if err != nil {
		return MessageOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//再申請は前のtokenを上書き（有効なtokenは常に1つ）
	expiresAt := time.Now().Add(resetTokenTTL)
	if err := u.users.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return MessageOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	body := resetRequestBody(u.cfg.FEURL, user.ID, plain)
	if err := u.mailer.Send(ctx, user.Email, "Password reset request", body); err != nil {
		//届いていないtokenは無効に戻す
		if clearErr := u.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			u.logger.Error("failed to clear reset token after mail failure",
				"user_id", user.ID, "error", clearErr)
		}
		u.logger.Error("failed to send reset email", "user_id", user.ID, "error", err)
		return MessageOutput{}, NewHTTPError(http.StatusInternalServerError, "failed to send reset email")
	}

	return MessageOutput{Message: "reset email sent"}, nil
}

// token照合してpassword更新。tokenは使い捨て。
func (u *AuthUsecase) ResetPassword(ctx context.Context, userID int64, token string, newPassword string) (MessageOutput, error) {
	if err := u.validator.ValidateNewPassword(newPassword); err != nil {
		return MessageOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return MessageOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return MessageOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//未発行・期限切れ・不一致は全部同じ400
	if user.ResetTokenHash == nil || user.ResetTokenExpiresAt == nil {
		return MessageOutput{}, NewHTTPError(http.StatusBadRequest, "invalid or expired token")
	}
	if time.Now().After(*user.ResetTokenExpiresAt) {
		return MessageOutput{}, NewHTTPError(http.StatusBadRequest, "invalid or expired token")
	}
	if subtle.ConstantTimeCompare([]byte(hashResetToken(token)), []byte(*user.ResetTokenHash)) != 1 {
		return MessageOutput{}, NewHTTPError(http.StatusBadRequest, "invalid or expired token")
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), u.cfg.BcryptCost)
	if err != nil {
		return MessageOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//password更新とtokenクリアは同じUPDATE
	if err := u.users.UpdatePassword(ctx, user.ID, string(pwHash)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return MessageOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return MessageOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//確認メールはベストエフォート。失敗してもpassword変更は取り消さない。
	if err := u.mailer.Send(ctx, user.Email, "Password changed", resetConfirmBody(user.Name)); err != nil {
		u.logger.Warn("failed to send reset confirmation email", "user_id", user.ID, "error", err)
	}

	return MessageOutput{Message: "password updated"}, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, error) {
	now := time.Now()
	exp := now.Add(u.cfg.TokenExpiry)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(u.cfg.JWTSecret))
}

// リセットtoken生成（平文 + DB保存hash）
func newResetToken() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}

	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashResetToken(plain), nil
}

func hashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func resetRequestBody(feURL string, userID int64, token string) string {
	link := fmt.Sprintf("%s/reset-password?user_id=%d&token=%s", feURL, userID, token)
	return fmt.Sprintf(
		`<p>パスワード再設定の申請を受け付けました。</p>
<p><a href="%s">こちらのリンク</a>から1時間以内に再設定してください。</p>
<p>token: %s</p>
<p>心当たりがない場合はこのメールを無視してください。</p>`, link, token)
}

func resetConfirmBody(name string) string {
	return fmt.Sprintf(
		`<p>%s様</p>
<p>パスワードが変更されました。心当たりがない場合はサポートまでご連絡ください。</p>`, name)
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    string(u.Role),
		Contact: u.Contact,
	}
}
