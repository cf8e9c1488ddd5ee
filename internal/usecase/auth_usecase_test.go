package usecase_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newAuthUsecaseForTest(users *UserRepoMock, mailer *MailerMock) *usecase.AuthUsecase {
	cfg := config.Config{
		JWTSecret:   "test-secret",
		TokenExpiry: time.Hour,
		BcryptCost:  bcrypt.MinCost, //テストは最小コストで十分
		FEURL:       "http://localhost:5173",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return usecase.NewAuthUsecase(cfg, users, mailer, validator.NewAuthValidator(), logger)
}

// DB保存側と同じtoken hash（sha256 + base64url）
func testHashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// =====================
// Signup
// =====================

func TestAuthUsecase_SignupBuyer_Success(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(nil, repo.ErrNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		//平文は保存しない
		if u.PasswordHash == "password123" {
			return false
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) != nil {
			return false
		}
		return u.Role == model.RoleBuyer && u.Email == "taro@example.com"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 1
	}).Return(nil)

	out, err := uc.SignupBuyer(context.Background(), "Taro", "taro@example.com", "password123", "090-0000-0000")

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.User.ID)
	assert.Equal(t, "buyer", out.User.Role)
	assert.Equal(t, "taro@example.com", out.User.Email)
}

func TestAuthUsecase_SignupAdmin_SetsAdminRole(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByEmail", mock.Anything, "admin@example.com").Return(nil, repo.ErrNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RoleAdmin
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 2
	}).Return(nil)

	out, err := uc.SignupAdmin(context.Background(), "Admin", "admin@example.com", "password123", "")

	assert.NoError(t, err)
	assert.Equal(t, "admin", out.User.Role)
}

func TestAuthUsecase_Signup_DuplicateEmail(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{ID: 1, Email: "taro@example.com"}, nil)

	_, err := uc.SignupBuyer(context.Background(), "Taro", "taro@example.com", "password123", "")

	assertErrContains(t, err, "email already registered")
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 409, he.Status)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Signup_DuplicateOnInsert(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	//事前チェック通過後に同時登録で unique 制約に当たるパターン
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(nil, repo.ErrNotFound)
	users.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := uc.SignupBuyer(context.Background(), "Taro", "taro@example.com", "password123", "")

	assertErrContains(t, err, "email already registered")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, 409, he.Status)
}

func TestAuthUsecase_Signup_PasswordTooShort(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	_, err := uc.SignupBuyer(context.Background(), "Taro", "taro@example.com", "short", "")

	assertErrContains(t, err, "at least 8")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, 400, he.Status)
	users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

// =====================
// Login
// =====================

func TestAuthUsecase_Login_Success(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	pwHash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           7,
		Name:         "Taro",
		Email:        "taro@example.com",
		PasswordHash: string(pwHash),
		Role:         model.RoleBuyer,
	}, nil)

	out, err := uc.Login(context.Background(), "taro@example.com", "password123")

	assert.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, int64(7), out.User.ID)

	//発行したtokenは自前のsecretで検証でき、sub/roleが入っている
	parsed, err := jwt.Parse(out.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if assert.True(t, ok) {
		assert.Equal(t, float64(7), claims["sub"])
		assert.Equal(t, "buyer", claims["role"])
	}
}

func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, repo.ErrNotFound)

	_, err := uc.Login(context.Background(), "nobody@example.com", "password123")

	assertErrContains(t, err, "invalid credentials")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, 401, he.Status)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	pwHash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           7,
		Email:        "taro@example.com",
		PasswordHash: string(pwHash),
		Role:         model.RoleBuyer,
	}, nil)

	_, err := uc.Login(context.Background(), "taro@example.com", "wrongpassword")

	//存在しないemailと同じエラー文言（どちらが違ったか漏らさない）
	assertErrContains(t, err, "invalid credentials")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, 401, he.Status)
}

// =====================
// ForgotPassword
// =====================

var mailTokenRe = regexp.MustCompile(`token: ([A-Za-z0-9_-]+)<`)

func TestAuthUsecase_ForgotPassword_Success(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:    7,
		Name:  "Taro",
		Email: "taro@example.com",
	}, nil)

	var storedHash string
	var storedExpiry time.Time
	users.On("SetResetToken", mock.Anything, int64(7), mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		storedHash = args.Get(2).(string)
		storedExpiry = args.Get(3).(time.Time)
	}).Return(nil)

	var mailBody string
	mailer.On("Send", mock.Anything, "taro@example.com", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mailBody = args.Get(3).(string)
	}).Return(nil)

	out, err := uc.ForgotPassword(context.Background(), "taro@example.com")

	assert.NoError(t, err)
	assert.Equal(t, "reset email sent", out.Message)

	//有効期限はだいたい1時間後
	assert.WithinDuration(t, time.Now().Add(time.Hour), storedExpiry, 5*time.Second)

	//メールに入る平文tokenのhashがDB保存値と一致する（平文自体は保存しない）
	m := mailTokenRe.FindStringSubmatch(mailBody)
	if assert.Len(t, m, 2) {
		plain := m[1]
		assert.Equal(t, testHashToken(plain), storedHash)
		assert.NotEqual(t, plain, storedHash)
	}
}

func TestAuthUsecase_ForgotPassword_UnknownEmail(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, repo.ErrNotFound)

	_, err := uc.ForgotPassword(context.Background(), "nobody@example.com")

	assertErrContains(t, err, "not found")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, 404, he.Status)
	users.AssertNotCalled(t, "SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_ForgotPassword_MailFailureClearsToken(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{ID: 7, Email: "taro@example.com"}, nil)
	users.On("SetResetToken", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(nil)
	mailer.On("Send", mock.Anything, "taro@example.com", mock.Anything, mock.Anything).Return(assert.AnError)
	users.On("ClearResetToken", mock.Anything, int64(7)).Return(nil)

	_, err := uc.ForgotPassword(context.Background(), "taro@example.com")

	assertErrContains(t, err, "failed to send reset email")
	//届かないtokenは有効のまま残さない
	users.AssertCalled(t, "ClearResetToken", mock.Anything, int64(7))
}

// =====================
// ResetPassword
// =====================

func resetReadyUser(token string, expiresAt time.Time) *model.User {
	hash := testHashToken(token)
	return &model.User{
		ID:                  7,
		Name:                "Taro",
		Email:               "taro@example.com",
		ResetTokenHash:      &hash,
		ResetTokenExpiresAt: &expiresAt,
	}
}

func TestAuthUsecase_ResetPassword_Success(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByID", mock.Anything, int64(7)).Return(resetReadyUser("valid-token", time.Now().Add(30*time.Minute)), nil)
	users.On("UpdatePassword", mock.Anything, int64(7), mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword1")) == nil
	})).Return(nil)
	mailer.On("Send", mock.Anything, "taro@example.com", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.ResetPassword(context.Background(), 7, "valid-token", "newpassword1")

	assert.NoError(t, err)
	assert.Equal(t, "password updated", out.Message)
	users.AssertExpectations(t)
}

func TestAuthUsecase_ResetPassword_ExpiredToken(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByID", mock.Anything, int64(7)).Return(resetReadyUser("valid-token", time.Now().Add(-time.Minute)), nil)

	_, err := uc.ResetPassword(context.Background(), 7, "valid-token", "newpassword1")

	assertErrContains(t, err, "invalid or expired token")
	users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_ResetPassword_WrongToken(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByID", mock.Anything, int64(7)).Return(resetReadyUser("valid-token", time.Now().Add(30*time.Minute)), nil)

	_, err := uc.ResetPassword(context.Background(), 7, "other-token", "newpassword1")

	assertErrContains(t, err, "invalid or expired token")
	users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_ResetPassword_NoTokenIssued(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Email: "taro@example.com"}, nil)

	_, err := uc.ResetPassword(context.Background(), 7, "valid-token", "newpassword1")

	assertErrContains(t, err, "invalid or expired token")
}

func TestAuthUsecase_ResetPassword_ConfirmMailFailureIgnored(t *testing.T) {
	users := new(UserRepoMock)
	mailer := new(MailerMock)
	uc := newAuthUsecaseForTest(users, mailer)

	users.On("FindByID", mock.Anything, int64(7)).Return(resetReadyUser("valid-token", time.Now().Add(30*time.Minute)), nil)
	users.On("UpdatePassword", mock.Anything, int64(7), mock.Anything).Return(nil)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	//確認メールはベストエフォート。落ちてもpassword更新は成功扱い。
	out, err := uc.ResetPassword(context.Background(), 7, "valid-token", "newpassword1")

	assert.NoError(t, err)
	assert.Equal(t, "password updated", out.Message)
}
