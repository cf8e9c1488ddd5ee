package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
)

// 見つからないときはこれを返す（gormのエラーを外に漏らさない）
var ErrNotFound = errors.New("not found")

// ユーザーの保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを1件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	//リセットtokenのhashと期限を保存（再発行は上書き）
	SetResetToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	//リセットtokenを消す（使用済み・送信失敗の取り消し）
	ClearResetToken(ctx context.Context, userID int64) error
	//新しいpassword hashを保存して、リセットtokenも同時に消す（使い捨て）
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}
