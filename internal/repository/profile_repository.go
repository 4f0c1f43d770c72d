package repository

import (
	"context"

	"danicandles/internal/domain/model"
)

// プロフィールの保存・取得を約束
type ProfileRepository interface {
	// IDから1件取得する。無ければ ErrNotFound。
	FindByID(ctx context.Context, userID string) (model.Profile, error)
	//既にあれば何もしない
	CreateIfAbsent(ctx context.Context, p model.Profile) error
	//起動時のブートストラップ用。指定メールのプロフィールをroleに昇格
	PromoteByEmails(ctx context.Context, emails []string, role model.Role) (int64, error)
}
