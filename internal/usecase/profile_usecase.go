package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"danicandles/internal/domain/model"
	repo "danicandles/internal/repository"
)

type ProfileUsecase struct {
	profiles    repo.ProfileRepository
	adminEmails map[string]struct{}
}

// adminEmails は初回起動用のブートストラップ。以降のロール変更はDBで行う。
func NewProfileUsecase(profiles repo.ProfileRepository, adminEmails []string) *ProfileUsecase {
	set := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = normalizeEmail(e)
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return &ProfileUsecase{profiles: profiles, adminEmails: set}
}

// Resolve は呼び出し元のプロフィールを返す。無ければ作る。
func (u *ProfileUsecase) Resolve(ctx context.Context, p Principal) (model.Profile, error) {
	if p.UserID == "" {
		return model.Profile{}, errors.New("principal has no user id")
	}

	prof, err := u.profiles.FindByID(ctx, p.UserID)
	if err == nil {
		return prof, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Profile{}, fmt.Errorf("find profile: %w", err)
	}

	role := model.RoleCustomer
	if _, ok := u.adminEmails[normalizeEmail(p.Email)]; ok {
		role = model.RoleAdmin
	}
	if err := u.profiles.CreateIfAbsent(ctx, model.Profile{
		UserID: p.UserID,
		Email:  p.Email,
		Role:   role,
	}); err != nil {
		return model.Profile{}, fmt.Errorf("create profile: %w", err)
	}

	//同時に作られた場合もあるので読み直す
	prof, err = u.profiles.FindByID(ctx, p.UserID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("reload profile: %w", err)
	}
	return prof, nil
}

// Bootstrap は起動時に既存プロフィールを管理者に昇格させる。
func (u *ProfileUsecase) Bootstrap(ctx context.Context) (int64, error) {
	if len(u.adminEmails) == 0 {
		return 0, nil
	}
	emails := make([]string, 0, len(u.adminEmails))
	for e := range u.adminEmails {
		emails = append(emails, e)
	}
	n, err := u.profiles.PromoteByEmails(ctx, emails, model.RoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("promote admins: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "bootstrap admins promoted", slog.Int64("count", n))
	}
	return n, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
