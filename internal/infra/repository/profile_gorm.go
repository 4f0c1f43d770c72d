package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"danicandles/internal/domain/model"
	domainrepo "danicandles/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewProfileGormRepository(db *gorm.DB) domainrepo.ProfileRepository {
	return &profileGormRepository{db: db}
}

// IDでプロフィールを1件取得
func (r *profileGormRepository) FindByID(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Profile{}, domainrepo.ErrNotFound
		}
		return model.Profile{}, err
	}

	return p, nil
}

// 初回アクセス時に作る。同時リクエストで競合しても片方は何もしない。
func (r *profileGormRepository) CreateIfAbsent(ctx context.Context, p model.Profile) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Role == "" {
		p.Role = model.RoleCustomer
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&p).Error
}

// 既に admin のプロフィールは降格させない
func (r *profileGormRepository) PromoteByEmails(ctx context.Context, emails []string, role model.Role) (int64, error) {
	lowered := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			lowered = append(lowered, e)
		}
	}
	if len(lowered) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("lower(email) IN ? AND role <> ?", lowered, role).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
