package implementation

import (
	"context"
	"errors"

	"friendlist-be/internal/entity"
	"friendlist-be/internal/mapper"
	"friendlist-be/internal/model"
	"friendlist-be/internal/repository/contract"
	"friendlist-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ItemMapper
}

func NewItemRepository(db *gorm.DB) contract.ItemRepository {
	return &ItemRepositoryImpl{
		db:     db,
		mapper: mapper.NewItemMapper(),
	}
}

func (r *ItemRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ItemRepositoryImpl) Create(ctx context.Context, item *entity.Item) error {
	m := r.mapper.ToModel(item)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*item = *r.mapper.ToEntity(m)
	return nil
}

func (r *ItemRepositoryImpl) Update(ctx context.Context, item *entity.Item) error {
	m := r.mapper.ToModel(item)
	// Save writes zero values too, so done=false and a cleared link persist.
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*item = *r.mapper.ToEntity(m)
	return nil
}

func (r *ItemRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Item{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ItemRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Item, error) {
	var m model.Item
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ItemRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Item, error) {
	var models []*model.Item
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ItemRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Item{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
