package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-resolver-service/internal/models"
)

// StyleRepositoryInterface defines canonical style registry storage operations
type StyleRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn func(repo StyleRepositoryInterface) error) error
	FindStyleByNumber(ctx context.Context, styleNumber string) (*models.CanonicalStyle, error)
	GetStyleByID(ctx context.Context, id uuid.UUID) (*models.CanonicalStyle, error)
	CreateStyle(ctx context.Context, style *models.CanonicalStyle) error
	BackfillStyleDisplay(ctx context.Context, id uuid.UUID, displayName, brand *string) error
	FindLink(ctx context.Context, supplier models.Supplier, supplierPartID string) (*models.SupplierLink, error)
	CreateLink(ctx context.Context, link *models.SupplierLink) error
	CountStyles(ctx context.Context) (int64, error)
	CountLinks(ctx context.Context) (int64, error)
	SearchCandidates(ctx context.Context, terms []string, limit int) ([]models.CanonicalStyle, error)
}

// StyleRepository handles canonical style and supplier link database operations
type StyleRepository struct {
	db *gorm.DB
}

// Ensure StyleRepository implements the interface
var _ StyleRepositoryInterface = (*StyleRepository)(nil)

// NewStyleRepository creates a new style repository
func NewStyleRepository(db *gorm.DB) *StyleRepository {
	return &StyleRepository{db: db}
}

// WithTransaction runs fn against a transactional copy of the repository.
// Nested calls become savepoints, so an inner failure aborts only the inner
// scope.
func (r *StyleRepository) WithTransaction(ctx context.Context, fn func(repo StyleRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&StyleRepository{db: tx})
	})
}

// FindStyleByNumber retrieves a canonical style by its normalized style
// number, links preloaded. Returns nil when absent.
func (r *StyleRepository) FindStyleByNumber(ctx context.Context, styleNumber string) (*models.CanonicalStyle, error) {
	var style models.CanonicalStyle
	err := r.db.WithContext(ctx).
		Preload("Links").
		Where("style_number = ?", styleNumber).
		First(&style).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &style, nil
}

// GetStyleByID retrieves a canonical style by id, links preloaded. Returns nil
// when absent.
func (r *StyleRepository) GetStyleByID(ctx context.Context, id uuid.UUID) (*models.CanonicalStyle, error) {
	var style models.CanonicalStyle
	err := r.db.WithContext(ctx).Preload("Links").First(&style, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &style, nil
}

// CreateStyle creates a new canonical style. The unique index on style_number
// serializes racing first-link creators at the storage layer.
func (r *StyleRepository) CreateStyle(ctx context.Context, style *models.CanonicalStyle) error {
	return r.db.WithContext(ctx).Create(style).Error
}

// BackfillStyleDisplay sets display fields only where currently unset.
// First writer wins; later values never overwrite.
func (r *StyleRepository) BackfillStyleDisplay(ctx context.Context, id uuid.UUID, displayName, brand *string) error {
	updates := map[string]interface{}{}
	if displayName != nil {
		updates["display_name"] = gorm.Expr("COALESCE(display_name, ?)", *displayName)
	}
	if brand != nil {
		updates["brand"] = gorm.Expr("COALESCE(brand, ?)", *brand)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CanonicalStyle{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// FindLink retrieves a supplier link by its (supplier, supplierPartId) natural
// key. Returns nil when absent.
func (r *StyleRepository) FindLink(ctx context.Context, supplier models.Supplier, supplierPartID string) (*models.SupplierLink, error) {
	var link models.SupplierLink
	err := r.db.WithContext(ctx).
		Where("supplier = ? AND supplier_part_id = ?", supplier, supplierPartID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateLink creates a new supplier link
func (r *StyleRepository) CreateLink(ctx context.Context, link *models.SupplierLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// CountStyles returns the number of canonical styles
func (r *StyleRepository) CountStyles(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CanonicalStyle{}).Count(&count).Error
	return count, err
}

// CountLinks returns the number of supplier links
func (r *StyleRepository) CountLinks(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SupplierLink{}).Count(&count).Error
	return count, err
}

// SearchCandidates pulls canonical styles whose style number, display name,
// brand, or any linked supplier part id relates to one of the search terms.
// Candidate generation only: scoring happens in the search service.
func (r *StyleRepository) SearchCandidates(ctx context.Context, terms []string, limit int) ([]models.CanonicalStyle, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 200
	}

	query := r.db.WithContext(ctx).Model(&models.CanonicalStyle{}).Preload("Links")

	var conditions []string
	var args []interface{}
	for _, term := range terms {
		pattern := "%" + escapeLikeTerm(term) + "%"
		conditions = append(conditions,
			"style_number ILIKE ?",
			"display_name ILIKE ?",
			"brand ILIKE ?",
			"id IN (SELECT canonical_style_id FROM supplier_links WHERE supplier_part_id ILIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}

	var styles []models.CanonicalStyle
	err := query.
		Where(strings.Join(conditions, " OR "), args...).
		Order("style_number ASC").
		Limit(limit).
		Find(&styles).Error
	if err != nil {
		return nil, err
	}
	return styles, nil
}

// likeEscaper neutralizes LIKE/ILIKE wildcards in user-supplied terms so a
// query like "10%" matches the literal characters instead of over-fetching
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLikeTerm(term string) string {
	return likeEscaper.Replace(term)
}
