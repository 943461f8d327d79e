package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"catalog-resolver-service/internal/apperrors"
	"catalog-resolver-service/internal/models"
	"catalog-resolver-service/internal/repository"
)

// RegistryService is the entity-resolution layer: one canonical identity per
// style number, with at most one link per supplier and a hard guarantee that a
// supplier part id never points at two different canonical styles.
type RegistryService struct {
	styles repository.StyleRepositoryInterface
	logger *logrus.Entry
}

// NewRegistryService creates a new canonical style registry service
func NewRegistryService(styles repository.StyleRepositoryInterface, logger *logrus.Logger) *RegistryService {
	return &RegistryService{
		styles: styles,
		logger: logrus.NewEntry(logger).WithField("component", "style_registry"),
	}
}

// EnsureCanonicalStyleLink finds or creates the canonical style for
// styleNumber and attaches the (supplier, supplierPartId) link. Idempotent:
// repeating identical arguments is a no-op. Linking a part that already
// belongs to a different canonical style fails with a ConflictError and
// mutates nothing. Display fields follow first-writer-wins: later calls never
// overwrite a non-null value.
func (s *RegistryService) EnsureCanonicalStyleLink(
	ctx context.Context,
	supplier models.Supplier,
	supplierPartID string,
	styleNumber string,
	displayName *string,
	brand *string,
) (*models.CanonicalStyle, error) {
	canonical, ok := models.ParseSupplier(string(supplier))
	if !ok {
		return nil, apperrors.NewValidationError("supplier", "unknown supplier "+string(supplier))
	}
	supplier = canonical
	partID := models.NormalizePartID(supplierPartID)
	if partID == "" {
		return nil, apperrors.NewValidationError("supplierPartId", "must not be empty")
	}
	number := models.NormalizeStyleNumber(styleNumber)
	if number == "" {
		return nil, apperrors.NewValidationError("styleNumber", "must not be empty")
	}

	err := s.styles.WithTransaction(ctx, func(repo repository.StyleRepositoryInterface) error {
		style, err := repo.FindStyleByNumber(ctx, number)
		if err != nil {
			return err
		}

		if style == nil {
			style = &models.CanonicalStyle{
				StyleNumber: number,
				DisplayName: displayName,
				Brand:       brand,
			}
			// The create runs in its own savepoint: a unique-index violation on
			// style_number aborts only the savepoint, leaving the enclosing
			// transaction usable for re-reading the racing winner's row.
			createErr := repo.WithTransaction(ctx, func(repo repository.StyleRepositoryInterface) error {
				return repo.CreateStyle(ctx, style)
			})
			if createErr != nil {
				winner, findErr := repo.FindStyleByNumber(ctx, number)
				if findErr != nil || winner == nil {
					return createErr
				}
				style = winner
			}
		} else if displayName != nil || brand != nil {
			if err := repo.BackfillStyleDisplay(ctx, style.ID, displayName, brand); err != nil {
				return err
			}
		}

		link, err := repo.FindLink(ctx, supplier, partID)
		if err != nil {
			return err
		}
		if link != nil {
			if link.CanonicalStyleID == style.ID {
				return nil
			}
			existing, err := repo.GetStyleByID(ctx, link.CanonicalStyleID)
			existingNumber := link.CanonicalStyleID.String()
			if err == nil && existing != nil {
				existingNumber = existing.StyleNumber
			}
			return &apperrors.ConflictError{
				Supplier:       string(supplier),
				SupplierPartID: partID,
				ExistingStyle:  existingNumber,
				RequestedStyle: number,
			}
		}

		return repo.CreateLink(ctx, &models.SupplierLink{
			CanonicalStyleID: style.ID,
			Supplier:         supplier,
			SupplierPartID:   partID,
		})
	})
	if err != nil {
		return nil, err
	}

	style, err := s.styles.FindStyleByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"styleNumber": number,
		"supplier":    supplier,
		"partId":      partID,
	}).Debug("canonical style link ensured")
	return style, nil
}

// GuessCanonicalStyleNumber derives a style number from a supplier part id
// when ingestion supplied none. Deterministic, used only by bulk-seeding
// paths, never by the query path.
func (s *RegistryService) GuessCanonicalStyleNumber(supplier models.Supplier, supplierPartID string, brand *string) string {
	partID := models.NormalizePartID(supplierPartID)
	if partID == "" {
		return ""
	}

	switch supplier {
	case models.SupplierRemote:
		// Remote SKUs are B-prefixed, zero-padded style numbers
		trimmed := strings.TrimPrefix(partID, "B")
		trimmed = strings.TrimLeft(trimmed, "0")
		if trimmed == "" {
			return "0"
		}
		return trimmed
	default:
		// Primary part ids carry "-COLOR" or "-SIZE" suffixes and sometimes a
		// brand prefix like "PA-"
		if brand != nil {
			prefix := strings.ToUpper(strings.TrimSpace(*brand))
			if len(prefix) >= 2 {
				partID = strings.TrimPrefix(partID, prefix[:2]+"-")
			}
		}
		if i := strings.Index(partID, "-"); i > 0 {
			return partID[:i]
		}
		return partID
	}
}

// FindCanonicalStyleByStyleNumber returns the canonical style for a style
// number, nil when absent
func (s *RegistryService) FindCanonicalStyleByStyleNumber(ctx context.Context, styleNumber string) (*models.CanonicalStyle, error) {
	number := models.NormalizeStyleNumber(styleNumber)
	if number == "" {
		return nil, apperrors.NewValidationError("styleNumber", "must not be empty")
	}
	return s.styles.FindStyleByNumber(ctx, number)
}

// CountCanonicalStyles returns the number of canonical styles
func (s *RegistryService) CountCanonicalStyles(ctx context.Context) (int64, error) {
	return s.styles.CountStyles(ctx)
}

// CountSupplierLinks returns the number of supplier links
func (s *RegistryService) CountSupplierLinks(ctx context.Context) (int64, error) {
	return s.styles.CountLinks(ctx)
}
