package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog-resolver-service/internal/apperrors"
	"catalog-resolver-service/internal/models"
	"catalog-resolver-service/internal/repository"
)

// MockStyleRepository is a mock implementation of StyleRepositoryInterface
type MockStyleRepository struct {
	mock.Mock
}

// WithTransaction invokes fn against the mock itself so expectations cover the
// transactional calls too
func (m *MockStyleRepository) WithTransaction(ctx context.Context, fn func(repo repository.StyleRepositoryInterface) error) error {
	m.Called(ctx)
	return fn(m)
}

func (m *MockStyleRepository) FindStyleByNumber(ctx context.Context, styleNumber string) (*models.CanonicalStyle, error) {
	args := m.Called(ctx, styleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CanonicalStyle), args.Error(1)
}

func (m *MockStyleRepository) GetStyleByID(ctx context.Context, id uuid.UUID) (*models.CanonicalStyle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CanonicalStyle), args.Error(1)
}

func (m *MockStyleRepository) CreateStyle(ctx context.Context, style *models.CanonicalStyle) error {
	args := m.Called(ctx, style)
	return args.Error(0)
}

func (m *MockStyleRepository) BackfillStyleDisplay(ctx context.Context, id uuid.UUID, displayName, brand *string) error {
	args := m.Called(ctx, id, displayName, brand)
	return args.Error(0)
}

func (m *MockStyleRepository) FindLink(ctx context.Context, supplier models.Supplier, supplierPartID string) (*models.SupplierLink, error) {
	args := m.Called(ctx, supplier, supplierPartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupplierLink), args.Error(1)
}

func (m *MockStyleRepository) CreateLink(ctx context.Context, link *models.SupplierLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockStyleRepository) CountStyles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStyleRepository) CountLinks(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStyleRepository) SearchCandidates(ctx context.Context, terms []string, limit int) ([]models.CanonicalStyle, error) {
	args := m.Called(ctx, terms, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CanonicalStyle), args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func strPtr(s string) *string { return &s }

func TestEnsureCanonicalStyleLinkCreatesStyleAndLink(t *testing.T) {
	repo := new(MockStyleRepository)
	service := NewRegistryService(repo, quietLogger())
	styleID := uuid.New()

	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("FindStyleByNumber", mock.Anything, "PC43").Return(nil, nil).Once()
	repo.On("CreateStyle", mock.Anything, mock.AnythingOfType("*models.CanonicalStyle")).
		Run(func(args mock.Arguments) {
			style := args.Get(1).(*models.CanonicalStyle)
			style.ID = styleID
			assert.Equal(t, "PC43", style.StyleNumber)
			require.NotNil(t, style.DisplayName)
			assert.Equal(t, "Port & Company Tee", *style.DisplayName)
		}).Return(nil).Once()
	repo.On("FindLink", mock.Anything, models.SupplierPrimary, "PC43-BLK").Return(nil, nil).Once()
	repo.On("CreateLink", mock.Anything, mock.MatchedBy(func(link *models.SupplierLink) bool {
		return link.CanonicalStyleID == styleID &&
			link.Supplier == models.SupplierPrimary &&
			link.SupplierPartID == "PC43-BLK"
	})).Return(nil).Once()
	repo.On("FindStyleByNumber", mock.Anything, "PC43").
		Return(&models.CanonicalStyle{ID: styleID, StyleNumber: "PC43"}, nil).Once()

	style, err := service.EnsureCanonicalStyleLink(context.Background(),
		models.SupplierPrimary, " pc43-blk ", " pc43 ", strPtr("Port & Company Tee"), nil)

	require.NoError(t, err)
	require.NotNil(t, style)
	assert.Equal(t, "PC43", style.StyleNumber)
	repo.AssertExpectations(t)
}

func TestEnsureCanonicalStyleLinkIsIdempotent(t *testing.T) {
	repo := new(MockStyleRepository)
	service := NewRegistryService(repo, quietLogger())
	styleID := uuid.New()
	existing := &models.CanonicalStyle{ID: styleID, StyleNumber: "PC43"}

	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("FindStyleByNumber", mock.Anything, "PC43").Return(existing, nil)
	repo.On("FindLink", mock.Anything, models.SupplierPrimary, "PC43-BLK").
		Return(&models.SupplierLink{CanonicalStyleID: styleID}, nil).Once()

	style, err := service.EnsureCanonicalStyleLink(context.Background(),
		models.SupplierPrimary, "PC43-BLK", "PC43", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, styleID, style.ID)
	repo.AssertNotCalled(t, "CreateStyle", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything)
}

func TestEnsureCanonicalStyleLinkBackfillsDisplayFields(t *testing.T) {
	repo := new(MockStyleRepository)
	service := NewRegistryService(repo, quietLogger())
	styleID := uuid.New()
	existing := &models.CanonicalStyle{ID: styleID, StyleNumber: "PC43"}
	name := strPtr("Port & Company Tee")
	brand := strPtr("Port & Company")

	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("FindStyleByNumber", mock.Anything, "PC43").Return(existing, nil)
	repo.On("BackfillStyleDisplay", mock.Anything, styleID, name, brand).Return(nil).Once()
	repo.On("FindLink", mock.Anything, models.SupplierPrimary, "PC43-BLK").Return(nil, nil).Once()
	repo.On("CreateLink", mock.Anything, mock.AnythingOfType("*models.SupplierLink")).Return(nil).Once()

	_, err := service.EnsureCanonicalStyleLink(context.Background(),
		models.SupplierPrimary, "PC43-BLK", "PC43", name, brand)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEnsureCanonicalStyleLinkRefusesReparenting(t *testing.T) {
	repo := new(MockStyleRepository)
	service := NewRegistryService(repo, quietLogger())
	requestedID := uuid.New()
	existingID := uuid.New()

	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("FindStyleByNumber", mock.Anything, "PC43").
		Return(&models.CanonicalStyle{ID: requestedID, StyleNumber: "PC43"}, nil).Once()
	repo.On("FindLink", mock.Anything, models.SupplierRemote, "00760").
		Return(&models.SupplierLink{CanonicalStyleID: existingID}, nil).Once()
	repo.On("GetStyleByID", mock.Anything, existingID).
		Return(&models.CanonicalStyle{ID: existingID, StyleNumber: "5000"}, nil).Once()

	_, err := service.EnsureCanonicalStyleLink(context.Background(),
		models.SupplierRemote, "00760", "PC43", nil, nil)

	require.Error(t, err)
	var ce *apperrors.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "5000", ce.ExistingStyle)
	assert.Equal(t, "PC43", ce.RequestedStyle)
	assert.Equal(t, "00760", ce.SupplierPartID)
	repo.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything)
}

func TestEnsureCanonicalStyleLinkRecoversFromCreateRace(t *testing.T) {
	repo := new(MockStyleRepository)
	service := NewRegistryService(repo, quietLogger())
	winnerID := uuid.New()
	winner := &models.CanonicalStyle{ID: winnerID, StyleNumber: "5000"}

	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("FindStyleByNumber", mock.Anything, "5000").Return(nil, nil).Once()
	repo.On("CreateStyle", mock.Anything, mock.AnythingOfType("*models.CanonicalStyle")).
		Return(errors.New("duplicate key value violates unique constraint")).Once()
	repo.On("FindStyleByNumber", mock.Anything, "5000").Return(winner, nil).Once()
	repo.On("FindLink", mock.Anything, models.SupplierRemote, "00760").Return(nil, nil).Once()
	repo.On("CreateLink", mock.Anything, mock.MatchedBy(func(link *models.SupplierLink) bool {
		return link.CanonicalStyleID == winnerID
	})).Return(nil).Once()
	repo.On("FindStyleByNumber", mock.Anything, "5000").Return(winner, nil).Once()

	style, err := service.EnsureCanonicalStyleLink(context.Background(),
		models.SupplierRemote, "00760", "5000", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, winnerID, style.ID)
	repo.AssertExpectations(t)
	// The create must run in its own nested transaction scope (a savepoint on
	// postgres) so the winner re-read still works after the duplicate-key abort
	repo.AssertNumberOfCalls(t, "WithTransaction", 2)
}

func TestEnsureCanonicalStyleLinkCanonicalizesSupplierValue(t *testing.T) {
	repo := new(MockStyleRepository)
	service := NewRegistryService(repo, quietLogger())
	styleID := uuid.New()
	existing := &models.CanonicalStyle{ID: styleID, StyleNumber: "PC43"}

	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("FindStyleByNumber", mock.Anything, "PC43").Return(existing, nil)
	repo.On("FindLink", mock.Anything, models.SupplierPrimary, "PC43-BLK").Return(nil, nil).Once()
	repo.On("CreateLink", mock.Anything, mock.MatchedBy(func(link *models.SupplierLink) bool {
		return link.Supplier == models.SupplierPrimary
	})).Return(nil).Once()

	// A lowercase supplier value must be stored and looked up in its canonical
	// form, never written through verbatim
	_, err := service.EnsureCanonicalStyleLink(context.Background(),
		models.Supplier("primary"), "PC43-BLK", "PC43", nil, nil)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEnsureCanonicalStyleLinkValidatesInput(t *testing.T) {
	repo := new(MockStyleRepository)
	service := NewRegistryService(repo, quietLogger())

	_, err := service.EnsureCanonicalStyleLink(context.Background(),
		models.Supplier("WHOLESALE"), "PC43-BLK", "PC43", nil, nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.EnsureCanonicalStyleLink(context.Background(),
		models.SupplierPrimary, "   ", "PC43", nil, nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.EnsureCanonicalStyleLink(context.Background(),
		models.SupplierPrimary, "PC43-BLK", "", nil, nil)
	assert.True(t, apperrors.IsValidation(err))

	repo.AssertNotCalled(t, "WithTransaction", mock.Anything)
}

func TestGuessCanonicalStyleNumber(t *testing.T) {
	service := NewRegistryService(new(MockStyleRepository), quietLogger())

	tests := []struct {
		supplier models.Supplier
		partID   string
		brand    *string
		want     string
	}{
		{models.SupplierRemote, "B00760033", nil, "760033"},
		{models.SupplierRemote, "00760", nil, "760"},
		{models.SupplierRemote, "B00000000", nil, "0"},
		{models.SupplierPrimary, "PC43-BLK", nil, "PC43"},
		{models.SupplierPrimary, "PA-5000-S", strPtr("Patagonia"), "5000"},
		{models.SupplierPrimary, "G2000", nil, "G2000"},
		{models.SupplierPrimary, "", nil, ""},
	}

	for _, tt := range tests {
		got := service.GuessCanonicalStyleNumber(tt.supplier, tt.partID, tt.brand)
		assert.Equal(t, tt.want, got, "supplier=%s partID=%q", tt.supplier, tt.partID)
	}
}

func TestFindCanonicalStyleByStyleNumberNormalizes(t *testing.T) {
	repo := new(MockStyleRepository)
	service := NewRegistryService(repo, quietLogger())

	repo.On("FindStyleByNumber", mock.Anything, "PC43").
		Return(&models.CanonicalStyle{StyleNumber: "PC43"}, nil).Once()

	style, err := service.FindCanonicalStyleByStyleNumber(context.Background(), "  pc43 ")
	require.NoError(t, err)
	assert.Equal(t, "PC43", style.StyleNumber)

	_, err = service.FindCanonicalStyleByStyleNumber(context.Background(), "   ")
	assert.True(t, apperrors.IsValidation(err))
}
