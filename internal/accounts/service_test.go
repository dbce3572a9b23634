package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgauth "github.com/dkwapong/storefront-backend/pkg/auth"
	"github.com/dkwapong/storefront-backend/pkg/config"
	"github.com/dkwapong/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dkwapong/storefront-backend/pkg/errors"
	"github.com/dkwapong/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront-api",
		Audience:          "storefront-web",
		ExpirationMinutes: 300,
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo, validator *stubPhoneValidator) Service {
	t.Helper()

	if validator == nil {
		validator = &stubPhoneValidator{valid: true}
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		Tx:             stubTxRunner{},
		PhoneValidator: validator,
		PasswordConfig: config.PasswordConfig{},
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestRegisterPersistsHashedPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     " Ama@Example.com ",
		Password:  "super-secret-1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Email != "ama@example.com" {
		t.Fatalf("expected normalized email, got %s", dto.Email)
	}

	stored := repo.users["ama@example.com"]
	if stored == nil {
		t.Fatal("expected user to be persisted")
	}
	if stored.PasswordHash == "super-secret-1" {
		t.Fatal("password must not be stored in plaintext")
	}
	valid, err := security.VerifyPassword("super-secret-1", stored.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("stored hash should verify, valid=%v err=%v", valid, err)
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	req := RegisterRequest{
		FirstName: "Kojo",
		LastName:  "Owusu",
		Email:     "kojo@example.com",
		Password:  "super-secret-1",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one stored user, got %d", len(repo.users))
	}
}

func TestRegisterInvalidPhone(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, &stubPhoneValidator{valid: false})

	phone := "12345"
	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Esi",
		LastName:  "Boateng",
		Email:     "esi@example.com",
		Password:  "super-secret-1",
		Phone:     &phone,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatal("invalid phone must not persist a user")
	}
}

func TestRegisterPhoneLookupFailure(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, &stubPhoneValidator{err: errors.New("boom")})

	phone := "14155550100"
	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Esi",
		LastName:  "Boateng",
		Email:     "esi@example.com",
		Password:  "super-secret-1",
		Phone:     &phone,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRegisterSkipsPhoneCheckWhenAbsent(t *testing.T) {
	repo := newStubUserRepo()
	validator := &stubPhoneValidator{valid: true}
	svc := buildTestService(t, repo, validator)

	if _, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Yaw",
		LastName:  "Darko",
		Email:     "yaw@example.com",
		Password:  "super-secret-1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if validator.calls != 0 {
		t.Fatalf("expected no lookup calls, got %d", validator.calls)
	}
}

func TestLoginMintsTokenWithEmailClaim(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	if _, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Password:  "super-secret-1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ama@example.com",
		Password: "super-secret-1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgauth.ParseSessionToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Email != "ama@example.com" {
		t.Fatalf("unexpected email claim %s", claims.Email)
	}
	userID, err := claims.UserID()
	if err != nil {
		t.Fatalf("parse subject: %v", err)
	}
	if userID != resp.User.ID {
		t.Fatalf("subject %s does not match user %s", userID, resp.User.ID)
	}
}

func TestLoginHidesAccountExistence(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	if _, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Password:  "super-secret-1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPass := svc.Login(context.Background(), LoginRequest{
		Email:    "ama@example.com",
		Password: "not-the-password",
	})
	_, unknownEmail := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "super-secret-1",
	})

	for _, err := range []error{wrongPass, unknownEmail} {
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	}
	if wrongPass.Error() != unknownEmail.Error() {
		t.Fatalf("error messages must not distinguish cases: %q vs %q", wrongPass, unknownEmail)
	}
}

func TestUpdateProfilePartialFields(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	if _, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Password:  "super-secret-1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	first := "Adjoa"
	if _, err := svc.UpdateProfile(context.Background(), "ama@example.com", UpdateProfileRequest{
		FirstName: &first,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(repo.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(repo.updates))
	}
	fields := repo.updates[0]
	if fields["first_name"] != "Adjoa" {
		t.Fatalf("unexpected first_name %v", fields["first_name"])
	}
	if _, ok := fields["last_name"]; ok {
		t.Fatal("last_name must not be written when absent")
	}
	if _, ok := fields["updated_at"]; !ok {
		t.Fatal("updated_at must always be stamped")
	}
}

func TestUpdateProfileIgnoresBlankValues(t *testing.T) {
	repo := newStubUserRepo()
	validator := &stubPhoneValidator{valid: true}
	svc := buildTestService(t, repo, validator)

	if _, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Password:  "super-secret-1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	empty := ""
	blankPhone := "   "
	last := "Mensah-Bonsu"
	if _, err := svc.UpdateProfile(context.Background(), "ama@example.com", UpdateProfileRequest{
		FirstName: &empty,
		LastName:  &last,
		Phone:     &blankPhone,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	fields := repo.updates[0]
	if _, ok := fields["first_name"]; ok {
		t.Fatal("blank first_name must be left untouched")
	}
	if _, ok := fields["phone"]; ok {
		t.Fatal("blank phone must not clear the stored number")
	}
	if fields["last_name"] != "Mensah-Bonsu" {
		t.Fatalf("unexpected last_name %v", fields["last_name"])
	}
	if validator.calls != 0 {
		t.Fatalf("blank phone must skip the lookup, got %d calls", validator.calls)
	}
}

func TestUpdateProfileAllBlankIsRejected(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	if _, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Password:  "super-secret-1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	empty := " "
	_, err := svc.UpdateProfile(context.Background(), "ama@example.com", UpdateProfileRequest{
		FirstName: &empty,
		LastName:  &empty,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.updates) != 0 {
		t.Fatalf("no update expected, got %d", len(repo.updates))
	}
}

func TestProfileReturnsAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	if _, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Password:  "super-secret-1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	dto, err := svc.Profile(context.Background(), " Ama@Example.com ")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if dto.Email != "ama@example.com" {
		t.Fatalf("unexpected email %s", dto.Email)
	}
	if dto.FirstName != "Ama" || dto.LastName != "Mensah" {
		t.Fatalf("unexpected name %s %s", dto.FirstName, dto.LastName)
	}
}

func TestProfileUnknownUserNotFound(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	_, err := svc.Profile(context.Background(), "ghost@example.com")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfileUnknownUserNotFound(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	first := "Adjoa"
	_, err := svc.UpdateProfile(context.Background(), "ghost@example.com", UpdateProfileRequest{
		FirstName: &first,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfileRejectsEmptyPatch(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo, nil)

	_, err := svc.UpdateProfile(context.Background(), "ama@example.com", UpdateProfileRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubPhoneValidator struct {
	valid bool
	err   error
	calls int
}

func (s *stubPhoneValidator) Validate(ctx context.Context, number string) (bool, error) {
	s.calls++
	return s.valid, s.err
}

type stubUserRepo struct {
	users   map[string]*models.User
	updates []map[string]any
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[string]*models.User{}}
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) UserRepository {
	return s
}

func (s *stubUserRepo) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	if _, exists := s.users[dto.Email]; exists {
		return nil, errors.New("duplicate key value violates unique constraint \"idx_users_email\"")
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	s.users[dto.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateByEmail(ctx context.Context, email string, fields map[string]any) (int64, error) {
	if _, ok := s.users[email]; !ok {
		return 0, nil
	}
	s.updates = append(s.updates, fields)
	if first, ok := fields["first_name"].(string); ok {
		s.users[email].FirstName = first
	}
	if last, ok := fields["last_name"].(string); ok {
		s.users[email].LastName = last
	}
	return 1, nil
}
